package executors

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"tradesim/src/database"
	"tradesim/src/feeds"
	"tradesim/src/matcher"
	"tradesim/src/model"
	"tradesim/src/orders"
	"tradesim/src/repository"
	"tradesim/src/ticks"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open(database.Config{
		Driver:          "sqlite",
		DatabaseURLMain: fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()),
		GormLogLevel:    1,
		MaxOpenConns:    1,
		MaxIdleConns:    1,
	})
	if err != nil {
		t.Fatalf("failed to open in memory db: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

type referenceStub struct {
	calls int
}

func (r *referenceStub) Symbol(_ context.Context, name string) (*model.Symbol, error) {
	r.calls++
	if name != "EURUSD" {
		return nil, &model.NotFoundError{Entity: "symbol", Key: name}
	}
	return &model.Symbol{Name: "EURUSD", CurrencyBase: "EUR", CurrencyQuote: "USD", Digits: 4}, nil
}

func testConfig() Config {
	return Config{
		Symbols:        []string{"EURUSD"},
		TimeFrames:     []string{"M15"},
		OrderTypes:     []string{"BUY", "SELL"},
		Simulator:      true,
		ChannelBuffer:  8,
		CloseAfterDays: 7,
	}
}

func TestPipeline_RunOpensAndClosesOrders(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	tradeRepo := repository.NewTradeRepository().WithDB(db)
	tickRepo := repository.NewTickRepository().WithDB(db)
	exceptionRepo := repository.NewExceptionRepository().WithDB(db)
	reference := &referenceStub{}
	symbols := NewSymbolResolver(repository.NewSymbolRepository().WithDB(db), reference)

	scope := model.Scope{SymbolName: "EURUSD", TimeFrame: model.TimeFrameM15}
	slot := model.TimeSlot{Start: model.NewTimeOfDay(10, 0, 0), End: model.NewTimeOfDay(10, 14, 59)}
	trade, err := model.NewTrade(scope, 2, 20, 10, time.Tuesday, slot)
	require.NoError(t, err)
	require.NoError(t, tradeRepo.SaveAll(ctx, []model.Trade{trade}))
	_, err = tradeRepo.SetActive(ctx, []uuid.UUID{trade.ID}, true)
	require.NoError(t, err)

	pipeline, err := NewPipeline(
		symbols,
		ticks.NewService(tickRepo),
		orders.NewEngine(tradeRepo, symbols, tickRepo),
		matcher.NewMatcher(tradeRepo),
		exceptionRepo,
		testConfig(),
	)
	require.NoError(t, err)

	replay := strings.Join([]string{
		"symbol,timestamp,bid,ask",
		"EURUSD,2025-03-04T10:00:00Z,1.1000,1.1001",
		"EURUSD,2025-03-04T10:00:00Z,1.1000,1.1001",
		"EURUSD,2025-03-04T10:20:00Z,1.1021,1.1022",
	}, "\n")
	require.NoError(t, pipeline.Run(ctx, feeds.NewCSVSource(strings.NewReader(replay))))

	stored, err := tickRepo.FindBySymbol(ctx, "EURUSD")
	require.NoError(t, err)
	require.Len(t, stored, 2)

	reloaded, err := tradeRepo.GetByID(ctx, trade.ID)
	require.NoError(t, err)
	require.Len(t, reloaded.Orders, 2)
	require.Equal(t, 1, reloaded.CountOrders(model.OrderStatusTakeProfit))
	require.Equal(t, 1, reloaded.CountOrders(model.OrderStatusStopLoss))
	// BUY +20 at take profit, SELL -22 at stop loss
	require.Equal(t, "-2", reloaded.Balance.String())
	for _, o := range reloaded.Orders {
		require.True(t, o.Simulator)
		require.Len(t, o.HistoricProfit, 2)
	}

	excs, err := exceptionRepo.FindRecent(ctx, "EURUSD", 10)
	require.NoError(t, err)
	require.Len(t, excs, 1)
	require.Equal(t, "out_of_order", excs[0].Category)

	require.Equal(t, 1, reference.calls, "symbol is fetched once then served locally")
}

type fakeSymbols struct{}

func (fakeSymbols) GetByName(_ context.Context, name string) (*model.Symbol, error) {
	if name != "EURUSD" {
		return nil, &model.NotFoundError{Entity: "symbol", Key: name}
	}
	return &model.Symbol{Name: "EURUSD", CurrencyBase: "EUR", CurrencyQuote: "USD", Digits: 4}, nil
}

type fakeTicks struct {
	mu    sync.Mutex
	added []model.Tick
}

func (f *fakeTicks) Add(_ context.Context, tick model.Tick) (model.Tick, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	tick.ID = uuid.New()
	f.added = append(f.added, tick)
	return tick, nil
}

type fakeEngine struct {
	mu       sync.Mutex
	revalued int
	opened   []model.OrderType
	openErr  error
}

func (f *fakeEngine) Open(_ context.Context, tradeID uuid.UUID, tick model.Tick, orderType model.OrderType, _ bool) (*model.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.openErr != nil {
		return nil, f.openErr
	}
	f.opened = append(f.opened, orderType)
	return &model.Order{ID: uuid.New(), TradeID: tradeID, OpenTickID: tick.ID, OrderType: orderType}, nil
}

func (f *fakeEngine) Revalue(context.Context, model.Tick) ([]model.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revalued++
	return nil, nil
}

type fakeMatcher struct {
	scopes []model.Scope
	trades []model.Trade
}

func (f *fakeMatcher) Match(_ context.Context, scope model.Scope, _ model.Tick, _ int) ([]model.Trade, error) {
	f.scopes = append(f.scopes, scope)
	return f.trades, nil
}

type memoryRecorder struct {
	mu   sync.Mutex
	excs []model.Exception
}

func (m *memoryRecorder) Create(_ context.Context, exc *model.Exception) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.excs = append(m.excs, *exc)
	return nil
}

func TestPipeline_ProcessMatchesEveryTimeFrame(t *testing.T) {
	cfg := testConfig()
	cfg.TimeFrames = []string{"m15", "H1", "M15"}

	engine := &fakeEngine{}
	match := &fakeMatcher{trades: []model.Trade{{ID: uuid.New()}, {ID: uuid.New()}}}
	pipeline, err := NewPipeline(fakeSymbols{}, &fakeTicks{}, engine, match, nil, cfg)
	require.NoError(t, err)

	tick := model.Tick{SymbolName: "EURUSD", Timestamp: time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC)}
	require.NoError(t, pipeline.Process(context.Background(), tick))

	require.Equal(t, []model.Scope{
		{SymbolName: "EURUSD", TimeFrame: model.TimeFrameM15},
		{SymbolName: "EURUSD", TimeFrame: model.TimeFrameH1},
	}, match.scopes)
	require.Equal(t, 1, engine.revalued)
	require.Len(t, engine.opened, 2*2*2)
}

func TestPipeline_ProcessRecordsFailures(t *testing.T) {
	recorder := &memoryRecorder{}
	engine := &fakeEngine{openErr: &model.NotFoundError{Entity: "trade", Key: "gone"}}
	match := &fakeMatcher{trades: []model.Trade{{ID: uuid.New()}}}
	pipeline, err := NewPipeline(fakeSymbols{}, &fakeTicks{}, engine, match, recorder, testConfig())
	require.NoError(t, err)

	tick := model.Tick{SymbolName: "EURUSD", Timestamp: time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC)}
	err = pipeline.Process(context.Background(), tick)
	require.ErrorIs(t, err, model.ErrNotFound)
	require.Len(t, recorder.excs, 2)
	require.Equal(t, "Open", recorder.excs[0].Method)

	unknown := tick
	unknown.SymbolName = "XAUXAG"
	err = pipeline.Process(context.Background(), unknown)
	require.ErrorIs(t, err, model.ErrNotFound)
	require.Len(t, recorder.excs, 3)
	require.Equal(t, "ResolveSymbol", recorder.excs[2].Method)
}

func TestNewPipeline_RejectsBadConfig(t *testing.T) {
	cfg := testConfig()
	cfg.OrderTypes = []string{"HOLD"}
	_, err := NewPipeline(fakeSymbols{}, &fakeTicks{}, &fakeEngine{}, &fakeMatcher{}, nil, cfg)
	require.ErrorIs(t, err, model.ErrValidation)

	cfg = testConfig()
	cfg.TimeFrames = nil
	_, err = NewPipeline(fakeSymbols{}, &fakeTicks{}, &fakeEngine{}, &fakeMatcher{}, nil, cfg)
	require.ErrorIs(t, err, model.ErrValidation)
}

type sliceSource struct {
	ticks []model.Tick
	errs  []error
}

func (s sliceSource) Ticks(ctx context.Context) (<-chan model.Tick, <-chan error) {
	ticks := make(chan model.Tick)
	errs := make(chan error, len(s.errs))
	for _, err := range s.errs {
		errs <- err
	}
	close(errs)
	go func() {
		defer close(ticks)
		for _, tick := range s.ticks {
			select {
			case ticks <- tick:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ticks, errs
}

func TestPipeline_RunKeepsPerSymbolOrder(t *testing.T) {
	added := &fakeTicks{}
	pipeline, err := NewPipeline(fakeSymbols{}, added, &fakeEngine{}, &fakeMatcher{}, nil, testConfig())
	require.NoError(t, err)

	base := time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC)
	var input []model.Tick
	for i := 0; i < 50; i++ {
		input = append(input, model.Tick{SymbolName: "EURUSD", Timestamp: base.Add(time.Duration(i) * time.Second)})
	}
	source := sliceSource{ticks: input, errs: []error{&model.ValidationError{Field: "feed message", Reason: "bad"}}}
	require.NoError(t, pipeline.Run(context.Background(), source))

	require.Len(t, added.added, 50)
	for i := 1; i < len(added.added); i++ {
		require.True(t, added.added[i-1].Timestamp.Before(added.added[i].Timestamp))
	}
}
