package executors

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	logger "github.com/sirupsen/logrus"

	"tradesim/src/exceptions"
	"tradesim/src/feeds"
	"tradesim/src/model"
	"tradesim/src/observability"
)

type SymbolLookup interface {
	GetByName(ctx context.Context, name string) (*model.Symbol, error)
}

type TickAdder interface {
	Add(ctx context.Context, tick model.Tick) (model.Tick, error)
}

type OrderEngine interface {
	Open(ctx context.Context, tradeID uuid.UUID, tick model.Tick, orderType model.OrderType, simulator bool) (*model.Order, error)
	Revalue(ctx context.Context, tick model.Tick) ([]model.Order, error)
}

type TradeMatcher interface {
	Match(ctx context.Context, scope model.Scope, tick model.Tick, digits int) ([]model.Trade, error)
}

// Pipeline drives every tick through ingestion, revaluation of open orders
// and matching. Ticks of one symbol are handled in arrival order by a single
// worker; different symbols run in parallel.
type Pipeline struct {
	symbols  SymbolLookup
	ticks    TickAdder
	engine   OrderEngine
	matcher  TradeMatcher
	recorder exceptions.Recorder

	timeFrames []model.TimeFrame
	orderTypes []model.OrderType
	simulator  bool
	buffer     int
}

func NewPipeline(
	symbols SymbolLookup,
	ticks TickAdder,
	engine OrderEngine,
	matcher TradeMatcher,
	recorder exceptions.Recorder,
	config Config,
) (*Pipeline, error) {
	timeFrames, err := config.parseTimeFrames()
	if err != nil {
		return nil, err
	}
	orderTypes, err := config.parseOrderTypes()
	if err != nil {
		return nil, err
	}
	buffer := config.ChannelBuffer
	if buffer <= 0 {
		buffer = 1
	}
	return &Pipeline{
		symbols:    symbols,
		ticks:      ticks,
		engine:     engine,
		matcher:    matcher,
		recorder:   recorder,
		timeFrames: timeFrames,
		orderTypes: orderTypes,
		simulator:  config.Simulator,
		buffer:     buffer,
	}, nil
}

// Run consumes source until it is exhausted or ctx is cancelled. Per tick
// failures are recorded and never stop the run.
func (p *Pipeline) Run(ctx context.Context, source feeds.Source) error {
	ticks, errs := source.Ticks(ctx)

	var wg sync.WaitGroup
	workers := make(map[string]chan model.Tick)
	defer func() {
		for _, ch := range workers {
			close(ch)
		}
		wg.Wait()
		logger.WithField("symbols", len(workers)).Info("pipeline stopped")
	}()

	for ticks != nil || errs != nil {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			observability.RecordPipelineError("feed", model.ErrorCategory(err))
			exceptions.Capture(ctx, p.recorder, p.source("Feed"), "", err, nil)
		case tick, ok := <-ticks:
			if !ok {
				ticks = nil
				continue
			}
			ch, found := workers[tick.SymbolName]
			if !found {
				ch = make(chan model.Tick, p.buffer)
				workers[tick.SymbolName] = ch
				wg.Add(1)
				go p.worker(ctx, &wg, tick.SymbolName, ch)
			}
			select {
			case ch <- tick:
			case <-ctx.Done():
				return nil
			}
		}
	}
	return nil
}

func (p *Pipeline) worker(ctx context.Context, wg *sync.WaitGroup, symbol string, ch <-chan model.Tick) {
	defer wg.Done()
	log := logger.WithFields(map[string]interface{}{
		"op":     "PipelineWorker",
		"symbol": symbol,
	})
	log.Debug("worker started")

	for tick := range ch {
		if ctx.Err() != nil {
			continue
		}
		_ = p.Process(ctx, tick)
	}
	log.Debug("worker stopped")
}

// Process handles a single tick synchronously. Every failing step is recorded;
// the returned error joins them.
func (p *Pipeline) Process(ctx context.Context, tick model.Tick) error {
	started := time.Now()
	symbolName := tick.SymbolName

	symbol, err := p.symbols.GetByName(ctx, symbolName)
	if err != nil {
		p.fail(ctx, "symbol", "ResolveSymbol", symbolName, err, nil)
		return err
	}

	stored, err := p.ticks.Add(ctx, tick)
	if err != nil {
		observability.RecordTickRejected(symbolName, model.ErrorCategory(err))
		p.fail(ctx, "tick", "AddTick", symbolName, err, map[string]interface{}{
			"timestamp": tick.Timestamp,
		})
		return err
	}

	var errs []error
	if _, err := p.engine.Revalue(ctx, stored); err != nil {
		p.fail(ctx, "revalue", "Revalue", symbolName, err, map[string]interface{}{"tick_id": stored.ID})
		errs = append(errs, err)
	}

	for _, tf := range p.timeFrames {
		scope := model.Scope{SymbolName: symbol.Name, TimeFrame: tf}
		trades, err := p.matcher.Match(ctx, scope, stored, symbol.Digits)
		if err != nil {
			p.fail(ctx, "match", "Match", symbolName, err, map[string]interface{}{"scope": scope.String()})
			errs = append(errs, err)
			continue
		}
		for _, trade := range trades {
			for _, orderType := range p.orderTypes {
				if _, err := p.engine.Open(ctx, trade.ID, stored, orderType, p.simulator); err != nil {
					p.fail(ctx, "open", "Open", symbolName, err, map[string]interface{}{
						"trade_id":   trade.ID,
						"order_type": orderType,
					})
					errs = append(errs, err)
				}
			}
		}
	}

	observability.RecordTickProcessed(symbolName, time.Since(started).Seconds(), stored.Timestamp.Unix())
	if len(errs) > 0 {
		return fmt.Errorf("tick %s %s: %w", symbolName, stored.Timestamp.Format(time.RFC3339Nano), errors.Join(errs...))
	}
	return nil
}

func (p *Pipeline) fail(ctx context.Context, step, method, symbol string, err error, data map[string]interface{}) {
	observability.RecordPipelineError(step, model.ErrorCategory(err))
	exceptions.Capture(ctx, p.recorder, p.source(method), symbol, err, data)
}

func (p *Pipeline) source(method string) exceptions.Source {
	return exceptions.Source{Service: "pipeline", Module: "executors", Method: method}
}
