package ingest

import (
	"context"
	"strings"

	logger "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"tradesim/src/activation"
	"tradesim/src/executors"
	"tradesim/src/feeds"
	"tradesim/src/matcher"
	"tradesim/src/model"
	"tradesim/src/orders"
	"tradesim/src/repository"
	"tradesim/src/security"
	"tradesim/src/server"
	"tradesim/src/ticks"
)

// Ingest feeds ticks through the simulation pipeline. The ops server and the
// sweep loop run alongside until the feed ends.
type Ingest struct {
	Log        *logger.Entry
	DB         *gorm.DB
	Config     *Config
	Pipeline   executors.Config
	Activation activation.Config
	Reference  executors.SymbolFetcher
	Port       string
	APIKeyHash string
}

func (i *Ingest) Start(ctx context.Context) error {
	if i.Config == nil {
		i.Config = GetConfig()
	}
	if i.Log == nil {
		i.Log = logger.WithField("cmd", "ingest")
	}

	source, err := i.source()
	if err != nil {
		return err
	}

	trades := repository.NewTradeRepository().WithDB(i.DB)
	tickRepo := repository.NewTickRepository().WithDB(i.DB)
	exceptionRepo := repository.NewExceptionRepository().WithDB(i.DB)
	symbolRepo := repository.NewSymbolRepository().WithDB(i.DB)
	symbols := executors.NewSymbolResolver(symbolRepo, i.Reference)

	tickService := ticks.NewService(tickRepo)
	engine := orders.NewEngine(trades, symbols, tickRepo)
	policy := activation.NewPolicy(trades, i.Activation)

	pipeline, err := executors.NewPipeline(symbols, tickService, engine, matcher.NewMatcher(trades), exceptionRepo, i.Pipeline)
	if err != nil {
		return err
	}

	var sweeper *executors.Sweeper
	if i.Config.Sweep {
		if sweeper, err = executors.NewSweeper(engine, policy, exceptionRepo, i.Pipeline); err != nil {
			return err
		}
	}

	runCtx, stop := context.WithCancel(ctx)
	defer stop()
	group, gctx := errgroup.WithContext(runCtx)

	if i.Config.Serve {
		router := server.NewRouter(server.API{
			Engine:     engine,
			Ticks:      tickService,
			Policy:     policy,
			Trades:     trades,
			Exceptions: exceptionRepo,
			Symbols:    symbolRepo,
			Verifier:   security.NewVerifier(i.APIKeyHash),
		})
		group.Go(func() error { return server.StartServer(gctx, i.Port, router) })
	}
	if sweeper != nil {
		group.Go(func() error { return executors.StartSweepLoop(gctx, sweeper, i.Pipeline.SweepSchedule) })
	}

	group.Go(func() error {
		// the feed ending stops the server and the sweep loop
		defer stop()
		i.Log.WithField("feed", i.Config.Feed).Info("pipeline started")
		return pipeline.Run(gctx, source)
	})

	return group.Wait()
}

func (i *Ingest) source() (feeds.Source, error) {
	switch strings.ToLower(i.Config.Feed) {
	case "csv":
		return feeds.NewCSVFileSource(i.Config.File), nil
	case "websocket", "ws":
		cfg := feeds.WebsocketConfig{Endpoint: i.Config.WebsocketURL}
		if i.Config.WebsocketSubscribe != "" {
			cfg.SubscriptionMessages = [][]byte{[]byte(i.Config.WebsocketSubscribe)}
		}
		return feeds.NewWebsocketSource(cfg)
	default:
		return nil, &model.ValidationError{Field: "INGEST_FEED", Reason: "unsupported feed " + i.Config.Feed}
	}
}
