package sweep

import (
	"context"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"tradesim/src/activation"
	"tradesim/src/executors"
	"tradesim/src/orders"
	"tradesim/src/repository"
)

// Sweep closes orders past their age limit and reports activation candidates,
// once or on the configured schedule.
type Sweep struct {
	Log        *logger.Entry
	DB         *gorm.DB
	Config     executors.Config
	Activation activation.Config
	Once       bool
}

func (s *Sweep) Start(ctx context.Context) error {
	if s.Log == nil {
		s.Log = logger.WithField("cmd", "sweep")
	}

	trades := repository.NewTradeRepository().WithDB(s.DB)
	tickRepo := repository.NewTickRepository().WithDB(s.DB)
	symbols := repository.NewSymbolRepository().WithDB(s.DB)

	sweeper, err := executors.NewSweeper(
		orders.NewEngine(trades, symbols, tickRepo),
		activation.NewPolicy(trades, s.Activation),
		repository.NewExceptionRepository().WithDB(s.DB),
		s.Config,
	)
	if err != nil {
		return err
	}

	if s.Once {
		s.Log.Info("running a single sweep")
		return sweeper.Run(ctx)
	}
	return executors.StartSweepLoop(ctx, sweeper, s.Config.SweepSchedule)
}
