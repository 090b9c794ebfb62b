package activate

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/google/uuid"
	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"tradesim/src/activation"
	"tradesim/src/repository"
)

// Activate prints the trades recommended for activation and, with Apply,
// activates them.
type Activate struct {
	Log        *logger.Entry
	DB         *gorm.DB
	Activation activation.Config
	Symbol     string
	Apply      bool
	Out        io.Writer
}

func (a *Activate) Start(ctx context.Context) error {
	if a.Log == nil {
		a.Log = logger.WithField("cmd", "activate")
	}
	symbol := strings.ToUpper(strings.TrimSpace(a.Symbol))
	if symbol == "" {
		return fmt.Errorf("symbol is required")
	}

	trades := repository.NewTradeRepository().WithDB(a.DB)
	recs, err := activation.NewPolicy(trades, a.Activation).Recommend(ctx, symbol)
	if err != nil {
		return err
	}

	if a.Out != nil {
		w := tabwriter.NewWriter(a.Out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "TRADE\tSCOPE\tWEEKDAY\tSLOT\tSPREAD\tTP\tSL\tBALANCE\tREASON\tWIN RATE")
		for _, rec := range recs {
			t := rec.Trade
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%d\t%s\t%s\t%d\n",
				t.ID, t.Scope, t.SlotWeek, t.Slot(), t.SpreadMax, t.TakeProfit, t.StopLoss, t.Balance.String(), rec.Reason, rec.WinRate)
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}

	if !a.Apply || len(recs) == 0 {
		a.Log.WithFields(map[string]interface{}{
			"symbol":      symbol,
			"recommended": len(recs),
			"applied":     false,
		}).Info("activation evaluated")
		return nil
	}

	ids := make([]uuid.UUID, 0, len(recs))
	for _, rec := range recs {
		ids = append(ids, rec.Trade.ID)
	}
	n, err := trades.SetActive(ctx, ids, true)
	if err != nil {
		return err
	}
	a.Log.WithFields(map[string]interface{}{
		"symbol":    symbol,
		"activated": n,
	}).Info("trades activated")
	return nil
}
