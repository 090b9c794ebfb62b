package generate

import (
	"context"
	"fmt"
	"strings"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"tradesim/src/executors"
	"tradesim/src/generator"
	"tradesim/src/model"
	"tradesim/src/repository"
)

// Generate creates the trade variants of every configured scope.
type Generate struct {
	Log       *logger.Entry
	DB        *gorm.DB
	Config    *Config
	Generator generator.Config
	// Reference resolves symbols missing from the database; nil disables it.
	Reference executors.SymbolFetcher
}

func (g *Generate) Start(ctx context.Context) error {
	if g.Config == nil {
		g.Config = GetConfig()
	}
	if g.Log == nil {
		g.Log = logger.WithField("cmd", "generate")
	}

	trades := repository.NewTradeRepository().WithDB(g.DB)
	symbols := executors.NewSymbolResolver(repository.NewSymbolRepository().WithDB(g.DB), g.Reference)

	scopes, err := g.scopes(ctx, symbols)
	if err != nil {
		return err
	}

	if g.Config.Replace {
		for _, scope := range scopes {
			n, err := trades.DeleteByScope(ctx, scope)
			if err != nil {
				return fmt.Errorf("clear scope %s: %w", scope, err)
			}
			g.Log.WithFields(map[string]interface{}{
				"scope":   scope.String(),
				"deleted": n,
			}).Info("scope cleared")
		}
	}

	created, err := generator.NewGenerator(trades, g.Generator).Generate(ctx, scopes)
	if err != nil {
		return err
	}

	g.Log.WithFields(map[string]interface{}{
		"scopes": len(scopes),
		"trades": len(created),
	}).Info("generation finished")
	return nil
}

func (g *Generate) scopes(ctx context.Context, symbols *executors.SymbolResolver) ([]model.Scope, error) {
	if len(g.Config.Symbols) == 0 || len(g.Config.TimeFrames) == 0 {
		return nil, &model.ValidationError{Field: "scopes", Reason: "at least one symbol and one timeframe are required"}
	}

	var scopes []model.Scope
	for _, name := range g.Config.Symbols {
		symbol, err := symbols.GetByName(ctx, strings.ToUpper(strings.TrimSpace(name)))
		if err != nil {
			return nil, fmt.Errorf("resolve symbol %s: %w", name, err)
		}
		for _, raw := range g.Config.TimeFrames {
			tf, err := model.ParseTimeFrame(raw)
			if err != nil {
				return nil, err
			}
			scopes = append(scopes, model.Scope{SymbolName: symbol.Name, TimeFrame: tf})
		}
	}
	return scopes, nil
}
