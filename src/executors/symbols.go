package executors

import (
	"context"
	"errors"
	"strings"
	"sync"

	logger "github.com/sirupsen/logrus"

	"tradesim/src/model"
)

type SymbolStore interface {
	GetByName(ctx context.Context, name string) (*model.Symbol, error)
	Upsert(ctx context.Context, symbol *model.Symbol) error
}

// SymbolFetcher loads reference data from the system that owns it.
type SymbolFetcher interface {
	Symbol(ctx context.Context, name string) (*model.Symbol, error)
}

// SymbolResolver serves symbols from memory, then from the local store, then
// from the reference service. Symbols fetched remotely are stored locally.
type SymbolResolver struct {
	store  SymbolStore
	remote SymbolFetcher

	mu    sync.RWMutex
	cache map[string]model.Symbol
}

// NewSymbolResolver accepts a nil remote, in which case unknown symbols stay
// unknown.
func NewSymbolResolver(store SymbolStore, remote SymbolFetcher) *SymbolResolver {
	return &SymbolResolver{
		store:  store,
		remote: remote,
		cache:  make(map[string]model.Symbol),
	}
}

func (r *SymbolResolver) GetByName(ctx context.Context, name string) (*model.Symbol, error) {
	name = strings.ToUpper(strings.TrimSpace(name))

	r.mu.RLock()
	cached, ok := r.cache[name]
	r.mu.RUnlock()
	if ok {
		return &cached, nil
	}

	symbol, err := r.store.GetByName(ctx, name)
	if errors.Is(err, model.ErrNotFound) && r.remote != nil {
		symbol, err = r.fetch(ctx, name)
	}
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.cache[name] = *symbol
	r.mu.Unlock()
	return symbol, nil
}

func (r *SymbolResolver) fetch(ctx context.Context, name string) (*model.Symbol, error) {
	symbol, err := r.remote.Symbol(ctx, name)
	if err != nil {
		return nil, err
	}
	if err := r.store.Upsert(ctx, symbol); err != nil {
		return nil, err
	}
	logger.WithFields(map[string]interface{}{
		"op":     "ResolveSymbol",
		"symbol": symbol.Name,
		"digits": symbol.Digits,
	}).Info("symbol imported from reference service")
	return symbol, nil
}
