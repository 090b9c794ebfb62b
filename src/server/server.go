package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	logger "github.com/sirupsen/logrus"

	"tradesim/src/activation"
	"tradesim/src/auth"
	"tradesim/src/handler"
	"tradesim/src/observability"
	"tradesim/src/orders"
	"tradesim/src/repository"
	"tradesim/src/security"
	"tradesim/src/ticks"
)

// API holds what the routes are served from. Nil members leave their routes
// unregistered.
type API struct {
	Engine     *orders.Engine
	Ticks      *ticks.Service
	Policy     *activation.Policy
	Trades     *repository.TradeRepository
	Exceptions *repository.ExceptionRepository
	Symbols    *repository.SymbolRepository
	Verifier   *security.Verifier
}

func NewRouter(api API) http.Handler {
	r := chi.NewRouter()
	// === Global Middleware ===
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	// Public routes
	r.Get("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("OK")); err != nil {
			logger.WithError(err).Error("healthcheck write error")
		}
	})
	r.Handle("/metrics", observability.Handler())

	if api.Symbols != nil {
		r.Get("/symbols", handler.SymbolsHandler(api.Symbols))
	}
	r.Route("/symbols/{symbol}", func(r chi.Router) {
		if api.Engine != nil {
			r.Get("/orders", handler.OrdersHandler(api.Engine))
		}
		if api.Ticks != nil {
			r.Get("/ticks", handler.TickHistoryHandler(api.Ticks))
			r.Get("/ticks/latest", handler.LatestTickHandler(api.Ticks))
		}
		if api.Policy != nil {
			r.Get("/recommendations", handler.RecommendationsHandler(api.Policy))
			if api.Trades != nil {
				// Protected routes
				r.With(auth.RequireAPIKey(api.Verifier)).
					Post("/activations", handler.ActivateHandler(api.Policy, api.Trades))
			}
		}
	})
	if api.Exceptions != nil {
		r.Get("/exceptions", handler.ExceptionsHandler(api.Exceptions))
	}

	return r
}

// StartServer serves h on port until ctx is cancelled, then shuts down
// gracefully.
func StartServer(ctx context.Context, port string, h http.Handler) error {
	addr := ":" + port
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("Listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.WithError(err).Error("Server crashed")
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), GetConfig().ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Shutdown error")
		return err
	}
	return nil
}
