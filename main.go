package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	logger "github.com/sirupsen/logrus"

	"tradesim/src/activation"
	"tradesim/src/database"
	"tradesim/src/executors"
	"tradesim/src/orders"
	"tradesim/src/repository"
	"tradesim/src/security"
	"tradesim/src/server"
	"tradesim/src/ticks"
)

var APP_NAME = os.Getenv("APP_NAME")

func SetupLogger() {
	levelStr := strings.ToLower(os.Getenv("LOG_LEVEL"))

	level, err := logger.ParseLevel(levelStr)
	if err != nil {
		level = logger.DebugLevel
	}

	logger.SetLevel(level)
	logger.SetFormatter(&logger.TextFormatter{
		FullTimestamp: true,
	})
}

// main serves the read API and the operator endpoints over the simulation
// database without ingesting ticks.
func main() {
	SetupLogger()
	defer handlePanic()

	if err := database.InitMainDB(); err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}

	trades := repository.NewTradeRepository()
	tickRepo := repository.NewTickRepository()
	symbolRepo := repository.NewSymbolRepository()
	symbols := executors.NewSymbolResolver(symbolRepo, nil)

	router := server.NewRouter(server.API{
		Engine:     orders.NewEngine(trades, symbols, tickRepo),
		Ticks:      ticks.NewService(tickRepo),
		Policy:     activation.NewPolicy(trades, activation.GetConfig()),
		Trades:     trades,
		Exceptions: repository.NewExceptionRepository(),
		Symbols:    symbolRepo,
		Verifier:   security.NewVerifier(security.GetConfig().OpsAPIKeyHash),
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.StartServer(ctx, server.GetConfig().Port, router); err != nil {
		logger.WithError(err).Error("Server stopped with error")
	}
}

func handlePanic() {
	if r := recover(); r != nil {
		logger.WithError(fmt.Errorf("%+v", r)).Error(fmt.Sprintf("Application %s panic", APP_NAME))
		//nolint
		time.Sleep(time.Second * 5)
	}
}
