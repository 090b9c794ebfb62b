package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"tradesim/cmd/activate"
	"tradesim/cmd/generate"
	"tradesim/cmd/ingest"
	"tradesim/cmd/sweep"
	"tradesim/src/activation"
	"tradesim/src/connectors"
	"tradesim/src/database"
	"tradesim/src/executors"
	"tradesim/src/generator"
	"tradesim/src/security"
	"tradesim/src/server"
)

var Version string

func main() {
	app := cli.NewApp()
	app.Name = "tradesim"
	app.Usage = "The trade scenario simulator command line interface"
	app.Version = Version
	app.Before = setupLogger

	app.Commands = []cli.Command{
		generateCMD,
		ingestCMD,
		sweepCMD,
		activateCMD,
		hashKeyCMD,
	}

	if err := app.Run(os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var (
	generateCMD = cli.Command{
		Name:   "generate",
		Usage:  "generate trade variants",
		Action: generateAction,
		Flags: []cli.Flag{
			cli.StringSliceFlag{Name: "symbol", Usage: "symbol to generate for (repeatable, default SIM_SYMBOLS)"},
			cli.StringSliceFlag{Name: "timeframe", Usage: "timeframe to generate for (repeatable, default SIM_TIMEFRAMES)"},
			cli.BoolFlag{Name: "replace", Usage: "delete the existing trades of each scope first"},
		},
		Description: `Expand the configured spread/take profit/stop loss bands over every weekday and time slot`,
	}
	ingestCMD = cli.Command{
		Name:   "ingest",
		Usage:  "run the tick pipeline",
		Action: ingestAction,
		Flags: []cli.Flag{
			cli.StringFlag{Name: "feed", Usage: "csv or websocket (default INGEST_FEED)"},
			cli.StringFlag{Name: "file", Usage: "csv replay file (default INGEST_FILE)"},
			cli.StringFlag{Name: "url", Usage: "websocket endpoint (default INGEST_WS_URL)"},
			cli.BoolFlag{Name: "sweep", Usage: "run the sweep loop while ingesting"},
			cli.BoolFlag{Name: "no-serve", Usage: "do not start the ops server"},
		},
		Description: `Store ticks, revalue open orders and open orders on matching trades`,
	}
	sweepCMD = cli.Command{
		Name:   "sweep",
		Usage:  "close old orders and report activation candidates",
		Action: sweepAction,
		Flags: []cli.Flag{
			cli.BoolFlag{Name: "once", Usage: "run a single sweep and exit"},
		},
		Description: `Run the sweep on SWEEP_SCHEDULE until interrupted`,
	}
	activateCMD = cli.Command{
		Name:   "activate",
		Usage:  "list and optionally activate recommended trades",
		Action: activateAction,
		Flags: []cli.Flag{
			cli.StringFlag{Name: "symbol", Usage: "symbol to evaluate"},
			cli.BoolFlag{Name: "apply", Usage: "activate the recommended trades"},
		},
		Description: `Evaluate the activation policy for one symbol`,
	}
	hashKeyCMD = cli.Command{
		Name:        "hash-key",
		Usage:       "print the bcrypt hash of an ops API key",
		Action:      hashKeyAction,
		ArgsUsage:   "<key>",
		Description: `Produce the value for OPS_API_KEY_HASH`,
	}
)

func setupLogger(_ *cli.Context) error {
	config := database.GetConfig()

	level, err := logrus.ParseLevel(strings.ToLower(config.LogLevel))
	if err != nil {
		level = logrus.DebugLevel
	}
	logrus.SetLevel(level)

	if strings.EqualFold(config.LogFormat, "json") {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func referenceClient() executors.SymbolFetcher {
	config := connectors.GetConfig()
	if config.ReferenceBaseURL == "" {
		return nil
	}
	return connectors.NewReferenceClient(config)
}

func generateAction(c *cli.Context) error {
	logrus.Info("Starting generate CMD")
	if err := database.InitMainDB(); err != nil {
		logrus.WithError(err).Fatal("Failed to connect to database")
	}

	config := generate.GetConfig()
	if symbols := c.StringSlice("symbol"); len(symbols) > 0 {
		config.Symbols = symbols
	}
	if timeFrames := c.StringSlice("timeframe"); len(timeFrames) > 0 {
		config.TimeFrames = timeFrames
	}
	if c.Bool("replace") {
		config.Replace = true
	}

	ctx, stop := signalContext()
	defer stop()

	cmd := &generate.Generate{
		Log:       logrus.WithField("cmd", "generate"),
		DB:        database.MainDB,
		Config:    config,
		Generator: generator.GetConfig(),
		Reference: referenceClient(),
	}
	if err := cmd.Start(ctx); err != nil {
		logrus.WithError(err).Error("Starting generate cmd")
		return err
	}
	return nil
}

func ingestAction(c *cli.Context) error {
	logrus.Info("Starting ingest CMD")
	if err := database.InitMainDB(); err != nil {
		logrus.WithError(err).Fatal("Failed to connect to database")
	}

	config := ingest.GetConfig()
	if feed := c.String("feed"); feed != "" {
		config.Feed = feed
	}
	if file := c.String("file"); file != "" {
		config.File = file
	}
	if url := c.String("url"); url != "" {
		config.WebsocketURL = url
	}
	if c.Bool("sweep") {
		config.Sweep = true
	}
	if c.Bool("no-serve") {
		config.Serve = false
	}

	ctx, stop := signalContext()
	defer stop()

	cmd := &ingest.Ingest{
		Log:        logrus.WithField("cmd", "ingest"),
		DB:         database.MainDB,
		Config:     config,
		Pipeline:   executors.GetConfig(),
		Activation: activation.GetConfig(),
		Reference:  referenceClient(),
		Port:       server.GetConfig().Port,
		APIKeyHash: security.GetConfig().OpsAPIKeyHash,
	}
	if err := cmd.Start(ctx); err != nil {
		logrus.WithError(err).Error("Starting ingest cmd")
		return err
	}
	return nil
}

func sweepAction(c *cli.Context) error {
	logrus.Info("Starting sweep CMD")
	if err := database.InitMainDB(); err != nil {
		logrus.WithError(err).Fatal("Failed to connect to database")
	}

	ctx, stop := signalContext()
	defer stop()

	cmd := &sweep.Sweep{
		Log:        logrus.WithField("cmd", "sweep"),
		DB:         database.MainDB,
		Config:     executors.GetConfig(),
		Activation: activation.GetConfig(),
		Once:       c.Bool("once"),
	}
	if err := cmd.Start(ctx); err != nil {
		logrus.WithError(err).Error("Starting sweep cmd")
		return err
	}
	return nil
}

func activateAction(c *cli.Context) error {
	logrus.Info("Starting activate CMD")
	if err := database.InitMainDB(); err != nil {
		logrus.WithError(err).Fatal("Failed to connect to database")
	}

	ctx, stop := signalContext()
	defer stop()

	cmd := &activate.Activate{
		Log:        logrus.WithField("cmd", "activate"),
		DB:         database.MainDB,
		Activation: activation.GetConfig(),
		Symbol:     c.String("symbol"),
		Apply:      c.Bool("apply"),
		Out:        os.Stdout,
	}
	if err := cmd.Start(ctx); err != nil {
		logrus.WithError(err).Error("Starting activate cmd")
		return err
	}
	return nil
}

func hashKeyAction(c *cli.Context) error {
	hashed, err := security.HashAPIKey(c.Args().First())
	if err != nil {
		return err
	}
	fmt.Println(hashed)
	return nil
}
