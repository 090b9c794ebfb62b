package ingest

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"testing"
	"time"

	logger "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"tradesim/src/database"
	"tradesim/src/executors"
	"tradesim/src/model"
)

func freePort(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()
	return strconv.Itoa(l.Addr().(*net.TCPAddr).Port)
}

func TestStart_InvalidSweepConfigStartsNothing(t *testing.T) {
	db, err := database.Open(database.Config{
		Driver:          "sqlite",
		DatabaseURLMain: fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()),
		GormLogLevel:    1,
		MaxOpenConns:    1,
		MaxIdleConns:    1,
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	hook := test.NewGlobal()
	defer hook.Reset()
	logger.SetLevel(logger.InfoLevel)

	i := &Ingest{
		DB:     db,
		Config: &Config{Feed: "csv", File: "missing.csv", Serve: true, Sweep: true},
		Pipeline: executors.Config{
			Symbols:        []string{"EURUSD"},
			TimeFrames:     []string{"M15"},
			OrderTypes:     []string{"BUY"},
			ChannelBuffer:  1,
			SweepSchedule:  "* * * * * *",
			CloseAfterDays: 0,
		},
		Port: freePort(t),
	}

	err = i.Start(context.Background())
	require.ErrorIs(t, err, model.ErrValidation)

	// give a stray server goroutine time to report itself
	time.Sleep(200 * time.Millisecond)
	for _, entry := range hook.AllEntries() {
		if strings.HasPrefix(entry.Message, "Listening on") {
			t.Fatalf("server started although the sweep config was rejected")
		}
	}
}
