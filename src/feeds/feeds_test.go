package feeds

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"tradesim/src/model"
)

func drain(t *testing.T, ticks <-chan model.Tick, errs <-chan error) ([]model.Tick, []error) {
	t.Helper()
	var gotTicks []model.Tick
	var gotErrs []error
	timeout := time.After(5 * time.Second)
	for ticks != nil || errs != nil {
		select {
		case tick, ok := <-ticks:
			if !ok {
				ticks = nil
				continue
			}
			gotTicks = append(gotTicks, tick)
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			gotErrs = append(gotErrs, err)
		case <-timeout:
			t.Fatalf("feed did not finish")
		}
	}
	return gotTicks, gotErrs
}

func TestCSVSource_ReplaysRows(t *testing.T) {
	input := strings.Join([]string{
		"symbol,timestamp,bid,ask",
		"eurusd,2025-03-04T10:00:00Z,1.1000,1.1002",
		"EURUSD,not-a-time,1.1000,1.1002",
		"EURUSD,2025-03-04T10:00:01Z,1.1003,1.1001",
		"GBPUSD,2025-03-04T11:00:00+01:00,1.2500,1.2502",
	}, "\n")

	tickCh, errCh := NewCSVSource(strings.NewReader(input)).Ticks(context.Background())
	ticks, errs := drain(t, tickCh, errCh)

	require.Len(t, ticks, 2)
	require.Equal(t, "EURUSD", ticks[0].SymbolName)
	require.Equal(t, "GBPUSD", ticks[1].SymbolName)
	require.True(t, time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC).Equal(ticks[1].Timestamp))
	require.Equal(t, time.UTC, ticks[1].Timestamp.Location())

	require.Len(t, errs, 2)
	require.ErrorIs(t, errs[0], model.ErrValidation)
	require.Contains(t, errs[0].Error(), "line 3")
	require.ErrorIs(t, errs[1], model.ErrInvariantViolation)
}

func TestCSVSource_MissingFile(t *testing.T) {
	tickCh, errCh := NewCSVFileSource(t.TempDir() + "/missing.csv").Ticks(context.Background())
	ticks, errs := drain(t, tickCh, errCh)
	require.Empty(t, ticks)
	require.Len(t, errs, 1)
}

func TestWebsocketSource_StreamsTicks(t *testing.T) {
	upgrader := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	subscribed := make(chan string, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		_, sub, err := conn.ReadMessage()
		if err != nil {
			return
		}
		subscribed <- string(sub)

		messages := []string{
			`{"symbol":"EURUSD","timestamp":"2025-03-04T10:00:00Z","bid":"1.1000","ask":"1.1002"}`,
			`{"symbol":`,
			`{"symbol":"EURUSD","timestamp":"2025-03-04T10:00:01Z","bid":1.1001,"ask":1.1003}`,
		}
		for _, msg := range messages {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return
			}
		}
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		// wait for the client to go away
		_, _, _ = conn.ReadMessage()
	}))
	defer srv.Close()

	source, err := NewWebsocketSource(WebsocketConfig{
		Endpoint:             "ws" + strings.TrimPrefix(srv.URL, "http"),
		SubscriptionMessages: [][]byte{[]byte(`{"subscribe":["EURUSD"]}`)},
	})
	require.NoError(t, err)

	tickCh, errCh := source.Ticks(context.Background())
	ticks, errs := drain(t, tickCh, errCh)

	require.Equal(t, `{"subscribe":["EURUSD"]}`, <-subscribed)
	require.Len(t, ticks, 2)
	require.Equal(t, "1.1001", ticks[1].Bid.String())
	require.True(t, ticks[0].Timestamp.Before(ticks[1].Timestamp))
	require.Len(t, errs, 1)
	require.ErrorIs(t, errs[0], model.ErrValidation)
}

func TestWebsocketSource_StopsOnCancel(t *testing.T) {
	upgrader := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	source, err := NewWebsocketSource(WebsocketConfig{Endpoint: "ws" + strings.TrimPrefix(srv.URL, "http")})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	ticks, errs := source.Ticks(ctx)
	time.AfterFunc(100*time.Millisecond, cancel)

	got, gotErrs := drain(t, ticks, errs)
	require.Empty(t, got)
	require.Empty(t, gotErrs)
}

func TestNewWebsocketSource_RequiresEndpoint(t *testing.T) {
	_, err := NewWebsocketSource(WebsocketConfig{})
	require.ErrorIs(t, err, model.ErrValidation)
}
