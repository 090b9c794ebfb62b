package feeds

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	logger "github.com/sirupsen/logrus"

	"tradesim/src/model"
)

const (
	defaultPingPeriod       = 15 * time.Second
	defaultWriteTimeout     = 5 * time.Second
	defaultHandshakeTimeout = 10 * time.Second
	defaultReadLimit        = 1 << 20
)

type WebsocketConfig struct {
	Endpoint string
	Header   http.Header

	// Sent once right after the handshake.
	SubscriptionMessages [][]byte

	PingPeriod   time.Duration
	WriteTimeout time.Duration
}

// WebsocketSource streams JSON encoded Message values from a live quote feed.
// The stream ends when the connection drops or ctx is cancelled.
type WebsocketSource struct {
	cfg    WebsocketConfig
	dialer *websocket.Dialer
}

func NewWebsocketSource(cfg WebsocketConfig) (*WebsocketSource, error) {
	if cfg.Endpoint == "" {
		return nil, &model.ValidationError{Field: "feed endpoint", Reason: "endpoint URL is required"}
	}
	if cfg.PingPeriod <= 0 {
		cfg.PingPeriod = defaultPingPeriod
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = defaultWriteTimeout
	}
	return &WebsocketSource{
		cfg: cfg,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: defaultHandshakeTimeout,
		},
	}, nil
}

func (s *WebsocketSource) Ticks(ctx context.Context) (<-chan model.Tick, <-chan error) {
	ticks := make(chan model.Tick, 256)
	errs := make(chan error, 16)

	go func() {
		defer close(ticks)
		defer close(errs)

		log := logger.WithFields(map[string]interface{}{
			"feed":     "websocket",
			"endpoint": s.cfg.Endpoint,
		})

		conn, _, err := s.dialer.DialContext(ctx, s.cfg.Endpoint, s.cfg.Header)
		if err != nil {
			send[error](ctx, errs, fmt.Errorf("dial %s: %w", s.cfg.Endpoint, err))
			return
		}
		conn.SetReadLimit(defaultReadLimit)
		log.Info("feed connected")

		for _, msg := range s.cfg.SubscriptionMessages {
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				_ = conn.Close()
				send[error](ctx, errs, fmt.Errorf("subscribe: %w", err))
				return
			}
		}

		done := make(chan struct{})
		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.keepAlive(ctx, conn, done, log)
		}()
		defer func() {
			close(done)
			_ = conn.Close()
			wg.Wait()
			log.Info("feed disconnected")
		}()

		for {
			_, payload, err := conn.ReadMessage()
			if err != nil {
				if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					return
				}
				send[error](ctx, errs, fmt.Errorf("read: %w", err))
				return
			}

			tick, err := decodeMessage(payload)
			if err != nil {
				if !send[error](ctx, errs, err) {
					return
				}
				continue
			}
			if !send(ctx, ticks, tick) {
				return
			}
		}
	}()

	return ticks, errs
}

// keepAlive pings the server and closes the connection when ctx ends so the
// blocked reader returns.
func (s *WebsocketSource) keepAlive(ctx context.Context, conn *websocket.Conn, done <-chan struct{}, log *logger.Entry) {
	ticker := time.NewTicker(s.cfg.PingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			deadline := time.Now().Add(s.cfg.WriteTimeout)
			msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
			if err := conn.WriteControl(websocket.CloseMessage, msg, deadline); err != nil && !errors.Is(err, websocket.ErrCloseSent) {
				log.WithError(err).Debug("close frame not sent")
			}
			_ = conn.Close()
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(s.cfg.WriteTimeout)); err != nil {
				log.WithError(err).Warn("ping failed")
				return
			}
		}
	}
}

func decodeMessage(payload []byte) (model.Tick, error) {
	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		return model.Tick{}, &model.ValidationError{Field: "feed message", Reason: err.Error()}
	}
	return msg.Tick()
}
