package connectors

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradesim/src/model"
)

func newTestReferenceClient(url string) *ReferenceClient {
	c := NewReferenceClient(Config{ReferenceBaseURL: url, ReferenceAPIKey: "secret", ReferenceRetries: 3})
	c.http.SetRetryWaitTime(time.Millisecond).SetRetryMaxWaitTime(5 * time.Millisecond)
	return c
}

func TestReferenceClient_Symbol(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/symbols/EURUSD", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("X-API-Key"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"name":"eurusd","currency_base":"EUR","currency_quote":"USD","digits":5,"swap_long":"-0.71","swap_short":0.12}`))
	}))
	defer srv.Close()

	symbol, err := newTestReferenceClient(srv.URL).Symbol(context.Background(), "eurusd")
	require.NoError(t, err)
	require.Equal(t, "EURUSD", symbol.Name)
	require.Equal(t, 5, symbol.Digits)
	require.Equal(t, "-0.71", symbol.SwapLong.String())
}

func TestReferenceClient_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"code":"UNKNOWN_SYMBOL","message":"no such symbol"}`))
	}))
	defer srv.Close()

	_, err := newTestReferenceClient(srv.URL).Symbol(context.Background(), "XAUXAG")
	require.ErrorIs(t, err, model.ErrNotFound)
}

func TestReferenceClient_RetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"name":"USDJPY","currency_base":"USD","currency_quote":"JPY","digits":2}`))
	}))
	defer srv.Close()

	symbol, err := newTestReferenceClient(srv.URL).Symbol(context.Background(), "USDJPY")
	require.NoError(t, err)
	require.Equal(t, 2, symbol.Digits)
	require.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestReferenceClient_RejectsInvalidReferenceData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"name":"EURUSD","currency_base":"EUR","currency_quote":"USD","digits":0}`))
	}))
	defer srv.Close()

	_, err := newTestReferenceClient(srv.URL).Symbol(context.Background(), "EURUSD")
	require.ErrorIs(t, err, model.ErrInvariantViolation)
}

func TestIsRetryableResp(t *testing.T) {
	require.True(t, isRetryableResp(nil, context.DeadlineExceeded))
	require.False(t, isRetryableResp(nil, nil))
}
