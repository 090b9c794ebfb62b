package executors

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"tradesim/src/activation"
	"tradesim/src/model"
)

type closerStub struct {
	calls atomic.Int32
	days  int
	err   map[string]error
}

func (c *closerStub) CloseOlderThan(_ context.Context, symbol string, days int) ([]model.Order, error) {
	c.calls.Add(1)
	c.days = days
	if err := c.err[symbol]; err != nil {
		return nil, err
	}
	return []model.Order{{Status: model.OrderStatusClosed}}, nil
}

type recommenderStub struct {
	symbols []string
}

func (r *recommenderStub) Recommend(_ context.Context, symbol string) ([]activation.Recommendation, error) {
	r.symbols = append(r.symbols, symbol)
	return []activation.Recommendation{{Reason: activation.ReasonNoStopLoss}}, nil
}

func TestSweeper_RunContinuesAfterFailure(t *testing.T) {
	cfg := testConfig()
	cfg.Symbols = []string{"gbpusd", "EURUSD"}
	cfg.CloseAfterDays = 3

	closer := &closerStub{err: map[string]error{"GBPUSD": errors.New("db down")}}
	recommender := &recommenderStub{}
	recorder := &memoryRecorder{}

	sweeper, err := NewSweeper(closer, recommender, recorder, cfg)
	require.NoError(t, err)

	err = sweeper.Run(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "sweep GBPUSD")
	require.Equal(t, int32(2), closer.calls.Load())
	require.Equal(t, 3, closer.days)
	require.Equal(t, []string{"EURUSD"}, recommender.symbols)
	require.Len(t, recorder.excs, 1)
	require.Equal(t, "internal", recorder.excs[0].Category)
}

func TestNewSweeper_Validation(t *testing.T) {
	cfg := testConfig()
	cfg.CloseAfterDays = 0
	_, err := NewSweeper(&closerStub{}, &recommenderStub{}, nil, cfg)
	require.ErrorIs(t, err, model.ErrValidation)

	cfg = testConfig()
	cfg.Symbols = nil
	_, err = NewSweeper(&closerStub{}, &recommenderStub{}, nil, cfg)
	require.ErrorIs(t, err, model.ErrValidation)
}

func TestStartSweepLoop(t *testing.T) {
	closer := &closerStub{}
	sweeper, err := NewSweeper(closer, &recommenderStub{}, nil, testConfig())
	require.NoError(t, err)

	err = StartSweepLoop(context.Background(), sweeper, "not a schedule")
	require.ErrorIs(t, err, model.ErrValidation)

	ctx, cancel := context.WithTimeout(context.Background(), 2500*time.Millisecond)
	defer cancel()
	require.NoError(t, StartSweepLoop(ctx, sweeper, "* * * * * *"))
	require.GreaterOrEqual(t, closer.calls.Load(), int32(1))
}

func TestGetConfig_Defaults(t *testing.T) {
	cfg := GetConfig()
	require.Equal(t, []string{"EURUSD"}, cfg.Symbols)
	require.Equal(t, []string{"BUY", "SELL"}, cfg.OrderTypes)
	require.True(t, cfg.Simulator)
	require.Equal(t, 7, cfg.CloseAfterDays)
}
