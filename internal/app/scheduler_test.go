package app

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestSchedulerReportsPool(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)

	var calls atomic.Int32
	stats := func() PoolStats {
		calls.Add(1)
		return PoolStats{Total: 4, Idle: 0, Acquired: 4, Max: 4}
	}

	s := NewScheduler(stats, 5*time.Millisecond, zap.New(core))
	s.Start(context.Background())

	assert.Eventually(t, func() bool { return calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	s.Stop()

	assert.NotZero(t, logs.FilterMessage("Database pool exhausted").Len())
	assert.Equal(t, 1, logs.FilterMessage("Pool report task stopped").Len())
}

func TestSchedulerStopsOnContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := NewScheduler(func() PoolStats { return PoolStats{Max: 10, Acquired: 1} }, time.Hour, zap.NewNop())
	s.Start(ctx)
	cancel()

	select {
	case <-s.done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop after cancel")
	}
}
