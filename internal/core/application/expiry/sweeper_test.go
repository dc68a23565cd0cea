package expiry_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nftswap/swapd/internal/core/application/expiry"
	"github.com/stretchr/testify/require"
)

type countingExpirer struct {
	calls int32
	err   error
}

func (e *countingExpirer) ExpireStaleTrades(context.Context) (int, error) {
	atomic.AddInt32(&e.calls, 1)
	return 1, e.err
}

func (e *countingExpirer) count() int32 {
	return atomic.LoadInt32(&e.calls)
}

func TestSweeper(t *testing.T) {
	t.Run("runs on schedule", func(t *testing.T) {
		expirer := &countingExpirer{}
		sweeper, err := expiry.NewSweeper(expirer, "@every 1s")
		require.NoError(t, err)

		sweeper.Start()
		sweeper.Start()
		require.Eventually(t, func() bool {
			return expirer.count() >= 1
		}, 3*time.Second, 50*time.Millisecond)
		sweeper.Stop()

		count := expirer.count()
		time.Sleep(1500 * time.Millisecond)
		require.Equal(t, count, expirer.count())
	})

	t.Run("sweep now", func(t *testing.T) {
		expirer := &countingExpirer{err: errors.New("store unavailable")}
		sweeper, err := expiry.NewSweeper(expirer, "@every 1m")
		require.NoError(t, err)

		_, err = sweeper.SweepNow(context.Background())
		require.Error(t, err)
		require.Equal(t, int32(1), expirer.count())
	})
}

func TestFailingNewSweeper(t *testing.T) {
	tests := []struct {
		name     string
		expirer  expiry.TradeExpirer
		schedule string
	}{
		{
			name:     "missing expirer",
			schedule: "@every 1m",
		},
		{
			name:     "invalid schedule",
			expirer:  &countingExpirer{},
			schedule: "every minute",
		},
	}

	for i := range tests {
		tt := tests[i]
		t.Run(tt.name, func(t *testing.T) {
			sweeper, err := expiry.NewSweeper(tt.expirer, tt.schedule)
			require.Error(t, err)
			require.Nil(t, sweeper)
		})
	}
}
