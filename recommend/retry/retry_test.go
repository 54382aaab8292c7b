package retry

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDo(t *testing.T) {
	ctx := context.Background()

	t.Run("SucceedsFirstTry", func(t *testing.T) {
		calls := 0
		err := Do(ctx, 3, time.Millisecond, func(context.Context) error {
			calls++
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("RetriesUntilSuccess", func(t *testing.T) {
		calls := 0
		err := Do(ctx, 3, time.Millisecond, func(context.Context) error {
			calls++
			if calls < 3 {
				return errors.New("transient")
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("ReturnsLastErrorAfterAllAttempts", func(t *testing.T) {
		calls := 0
		err := Do(ctx, 3, time.Millisecond, func(context.Context) error {
			calls++
			return errors.Errorf("attempt %d failed", calls)
		})
		require.Error(t, err)
		assert.Equal(t, 3, calls)
		assert.Contains(t, err.Error(), "attempt 3")
	})

	t.Run("StopsOnContextCancellation", func(t *testing.T) {
		cancelCtx, cancel := context.WithCancel(ctx)
		calls := 0
		err := Do(cancelCtx, 5, time.Hour, func(context.Context) error {
			calls++
			cancel()
			return errors.New("transient")
		})
		require.Error(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("ZeroAttemptsStillRunsOnce", func(t *testing.T) {
		calls := 0
		err := Do(ctx, 0, time.Millisecond, func(context.Context) error {
			calls++
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 1, calls)
	})
}
