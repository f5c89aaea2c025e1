package tx

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "healthfund/pkg/domain-errors"
)

func TestLocked_RunInTx(t *testing.T) {
	t.Run("propagates fn error", func(t *testing.T) {
		boom := errors.New("boom")
		err := NewLocked().RunInTx(context.Background(), func(context.Context) error { return boom })
		assert.ErrorIs(t, err, boom)
	})

	t.Run("nested call joins outer transaction", func(t *testing.T) {
		runner := NewLocked()
		called := false
		err := runner.RunInTx(context.Background(), func(ctx context.Context) error {
			return runner.RunInTx(ctx, func(context.Context) error {
				called = true
				return nil
			})
		})
		require.NoError(t, err)
		assert.True(t, called)
	})

	t.Run("applies default deadline", func(t *testing.T) {
		err := NewLocked().RunInTx(context.Background(), func(ctx context.Context) error {
			deadline, ok := ctx.Deadline()
			require.True(t, ok)
			assert.WithinDuration(t, time.Now().Add(DefaultTimeout), deadline, time.Second)
			return nil
		})
		require.NoError(t, err)
	})

	t.Run("cancelled context is rejected", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := NewLocked().RunInTx(ctx, func(context.Context) error {
			t.Fatal("fn must not run")
			return nil
		})
		assert.True(t, dErrors.HasCode(err, dErrors.CodeTimeout))
	})

	t.Run("serializes concurrent transactions", func(t *testing.T) {
		runner := NewLocked()
		counter := 0
		var wg sync.WaitGroup
		for range 50 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_ = runner.RunInTx(context.Background(), func(context.Context) error {
					v := counter
					time.Sleep(time.Microsecond)
					counter = v + 1
					return nil
				})
			}()
		}
		wg.Wait()
		assert.Equal(t, 50, counter)
	})
}
