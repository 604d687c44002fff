package bootstrap

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApp_Run(t *testing.T) {
	t.Run("run returns nil", func(t *testing.T) {
		app := New()
		err := app.Run(context.Background(), func(ctx context.Context) error {
			return nil
		})
		assert.NoError(t, err)
	})

	t.Run("run returns error and hooks still run", func(t *testing.T) {
		app := New()
		hookCalled := false
		app.AddShutdownHook(func(ctx context.Context) error {
			hookCalled = true
			return nil
		})

		want := errors.New("listen tcp :8000: bind: address already in use")
		err := app.Run(context.Background(), func(ctx context.Context) error {
			return want
		})
		assert.ErrorIs(t, err, want)
		assert.True(t, hookCalled)
	})

	t.Run("shutdown hooks run in LIFO order on context cancel", func(t *testing.T) {
		app := New()
		var mu sync.Mutex
		var order []string
		record := func(name string) func(ctx context.Context) error {
			return func(ctx context.Context) error {
				mu.Lock()
				defer mu.Unlock()
				order = append(order, name)
				return nil
			}
		}
		app.AddShutdownHook(record("csv stores"))
		app.AddShutdownHook(record("http server"))
		app.AddShutdownHook(record("logger"))

		ctx, cancel := context.WithCancel(context.Background())
		err := app.Run(ctx, func(ctx context.Context) error {
			cancel()
			<-ctx.Done()
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"logger", "http server", "csv stores"}, order)
	})

	t.Run("hooks stop a blocking run", func(t *testing.T) {
		app := New()
		stop := make(chan struct{})
		app.AddShutdownHook(func(ctx context.Context) error {
			close(stop)
			return nil
		})

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := app.Run(ctx, func(ctx context.Context) error {
			<-stop
			return nil
		})
		require.NoError(t, err)
	})

	t.Run("hook errors are joined", func(t *testing.T) {
		app := New()
		first := errors.New("close sentences store")
		second := errors.New("close attempts store")
		app.AddShutdownHook(func(ctx context.Context) error { return first })
		app.AddShutdownHook(func(ctx context.Context) error { return second })

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := app.Run(ctx, func(ctx context.Context) error {
			<-ctx.Done()
			return nil
		})
		assert.ErrorIs(t, err, first)
		assert.ErrorIs(t, err, second)
	})

	t.Run("hooks receive a deadline", func(t *testing.T) {
		app := New().WithShutdownTimeout(time.Minute)
		var deadline time.Time
		var ok bool
		app.AddShutdownHook(func(ctx context.Context) error {
			deadline, ok = ctx.Deadline()
			return nil
		})

		err := app.Run(context.Background(), func(ctx context.Context) error {
			return nil
		})
		require.NoError(t, err)
		assert.True(t, ok)
		assert.WithinDuration(t, time.Now().Add(time.Minute), deadline, 5*time.Second)
	})

	t.Run("hook registered from inside run callback", func(t *testing.T) {
		app := New()
		hookCalled := false

		ctx, cancel := context.WithCancel(context.Background())
		err := app.Run(ctx, func(ctx context.Context) error {
			app.AddShutdownHook(func(ctx context.Context) error {
				hookCalled = true
				return nil
			})
			cancel()
			<-ctx.Done()
			return nil
		})
		require.NoError(t, err)
		assert.True(t, hookCalled)
	})
}
