package main

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Nafis5858/Krishak/pkg/logger"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

type runFunc func(ctx context.Context) error

func (f runFunc) Run(ctx context.Context) error { return f(ctx) }

func testParams() ServiceParams {
	ok := pingFunc(func(context.Context) error { return nil })
	return ServiceParams{
		Logger:   logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
		DB:       ok,
		Redis:    ok,
		PubSub:   ok,
		Consumer: runFunc(func(ctx context.Context) error { <-ctx.Done(); return ctx.Err() }),
	}
}

func TestNewServiceValidates(t *testing.T) {
	params := testParams()
	params.Consumer = nil
	_, err := NewService(params)
	require.Error(t, err)
}

func TestRunStopsBeforeConsumingWhenDependencyDown(t *testing.T) {
	params := testParams()
	consumed := false
	params.PubSub = pingFunc(func(context.Context) error { return errors.New("subscription missing") })
	params.Consumer = runFunc(func(context.Context) error { consumed = true; return nil })

	svc, err := NewService(params)
	require.NoError(t, err)
	err = svc.Run(context.Background())
	require.ErrorContains(t, err, "pubsub ping failed")
	require.False(t, consumed)
}

func TestRunReturnsCancellation(t *testing.T) {
	svc, err := NewService(testParams())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, svc.Run(ctx), context.Canceled)
}
