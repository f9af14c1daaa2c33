package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"gymdesk/internal/config"
	"gymdesk/internal/queue"
)

func TestOpen_Memory(t *testing.T) {
	b, err := Open(context.Background(), config.App{StoreBackend: "memory", QueueBackend: "memory"}, zap.NewNop())
	require.NoError(t, err)
	defer b.Close()

	assert.NotNil(t, b.Members)
	assert.NotNil(t, b.Payments)
	assert.NotNil(t, b.Attendance)
	assert.NotNil(t, b.Admins)
	assert.IsType(t, &queue.InMemory{}, b.Queue)
	assert.Empty(t, b.Checks)
}

func TestOpen_UnknownBackends(t *testing.T) {
	_, err := Open(context.Background(), config.App{StoreBackend: "sqlite", QueueBackend: "memory"}, zap.NewNop())
	assert.ErrorContains(t, err, "STORE_BACKEND")

	_, err = Open(context.Background(), config.App{StoreBackend: "memory", QueueBackend: "kafka"}, zap.NewNop())
	assert.ErrorContains(t, err, "QUEUE_BACKEND")
}

func TestBackends_CloseNewestFirst(t *testing.T) {
	var order []int
	b := &Backends{closers: []func() error{
		func() error { order = append(order, 1); return nil },
		func() error { order = append(order, 2); return nil },
	}}
	require.NoError(t, b.Close())
	assert.Equal(t, []int{2, 1}, order)
	require.NoError(t, b.Close())
}
