package redis_test

import (
	"context"
	"sync"
	"testing"
	"time"

	redisAdapter "github.com/aretw0/ripple/pkg/adapters/redis"
	"github.com/aretw0/ripple/pkg/domain"
	"github.com/aretw0/ripple/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransport_PublishConsume(t *testing.T) {
	client := newTestClient(t)
	transport := redisAdapter.NewTransport(client, redisAdapter.WithBlock(50*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var received []domain.Event
	handler := func(ctx context.Context, ev domain.Event) ([]ports.DispatchResult, error) {
		mu.Lock()
		received = append(received, ev)
		mu.Unlock()
		return nil, nil
	}

	require.NoError(t, transport.Subscribe(ctx, []string{"order.placed"}, "workers", handler))

	ev := domain.Event{
		ID:      "e1",
		Type:    "order.placed",
		Payload: map[string]any{"sku": "A-1"},
	}
	require.NoError(t, transport.Publish(ctx, ev))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(received) == 1
	}, 5*time.Second, 20*time.Millisecond, "event was not delivered")

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "e1", received[0].ID)
	assert.Equal(t, "A-1", received[0].Payload["sku"])
}

func TestTransport_QueueGroup_SingleDelivery(t *testing.T) {
	client := newTestClient(t)
	transport := redisAdapter.NewTransport(client, redisAdapter.WithBlock(50*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	total := 0
	handler := func(ctx context.Context, ev domain.Event) ([]ports.DispatchResult, error) {
		mu.Lock()
		total++
		mu.Unlock()
		return nil, nil
	}

	// Two subscribers in the same group compete for each entry.
	require.NoError(t, transport.Subscribe(ctx, []string{"evt"}, "workers", handler))
	require.NoError(t, transport.Subscribe(ctx, []string{"evt"}, "workers", handler))

	for i := 0; i < 4; i++ {
		require.NoError(t, transport.Publish(ctx, domain.Event{Type: "evt"}))
	}

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return total >= 4
	}, 5*time.Second, 20*time.Millisecond, "events were not delivered")

	// Give any duplicate delivery a moment to show up, then check the count
	// stayed exact: each entry went to one group member only.
	time.Sleep(200 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 4, total)
}

func TestTransport_SubscribeValidation(t *testing.T) {
	transport := redisAdapter.NewTransport(newTestClient(t))
	ctx := context.Background()

	assert.Error(t, transport.Subscribe(ctx, []string{"evt"}, "workers", nil))
	assert.Error(t, transport.Subscribe(ctx, []string{"evt"}, "", func(ctx context.Context, ev domain.Event) ([]ports.DispatchResult, error) {
		return nil, nil
	}))
}
