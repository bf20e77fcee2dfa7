package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"log/slog"

	"github.com/aretw0/ripple/internal/logging"
	"github.com/aretw0/ripple/pkg/domain"
	"github.com/aretw0/ripple/pkg/ports"
	"github.com/google/uuid"
	backend "github.com/redis/go-redis/v9"
)

// eventField is the stream entry field holding the JSON-encoded event.
const eventField = "event"

// Transport implements ports.Transport and ports.Publisher on Redis Streams.
// Each event type maps to one stream; subscribers sharing a queue name join
// the consumer group of that name, which gives competing-consumer delivery
// (XREADGROUP hands each entry to exactly one group member).
type Transport struct {
	client    *backend.Client
	prefix    string
	block     time.Duration
	batchSize int64
	logger    *slog.Logger
}

// TransportOption configures the Transport.
type TransportOption func(*Transport)

// WithStreamPrefix sets the stream key prefix.
func WithStreamPrefix(prefix string) TransportOption {
	return func(t *Transport) {
		t.prefix = prefix
	}
}

// WithBlock sets how long a consumer read blocks before re-polling.
func WithBlock(block time.Duration) TransportOption {
	return func(t *Transport) {
		t.block = block
	}
}

// WithTransportLogger sets the logger for consumer-loop errors.
func WithTransportLogger(logger *slog.Logger) TransportOption {
	return func(t *Transport) {
		t.logger = logger
	}
}

// NewTransport creates a Redis Streams transport from an existing client.
func NewTransport(client *backend.Client, opts ...TransportOption) *Transport {
	t := &Transport{
		client:    client,
		prefix:    "ripple:events:",
		block:     time.Second,
		batchSize: 16,
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Transport) stream(eventType string) string {
	return t.prefix + eventType
}

// Publish appends the event to the stream of its type.
func (t *Transport) Publish(ctx context.Context, ev domain.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	err = t.client.XAdd(ctx, &backend.XAddArgs{
		Stream: t.stream(ev.Type),
		Values: map[string]any{eventField: string(data)},
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to publish event %s: %w", ev.Type, err)
	}
	return nil
}

// Subscribe starts one consumer goroutine per event type. Consumers run
// until ctx is canceled. Entries are acknowledged only after the handler
// returns without error, so failed events are redelivered (at-least-once).
func (t *Transport) Subscribe(ctx context.Context, eventTypes []string, queue string, h ports.EventHandler) error {
	if h == nil {
		return errors.New("redis transport: nil handler")
	}
	if queue == "" {
		// Competing consumers need a group identity. A broadcast mode would
		// be XREAD without a group; reactors always name their queue.
		return errors.New("redis transport: queue name is required")
	}

	consumer := queue + "-" + uuid.NewString()

	for _, et := range eventTypes {
		stream := t.stream(et)
		if err := t.ensureGroup(ctx, stream, queue); err != nil {
			return err
		}
		go t.consume(ctx, stream, queue, consumer, h)
	}
	return nil
}

// ensureGroup creates the consumer group, tolerating concurrent creation.
func (t *Transport) ensureGroup(ctx context.Context, stream, queue string) error {
	err := t.client.XGroupCreateMkStream(ctx, stream, queue, "$").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("failed to create consumer group %s on %s: %w", queue, stream, err)
	}
	return nil
}

func (t *Transport) consume(ctx context.Context, stream, queue, consumer string, h ports.EventHandler) {
	for {
		if ctx.Err() != nil {
			return
		}

		streams, err := t.client.XReadGroup(ctx, &backend.XReadGroupArgs{
			Group:    queue,
			Consumer: consumer,
			Streams:  []string{stream, ">"},
			Count:    t.batchSize,
			Block:    t.block,
		}).Result()
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			if errors.Is(err, backend.Nil) {
				// Idle stream. Servers that do not honor BLOCK (and test
				// fakes) return immediately; pause briefly before re-polling.
				select {
				case <-ctx.Done():
					return
				case <-time.After(10 * time.Millisecond):
				}
				continue
			}
			t.logger.Warn("stream read failed", "stream", stream, "err", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(t.block):
			}
			continue
		}

		for _, s := range streams {
			for _, msg := range s.Messages {
				t.deliver(ctx, stream, queue, msg, h)
			}
		}
	}
}

func (t *Transport) deliver(ctx context.Context, stream, queue string, msg backend.XMessage, h ports.EventHandler) {
	raw, ok := msg.Values[eventField].(string)
	if !ok {
		// Malformed entry: ack it away so it does not wedge the group.
		t.logger.Warn("dropping malformed stream entry", "stream", stream, "id", msg.ID)
		t.ack(ctx, stream, queue, msg.ID)
		return
	}

	var ev domain.Event
	if err := json.Unmarshal([]byte(raw), &ev); err != nil {
		t.logger.Warn("dropping undecodable event", "stream", stream, "id", msg.ID, "err", err)
		t.ack(ctx, stream, queue, msg.ID)
		return
	}

	if _, err := h(ctx, ev); err != nil {
		// Leave unacked for redelivery; resilience policy belongs downstream.
		t.logger.Warn("event handler failed", "stream", stream, "id", msg.ID, "err", err)
		return
	}
	t.ack(ctx, stream, queue, msg.ID)
}

func (t *Transport) ack(ctx context.Context, stream, queue, id string) {
	if err := t.client.XAck(ctx, stream, queue, id).Err(); err != nil {
		t.logger.Warn("failed to ack stream entry", "stream", stream, "id", id, "err", err)
	}
}
