package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aretw0/ripple/pkg/domain"
	"github.com/aretw0/ripple/pkg/ports"
	"github.com/google/uuid"
	backend "github.com/redis/go-redis/v9"
)

// appendScript adds an event at a version slot unless the slot is taken.
// ZADD alone cannot express this: NX guards the member, not the score.
const appendScript = `
	if redis.call("ZCOUNT", KEYS[1], ARGV[1], ARGV[1]) > 0 then
		return 0
	end
	redis.call("ZADD", KEYS[1], ARGV[1], ARGV[2])
	return 1
`

// Store implements ports.EventStore using Redis. The journal of each saga is
// a ZSET scored by version, so reads come back version-ordered for free.
type Store struct {
	client *backend.Client
	prefix string
}

// Option configures the Store.
type Option func(*Store)

// WithPrefix sets the key prefix for journals.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New creates a new Redis store with options.
func New(address, password string, db int, opts ...Option) *Store {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client: client,
		prefix: "ripple:journal:",
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

func (s *Store) key(sagaID string) string {
	return s.prefix + sagaID
}

// SagaEvents reads the journal ZSET for versions in [0, opts.Before),
// filtering out the excepted event ID.
func (s *Store) SagaEvents(ctx context.Context, sagaID string, opts ports.SagaEventsOptions) ([]domain.Event, error) {
	members, err := s.client.ZRangeByScore(ctx, s.key(sagaID), &backend.ZRangeBy{
		Min: "0",
		Max: fmt.Sprintf("(%d", opts.Before),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read journal for saga %s: %w", sagaID, err)
	}

	events := make([]domain.Event, 0, len(members))
	for _, raw := range members {
		var ev domain.Event
		if err := json.Unmarshal([]byte(raw), &ev); err != nil {
			return nil, fmt.Errorf("failed to unmarshal event for saga %s: %w", sagaID, err)
		}
		if opts.Except != "" && ev.ID == opts.Except {
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}

// NewID allocates a fresh saga identifier.
func (s *Store) NewID(ctx context.Context) (string, error) {
	return uuid.NewString(), nil
}

// Append writes the event into its saga's journal ZSET at score SagaVersion.
// Occupied slots yield domain.ErrVersionConflict.
func (s *Store) Append(ctx context.Context, ev domain.Event) error {
	if ev.SagaID == "" {
		return errors.New("append requires a saga id")
	}
	if ev.SagaVersion == nil {
		return domain.ErrMissingSagaVersion
	}

	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	added, err := s.client.Eval(ctx, appendScript,
		[]string{s.key(ev.SagaID)},
		*ev.SagaVersion, string(data),
	).Int()
	if err != nil {
		return fmt.Errorf("failed to append to redis: %w", err)
	}
	if added == 0 {
		return domain.ErrVersionConflict
	}
	return nil
}

// Close closes the redis client.
func (s *Store) Close() error {
	return s.client.Close()
}
