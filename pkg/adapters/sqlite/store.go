package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/aretw0/ripple/pkg/domain"
	"github.com/aretw0/ripple/pkg/ports"
	"github.com/google/uuid"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS events (
	saga_id  TEXT    NOT NULL,
	version  INTEGER NOT NULL,
	event_id TEXT    NOT NULL UNIQUE,
	type     TEXT    NOT NULL,
	context  TEXT,
	payload  TEXT,
	PRIMARY KEY (saga_id, version)
);
`

// Store implements ports.EventStore on SQLite. The (saga_id, version)
// primary key is the optimistic-versioning check: a conflicting append
// violates the constraint and surfaces as domain.ErrVersionConflict.
type Store struct {
	db *sql.DB
}

// Open opens (and migrates) a store at the given DSN.
// Use ":memory:" for an ephemeral store in tests.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate sqlite schema: %w", err)
	}
	return &Store{db: db}, nil
}

// NewFromDB wraps an existing database handle, migrating the schema.
func NewFromDB(db *sql.DB) (*Store, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to migrate sqlite schema: %w", err)
	}
	return &Store{db: db}, nil
}

// SagaEvents reads history ascending by version, strictly below opts.Before
// and excluding the excepted event ID.
func (s *Store) SagaEvents(ctx context.Context, sagaID string, opts ports.SagaEventsOptions) ([]domain.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT event_id, type, version, context, payload
		FROM events
		WHERE saga_id = ? AND version < ? AND event_id <> ?
		ORDER BY version ASC`,
		sagaID, opts.Before, opts.Except,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query events for saga %s: %w", sagaID, err)
	}
	defer rows.Close()

	var events []domain.Event
	for rows.Next() {
		var (
			ev          domain.Event
			version     uint64
			contextJSON sql.NullString
			payloadJSON sql.NullString
		)
		if err := rows.Scan(&ev.ID, &ev.Type, &version, &contextJSON, &payloadJSON); err != nil {
			return nil, fmt.Errorf("failed to scan event row: %w", err)
		}
		ev.SagaID = sagaID
		ev.SagaVersion = domain.Version(version)
		if contextJSON.Valid && contextJSON.String != "" {
			if err := json.Unmarshal([]byte(contextJSON.String), &ev.Context); err != nil {
				return nil, fmt.Errorf("failed to unmarshal event context: %w", err)
			}
		}
		if payloadJSON.Valid && payloadJSON.String != "" {
			if err := json.Unmarshal([]byte(payloadJSON.String), &ev.Payload); err != nil {
				return nil, fmt.Errorf("failed to unmarshal event payload: %w", err)
			}
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate event rows: %w", err)
	}
	return events, nil
}

// NewID allocates a fresh saga identifier.
func (s *Store) NewID(ctx context.Context) (string, error) {
	return uuid.NewString(), nil
}

// Append inserts the event, mapping primary-key violations to
// domain.ErrVersionConflict.
func (s *Store) Append(ctx context.Context, ev domain.Event) error {
	if ev.SagaID == "" {
		return errors.New("append requires a saga id")
	}
	if ev.SagaVersion == nil {
		return domain.ErrMissingSagaVersion
	}

	contextJSON, err := marshalNullable(ev.Context)
	if err != nil {
		return fmt.Errorf("failed to marshal event context: %w", err)
	}
	payloadJSON, err := marshalNullable(ev.Payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO events (saga_id, version, event_id, type, context, payload)
		VALUES (?, ?, ?, ?, ?, ?)`,
		ev.SagaID, *ev.SagaVersion, ev.ID, ev.Type, contextJSON, payloadJSON,
	)
	if err != nil {
		if isConstraintViolation(err) {
			return domain.ErrVersionConflict
		}
		return fmt.Errorf("failed to append event: %w", err)
	}
	return nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func marshalNullable(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// isConstraintViolation detects unique/primary-key failures without binding
// to driver-internal error types.
func isConstraintViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "constraint")
}
