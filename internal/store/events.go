package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/azielinski/notifyme/internal/models"
)

// EventStore persists events in sqlite.
type EventStore struct {
	db *DB
}

// NewEventStore creates an EventStore over an open database.
func NewEventStore(db *DB) *EventStore {
	return &EventStore{db: db}
}

// Create inserts the event and fills in its generated ID. A second event
// with the same (user_id, frequency, city, country) tuple fails with
// ErrDuplicate regardless of event type.
func (s *EventStore) Create(ctx context.Context, event *models.Event) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO events (event_type, frequency, city, country, user_id) VALUES (?, ?, ?, ?, ?)`,
		string(event.EventType), string(event.Frequency), event.City, event.Country, event.UserID,
	)
	if err != nil {
		return fmt.Errorf("create event: %w", mapConstraint(err))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("create event: %w", err)
	}
	event.EventID = id
	return nil
}

// GetByID fetches one event owned by the user; ErrNotFound if absent.
func (s *EventStore) GetByID(ctx context.Context, userID, eventID int64) (models.Event, error) {
	var e models.Event
	err := s.db.QueryRowContext(ctx,
		`SELECT event_id, event_type, frequency, city, country, user_id
		 FROM events WHERE user_id = ? AND event_id = ?`, userID, eventID,
	).Scan(&e.EventID, &e.EventType, &e.Frequency, &e.City, &e.Country, &e.UserID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Event{}, fmt.Errorf("event %d: %w", eventID, ErrNotFound)
	}
	if err != nil {
		return models.Event{}, fmt.Errorf("event %d: %w", eventID, err)
	}
	return e, nil
}

// ListByUser returns every event owned by the user.
func (s *EventStore) ListByUser(ctx context.Context, userID int64) ([]models.Event, error) {
	return s.list(ctx,
		`SELECT event_id, event_type, frequency, city, country, user_id
		 FROM events WHERE user_id = ? ORDER BY event_id`, userID)
}

// ListByUserAndFrequency returns the user's events at one frequency tier.
func (s *EventStore) ListByUserAndFrequency(ctx context.Context, userID int64, frequency models.Frequency) ([]models.Event, error) {
	return s.list(ctx,
		`SELECT event_id, event_type, frequency, city, country, user_id
		 FROM events WHERE user_id = ? AND frequency = ? ORDER BY event_id`, userID, string(frequency))
}

func (s *EventStore) list(ctx context.Context, query string, args ...interface{}) ([]models.Event, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []models.Event
	for rows.Next() {
		var e models.Event
		if err := rows.Scan(&e.EventID, &e.EventType, &e.Frequency, &e.City, &e.Country, &e.UserID); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// Delete removes one event owned by the user; ErrNotFound if absent.
func (s *EventStore) Delete(ctx context.Context, userID, eventID int64) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM events WHERE user_id = ? AND event_id = ?`, userID, eventID)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("delete event %d: %w", eventID, ErrNotFound)
	}
	return nil
}
