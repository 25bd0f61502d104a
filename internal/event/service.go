package event

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/azielinski/notifyme/internal/models"
	"github.com/azielinski/notifyme/internal/store"
)

// ErrInvalidEvent reports rejected subscription data (unknown type or
// frequency, out-of-range city/country, unresolvable location).
var ErrInvalidEvent = errors.New("invalid event data")

// CreateInput is the payload for event creation.
type CreateInput struct {
	EventType string `json:"event_type" validate:"required"`
	Frequency string `json:"frequency" validate:"required"`
	City      string `json:"city" validate:"required,min=2,max=70"`
	Country   string `json:"country" validate:"required,min=2,max=70"`
}

// LocationChecker verifies that a (city, country) pair resolves to a real
// place before a subscription for it is accepted.
type LocationChecker interface {
	CheckLocation(ctx context.Context, city, country string) bool
}

// Service manages event subscriptions.
type Service struct {
	events    *store.EventStore
	locations LocationChecker
	validate  *validator.Validate
	logger    *zap.Logger
}

// NewService creates a Service over the event store.
func NewService(events *store.EventStore, locations LocationChecker, logger *zap.Logger) *Service {
	return &Service{
		events:    events,
		locations: locations,
		validate:  validator.New(),
		logger:    logger.Named("event_service"),
	}
}

// Create validates the input, verifies the location resolves, and stores
// the event for the user. A duplicate (user, frequency, city, country)
// tuple propagates the store's ErrDuplicate.
func (s *Service) Create(ctx context.Context, user models.User, input CreateInput) (models.Event, error) {
	if err := s.validate.Struct(input); err != nil {
		s.logger.Warn("rejected event data", zap.String("city", input.City), zap.String("country", input.Country))
		return models.Event{}, ErrInvalidEvent
	}
	eventType, ok := models.ParseEventType(input.EventType)
	if !ok {
		return models.Event{}, fmt.Errorf("%w: event_type %q", ErrInvalidEvent, input.EventType)
	}
	frequency, ok := models.ParseFrequency(input.Frequency)
	if !ok {
		return models.Event{}, fmt.Errorf("%w: frequency %q", ErrInvalidEvent, input.Frequency)
	}

	if !s.locations.CheckLocation(ctx, input.City, input.Country) {
		s.logger.Warn("location not found for event", zap.String("city", input.City), zap.String("country", input.Country))
		return models.Event{}, fmt.Errorf("%w: location %s, %s not found", ErrInvalidEvent, input.City, input.Country)
	}

	event := models.Event{
		EventType: eventType,
		Frequency: frequency,
		City:      input.City,
		Country:   input.Country,
		UserID:    user.UserID,
	}
	if err := s.events.Create(ctx, &event); err != nil {
		s.logger.Warn("failed to create event", zap.Int64("user_id", user.UserID), zap.Error(err))
		return models.Event{}, err
	}
	s.logger.Info("event created",
		zap.Int64("event_id", event.EventID),
		zap.Int64("user_id", user.UserID),
		zap.String("city", event.City),
		zap.String("country", event.Country),
	)
	return event, nil
}

// Get fetches one event owned by the user; false when absent.
func (s *Service) Get(ctx context.Context, user models.User, eventID int64) (models.Event, bool) {
	event, err := s.events.GetByID(ctx, user.UserID, eventID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.logger.Error("get event", zap.Int64("event_id", eventID), zap.Error(err))
		}
		return models.Event{}, false
	}
	return event, true
}

// List returns all of the user's events; nil on store failure.
func (s *Service) List(ctx context.Context, user models.User) []models.Event {
	events, err := s.events.ListByUser(ctx, user.UserID)
	if err != nil {
		s.logger.Error("list events", zap.Int64("user_id", user.UserID), zap.Error(err))
		return nil
	}
	return events
}

// Delete removes one event owned by the user; false when absent.
func (s *Service) Delete(ctx context.Context, user models.User, eventID int64) bool {
	if err := s.events.Delete(ctx, user.UserID, eventID); err != nil {
		s.logger.Warn("delete event", zap.Int64("event_id", eventID), zap.Error(err))
		return false
	}
	s.logger.Info("event deleted", zap.Int64("event_id", eventID), zap.Int64("user_id", user.UserID))
	return true
}
