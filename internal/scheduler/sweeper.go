package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/azielinski/notifyme/internal/mail"
	"github.com/azielinski/notifyme/internal/models"
	"github.com/azielinski/notifyme/internal/observability"
)

// UserSource lists every registered user.
type UserSource interface {
	ListAll(ctx context.Context) ([]models.User, error)
}

// EventSource lists one user's events at a frequency tier.
type EventSource interface {
	ListByUserAndFrequency(ctx context.Context, userID int64, frequency models.Frequency) ([]models.Event, error)
}

// WeatherSource resolves the series for an event's location.
type WeatherSource interface {
	GetWeather(ctx context.Context, frequency models.Frequency, city, country string) (models.Series, error)
}

// Composer renders a report for an event.
type Composer interface {
	Compose(event models.Event, series models.Series) (title, body string, ok bool)
}

// Sweeper runs one full notification sweep across all users and their
// events at a given frequency. Events are processed strictly sequentially;
// each event is its own failure boundary, so a bad city or a mail outage
// never aborts the rest of the sweep. The sweeper performs no dedup of
// already-notified events; cadence control lives entirely in the trigger.
type Sweeper struct {
	users   UserSource
	events  EventSource
	weather WeatherSource
	builder Composer
	sender  mail.Sender
	logger  *zap.Logger
}

// NewSweeper creates a Sweeper with the provided collaborators.
func NewSweeper(users UserSource, events EventSource, weather WeatherSource, builder Composer, sender mail.Sender, logger *zap.Logger) *Sweeper {
	return &Sweeper{
		users:   users,
		events:  events,
		weather: weather,
		builder: builder,
		sender:  sender,
		logger:  logger.Named("scheduler"),
	}
}

// Run performs one sweep for the frequency tier. An empty or unreadable
// user list ends the sweep silently.
func (s *Sweeper) Run(ctx context.Context, frequency models.Frequency) {
	start := time.Now()
	defer func() {
		observability.SweepDurationSeconds.WithLabelValues(string(frequency)).Observe(time.Since(start).Seconds())
	}()

	users, err := s.users.ListAll(ctx)
	if err != nil {
		s.logger.Error("fetch users", zap.String("frequency", string(frequency)), zap.Error(err))
		return
	}
	if len(users) == 0 {
		s.logger.Info("no users to notify", zap.String("frequency", string(frequency)))
		return
	}
	s.logger.Info("sweep started", zap.String("frequency", string(frequency)), zap.Int("users", len(users)))

	for _, user := range users {
		s.processUser(ctx, user, frequency)
	}
	s.logger.Info("sweep finished", zap.String("frequency", string(frequency)), zap.Duration("duration", time.Since(start)))
}

func (s *Sweeper) processUser(ctx context.Context, user models.User, frequency models.Frequency) {
	events, err := s.events.ListByUserAndFrequency(ctx, user.UserID, frequency)
	if err != nil {
		s.logger.Error("fetch events", zap.Int64("user_id", user.UserID), zap.Error(err))
		return
	}
	if len(events) == 0 {
		return
	}
	s.logger.Info("processing user", zap.String("email", user.Email), zap.Int("events", len(events)))

	for _, event := range events {
		s.processEvent(ctx, user, event)
	}
}

// processEvent is the isolation boundary: failures (including panics from
// programmer errors) are logged with full context and the sweep continues.
func (s *Sweeper) processEvent(ctx context.Context, user models.User, event models.Event) {
	defer func() {
		if r := recover(); r != nil {
			observability.SweepEventsTotal.WithLabelValues(string(event.Frequency), "failed").Inc()
			s.logger.Error("event processing panicked",
				zap.Int64("event_id", event.EventID),
				zap.String("city", event.City),
				zap.String("country", event.Country),
				zap.Any("panic", r),
			)
		}
	}()

	series, err := s.weather.GetWeather(ctx, event.Frequency, event.City, event.Country)
	if err != nil {
		observability.SweepEventsTotal.WithLabelValues(string(event.Frequency), "failed").Inc()
		s.logger.Error("resolve weather",
			zap.Int64("event_id", event.EventID),
			zap.String("city", event.City),
			zap.String("country", event.Country),
			zap.Error(err),
		)
		return
	}
	if series.Empty() {
		observability.SweepEventsTotal.WithLabelValues(string(event.Frequency), "no_weather").Inc()
		s.logger.Info("no weather data, skipping",
			zap.Int64("event_id", event.EventID),
			zap.String("city", event.City),
			zap.String("country", event.Country),
		)
		return
	}

	title, body, ok := s.builder.Compose(event, series)
	if !ok {
		observability.SweepEventsTotal.WithLabelValues(string(event.Frequency), "no_message").Inc()
		s.logger.Warn("could not compose message",
			zap.Int64("event_id", event.EventID),
			zap.String("city", event.City),
			zap.String("country", event.Country),
		)
		return
	}

	if !s.sender.Send(title, body, user.Email) {
		observability.SweepEventsTotal.WithLabelValues(string(event.Frequency), "failed").Inc()
		s.logger.Error("send mail", zap.Int64("event_id", event.EventID), zap.String("recipient", user.Email))
		return
	}
	observability.SweepEventsTotal.WithLabelValues(string(event.Frequency), "sent").Inc()
	s.logger.Info("report sent", zap.Int64("event_id", event.EventID), zap.String("recipient", user.Email))
}
