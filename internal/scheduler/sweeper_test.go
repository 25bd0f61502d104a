package scheduler

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/azielinski/notifyme/internal/models"
)

type stubUsers struct {
	users []models.User
	err   error
}

func (s *stubUsers) ListAll(ctx context.Context) ([]models.User, error) {
	return s.users, s.err
}

type stubEvents struct {
	byUser map[int64][]models.Event
	err    error
}

func (s *stubEvents) ListByUserAndFrequency(ctx context.Context, userID int64, frequency models.Frequency) ([]models.Event, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.byUser[userID], nil
}

type stubWeather struct {
	byCity map[string]models.Series
	errFor map[string]error
	calls  []string
}

func (s *stubWeather) GetWeather(ctx context.Context, frequency models.Frequency, city, country string) (models.Series, error) {
	s.calls = append(s.calls, city)
	if err, ok := s.errFor[city]; ok {
		return models.Series{}, err
	}
	return s.byCity[city], nil
}

type stubComposer struct {
	failFor map[string]bool
}

func (s *stubComposer) Compose(event models.Event, series models.Series) (string, string, bool) {
	if s.failFor[event.City] {
		return "", "", false
	}
	return "Weather report for " + event.City, "body for " + event.City, true
}

type sentMail struct {
	subject   string
	recipient string
}

type stubSender struct {
	failFor map[string]bool
	sent    []sentMail
}

func (s *stubSender) Send(subject, body, recipient string) bool {
	if s.failFor[recipient] {
		return false
	}
	s.sent = append(s.sent, sentMail{subject: subject, recipient: recipient})
	return true
}

func dailySeries(date string) models.Series {
	return models.DailySeries([]models.DayMeasurement{
		{Date: date, Temperature: models.TemperatureRange{Min: 1, Max: 2}, Precipitation: 2.1, PrecipitationProbability: 3},
	})
}

func dayEvent(id int64, city string) models.Event {
	return models.Event{
		EventID:   id,
		Frequency: models.FrequencyDay,
		City:      city,
		Country:   "Poland",
		EventType: models.EventTypeAll,
	}
}

// TestRun_EventIsolation verifies one failing event does not stop the rest
// of the sweep: the second event's mail is still sent.
func TestRun_EventIsolation(t *testing.T) {
	users := &stubUsers{users: []models.User{{UserID: 1, Username: "ann", Email: "ann@example.com"}}}
	events := &stubEvents{byUser: map[int64][]models.Event{
		1: {dayEvent(10, "Atlantis"), dayEvent(11, "Warsaw")},
	}}
	weather := &stubWeather{
		byCity: map[string]models.Series{"Warsaw": dailySeries("2021-10-10")},
		errFor: map[string]error{"Atlantis": errors.New("location not found")},
	}
	sender := &stubSender{}
	sweeper := NewSweeper(users, events, weather, &stubComposer{}, sender, zap.NewNop())

	sweeper.Run(context.Background(), models.FrequencyDay)

	if len(sender.sent) != 1 {
		t.Fatalf("sent %d mails, want 1", len(sender.sent))
	}
	if sender.sent[0].recipient != "ann@example.com" || sender.sent[0].subject != "Weather report for Warsaw" {
		t.Fatalf("unexpected mail: %+v", sender.sent[0])
	}
	if len(weather.calls) != 2 {
		t.Fatalf("weather queried %d times, want 2", len(weather.calls))
	}
}

// TestRun_EmptySeriesSkipsMail verifies an empty series skips the event
// without composing or sending anything.
func TestRun_EmptySeriesSkipsMail(t *testing.T) {
	users := &stubUsers{users: []models.User{{UserID: 1, Email: "ann@example.com"}}}
	events := &stubEvents{byUser: map[int64][]models.Event{
		1: {dayEvent(10, "Warsaw")},
	}}
	weather := &stubWeather{byCity: map[string]models.Series{
		"Warsaw": models.DailySeries(nil),
	}}
	sender := &stubSender{}
	sweeper := NewSweeper(users, events, weather, &stubComposer{}, sender, zap.NewNop())

	sweeper.Run(context.Background(), models.FrequencyDay)

	if len(sender.sent) != 0 {
		t.Fatalf("sent %d mails for empty series, want 0", len(sender.sent))
	}
}

// TestRun_ComposeFailureSkipsMail verifies an uncomposable report is skipped
// while the remaining events still go out.
func TestRun_ComposeFailureSkipsMail(t *testing.T) {
	users := &stubUsers{users: []models.User{{UserID: 1, Email: "ann@example.com"}}}
	events := &stubEvents{byUser: map[int64][]models.Event{
		1: {dayEvent(10, "Gdansk"), dayEvent(11, "Warsaw")},
	}}
	weather := &stubWeather{byCity: map[string]models.Series{
		"Gdansk": dailySeries("2021-10-10"),
		"Warsaw": dailySeries("2021-10-10"),
	}}
	sender := &stubSender{}
	sweeper := NewSweeper(users, events, weather, &stubComposer{failFor: map[string]bool{"Gdansk": true}}, sender, zap.NewNop())

	sweeper.Run(context.Background(), models.FrequencyDay)

	if len(sender.sent) != 1 || sender.sent[0].subject != "Weather report for Warsaw" {
		t.Fatalf("unexpected mails: %+v", sender.sent)
	}
}

// TestRun_SendFailureContinues verifies a mail failure for one user does not
// block the next user's notifications.
func TestRun_SendFailureContinues(t *testing.T) {
	users := &stubUsers{users: []models.User{
		{UserID: 1, Email: "ann@example.com"},
		{UserID: 2, Email: "bob@example.com"},
	}}
	events := &stubEvents{byUser: map[int64][]models.Event{
		1: {dayEvent(10, "Warsaw")},
		2: {dayEvent(20, "Warsaw")},
	}}
	weather := &stubWeather{byCity: map[string]models.Series{
		"Warsaw": dailySeries("2021-10-10"),
	}}
	sender := &stubSender{failFor: map[string]bool{"ann@example.com": true}}
	sweeper := NewSweeper(users, events, weather, &stubComposer{}, sender, zap.NewNop())

	sweeper.Run(context.Background(), models.FrequencyDay)

	if len(sender.sent) != 1 || sender.sent[0].recipient != "bob@example.com" {
		t.Fatalf("unexpected mails: %+v", sender.sent)
	}
}

// TestRun_UserListFailure verifies an unreadable user list ends the sweep
// without touching the weather source.
func TestRun_UserListFailure(t *testing.T) {
	users := &stubUsers{err: errors.New("db closed")}
	weather := &stubWeather{}
	sender := &stubSender{}
	sweeper := NewSweeper(users, &stubEvents{}, weather, &stubComposer{}, sender, zap.NewNop())

	sweeper.Run(context.Background(), models.FrequencyDay)

	if len(weather.calls) != 0 || len(sender.sent) != 0 {
		t.Fatalf("sweep proceeded after user list failure: calls=%d sent=%d", len(weather.calls), len(sender.sent))
	}
}
