package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/azielinski/notifyme/internal/models"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "notifyme.db"))
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func createTestUser(t *testing.T, users *UserStore, username, email string) models.User {
	t.Helper()
	u := models.User{Username: username, Email: email, Password: "hashed"}
	if err := users.Create(context.Background(), &u); err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return u
}

func TestUserStore_CreateAndGet(t *testing.T) {
	db := openTestDB(t)
	users := NewUserStore(db)
	ctx := context.Background()

	created := createTestUser(t, users, "ann", "ann@example.com")
	if created.UserID == 0 {
		t.Fatalf("Create did not assign a user ID")
	}

	byID, err := users.GetByID(ctx, created.UserID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if byID.Username != "ann" || byID.Email != "ann@example.com" || byID.Password != "hashed" {
		t.Fatalf("GetByID = %+v", byID)
	}

	byName, err := users.GetByName(ctx, "ann")
	if err != nil || byName.UserID != created.UserID {
		t.Fatalf("GetByName = (%+v, %v)", byName, err)
	}
	byEmail, err := users.GetByEmail(ctx, "ann@example.com")
	if err != nil || byEmail.UserID != created.UserID {
		t.Fatalf("GetByEmail = (%+v, %v)", byEmail, err)
	}
}

func TestUserStore_DuplicateUsernameAndEmail(t *testing.T) {
	db := openTestDB(t)
	users := NewUserStore(db)
	ctx := context.Background()

	createTestUser(t, users, "ann", "ann@example.com")

	sameName := models.User{Username: "ann", Email: "other@example.com", Password: "x"}
	if err := users.Create(ctx, &sameName); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("duplicate username error = %v, want ErrDuplicate", err)
	}
	sameEmail := models.User{Username: "bob", Email: "ann@example.com", Password: "x"}
	if err := users.Create(ctx, &sameEmail); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("duplicate email error = %v, want ErrDuplicate", err)
	}
}

func TestUserStore_NotFound(t *testing.T) {
	db := openTestDB(t)
	users := NewUserStore(db)
	ctx := context.Background()

	if _, err := users.GetByID(ctx, 404); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetByID error = %v, want ErrNotFound", err)
	}
	if err := users.Delete(ctx, 404); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Delete error = %v, want ErrNotFound", err)
	}
}

func TestUserStore_ListAll(t *testing.T) {
	db := openTestDB(t)
	users := NewUserStore(db)

	createTestUser(t, users, "ann", "ann@example.com")
	createTestUser(t, users, "bob", "bob@example.com")

	all, err := users.ListAll(context.Background())
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(all) != 2 || all[0].Username != "ann" || all[1].Username != "bob" {
		t.Fatalf("ListAll = %+v", all)
	}
}

func TestEventStore_DuplicateSubscription(t *testing.T) {
	db := openTestDB(t)
	users := NewUserStore(db)
	events := NewEventStore(db)
	ctx := context.Background()

	user := createTestUser(t, users, "ann", "ann@example.com")

	first := models.Event{
		EventType: models.EventTypeAll,
		Frequency: models.FrequencyDay,
		City:      "Warsaw",
		Country:   "Poland",
		UserID:    user.UserID,
	}
	if err := events.Create(ctx, &first); err != nil {
		t.Fatalf("create first event: %v", err)
	}
	if first.EventID == 0 {
		t.Fatalf("Create did not assign an event ID")
	}

	// Same tuple with a different event type is still a duplicate.
	second := models.Event{
		EventType: models.EventTypeTemperature,
		Frequency: models.FrequencyDay,
		City:      "Warsaw",
		Country:   "Poland",
		UserID:    user.UserID,
	}
	if err := events.Create(ctx, &second); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("duplicate tuple error = %v, want ErrDuplicate", err)
	}

	// A different frequency for the same place is a distinct subscription.
	hourly := models.Event{
		EventType: models.EventTypeAll,
		Frequency: models.FrequencyHour,
		City:      "Warsaw",
		Country:   "Poland",
		UserID:    user.UserID,
	}
	if err := events.Create(ctx, &hourly); err != nil {
		t.Fatalf("create hourly event: %v", err)
	}
}

func TestEventStore_ListByUserAndFrequency(t *testing.T) {
	db := openTestDB(t)
	users := NewUserStore(db)
	events := NewEventStore(db)
	ctx := context.Background()

	user := createTestUser(t, users, "ann", "ann@example.com")
	for _, e := range []models.Event{
		{EventType: models.EventTypeAll, Frequency: models.FrequencyDay, City: "Warsaw", Country: "Poland", UserID: user.UserID},
		{EventType: models.EventTypeAll, Frequency: models.FrequencyHour, City: "Warsaw", Country: "Poland", UserID: user.UserID},
		{EventType: models.EventTypePrecipitation, Frequency: models.FrequencyDay, City: "Gdansk", Country: "Poland", UserID: user.UserID},
	} {
		event := e
		if err := events.Create(ctx, &event); err != nil {
			t.Fatalf("create event %s: %v", e.City, err)
		}
	}

	daily, err := events.ListByUserAndFrequency(ctx, user.UserID, models.FrequencyDay)
	if err != nil {
		t.Fatalf("ListByUserAndFrequency: %v", err)
	}
	if len(daily) != 2 || daily[0].City != "Warsaw" || daily[1].City != "Gdansk" {
		t.Fatalf("daily events = %+v", daily)
	}

	all, err := events.ListByUser(ctx, user.UserID)
	if err != nil || len(all) != 3 {
		t.Fatalf("ListByUser = (%d events, %v)", len(all), err)
	}
}

func TestEventStore_OwnershipScoping(t *testing.T) {
	db := openTestDB(t)
	users := NewUserStore(db)
	events := NewEventStore(db)
	ctx := context.Background()

	ann := createTestUser(t, users, "ann", "ann@example.com")
	bob := createTestUser(t, users, "bob", "bob@example.com")

	event := models.Event{
		EventType: models.EventTypeAll,
		Frequency: models.FrequencyDay,
		City:      "Warsaw",
		Country:   "Poland",
		UserID:    ann.UserID,
	}
	if err := events.Create(ctx, &event); err != nil {
		t.Fatalf("create event: %v", err)
	}

	if _, err := events.GetByID(ctx, bob.UserID, event.EventID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("cross-user GetByID error = %v, want ErrNotFound", err)
	}
	if err := events.Delete(ctx, bob.UserID, event.EventID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("cross-user Delete error = %v, want ErrNotFound", err)
	}
	if err := events.Delete(ctx, ann.UserID, event.EventID); err != nil {
		t.Fatalf("owner Delete: %v", err)
	}
}

func TestUserDeleteCascadesEvents(t *testing.T) {
	db := openTestDB(t)
	users := NewUserStore(db)
	events := NewEventStore(db)
	ctx := context.Background()

	user := createTestUser(t, users, "ann", "ann@example.com")
	event := models.Event{
		EventType: models.EventTypeAll,
		Frequency: models.FrequencyDay,
		City:      "Warsaw",
		Country:   "Poland",
		UserID:    user.UserID,
	}
	if err := events.Create(ctx, &event); err != nil {
		t.Fatalf("create event: %v", err)
	}

	if err := users.Delete(ctx, user.UserID); err != nil {
		t.Fatalf("delete user: %v", err)
	}
	remaining, err := events.ListByUser(ctx, user.UserID)
	if err != nil {
		t.Fatalf("list events after delete: %v", err)
	}
	if len(remaining) != 0 {
		t.Fatalf("events survived user deletion: %+v", remaining)
	}
}
