package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/azielinski/notifyme/internal/models"
)

// UserStore persists users in sqlite.
type UserStore struct {
	db *DB
}

// NewUserStore creates a UserStore over an open database.
func NewUserStore(db *DB) *UserStore {
	return &UserStore{db: db}
}

// Create inserts the user and fills in its generated ID. Uniqueness
// violations (username, email) surface as ErrDuplicate.
func (s *UserStore) Create(ctx context.Context, user *models.User) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (username, email, password) VALUES (?, ?, ?)`,
		user.Username, user.Email, user.Password,
	)
	if err != nil {
		return fmt.Errorf("create user: %w", mapConstraint(err))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	user.UserID = id
	return nil
}

// GetByID fetches one user; ErrNotFound if absent.
func (s *UserStore) GetByID(ctx context.Context, userID int64) (models.User, error) {
	return s.getBy(ctx, `user_id`, userID)
}

// GetByName fetches one user by username; ErrNotFound if absent.
func (s *UserStore) GetByName(ctx context.Context, username string) (models.User, error) {
	return s.getBy(ctx, `username`, username)
}

// GetByEmail fetches one user by email; ErrNotFound if absent.
func (s *UserStore) GetByEmail(ctx context.Context, email string) (models.User, error) {
	return s.getBy(ctx, `email`, email)
}

func (s *UserStore) getBy(ctx context.Context, column string, value interface{}) (models.User, error) {
	var u models.User
	err := s.db.QueryRowContext(ctx,
		`SELECT user_id, username, email, password FROM users WHERE `+column+` = ?`, value,
	).Scan(&u.UserID, &u.Username, &u.Email, &u.Password)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, fmt.Errorf("user by %s: %w", column, ErrNotFound)
	}
	if err != nil {
		return models.User{}, fmt.Errorf("user by %s: %w", column, err)
	}
	return u, nil
}

// ListAll returns every user, ordered by ID.
func (s *UserStore) ListAll(ctx context.Context) ([]models.User, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id, username, email, password FROM users ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.UserID, &u.Username, &u.Email, &u.Password); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// Delete removes a user (events cascade); ErrNotFound if absent.
func (s *UserStore) Delete(ctx context.Context, userID int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE user_id = ?`, userID)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("delete user %d: %w", userID, ErrNotFound)
	}
	return nil
}
