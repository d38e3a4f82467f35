package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/bizchat/server/internal/model"
)

// uniqueViolation is the Postgres SQLSTATE for unique_violation.
const uniqueViolation = "23505"

type userRepo struct {
	db *sql.DB
}

// NewUserRepo creates a Postgres-backed UserRepo
func NewUserRepo(db *sql.DB) UserRepo {
	return &userRepo{db: db}
}

const userColumns = `id, name, phone_number, location, avatar, is_verified, is_online, last_seen, created_at`

// Create inserts a new user; a taken phone number yields ErrConflict
func (r *userRepo) Create(ctx context.Context, user model.User) error {
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.Name, user.PhoneNumber, user.Location, user.Avatar,
		user.IsVerified, user.IsOnline, user.LastSeen, user.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// GetByID retrieves a user by ID
func (r *userRepo) GetByID(ctx context.Context, id uuid.UUID) (model.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// GetByPhone retrieves a user by phone number
func (r *userRepo) GetByPhone(ctx context.Context, phone string) (model.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE phone_number = $1`, phone)
	return scanUser(row)
}

// UpdateProfile applies the non-nil fields of update and returns the stored user
func (r *userRepo) UpdateProfile(ctx context.Context, id uuid.UUID, update ProfileUpdate) (model.User, error) {
	query := `
		UPDATE users
		SET name = COALESCE($2, name),
		    location = COALESCE($3, location),
		    avatar = COALESCE($4, avatar)
		WHERE id = $1
		RETURNING ` + userColumns
	row := r.db.QueryRowContext(ctx, query, id, update.Name, update.Location, update.Avatar)
	return scanUser(row)
}

// SetPresence updates the online flag and last-seen time
func (r *userRepo) SetPresence(ctx context.Context, id uuid.UUID, online bool, lastSeen time.Time) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE users SET is_online = $2, last_seen = $3 WHERE id = $1
	`, id, online, lastSeen)
	if err != nil {
		return fmt.Errorf("failed to update presence: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanUser(row *sql.Row) (model.User, error) {
	var user model.User
	var avatar sql.NullString
	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.PhoneNumber,
		&user.Location,
		&avatar,
		&user.IsVerified,
		&user.IsOnline,
		&user.LastSeen,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, ErrNotFound
		}
		return model.User{}, fmt.Errorf("failed to query user: %w", err)
	}
	if avatar.Valid {
		user.Avatar = &avatar.String
	}
	return user, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
