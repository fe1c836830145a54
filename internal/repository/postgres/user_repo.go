package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/bikepool/bikepool/internal/domain/user"
)

type userRepo struct {
	db *sql.DB
}

const userColumns = `id, username, email, is_rider, gender, gender_preference, bio, created_at`

func (r *userRepo) Create(ctx context.Context, u *user.User) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, username, email, is_rider, gender, gender_preference, bio, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, u.ID, u.Username, u.Email, u.IsRider, string(u.Gender), string(u.GenderPreference), u.Bio, u.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return user.ErrUsernameTaken
		}
		return fmt.Errorf("inserting user: %w", err)
	}
	return nil
}

func (r *userRepo) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

func (r *userRepo) GetByUsername(ctx context.Context, username string) (*user.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE LOWER(username) = LOWER($1)`, username)
	return scanUser(row)
}

func (r *userRepo) UsernameExists(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE LOWER(username) = LOWER($1))`, username).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking username: %w", err)
	}
	return exists, nil
}

func scanUser(row rowScanner) (*user.User, error) {
	var u user.User
	var gender, pref string
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.IsRider, &gender, &pref, &u.Bio, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, user.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning user: %w", err)
	}
	u.Gender = parseGender(gender)
	u.GenderPreference = parseGender(pref)
	return &u, nil
}

func parseGender(s string) user.Gender {
	switch user.Gender(s) {
	case user.GenderMale:
		return user.GenderMale
	case user.GenderFemale:
		return user.GenderFemale
	default:
		return user.GenderAny
	}
}
