package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/levrixhq/levrix/pkg/database"
	"github.com/levrixhq/levrix/pkg/integrations"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email already registered")
)

// User is an account that owns leads
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FullName     string    `json:"fullName"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Repository stores accounts
type Repository struct {
	db *database.Client
}

// NewRepository creates a user repository
func NewRepository(db *database.Client) *Repository {
	return &Repository{db: db}
}

// Create inserts the user and its profile row in one transaction. The profile
// starts on the Starter plan with default integrations.
func (r *Repository) Create(ctx context.Context, u *User, companyName string) error {
	settings, err := integrations.Defaults().Encode()
	if err != nil {
		return err
	}

	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		var exists int
		err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE email = $1`, u.Email).Scan(&exists)
		if err != nil {
			return fmt.Errorf("failed to check email: %w", err)
		}
		if exists > 0 {
			return ErrEmailTaken
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO users (id, email, password_hash, full_name, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6)`,
			u.ID, u.Email, u.PasswordHash, u.FullName, u.CreatedAt, u.UpdatedAt,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return ErrEmailTaken
			}
			return fmt.Errorf("failed to insert user: %w", err)
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO profiles (user_id, full_name, company_name, subscription_plan, integrations, updated_at) VALUES ($1, $2, $3, $4, $5, $6)`,
			u.ID, u.FullName, companyName, "Starter", settings, u.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert profile: %w", err)
		}
		return nil
	})
}

// GetByEmail finds a user by login email
func (r *Repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	row := r.db.DB.QueryRowContext(ctx,
		`SELECT id, email, password_hash, full_name, created_at, updated_at FROM users WHERE email = $1`, email)
	return scanUser(row)
}

// GetByID finds a user by id
func (r *Repository) GetByID(ctx context.Context, id string) (*User, error) {
	row := r.db.DB.QueryRowContext(ctx,
		`SELECT id, email, password_hash, full_name, created_at, updated_at FROM users WHERE id = $1`, id)
	return scanUser(row)
}

func scanUser(row *sql.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FullName, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	u.CreatedAt = u.CreatedAt.UTC()
	u.UpdatedAt = u.UpdatedAt.UTC()
	return &u, nil
}

// the drivers report duplicates with different wording
func isUniqueViolation(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate key")
}
