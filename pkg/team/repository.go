package team

import (
	"context"
	"fmt"
	"strings"

	"github.com/levrixhq/levrix/pkg/database"
)

// Repository stores team members
type Repository interface {
	List(ctx context.Context, ownerID string) ([]Member, error)
	Count(ctx context.Context, ownerID string) (int, error)
	Insert(ctx context.Context, ownerID string, m *Member) error
	Delete(ctx context.Context, ownerID, id string) error
}

// SQLRepository is the database/sql implementation of Repository
type SQLRepository struct {
	db *database.Client
}

// NewSQLRepository creates a team repository
func NewSQLRepository(db *database.Client) *SQLRepository {
	return &SQLRepository{db: db}
}

// List returns an owner's members, oldest first
func (r *SQLRepository) List(ctx context.Context, ownerID string) ([]Member, error) {
	rows, err := r.db.DB.QueryContext(ctx,
		`SELECT id, email, name, role, status, created_at FROM team_members WHERE owner_id = $1 ORDER BY created_at ASC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list team members: %w", err)
	}
	defer rows.Close()

	var out []Member
	for rows.Next() {
		var m Member
		if err := rows.Scan(&m.ID, &m.Email, &m.Name, &m.Role, &m.Status, &m.JoinedAt); err != nil {
			return nil, fmt.Errorf("failed to scan team member: %w", err)
		}
		m.JoinedAt = m.JoinedAt.UTC()
		out = append(out, m)
	}
	return out, rows.Err()
}

// Count returns how many members an owner has invited
func (r *SQLRepository) Count(ctx context.Context, ownerID string) (int, error) {
	var n int
	err := r.db.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM team_members WHERE owner_id = $1`, ownerID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count team members: %w", err)
	}
	return n, nil
}

// Insert stores a new member. A repeated email yields ErrAlreadyInvited.
func (r *SQLRepository) Insert(ctx context.Context, ownerID string, m *Member) error {
	_, err := r.db.DB.ExecContext(ctx,
		`INSERT INTO team_members (id, owner_id, email, name, role, status, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		m.ID, ownerID, m.Email, m.Name, string(m.Role), string(m.Status), m.JoinedAt,
	)
	if err != nil {
		msg := strings.ToLower(err.Error())
		if strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate key") {
			return ErrAlreadyInvited
		}
		return fmt.Errorf("failed to insert team member: %w", err)
	}
	return nil
}

// Delete removes a member of ownerID
func (r *SQLRepository) Delete(ctx context.Context, ownerID, id string) error {
	res, err := r.db.DB.ExecContext(ctx, `DELETE FROM team_members WHERE owner_id = $1 AND id = $2`, ownerID, id)
	if err != nil {
		return fmt.Errorf("failed to delete team member: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete team member: %w", err)
	}
	if n == 0 {
		return ErrMemberNotFound
	}
	return nil
}

var _ Repository = (*SQLRepository)(nil)
