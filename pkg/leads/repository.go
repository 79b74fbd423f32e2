package leads

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/levrixhq/levrix/pkg/database"
)

// ErrLeadNotFound is returned when a lead does not exist for the user
var ErrLeadNotFound = errors.New("lead not found")

// Repository persists leads
type Repository interface {
	ListByUser(ctx context.Context, userID string) ([]Lead, error)
	Get(ctx context.Context, userID, id string) (*Lead, error)
	Insert(ctx context.Context, lead *Lead) error
	Update(ctx context.Context, lead *Lead) error
	MarkContacted(ctx context.Context, userID string, ids []string, at time.Time) (int64, error)
	Count(ctx context.Context, userID string) (int, error)
	Owners(ctx context.Context) ([]string, error)
}

// SQLRepository stores leads in the leads table. Derived fields travel
// inside the notes column.
type SQLRepository struct {
	db *database.Client
}

// NewSQLRepository creates a repository over db
func NewSQLRepository(db *database.Client) *SQLRepository {
	return &SQLRepository{db: db}
}

const leadColumns = `id, user_id, name, email, phone, source, status, stage, notes, created_at, updated_at, last_contacted, first_contacted_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLead(row rowScanner) (*Lead, error) {
	var (
		l              Lead
		source, status string
		stage, notes   string
		lastContacted  sql.NullTime
		firstContacted sql.NullTime
	)

	err := row.Scan(&l.ID, &l.UserID, &l.Name, &l.Email, &l.Phone, &source, &status, &stage,
		&notes, &l.CreatedAt, &l.UpdatedAt, &lastContacted, &firstContacted)
	if err != nil {
		return nil, err
	}

	if l.Name == "" {
		l.Name = "Unknown Buyer"
	}
	l.Source = Source(source)
	if !l.Source.Valid() {
		l.Source = SourceManual
	}
	l.Status = Status(status)
	if !l.Status.Valid() {
		l.Status = StatusNew
	}
	l.Stage = Stage(stage)
	if !l.Stage.Valid() {
		l.Stage = StageInquiry
	}

	l.CreatedAt = l.CreatedAt.UTC()
	l.UpdatedAt = l.UpdatedAt.UTC()
	if lastContacted.Valid {
		t := lastContacted.Time.UTC()
		l.LastContacted = &t
	}
	if firstContacted.Valid {
		t := firstContacted.Time.UTC()
		l.FirstContactedAt = &t
	}

	text, meta, _ := DecodeNotes(notes)
	l.Notes = text
	applyMetadata(&l, meta)

	return &l, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

// ListByUser returns every lead of a user, newest first
func (r *SQLRepository) ListByUser(ctx context.Context, userID string) ([]Lead, error) {
	rows, err := r.db.DB.QueryContext(ctx,
		`SELECT `+leadColumns+` FROM leads WHERE user_id = $1 ORDER BY created_at DESC, id ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query leads: %w", err)
	}
	defer rows.Close()

	var out []Lead
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan lead: %w", err)
		}
		out = append(out, *l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate leads: %w", err)
	}
	return out, nil
}

// Get returns one lead owned by userID
func (r *SQLRepository) Get(ctx context.Context, userID, id string) (*Lead, error) {
	row := r.db.DB.QueryRowContext(ctx,
		`SELECT `+leadColumns+` FROM leads WHERE id = $1 AND user_id = $2`, id, userID)

	l, err := scanLead(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrLeadNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get lead: %w", err)
	}
	return l, nil
}

// Insert stores a new lead
func (r *SQLRepository) Insert(ctx context.Context, l *Lead) error {
	_, err := r.db.DB.ExecContext(ctx,
		`INSERT INTO leads (`+leadColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		l.ID, l.UserID, l.Name, l.Email, l.Phone, string(l.Source), string(l.Status), string(l.Stage),
		EncodeNotes(l.Notes, metadataOf(*l)), l.CreatedAt.UTC(), l.UpdatedAt.UTC(),
		nullTime(l.LastContacted), nullTime(l.FirstContactedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert lead: %w", err)
	}
	return nil
}

// Update rewrites the mutable columns of a lead
func (r *SQLRepository) Update(ctx context.Context, l *Lead) error {
	res, err := r.db.DB.ExecContext(ctx,
		`UPDATE leads SET name = $1, email = $2, phone = $3, source = $4, status = $5, stage = $6,
		 notes = $7, updated_at = $8, last_contacted = $9, first_contacted_at = $10
		 WHERE id = $11 AND user_id = $12`,
		l.Name, l.Email, l.Phone, string(l.Source), string(l.Status), string(l.Stage),
		EncodeNotes(l.Notes, metadataOf(*l)), l.UpdatedAt.UTC(),
		nullTime(l.LastContacted), nullTime(l.FirstContactedAt), l.ID, l.UserID,
	)
	if err != nil {
		return fmt.Errorf("failed to update lead: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update lead: %w", err)
	}
	if n == 0 {
		return ErrLeadNotFound
	}
	return nil
}

// MarkContacted stamps last_contacted, and first_contacted_at when it is still empty
func (r *SQLRepository) MarkContacted(ctx context.Context, userID string, ids []string, at time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	args := []any{at.UTC(), userID}
	marks := make([]string, len(ids))
	for i, id := range ids {
		args = append(args, id)
		marks[i] = fmt.Sprintf("$%d", i+3)
	}

	res, err := r.db.DB.ExecContext(ctx,
		`UPDATE leads SET last_contacted = $1, updated_at = $1,
		 first_contacted_at = COALESCE(first_contacted_at, $1)
		 WHERE user_id = $2 AND id IN (`+strings.Join(marks, ", ")+`)`,
		args...,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to mark leads contacted: %w", err)
	}
	return res.RowsAffected()
}

// Count returns how many leads a user owns
func (r *SQLRepository) Count(ctx context.Context, userID string) (int, error) {
	var n int
	if err := r.db.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM leads WHERE user_id = $1`, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count leads: %w", err)
	}
	return n, nil
}

// Owners returns every user id that owns at least one lead
func (r *SQLRepository) Owners(ctx context.Context) ([]string, error) {
	rows, err := r.db.DB.QueryContext(ctx, `SELECT DISTINCT user_id FROM leads ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list lead owners: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan owner: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
