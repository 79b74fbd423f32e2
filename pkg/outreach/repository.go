package outreach

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/levrixhq/levrix/pkg/database"
)

// LogStore persists message logs
type LogStore interface {
	Insert(ctx context.Context, l *MessageLog) error
	History(ctx context.Context, userID, search string, offset, limit int) ([]MessageLog, int, error)
	ClaimDue(ctx context.Context, now time.Time, batch int) ([]MessageLog, error)
	Finish(ctx context.Context, id string, status Status, providerID, errMsg string, sentAt *time.Time) error
	Release(ctx context.Context, id string) error
	Scheduled(ctx context.Context, userID string, from, to time.Time) ([]MessageLog, error)
}

// ClaimLease is how long a Dispatching row belongs to the pass that claimed
// it. After that another pass may claim it again.
const ClaimLease = 10 * time.Minute

// SQLLogStore is the database-backed LogStore
type SQLLogStore struct {
	db *database.Client
}

// NewSQLLogStore creates a log store
func NewSQLLogStore(db *database.Client) *SQLLogStore {
	return &SQLLogStore{db: db}
}

const logColumns = `id, user_id, lead_id, lead_name, channel, status, content, error, provider_id, sent_at, scheduled_at, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLog(row rowScanner) (*MessageLog, error) {
	var (
		l         MessageLog
		channel   string
		status    string
		sent      sql.NullTime
		scheduled sql.NullTime
	)
	if err := row.Scan(&l.ID, &l.UserID, &l.LeadID, &l.LeadName, &channel, &status, &l.Content, &l.Error,
		&l.ProviderID, &sent, &scheduled, &l.CreatedAt); err != nil {
		return nil, err
	}
	l.Channel = Channel(channel)
	l.Status = Status(status)
	l.CreatedAt = l.CreatedAt.UTC()
	if sent.Valid {
		t := sent.Time.UTC()
		l.SentAt = &t
	}
	if scheduled.Valid {
		t := scheduled.Time.UTC()
		l.ScheduledAt = &t
	}
	return &l, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

// Insert appends a log entry
func (s *SQLLogStore) Insert(ctx context.Context, l *MessageLog) error {
	_, err := s.db.DB.ExecContext(ctx,
		`INSERT INTO message_logs (`+logColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		l.ID, l.UserID, l.LeadID, l.LeadName, string(l.Channel), string(l.Status), l.Content, l.Error,
		l.ProviderID, nullTime(l.SentAt), nullTime(l.ScheduledAt), l.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert message log: %w", err)
	}
	return nil
}

// History returns a page of a user's logs, newest first, and the total match count
func (s *SQLLogStore) History(ctx context.Context, userID, search string, offset, limit int) ([]MessageLog, int, error) {
	where := `user_id = $1`
	args := []any{userID}
	if term := strings.ToLower(strings.TrimSpace(search)); term != "" {
		where += ` AND (LOWER(lead_name) LIKE $2 OR LOWER(content) LIKE $2)`
		args = append(args, "%"+term+"%")
	}

	var total int
	if err := s.db.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM message_logs WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count message logs: %w", err)
	}

	n := len(args)
	query := fmt.Sprintf(`SELECT %s FROM message_logs WHERE %s ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d`,
		logColumns, where, n+1, n+2)
	args = append(args, limit, offset)

	logs, err := s.query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}

// ClaimDue moves up to batch due logs into Dispatching and returns them.
// Queued rows are due once scheduled_at has passed; Dispatching rows whose
// lease expired are claimed again. The UPDATE re-checks the row, so
// concurrent passes never dispatch the same message twice.
func (s *SQLLogStore) ClaimDue(ctx context.Context, now time.Time, batch int) ([]MessageLog, error) {
	now = now.UTC()
	stale := now.Add(-ClaimLease)
	due, err := s.query(ctx,
		`SELECT `+logColumns+` FROM message_logs
		 WHERE (status = $1 AND scheduled_at <= $2) OR (status = $3 AND claimed_at <= $4)
		 ORDER BY scheduled_at LIMIT $5`,
		string(StatusQueued), now, string(StatusDispatching), stale, batch,
	)
	if err != nil {
		return nil, err
	}

	claimed := make([]MessageLog, 0, len(due))
	for _, l := range due {
		res, err := s.db.DB.ExecContext(ctx,
			`UPDATE message_logs SET status = $1, claimed_at = $2
			 WHERE id = $3 AND (status = $4 OR (status = $1 AND claimed_at <= $5))`,
			string(StatusDispatching), now, l.ID, string(StatusQueued), stale,
		)
		if err != nil {
			return claimed, fmt.Errorf("failed to claim message log: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 1 {
			l.Status = StatusDispatching
			claimed = append(claimed, l)
		}
	}
	return claimed, nil
}

// Finish records the outcome of a claimed message
func (s *SQLLogStore) Finish(ctx context.Context, id string, status Status, providerID, errMsg string, sentAt *time.Time) error {
	_, err := s.db.DB.ExecContext(ctx,
		`UPDATE message_logs SET status = $1, provider_id = $2, error = $3, sent_at = $4, claimed_at = NULL WHERE id = $5`,
		string(status), providerID, errMsg, nullTime(sentAt), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update message log: %w", err)
	}
	return nil
}

// Release puts a claimed message back in the queue
func (s *SQLLogStore) Release(ctx context.Context, id string) error {
	_, err := s.db.DB.ExecContext(ctx,
		`UPDATE message_logs SET status = $1, claimed_at = NULL WHERE id = $2 AND status = $3`,
		string(StatusQueued), id, string(StatusDispatching),
	)
	if err != nil {
		return fmt.Errorf("failed to release message log: %w", err)
	}
	return nil
}

// Scheduled returns a user's logs scheduled within [from, to)
func (s *SQLLogStore) Scheduled(ctx context.Context, userID string, from, to time.Time) ([]MessageLog, error) {
	return s.query(ctx,
		`SELECT `+logColumns+` FROM message_logs WHERE user_id = $1 AND scheduled_at >= $2 AND scheduled_at < $3 ORDER BY scheduled_at`,
		userID, from.UTC(), to.UTC(),
	)
}

func (s *SQLLogStore) query(ctx context.Context, query string, args ...any) ([]MessageLog, error) {
	rows, err := s.db.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query message logs: %w", err)
	}
	defer rows.Close()

	var out []MessageLog
	for rows.Next() {
		l, err := scanLog(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message log: %w", err)
		}
		out = append(out, *l)
	}
	return out, rows.Err()
}
