// Package audit provides access to the door_events table for
// recording and querying the door's status history.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/oakmoor-systems/doorcore/internal/door"
)

// Entry represents a single recorded door status change.
type Entry struct {
	ID             string    `json:"id"`
	Status         string    `json:"status"`
	PreviousStatus string    `json:"previous_status"`
	Source         string    `json:"source"`
	Remote         bool      `json:"remote"`
	Pulsed         bool      `json:"pulsed"`
	CreatedAt      time.Time `json:"created_at"`
}

// Filter controls which door events to return.
type Filter struct {
	Status string // optional: filter by resulting status token
	Source string // optional: filter by event source (startup, interrupt, timeout, command)
	Limit  int    // default 50, max 200
	Offset int    // pagination offset
}

// ListResult contains the paginated door event results.
type ListResult struct {
	Events []Entry `json:"events"`
	Total  int     `json:"total"`
	Limit  int     `json:"limit"`
	Offset int     `json:"offset"`
}

// Repository defines the interface for door event persistence.
type Repository interface {
	Record(ctx context.Context, ev door.Event) error
	List(ctx context.Context, filter Filter) (*ListResult, error)
	CycleCount(ctx context.Context) (int, error)
}

// SQLiteRepository stores door events in SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new door event repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Record inserts a door event into the audit trail.
// The ID is generated; the timestamp comes from the event itself.
func (r *SQLiteRepository) Record(ctx context.Context, ev door.Event) error {
	at := ev.At
	if at.IsZero() {
		at = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO door_events (id, status, previous_status, source, remote, pulsed, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		"evt-"+uuid.NewString()[:8],
		ev.Status.Description(),
		ev.Previous.Description(),
		string(ev.Source),
		boolToInt(ev.Remote),
		boolToInt(ev.Pulsed),
		at.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting door event: %w", err)
	}

	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// List returns door events matching the filter, ordered by most recent first.
func (r *SQLiteRepository) List(ctx context.Context, filter Filter) (*ListResult, error) {
	// Clamp limit.
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	if filter.Limit > 200 { //nolint:mnd // max page size for event queries
		filter.Limit = 200
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	// Build WHERE clause dynamically.
	var conditions []string
	var args []any

	if filter.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, filter.Status)
	}
	if filter.Source != "" {
		conditions = append(conditions, "source = ?")
		args = append(args, filter.Source)
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	// Get total count.
	// WHERE clause is built from parameterised conditions; no user input
	// reaches the SQL string.
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM door_events %s", where) //nolint:gosec // WHERE built from parameterised conditions, not user input
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("counting door events: %w", err)
	}

	// Get paginated results.
	query := fmt.Sprintf( //nolint:gosec // WHERE built from parameterised conditions, not user input
		"SELECT id, status, previous_status, source, remote, pulsed, created_at FROM door_events %s ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?",
		where,
	)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying door events: %w", err)
	}
	defer rows.Close()

	var events []Entry
	for rows.Next() {
		var e Entry
		var remote, pulsed int
		var createdAt string

		if err := rows.Scan(&e.ID, &e.Status, &e.PreviousStatus,
			&e.Source, &remote, &pulsed, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning door event: %w", err)
		}

		e.Remote = remote != 0
		e.Pulsed = pulsed != 0

		t, err := time.Parse(time.RFC3339, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parsing door event timestamp %q: %w", createdAt, err)
		}
		e.CreatedAt = t

		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating door events: %w", err)
	}

	if events == nil {
		events = []Entry{}
	}

	return &ListResult{
		Events: events,
		Total:  total,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}, nil
}

// CycleCount returns the number of completed close cycles recorded.
// A cycle is counted each time the door settles fully closed.
func (r *SQLiteRepository) CycleCount(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM door_events WHERE status = ? AND previous_status != ?",
		door.StatusClosed.Description(), door.StatusClosed.Description(),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting door cycles: %w", err)
	}
	return count, nil
}
