package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rpggio/tally/internal/domain/activity"
	"github.com/rpggio/tally/internal/repository"
)

// ActivityRepository stores the project activity log in the activity_log table.
type ActivityRepository struct {
	db *DB
}

var _ repository.ActivityRepository = (*ActivityRepository)(nil)

func NewActivityRepository(db *DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

const insertActivity = `INSERT INTO activity_log (project_id, activity_type, summary, details, created_at)
VALUES (?, ?, ?, ?, ?)`

// Log appends entry and fills in its ID. A zero CreatedAt is stamped with the current time.
func (r *ActivityRepository) Log(ctx context.Context, entry *activity.ActivityEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	res, err := r.db.ExecContext(ctx, insertActivity,
		entry.ProjectID, entry.ActivityType, entry.Summary, entry.Details, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to log activity: %w", err)
	}
	if id, err := res.LastInsertId(); err == nil {
		entry.ID = id
	}
	return nil
}

// List returns matching entries, newest first.
func (r *ActivityRepository) List(ctx context.Context, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error) {
	query, args := activityQuery(opts)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list activity: %w", err)
	}
	defer rows.Close()

	var entries []activity.ActivityEntry
	for rows.Next() {
		var (
			e       activity.ActivityEntry
			details sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.ProjectID, &e.ActivityType, &e.Summary, &details, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan activity entry: %w", err)
		}
		e.Details = details.String
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read activity rows: %w", err)
	}
	return entries, nil
}

func activityQuery(opts activity.ListActivityOptions) (string, []any) {
	var (
		b     strings.Builder
		where []string
		args  []any
	)
	b.WriteString("SELECT id, project_id, activity_type, summary, details, created_at FROM activity_log")

	if opts.ProjectID != "" {
		where = append(where, "project_id = ?")
		args = append(args, opts.ProjectID)
	}
	if opts.ActivityType != nil {
		where = append(where, "activity_type = ?")
		args = append(args, *opts.ActivityType)
	}
	if len(where) > 0 {
		b.WriteString(" WHERE " + strings.Join(where, " AND "))
	}
	b.WriteString(" ORDER BY created_at DESC, id DESC")

	// SQLite only accepts OFFSET after a LIMIT; -1 means unbounded.
	switch {
	case opts.Limit > 0:
		b.WriteString(" LIMIT ?")
		args = append(args, opts.Limit)
	case opts.Offset > 0:
		b.WriteString(" LIMIT -1")
	}
	if opts.Offset > 0 {
		b.WriteString(" OFFSET ?")
		args = append(args, opts.Offset)
	}
	return b.String(), args
}
