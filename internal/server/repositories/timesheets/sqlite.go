package timesheets

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/timegrid/timegrid/internal/calendar"
	"github.com/timegrid/timegrid/internal/common"
	"github.com/timegrid/timegrid/internal/dbx"
	"github.com/timegrid/timegrid/internal/server/models"
)

// SQLiteRepository implements timesheet storage over a dbx.DBTX bound to a
// SQLite database. Week start dates live as TEXT in calendar.DateLayout,
// timestamps as SQLite's default "2006-01-02 15:04:05" strings.
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository constructs a repository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func parseSQLiteTimestamp(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02 15:04:05", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

func scanSQLiteHeader(row rowScanner) (*models.WeeklyTimesheet, error) {
	var t models.WeeklyTimesheet
	var weekStart, status, createdAt, updatedAt string
	if err := row.Scan(&t.ID, &t.UserID, &weekStart, &status, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	s, ok := models.ParseStatus(status)
	if !ok {
		return nil, fmt.Errorf("unknown timesheet status %q", status)
	}
	t.Status = s
	ws, err := calendar.ParseDate(weekStart)
	if err != nil {
		return nil, fmt.Errorf("bad week start date %q: %w", weekStart, err)
	}
	t.WeekStart = ws
	if t.CreatedAt, err = parseSQLiteTimestamp(createdAt); err != nil {
		return nil, err
	}
	if t.UpdatedAt, err = parseSQLiteTimestamp(updatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

// EnsureDraftHeader resolves the unique header for (userID, weekStart),
// inserting a fresh draft when none exists. INSERT OR IGNORE rides on the
// (user_id, week_start_date) unique constraint, so the follow-up read
// always observes exactly one row regardless of interleaving.
func (r *SQLiteRepository) EnsureDraftHeader(ctx context.Context, userID string, weekStart time.Time) (*models.WeeklyTimesheet, error) {
	query := `
		INSERT OR IGNORE INTO weekly_timesheets (id, user_id, week_start_date, status)
		VALUES (?, ?, ?, 'draft')`
	_, err := r.db.ExecContext(ctx, query, uuid.NewString(), userID, calendar.FormatDate(weekStart))
	if err != nil {
		return nil, fmt.Errorf("failed to insert timesheet header: %w", err)
	}
	return r.GetHeaderByUserWeek(ctx, userID, weekStart)
}

// GetHeader returns the header with the given ID, or ErrorNotFound.
func (r *SQLiteRepository) GetHeader(ctx context.Context, id string) (*models.WeeklyTimesheet, error) {
	query := `SELECT ` + headerColumns + ` FROM weekly_timesheets WHERE id = ?`
	t, err := scanSQLiteHeader(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select timesheet header: %w", err)
	}
	return t, nil
}

// GetHeaderByUserWeek returns the header for (userID, weekStart), or ErrorNotFound.
func (r *SQLiteRepository) GetHeaderByUserWeek(ctx context.Context, userID string, weekStart time.Time) (*models.WeeklyTimesheet, error) {
	query := `SELECT ` + headerColumns + ` FROM weekly_timesheets WHERE user_id = ? AND week_start_date = ?`
	t, err := scanSQLiteHeader(r.db.QueryRowContext(ctx, query, userID, calendar.FormatDate(weekStart)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select timesheet header: %w", err)
	}
	return t, nil
}

// ListHeaders returns the user's headers newest week first, optionally
// filtered by status (the empty status means no filter).
func (r *SQLiteRepository) ListHeaders(ctx context.Context, userID string, status models.Status) ([]*models.WeeklyTimesheet, error) {
	query := `SELECT ` + headerColumns + ` FROM weekly_timesheets WHERE user_id = ?`
	args := []any{userID}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY week_start_date DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select timesheet headers: %w", err)
	}
	defer rows.Close()

	var result []*models.WeeklyTimesheet
	for rows.Next() {
		t, err := scanSQLiteHeader(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// SetStatus transitions the header from one status to another, guarded on
// the current status. Zero affected rows yields ErrorNotFound when the
// header is gone and ErrorStatusConflict when it moved on.
func (r *SQLiteRepository) SetStatus(ctx context.Context, id string, from, to models.Status) error {
	query := `UPDATE weekly_timesheets SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND status = ?`
	res, err := r.db.ExecContext(ctx, query, string(to), id, string(from))
	if err != nil {
		return fmt.Errorf("failed to update timesheet status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	switch n {
	case 1:
		return nil
	case 0:
		cur, err := r.GetHeader(ctx, id)
		if err != nil {
			return err
		}
		return fmt.Errorf("%w: timesheet is %s, expected %s", common.ErrorStatusConflict, cur.Status, from)
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}

// GetEntries returns the timesheet's entry rows in insertion order.
func (r *SQLiteRepository) GetEntries(ctx context.Context, timesheetID string) ([]*models.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM timesheet_entries WHERE timesheet_id = ? ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, timesheetID)
	if err != nil {
		return nil, fmt.Errorf("failed to select timesheet entries: %w", err)
	}
	defer rows.Close()

	var result []*models.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// DeleteEntries removes every entry row of the timesheet.
func (r *SQLiteRepository) DeleteEntries(ctx context.Context, timesheetID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM timesheet_entries WHERE timesheet_id = ?`, timesheetID)
	if err != nil {
		return fmt.Errorf("failed to delete timesheet entries: %w", err)
	}
	return nil
}

// InsertEntries writes the given rows for the timesheet, assigning IDs to
// rows that carry none.
func (r *SQLiteRepository) InsertEntries(ctx context.Context, timesheetID string, entries []*models.Entry) error {
	query := fmt.Sprintf(`INSERT INTO timesheet_entries (%s) VALUES (%s)`,
		entryColumns, placeholders(5+7*3, false))
	for _, e := range entries {
		if e.ID == "" {
			e.ID = uuid.NewString()
		}
		e.TimesheetID = timesheetID
		if _, err := r.db.ExecContext(ctx, query, entryArgs(e)...); err != nil {
			return fmt.Errorf("failed to insert timesheet entry: %w", err)
		}
	}
	return nil
}

// FindEntryByKey locates the row matching (projectID, taskID, description)
// within a timesheet, or returns ErrorNotFound. A nil taskID matches only
// rows with no task.
func (r *SQLiteRepository) FindEntryByKey(ctx context.Context, timesheetID, projectID string, taskID *string, description string) (*models.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM timesheet_entries
		WHERE timesheet_id = ? AND project_id = ? AND task_id IS ? AND description = ?`
	e, err := scanEntry(r.db.QueryRowContext(ctx, query, timesheetID, projectID, nullString(taskID), description))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select timesheet entry: %w", err)
	}
	return e, nil
}

// UpdateEntryDaySlot overwrites a single weekday's hours and clock pair on
// an existing entry row.
func (r *SQLiteRepository) UpdateEntryDaySlot(ctx context.Context, entryID string, day int, slot models.DaySlot) error {
	if day < 0 || day > 6 {
		return fmt.Errorf("%w: day index %d out of range", common.ErrorValidation, day)
	}
	name := calendar.WeekdayNames()[day]
	query := fmt.Sprintf(`UPDATE timesheet_entries SET %s_hours = ?, %s_start_time = ?, %s_end_time = ? WHERE id = ?`,
		name, name, name)
	res, err := r.db.ExecContext(ctx, query, nullFloat(slot.Hours), clockOrSentinel(slot.StartTime), clockOrSentinel(slot.EndTime), entryID)
	if err != nil {
		return fmt.Errorf("failed to update timesheet entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
