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

const headerColumns = "id, user_id, week_start_date, status, created_at, updated_at"

// PostgresRepository implements timesheet storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func scanPostgresHeader(row rowScanner) (*models.WeeklyTimesheet, error) {
	var t models.WeeklyTimesheet
	var status string
	if err := row.Scan(&t.ID, &t.UserID, &t.WeekStart, &status, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	s, ok := models.ParseStatus(status)
	if !ok {
		return nil, fmt.Errorf("unknown timesheet status %q", status)
	}
	t.Status = s
	t.WeekStart = calendar.MondayOf(t.WeekStart)
	return &t, nil
}

// EnsureDraftHeader resolves the unique header for (userID, weekStart),
// inserting a fresh draft when none exists. The conditional insert keyed on
// the (user_id, week_start_date) unique constraint guarantees concurrent
// callers converge on a single row; an existing header is returned as-is,
// whatever its status.
func (r *PostgresRepository) EnsureDraftHeader(ctx context.Context, userID string, weekStart time.Time) (*models.WeeklyTimesheet, error) {
	query := `
		INSERT INTO weekly_timesheets (id, user_id, week_start_date, status)
		VALUES ($1, $2, $3, 'draft')
		ON CONFLICT (user_id, week_start_date) DO NOTHING
		RETURNING ` + headerColumns

	row := r.db.QueryRowContext(ctx, query, uuid.NewString(), userID, calendar.FormatDate(weekStart))
	t, err := scanPostgresHeader(row)
	if err == nil {
		return t, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to insert timesheet header: %w", err)
	}
	// Lost the race (or the header predates us); fetch the winner.
	return r.GetHeaderByUserWeek(ctx, userID, weekStart)
}

// GetHeader returns the header with the given ID, or ErrorNotFound.
func (r *PostgresRepository) GetHeader(ctx context.Context, id string) (*models.WeeklyTimesheet, error) {
	query := `SELECT ` + headerColumns + ` FROM weekly_timesheets WHERE id = $1`
	t, err := scanPostgresHeader(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select timesheet header: %w", err)
	}
	return t, nil
}

// GetHeaderByUserWeek returns the header for (userID, weekStart), or ErrorNotFound.
func (r *PostgresRepository) GetHeaderByUserWeek(ctx context.Context, userID string, weekStart time.Time) (*models.WeeklyTimesheet, error) {
	query := `SELECT ` + headerColumns + ` FROM weekly_timesheets WHERE user_id = $1 AND week_start_date = $2`
	t, err := scanPostgresHeader(r.db.QueryRowContext(ctx, query, userID, calendar.FormatDate(weekStart)))
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
func (r *PostgresRepository) ListHeaders(ctx context.Context, userID string, status models.Status) ([]*models.WeeklyTimesheet, error) {
	query := `SELECT ` + headerColumns + ` FROM weekly_timesheets WHERE user_id = $1`
	args := []any{userID}
	if status != "" {
		query += ` AND status = $2`
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
		t, err := scanPostgresHeader(rows)
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

// SetStatus transitions the header from one status to another. The update is
// guarded on the current status so a concurrent transition cannot be
// overwritten: zero affected rows yields ErrorNotFound when the header is
// gone and ErrorStatusConflict when it moved on.
func (r *PostgresRepository) SetStatus(ctx context.Context, id string, from, to models.Status) error {
	query := `UPDATE weekly_timesheets SET status = $1, updated_at = now() WHERE id = $2 AND status = $3`
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
func (r *PostgresRepository) GetEntries(ctx context.Context, timesheetID string) ([]*models.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM timesheet_entries WHERE timesheet_id = $1 ORDER BY id`
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
func (r *PostgresRepository) DeleteEntries(ctx context.Context, timesheetID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM timesheet_entries WHERE timesheet_id = $1`, timesheetID)
	if err != nil {
		return fmt.Errorf("failed to delete timesheet entries: %w", err)
	}
	return nil
}

// InsertEntries writes the given rows for the timesheet, assigning IDs to
// rows that carry none.
func (r *PostgresRepository) InsertEntries(ctx context.Context, timesheetID string, entries []*models.Entry) error {
	query := fmt.Sprintf(`INSERT INTO timesheet_entries (%s) VALUES (%s)`,
		entryColumns, placeholders(5+7*3, true))
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
func (r *PostgresRepository) FindEntryByKey(ctx context.Context, timesheetID, projectID string, taskID *string, description string) (*models.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM timesheet_entries
		WHERE timesheet_id = $1 AND project_id = $2 AND task_id IS NOT DISTINCT FROM $3 AND description = $4`
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
func (r *PostgresRepository) UpdateEntryDaySlot(ctx context.Context, entryID string, day int, slot models.DaySlot) error {
	if day < 0 || day > 6 {
		return fmt.Errorf("%w: day index %d out of range", common.ErrorValidation, day)
	}
	name := calendar.WeekdayNames()[day]
	query := fmt.Sprintf(`UPDATE timesheet_entries SET %s_hours = $1, %s_start_time = $2, %s_end_time = $3 WHERE id = $4`,
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
