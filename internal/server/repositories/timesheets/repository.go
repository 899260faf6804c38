// Package timesheets provides the persistence boundary for weekly
// timesheet headers and their entry rows. Implementations are bound to a
// dbx.DBTX so the same repository code runs over a plain connection or
// inside a transaction; multi-statement operations (the atomic row
// replace, the timer slot upsert) are composed by the service layer
// inside dbx.WithTx.
package timesheets

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
	"time"

	"github.com/timegrid/timegrid/internal/calendar"
	"github.com/timegrid/timegrid/internal/dayslot"
	"github.com/timegrid/timegrid/internal/server/models"
)

// Repository is the storage contract the lifecycle engine depends on.
//
// EnsureDraftHeader must be a single conditional insert-or-return keyed
// on (userID, weekStart): concurrent callers for the same pair observe
// exactly one header, and an existing header's status is never touched.
// SetStatus is an optimistic guarded update; zero affected rows is
// reported as either a not-found or a status-conflict error, never
// silently ignored.
type Repository interface {
	EnsureDraftHeader(ctx context.Context, userID string, weekStart time.Time) (*models.WeeklyTimesheet, error)
	GetHeader(ctx context.Context, id string) (*models.WeeklyTimesheet, error)
	GetHeaderByUserWeek(ctx context.Context, userID string, weekStart time.Time) (*models.WeeklyTimesheet, error)
	ListHeaders(ctx context.Context, userID string, status models.Status) ([]*models.WeeklyTimesheet, error)
	SetStatus(ctx context.Context, id string, from, to models.Status) error

	GetEntries(ctx context.Context, timesheetID string) ([]*models.Entry, error)
	DeleteEntries(ctx context.Context, timesheetID string) error
	InsertEntries(ctx context.Context, timesheetID string, rows []*models.Entry) error
	FindEntryByKey(ctx context.Context, timesheetID, projectID string, taskID *string, description string) (*models.Entry, error)
	UpdateEntryDaySlot(ctx context.Context, entryID string, day int, slot models.DaySlot) error
}

// dayColumns lists the 21 per-day entry columns in week order:
// <day>_hours, <day>_start_time, <day>_end_time for Monday..Sunday.
var dayColumns = func() []string {
	names := calendar.WeekdayNames()
	cols := make([]string, 0, len(names)*3)
	for _, d := range names {
		cols = append(cols, d+"_hours", d+"_start_time", d+"_end_time")
	}
	return cols
}()

const entryBaseColumns = "id, timesheet_id, project_id, task_id, description"

// entryColumns is the full entry column list shared by both dialects.
var entryColumns = entryBaseColumns + ", " + strings.Join(dayColumns, ", ")

type rowScanner interface {
	Scan(dest ...any) error
}

// scanEntry reads one entry row in entryColumns order.
func scanEntry(row rowScanner) (*models.Entry, error) {
	var e models.Entry
	var taskID sql.NullString
	var hours [7]sql.NullFloat64

	dest := make([]any, 0, 5+7*3)
	dest = append(dest, &e.ID, &e.TimesheetID, &e.ProjectID, &taskID, &e.Description)
	for i := 0; i < 7; i++ {
		dest = append(dest, &hours[i], &e.Days[i].StartTime, &e.Days[i].EndTime)
	}
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	if taskID.Valid {
		e.TaskID = &taskID.String
	}
	for i := 0; i < 7; i++ {
		if hours[i].Valid {
			v := hours[i].Float64
			e.Days[i].Hours = &v
		}
	}
	return &e, nil
}

// entryArgs renders an entry's values in entryColumns order.
func entryArgs(e *models.Entry) []any {
	args := make([]any, 0, 5+7*3)
	args = append(args, e.ID, e.TimesheetID, e.ProjectID, nullString(e.TaskID), e.Description)
	for i := 0; i < 7; i++ {
		args = append(args, nullFloat(e.Days[i].Hours), clockOrSentinel(e.Days[i].StartTime), clockOrSentinel(e.Days[i].EndTime))
	}
	return args
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func clockOrSentinel(s string) string {
	if s == "" {
		return dayslot.Sentinel
	}
	return s
}

// placeholders renders "$1, $2, ..., $n" (postgres) or "?, ?, ..." (sqlite).
func placeholders(n int, numbered bool) string {
	var b strings.Builder
	for i := 1; i <= n; i++ {
		if i > 1 {
			b.WriteString(", ")
		}
		if numbered {
			b.WriteString("$")
			b.WriteString(strconv.Itoa(i))
		} else {
			b.WriteString("?")
		}
	}
	return b.String()
}
