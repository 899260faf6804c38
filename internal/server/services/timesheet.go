// Package services hosts the timesheet lifecycle engine: header
// resolution, grid saves, status transitions, timer intake, and the
// open-week walk. All multi-step writes run inside a single database
// transaction via dbx.WithTx.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/timegrid/timegrid/internal/calendar"
	"github.com/timegrid/timegrid/internal/common"
	"github.com/timegrid/timegrid/internal/dayslot"
	"github.com/timegrid/timegrid/internal/dbx"
	"github.com/timegrid/timegrid/internal/logging"
	"github.com/timegrid/timegrid/internal/server/models"
	"github.com/timegrid/timegrid/internal/server/repositories/repomanager"
)

// openWeekHorizon bounds the forward walk of NextOpenWeek.
const openWeekHorizon = 52

// TimesheetService implements the weekly timesheet lifecycle over a
// repository manager. It is safe for concurrent use.
type TimesheetService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	log         logging.Logger
}

// NewTimesheetService constructs the lifecycle service.
func NewTimesheetService(db *sql.DB, m repomanager.RepositoryManager, log logging.Logger) *TimesheetService {
	return &TimesheetService{
		db:          db,
		repomanager: m,
		log:         log.With("module", "timesheets"),
	}
}

// TimesheetView is a header together with its entry rows.
type TimesheetView struct {
	Header  *models.WeeklyTimesheet
	Entries []*models.Entry
}

func requireMonday(weekStart time.Time) (time.Time, error) {
	m := calendar.MondayOf(weekStart)
	if !calendar.SameDay(m, weekStart) {
		return time.Time{}, fmt.Errorf("%w: %s is not a Monday", common.ErrorValidation, calendar.FormatDate(weekStart))
	}
	return m, nil
}

// EnsureDraft resolves the caller's header for the given week, creating a
// draft when none exists. weekStart must be a Monday. An existing header
// is returned untouched whatever its status.
func (s *TimesheetService) EnsureDraft(ctx context.Context, identity models.Identity, weekStart time.Time) (*models.WeeklyTimesheet, error) {
	week, err := requireMonday(weekStart)
	if err != nil {
		return nil, err
	}
	repo := s.repomanager.Timesheets(s.db)
	h, err := repo.EnsureDraftHeader(ctx, identity.UserID, week)
	if err != nil {
		return nil, err
	}
	s.log.Info(ctx, "draft ensured", "user_id", identity.UserID, "week", calendar.FormatDate(week), "status", string(h.Status))
	return h, nil
}

// normalizeRows drops blank rows and reconciles every day slot.
func normalizeRows(rows []*models.Entry) ([]*models.Entry, error) {
	kept := make([]*models.Entry, 0, len(rows))
	for _, row := range rows {
		if row.Blank() {
			continue
		}
		for i := range row.Days {
			h, start, end, err := dayslot.Normalize(row.Days[i].Hours, row.Days[i].StartTime, row.Days[i].EndTime)
			if err != nil {
				return nil, err
			}
			row.Days[i] = models.DaySlot{Hours: h, StartTime: start, EndTime: end}
		}
		kept = append(kept, row)
	}
	return kept, nil
}

// SaveGrid replaces the caller's entry rows for the given week in one
// transaction. The header is resolved first: created as a draft when
// absent, recycled from rejected back to draft, refused while submitted
// or approved. Blank rows (no project) are dropped silently; every kept
// slot is reconciled so its hours and clock pair agree. When submit is
// set the header is flipped draft→submitted after the rows land.
func (s *TimesheetService) SaveGrid(ctx context.Context, identity models.Identity, weekStart time.Time, rows []*models.Entry, submit bool) (*TimesheetView, error) {
	week, err := requireMonday(weekStart)
	if err != nil {
		return nil, err
	}
	kept, err := normalizeRows(rows)
	if err != nil {
		return nil, err
	}

	var view TimesheetView
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Timesheets(tx)

		header, err := repo.EnsureDraftHeader(ctx, identity.UserID, week)
		if err != nil {
			return err
		}
		switch header.Status {
		case models.StatusDraft:
		case models.StatusRejected:
			// a rejected week is editable again; the same header is
			// recycled so the one-per-week invariant holds
			if err := repo.SetStatus(ctx, header.ID, models.StatusRejected, models.StatusDraft); err != nil {
				return err
			}
			header.Status = models.StatusDraft
		default:
			return fmt.Errorf("%w: timesheet is %s", common.ErrorStatusConflict, header.Status)
		}

		if err := repo.DeleteEntries(ctx, header.ID); err != nil {
			return err
		}
		if err := repo.InsertEntries(ctx, header.ID, kept); err != nil {
			return err
		}

		if submit {
			if err := repo.SetStatus(ctx, header.ID, models.StatusDraft, models.StatusSubmitted); err != nil {
				return err
			}
			header.Status = models.StatusSubmitted
		}

		view.Header = header
		view.Entries = kept
		return nil
	})
	if err != nil {
		return nil, err
	}

	var total float64
	for _, row := range kept {
		total += row.TotalHours()
	}
	s.log.Info(ctx, "grid saved", "user_id", identity.UserID, "week", calendar.FormatDate(week),
		"rows", len(kept), "hours", dayslot.Round2(total), "status", string(view.Header.Status))
	return &view, nil
}

// Submit flips the caller's own timesheet from draft to submitted.
func (s *TimesheetService) Submit(ctx context.Context, identity models.Identity, timesheetID string) (*models.WeeklyTimesheet, error) {
	return s.transition(ctx, identity, timesheetID, models.StatusDraft, models.StatusSubmitted, false)
}

// Approve flips a submitted timesheet to approved. Moderators only.
func (s *TimesheetService) Approve(ctx context.Context, identity models.Identity, timesheetID string) (*models.WeeklyTimesheet, error) {
	return s.transition(ctx, identity, timesheetID, models.StatusSubmitted, models.StatusApproved, true)
}

// Reject flips a submitted timesheet to rejected. Moderators only.
func (s *TimesheetService) Reject(ctx context.Context, identity models.Identity, timesheetID string) (*models.WeeklyTimesheet, error) {
	return s.transition(ctx, identity, timesheetID, models.StatusSubmitted, models.StatusRejected, true)
}

func (s *TimesheetService) transition(ctx context.Context, identity models.Identity, timesheetID string, from, to models.Status, moderation bool) (*models.WeeklyTimesheet, error) {
	repo := s.repomanager.Timesheets(s.db)

	header, err := repo.GetHeader(ctx, timesheetID)
	if err != nil {
		return nil, err
	}
	if moderation {
		if !identity.CanModerate() {
			return nil, fmt.Errorf("%w: role %s cannot approve or reject", common.ErrorPermissionDenied, identity.Role)
		}
	} else if header.UserID != identity.UserID {
		return nil, fmt.Errorf("%w: not the timesheet owner", common.ErrorPermissionDenied)
	}

	if err := repo.SetStatus(ctx, timesheetID, from, to); err != nil {
		return nil, err
	}
	header.Status = to
	s.log.Info(ctx, "status changed", "timesheet_id", timesheetID, "from", string(from), "to", string(to),
		"actor", identity.UserID)
	return header, nil
}

// GetTimesheet returns a header with its rows. Owners always see their
// own sheets; moderators see everyone's.
func (s *TimesheetService) GetTimesheet(ctx context.Context, identity models.Identity, timesheetID string) (*TimesheetView, error) {
	repo := s.repomanager.Timesheets(s.db)

	header, err := repo.GetHeader(ctx, timesheetID)
	if err != nil {
		return nil, err
	}
	if header.UserID != identity.UserID && !identity.CanModerate() {
		return nil, fmt.Errorf("%w: not the timesheet owner", common.ErrorPermissionDenied)
	}
	rows, err := repo.GetEntries(ctx, header.ID)
	if err != nil {
		return nil, err
	}
	return &TimesheetView{Header: header, Entries: rows}, nil
}

// ListTimesheets returns the caller's own headers, newest week first,
// optionally filtered by status.
func (s *TimesheetService) ListTimesheets(ctx context.Context, identity models.Identity, status models.Status) ([]*models.WeeklyTimesheet, error) {
	repo := s.repomanager.Timesheets(s.db)
	return repo.ListHeaders(ctx, identity.UserID, status)
}

// CopyFromPreviousWeek stages the previous week's rows for the given
// week with their identities stripped. Nothing is written; the staged
// rows only persist through a later SaveGrid. A missing previous week
// yields an empty result, not an error.
func (s *TimesheetService) CopyFromPreviousWeek(ctx context.Context, identity models.Identity, weekStart time.Time) ([]*models.Entry, error) {
	week, err := requireMonday(weekStart)
	if err != nil {
		return nil, err
	}
	repo := s.repomanager.Timesheets(s.db)

	prev, err := repo.GetHeaderByUserWeek(ctx, identity.UserID, calendar.AddWeeks(week, -1))
	if errors.Is(err, common.ErrorNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	rows, err := repo.GetEntries(ctx, prev.ID)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		row.StripIdentity()
	}
	return rows, nil
}

// ReopenRejected stages a rejected timesheet's rows for editing. The
// header stays rejected until the next SaveGrid recycles it; this call
// only reads.
func (s *TimesheetService) ReopenRejected(ctx context.Context, identity models.Identity, timesheetID string) ([]*models.Entry, error) {
	repo := s.repomanager.Timesheets(s.db)

	header, err := repo.GetHeader(ctx, timesheetID)
	if err != nil {
		return nil, err
	}
	if header.UserID != identity.UserID {
		return nil, fmt.Errorf("%w: not the timesheet owner", common.ErrorPermissionDenied)
	}
	if header.Status != models.StatusRejected {
		return nil, fmt.Errorf("%w: timesheet is %s, expected rejected", common.ErrorStatusConflict, header.Status)
	}

	rows, err := repo.GetEntries(ctx, header.ID)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		row.StripIdentity()
	}
	return rows, nil
}

// RecordTimerStop books a stopped timer interval into the interval's
// week. The target header must be an (possibly fresh) open draft. The
// interval lands on the weekday it started: an existing row matching
// (project, task, description) gets that day's slot overwritten,
// otherwise a new row is inserted.
func (s *TimesheetService) RecordTimerStop(ctx context.Context, identity models.Identity, interval models.TimerInterval) (*models.Entry, error) {
	if interval.ProjectID == "" {
		return nil, fmt.Errorf("%w: timer interval has no project", common.ErrorValidation)
	}
	if !interval.End.After(interval.Start) {
		return nil, fmt.Errorf("%w: timer interval must end after it starts", common.ErrorValidation)
	}
	if interval.Duration() > 24*time.Hour {
		return nil, fmt.Errorf("%w: timer interval exceeds 24h", common.ErrorValidation)
	}

	week := calendar.MondayOf(interval.Start)
	day := calendar.WeekdayIndex(interval.Start)

	hours := dayslot.Round2(interval.Duration().Hours())
	startClock := fmt.Sprintf("%02d:%02d", interval.Start.Hour(), interval.Start.Minute())
	startMin, err := dayslot.ParseClock(startClock)
	if err != nil {
		return nil, err
	}
	// the end clock is start plus duration, unwrapped past midnight so
	// the pair always reproduces the logged hours
	endClock := dayslot.FormatClock(startMin + int(hours*60+0.5))
	h := hours
	slot := models.DaySlot{Hours: &h, StartTime: startClock, EndTime: endClock}

	var booked *models.Entry
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Timesheets(tx)

		header, err := repo.EnsureDraftHeader(ctx, identity.UserID, week)
		if err != nil {
			return err
		}
		if header.Status != models.StatusDraft {
			return fmt.Errorf("%w: timesheet is %s", common.ErrorStatusConflict, header.Status)
		}

		existing, err := repo.FindEntryByKey(ctx, header.ID, interval.ProjectID, interval.TaskID, interval.Description)
		switch {
		case err == nil:
			if err := repo.UpdateEntryDaySlot(ctx, existing.ID, day, slot); err != nil {
				return err
			}
			existing.Days[day] = slot
			booked = existing
			return nil
		case errors.Is(err, common.ErrorNotFound):
			row := &models.Entry{
				ProjectID:   interval.ProjectID,
				TaskID:      interval.TaskID,
				Description: interval.Description,
			}
			row.Days[day] = slot
			if err := repo.InsertEntries(ctx, header.ID, []*models.Entry{row}); err != nil {
				return err
			}
			booked = row
			return nil
		default:
			return err
		}
	})
	if err != nil {
		return nil, err
	}

	s.log.Info(ctx, "timer interval booked", "user_id", identity.UserID,
		"week", calendar.FormatDate(week), "day", calendar.WeekdayNames()[day], "hours", hours)
	return booked, nil
}

// NextOpenWeek walks forward from the given date, week by week, until it
// finds a week the caller can still fill in: either no header yet (a
// blank week) or an existing draft to resume. Submitted, approved, and
// rejected weeks are skipped. The walk gives up after a year.
func (s *TimesheetService) NextOpenWeek(ctx context.Context, identity models.Identity, from time.Time) (*models.OpenWeek, error) {
	repo := s.repomanager.Timesheets(s.db)

	week := calendar.MondayOf(from)
	for i := 0; i < openWeekHorizon; i++ {
		header, err := repo.GetHeaderByUserWeek(ctx, identity.UserID, week)
		if errors.Is(err, common.ErrorNotFound) {
			return &models.OpenWeek{WeekStart: week}, nil
		}
		if err != nil {
			return nil, err
		}
		if header.Status == models.StatusDraft {
			return &models.OpenWeek{DraftID: header.ID, WeekStart: week}, nil
		}
		week = calendar.AddWeeks(week, 1)
	}
	return nil, common.ErrorNoOpenWeek
}
