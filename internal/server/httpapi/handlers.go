package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/timegrid/timegrid/internal/calendar"
	"github.com/timegrid/timegrid/internal/common"
	"github.com/timegrid/timegrid/internal/server/models"
)

func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: malformed request body", common.ErrorValidation)
	}
	return nil
}

func parseWeekStart(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: week_start is required", common.ErrorValidation)
	}
	d, err := calendar.ParseDate(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: bad week_start %q", common.ErrorValidation, s)
	}
	return d, nil
}

func (s *Server) handleEnsureDraft(w http.ResponseWriter, r *http.Request) {
	ident, _ := identityFrom(r.Context())

	var req ensureRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	week, err := parseWeekStart(req.WeekStart)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	header, err := s.service.EnsureDraft(r.Context(), ident, week)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toHeaderDTO(header))
}

func (s *Server) handleSaveGrid(w http.ResponseWriter, r *http.Request) {
	ident, _ := identityFrom(r.Context())

	var req saveRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	week, err := parseWeekStart(req.WeekStart)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	view, err := s.service.SaveGrid(r.Context(), ident, week, fromEntryDTOs(req.Rows), req.Submit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTimesheetDTO(view))
}

func (s *Server) handleCopyPrevious(w http.ResponseWriter, r *http.Request) {
	ident, _ := identityFrom(r.Context())

	var req ensureRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	week, err := parseWeekStart(req.WeekStart)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	rows, err := s.service.CopyFromPreviousWeek(r.Context(), ident, week)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toEntryDTOs(rows))
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	ident, _ := identityFrom(r.Context())

	var status models.Status
	if q := r.URL.Query().Get("status"); q != "" {
		parsed, ok := models.ParseStatus(q)
		if !ok {
			s.writeError(w, r, fmt.Errorf("%w: unknown status %q", common.ErrorValidation, q))
			return
		}
		status = parsed
	}

	headers, err := s.service.ListTimesheets(r.Context(), ident, status)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]HeaderDTO, 0, len(headers))
	for _, h := range headers {
		out = append(out, toHeaderDTO(h))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	ident, _ := identityFrom(r.Context())

	view, err := s.service.GetTimesheet(r.Context(), ident, r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTimesheetDTO(view))
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	s.handleTransition(w, r, s.service.Submit)
}

func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request) {
	s.handleTransition(w, r, s.service.Approve)
}

func (s *Server) handleReject(w http.ResponseWriter, r *http.Request) {
	s.handleTransition(w, r, s.service.Reject)
}

func (s *Server) handleTransition(w http.ResponseWriter, r *http.Request,
	op func(ctx context.Context, ident models.Identity, id string) (*models.WeeklyTimesheet, error)) {
	ident, _ := identityFrom(r.Context())

	header, err := op(r.Context(), ident, r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toHeaderDTO(header))
}

func (s *Server) handleReopen(w http.ResponseWriter, r *http.Request) {
	ident, _ := identityFrom(r.Context())

	rows, err := s.service.ReopenRejected(r.Context(), ident, r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toEntryDTOs(rows))
}

func (s *Server) handleNextOpenWeek(w http.ResponseWriter, r *http.Request) {
	ident, _ := identityFrom(r.Context())

	from := time.Now()
	if q := r.URL.Query().Get("from"); q != "" {
		parsed, err := calendar.ParseDate(q)
		if err != nil {
			s.writeError(w, r, fmt.Errorf("%w: bad from date %q", common.ErrorValidation, q))
			return
		}
		from = parsed
	}

	open, err := s.service.NextOpenWeek(r.Context(), ident, from)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, OpenWeekDTO{DraftID: open.DraftID, WeekStart: calendar.FormatDate(open.WeekStart)})
}

func (s *Server) handleTimerStop(w http.ResponseWriter, r *http.Request) {
	ident, _ := identityFrom(r.Context())

	var req timerStopRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	entry, err := s.service.RecordTimerStop(r.Context(), ident, models.TimerInterval{
		Start:       req.Start,
		End:         req.End,
		ProjectID:   req.ProjectID,
		TaskID:      req.TaskID,
		Description: req.Description,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toEntryDTO(entry))
}
