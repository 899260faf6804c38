package httpapi

import (
	"time"

	"github.com/timegrid/timegrid/internal/calendar"
	"github.com/timegrid/timegrid/internal/server/models"
	"github.com/timegrid/timegrid/internal/server/services"
)

// DaySlotDTO is one weekday cell of an entry row.
type DaySlotDTO struct {
	Hours     *float64 `json:"hours"`
	StartTime string   `json:"start_time"`
	EndTime   string   `json:"end_time"`
}

// EntryDTO is one entry row, days in week order (Monday first).
type EntryDTO struct {
	ID          string        `json:"id,omitempty"`
	ProjectID   string        `json:"project_id"`
	TaskID      *string       `json:"task_id"`
	Description string        `json:"description"`
	Days        [7]DaySlotDTO `json:"days"`
}

// HeaderDTO is a weekly timesheet header.
type HeaderDTO struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	WeekStart string    `json:"week_start"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TimesheetDTO is a header together with its rows.
type TimesheetDTO struct {
	Header  HeaderDTO  `json:"header"`
	Entries []EntryDTO `json:"entries"`
}

// OpenWeekDTO is the outcome of the open-week walk.
type OpenWeekDTO struct {
	DraftID   string `json:"draft_id,omitempty"`
	WeekStart string `json:"week_start"`
}

type ensureRequest struct {
	WeekStart string `json:"week_start"`
}

type saveRequest struct {
	WeekStart string     `json:"week_start"`
	Submit    bool       `json:"submit"`
	Rows      []EntryDTO `json:"rows"`
}

type timerStopRequest struct {
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	ProjectID   string    `json:"project_id"`
	TaskID      *string   `json:"task_id"`
	Description string    `json:"description"`
}

type errorResponse struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

func toHeaderDTO(h *models.WeeklyTimesheet) HeaderDTO {
	return HeaderDTO{
		ID:        h.ID,
		UserID:    h.UserID,
		WeekStart: calendar.FormatDate(h.WeekStart),
		Status:    string(h.Status),
		CreatedAt: h.CreatedAt,
		UpdatedAt: h.UpdatedAt,
	}
}

func toEntryDTO(e *models.Entry) EntryDTO {
	dto := EntryDTO{
		ID:          e.ID,
		ProjectID:   e.ProjectID,
		TaskID:      e.TaskID,
		Description: e.Description,
	}
	for i, d := range e.Days {
		dto.Days[i] = DaySlotDTO{Hours: d.Hours, StartTime: d.StartTime, EndTime: d.EndTime}
	}
	return dto
}

func toEntryDTOs(rows []*models.Entry) []EntryDTO {
	out := make([]EntryDTO, 0, len(rows))
	for _, e := range rows {
		out = append(out, toEntryDTO(e))
	}
	return out
}

func toTimesheetDTO(v *services.TimesheetView) TimesheetDTO {
	return TimesheetDTO{Header: toHeaderDTO(v.Header), Entries: toEntryDTOs(v.Entries)}
}

func fromEntryDTO(dto EntryDTO) *models.Entry {
	e := &models.Entry{
		ID:          dto.ID,
		ProjectID:   dto.ProjectID,
		TaskID:      dto.TaskID,
		Description: dto.Description,
	}
	for i, d := range dto.Days {
		e.Days[i] = models.DaySlot{Hours: d.Hours, StartTime: d.StartTime, EndTime: d.EndTime}
	}
	return e
}

func fromEntryDTOs(dtos []EntryDTO) []*models.Entry {
	out := make([]*models.Entry, 0, len(dtos))
	for _, dto := range dtos {
		out = append(out, fromEntryDTO(dto))
	}
	return out
}
