// Package models defines the persisted and in-flight types of the weekly
// timesheet engine.
package models

import "time"

// Status is the lifecycle state of a weekly timesheet header.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusSubmitted Status = "submitted"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
)

// ParseStatus validates a status string. The empty string is not a status;
// callers that accept "no filter" handle it themselves.
func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusDraft, StatusSubmitted, StatusApproved, StatusRejected:
		return Status(s), true
	}
	return "", false
}

// Closed reports whether the header can no longer be edited by its owner.
// Rejected headers are closed too: re-opening one is an explicit guarded
// transition, not an edit.
func (s Status) Closed() bool {
	return s == StatusSubmitted || s == StatusApproved || s == StatusRejected
}

// WeeklyTimesheet is the header record for one user and one week.
// At most one header exists per (UserID, WeekStart) pair.
type WeeklyTimesheet struct {
	ID        string
	UserID    string
	WeekStart time.Time // always a Monday, date-only
	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time
}

// OpenWeek is the result of the week walk: either an existing draft to
// resume (DraftID set) or a blank week with no header yet (WeekStart set).
type OpenWeek struct {
	DraftID   string
	WeekStart time.Time
}
