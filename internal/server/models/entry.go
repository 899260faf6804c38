package models

// DaySlot holds one weekday's worth of logged time within an entry row:
// a nullable decimal-hours value and the start/end clock pair it must stay
// consistent with. An empty slot carries nil hours and the sentinel pair
// (09:00, 09:00).
type DaySlot struct {
	Hours     *float64
	StartTime string
	EndTime   string
}

// Entry is one detail row of a weekly timesheet: a project (required for
// the row to persist), an optional task, a free-text description, and a
// slot for each of the seven weekdays, Monday first.
type Entry struct {
	ID          string
	TimesheetID string
	ProjectID   string
	TaskID      *string
	Description string
	Days        [7]DaySlot
}

// Blank reports whether the row has no project reference. Blank rows are
// dropped silently on save.
func (e *Entry) Blank() bool {
	return e.ProjectID == ""
}

// StripIdentity clears the row's primary key and header reference so the
// remainder can be staged into another week's grid.
func (e *Entry) StripIdentity() {
	e.ID = ""
	e.TimesheetID = ""
}

// TotalHours sums the row's non-nil day slots.
func (e *Entry) TotalHours() float64 {
	var total float64
	for _, d := range e.Days {
		if d.Hours != nil {
			total += *d.Hours
		}
	}
	return total
}
