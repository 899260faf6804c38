package models

import "time"

// TimerInterval is a closed [Start, End) interval emitted by the timer
// subsystem when a running timer stops, plus whatever project/task/
// description the timer was started with.
type TimerInterval struct {
	Start       time.Time
	End         time.Time
	ProjectID   string
	TaskID      *string
	Description string
}

// Duration returns the interval's length.
func (i TimerInterval) Duration() time.Duration {
	return i.End.Sub(i.Start)
}
