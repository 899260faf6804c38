// Package dayslot keeps a day slot's decimal-hours value and its
// start/end clock pair mutually derivable. Editing the hours resets the
// pair from the fixed 09:00 anchor; editing either endpoint recomputes
// the hours. The last-edited field always wins.
//
// Clock strings are "HH:MM". End times are not wrapped at midnight, so a
// full 24-hour slot anchored at 09:00 reads "33:00"; ParseClock accepts
// hours up to 47 to keep FromTimes an exact inverse of FromHours.
package dayslot

import (
	"fmt"
	"math"

	"github.com/timegrid/timegrid/internal/common"
)

const (
	// Anchor is the conventional start-of-day used when the hours value
	// is edited directly.
	Anchor = "09:00"

	// Sentinel is the pair stored for an empty slot: start == end == Anchor.
	Sentinel = "09:00"

	anchorMinutes = 9 * 60
	maxClockHour  = 47
)

// ParseClock parses an "HH:MM" clock string into minutes since midnight.
// Hours may exceed 23 (up to 47) for spans that run past midnight.
func ParseClock(s string) (int, error) {
	var hh, mm int
	if _, err := fmt.Sscanf(s, "%d:%d", &hh, &mm); err != nil {
		return 0, fmt.Errorf("%w: bad clock value %q", common.ErrorValidation, s)
	}
	if hh < 0 || hh > maxClockHour || mm < 0 || mm > 59 {
		return 0, fmt.Errorf("%w: bad clock value %q", common.ErrorValidation, s)
	}
	return hh*60 + mm, nil
}

// FormatClock renders minutes since midnight as "HH:MM".
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// Round2 rounds decimal hours to two decimal places.
func Round2(h float64) float64 {
	return math.Round(h*100) / 100
}

// FromHours derives the (start, end) pair for a decimal-hours value,
// anchored at 09:00 with minutes rounded to the nearest whole minute.
// A zero value yields the sentinel pair. Values outside [0, 24] are a
// validation error.
func FromHours(hours float64) (start, end string, err error) {
	if hours < 0 || hours > 24 {
		return "", "", fmt.Errorf("%w: hours must be between 0 and 24, got %v", common.ErrorValidation, hours)
	}
	if hours == 0 {
		return Sentinel, Sentinel, nil
	}
	endMinutes := anchorMinutes + int(math.Round(hours*60))
	return Anchor, FormatClock(endMinutes), nil
}

// FromTimes computes decimal hours from a (start, end) pair, rounded to
// two decimal places. A negative span or one exceeding 24 hours is a
// validation error; callers must reject the edit and keep prior values.
func FromTimes(start, end string) (float64, error) {
	s, err := ParseClock(start)
	if err != nil {
		return 0, err
	}
	e, err := ParseClock(end)
	if err != nil {
		return 0, err
	}
	span := e - s
	if span < 0 || span > 24*60 {
		return 0, fmt.Errorf("%w: range exceeds 24h", common.ErrorValidation)
	}
	return Round2(float64(span) / 60), nil
}

// Normalize reconciles a slot at save time. When the clock pair differs
// from the sentinel it is authoritative and the hours are recomputed from
// it; otherwise non-zero hours derive the pair from the anchor, and an
// untouched slot collapses to nil hours with the sentinel pair.
func Normalize(hours *float64, start, end string) (*float64, string, string, error) {
	if start == "" {
		start = Sentinel
	}
	if end == "" {
		end = Sentinel
	}

	if start != Sentinel || end != Sentinel {
		h, err := FromTimes(start, end)
		if err != nil {
			return nil, "", "", err
		}
		return &h, start, end, nil
	}

	if hours == nil || *hours == 0 {
		return nil, Sentinel, Sentinel, nil
	}
	s, e, err := FromHours(*hours)
	if err != nil {
		return nil, "", "", err
	}
	return hours, s, e, nil
}
