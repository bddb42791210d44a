// Package times normalizes the time and duration notations accepted in event
// documents into a canonical count of minutes.
//
// Three notations are accepted:
//
//   - "H:MM" strings (hours may exceed 23 for durations)
//   - bare non-negative integers, counted as minutes
//   - local-time values, "HH:MM:SS" with optional fraction; seconds and the
//     fraction must be zero
//
// The same parser is used for event start times, event durations, and the
// per-weekday overrides of both.
package times

import (
	"fmt"
	"strconv"
	"strings"
)

// Minutes is a canonical time value: an offset from midnight for start
// times, a length for durations.
type Minutes int

// MinutesPerDay bounds start times; durations are unbounded.
const MinutesPerDay = 24 * 60

// String formats the value as a wall-clock "HH:MM".
func (m Minutes) String() string {
	return fmt.Sprintf("%02d:%02d", int(m)/60, int(m)%60)
}

// A FormatError reports a time or duration value that could not be
// normalized.
type FormatError struct {
	Value  string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid time %q: %s", e.Value, e.Reason)
}

func formatErr(value, reason string) error {
	return &FormatError{Value: value, Reason: reason}
}

// ParseDuration normalizes one scalar in any accepted notation into Minutes.
// No upper bound is applied; overnight lengths are legal durations.
func ParseDuration(value string) (Minutes, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return 0, formatErr(value, "empty value")
	}

	// Bare integer: a count of minutes.
	if n, err := strconv.Atoi(v); err == nil {
		if n < 0 {
			return 0, formatErr(value, "minutes must not be negative")
		}
		return Minutes(n), nil
	}

	// Times are pure time-of-day values. Reject anything carrying a
	// calendar date ("2024-01-01T...") or a UTC offset ("...Z", "...+09:00").
	if len(v) >= 10 && v[4] == '-' && v[7] == '-' {
		return 0, formatErr(value, "Time should not have a date")
	}
	if strings.ContainsAny(v, "Zz+") || strings.Contains(v, "-") {
		return 0, formatErr(value, "Time should not have an offset")
	}

	switch strings.Count(v, ":") {
	case 1:
		hs, ms, _ := strings.Cut(v, ":")
		h, err := strconv.Atoi(hs)
		if err != nil || h < 0 {
			return 0, formatErr(value, "bad hour")
		}
		m, err := strconv.Atoi(ms)
		if err != nil || m < 0 {
			return 0, formatErr(value, "bad minute")
		}
		return Minutes(h*60 + m), nil

	case 2:
		// Local-time notation. Whole minutes only: seconds and any
		// sub-second fraction must be exactly zero.
		parts := strings.SplitN(v, ":", 3)
		h, err := strconv.Atoi(parts[0])
		if err != nil || h < 0 {
			return 0, formatErr(value, "bad hour")
		}
		m, err := strconv.Atoi(parts[1])
		if err != nil || m < 0 {
			return 0, formatErr(value, "bad minute")
		}
		sec, frac, _ := strings.Cut(parts[2], ".")
		s, err := strconv.Atoi(sec)
		if err != nil || s < 0 {
			return 0, formatErr(value, "bad second")
		}
		if s != 0 || strings.Trim(frac, "0") != "" {
			return 0, formatErr(value, "Time must contain whole minutes")
		}
		return Minutes(h*60 + m), nil

	default:
		return 0, formatErr(value, "unrecognized time notation")
	}
}

// ParseTimeOfDay normalizes a start time. The value is interpreted as a
// duration added to midnight and must not wrap into the next day.
func ParseTimeOfDay(value string) (Minutes, error) {
	m, err := ParseDuration(value)
	if err != nil {
		return 0, err
	}
	if m >= MinutesPerDay {
		return 0, formatErr(value, "Time must be less than 24:00")
	}
	return m, nil
}
