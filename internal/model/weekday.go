package model

import (
	"fmt"
	"time"
)

// Weekday numbering follows time.Weekday: 0=Sunday through 6=Saturday.
// The published artifact uses the same integers.

var weekdayNames = [7]string{
	"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday",
}

// WeekdayName returns the lowercase English name used as a document and
// artifact key.
func WeekdayName(d time.Weekday) string {
	return weekdayNames[d]
}

// WeekdayNames lists all seven keys in artifact order.
func WeekdayNames() [7]string {
	return weekdayNames
}

// A WeekdayIndexError reports an integer weekday outside 0-6.
type WeekdayIndexError struct {
	Index int
}

func (e *WeekdayIndexError) Error() string {
	return fmt.Sprintf("weekday index %d out of range 0-6", e.Index)
}

// WeekdayFromInt validates an integer weekday.
func WeekdayFromInt(i int) (time.Weekday, error) {
	if i < 0 || i > 6 {
		return 0, &WeekdayIndexError{Index: i}
	}
	return time.Weekday(i), nil
}
