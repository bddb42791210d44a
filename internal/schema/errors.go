package schema

import (
	"fmt"

	"github.com/nil-vr/WeeklyCalendar/internal/model"
)

// A SchemaError reports an unknown field, a wrong value type, or a
// structurally invalid shape in a document, with the source location of the
// offending value.
type SchemaError struct {
	Key  string
	Span model.Span
	Msg  string
}

func (e *SchemaError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("%s: %s", e.Span, e.Msg)
	}
	return fmt.Sprintf("%s: %s: %s", e.Span, e.Key, e.Msg)
}

// A DateOrderError reports an end_date earlier than start_date.
type DateOrderError struct {
	Start model.Date
	End   model.Date
}

func (e *DateOrderError) Error() string {
	return fmt.Sprintf("end_date %s is before start_date %s", e.End, e.Start)
}
