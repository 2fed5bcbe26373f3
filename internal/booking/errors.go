package booking

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound              = errors.New("not found")
	ErrDuplicateRegistration = errors.New("participant is already registered for this activity")
	ErrDuplicateAssignment   = errors.New("already assigned to this activity")
	ErrActivityCancelled     = errors.New("activity is cancelled")
	ErrActivityPast          = errors.New("activity has already started")
	ErrValidation            = errors.New("validation error")
)

// ActivityFullError rejects a registration against an activity whose active
// registration count has reached its capacity.
type ActivityFullError struct {
	Capacity int
	Current  int
}

func (e *ActivityFullError) Error() string {
	return fmt.Sprintf("activity is full (%d/%d)", e.Current, e.Capacity)
}

// InsufficientStockError rejects a material assignment asking for more than
// the material's available quantity.
type InsufficientStockError struct {
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock: %d requested, %d available", e.Requested, e.Available)
}

// InvalidWindowError rejects a reservation whose window is empty, inverted
// or starts in the past.
type InvalidWindowError struct {
	Reason string
}

func (e *InvalidWindowError) Error() string {
	return "invalid window: " + e.Reason
}

// OverlapError rejects a reservation overlapping an existing reservation on
// the same infrastructure.
type OverlapError struct {
	Count int
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("window overlaps %d existing reservation(s)", e.Count)
}

// ScheduleConflictError rejects a reservation overlapping activities
// scheduled at the same infrastructure. Names holds at most three activity
// names; Total is the full conflict count.
type ScheduleConflictError struct {
	Names []string
	Total int
}

func (e *ScheduleConflictError) Error() string {
	msg := "activities are scheduled during this window: " + strings.Join(e.Names, ", ")
	if e.Total > len(e.Names) {
		msg += fmt.Sprintf(" and %d more", e.Total-len(e.Names))
	}
	return msg
}
