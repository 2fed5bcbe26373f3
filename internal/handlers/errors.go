package handlers

import (
	"errors"

	"github.com/campdesk/campdesk/internal/booking"
	"github.com/campdesk/campdesk/internal/store"
	"github.com/danielgtaylor/huma/v2"
)

// mapBookingError translates engine rejections into HTTP errors. Business
// rejections are routine outcomes: 404 for missing references, 409 for
// conflicts, 422 for bad input. Anything else is a 500.
func mapBookingError(err error) error {
	var full *booking.ActivityFullError
	var stock *booking.InsufficientStockError
	var window *booking.InvalidWindowError
	var overlap *booking.OverlapError
	var conflict *booking.ScheduleConflictError

	switch {
	case errors.Is(err, booking.ErrNotFound):
		return huma.Error404NotFound("Referenced entity not found")
	case errors.Is(err, booking.ErrDuplicateRegistration),
		errors.Is(err, booking.ErrDuplicateAssignment):
		return huma.Error409Conflict(err.Error())
	case errors.Is(err, booking.ErrActivityCancelled),
		errors.Is(err, booking.ErrActivityPast),
		errors.Is(err, booking.ErrValidation):
		return huma.Error422UnprocessableEntity(err.Error())
	case errors.As(err, &full),
		errors.As(err, &stock),
		errors.As(err, &overlap),
		errors.As(err, &conflict):
		return huma.Error409Conflict(err.Error())
	case errors.As(err, &window):
		return huma.Error422UnprocessableEntity(err.Error())
	default:
		return huma.Error500InternalServerError("Internal error: " + err.Error())
	}
}

func mapStoreError(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return huma.Error404NotFound("Entity not found")
	}
	return huma.Error500InternalServerError("Internal error: " + err.Error())
}
