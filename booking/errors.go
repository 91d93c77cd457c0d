package booking

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// Kind is the stable machine-readable error classification surfaced to API
// clients alongside the human message.
type Kind string

const (
	KindInvalidSchedule   Kind = "invalid_schedule_data"
	KindSlotTaken         Kind = "slot_already_booked"
	KindInvalidTransition Kind = "invalid_status_transition"
	KindRescheduleLimit   Kind = "reschedule_limit_exceeded"
	KindPastDate          Kind = "past_date_booking"
	KindNotFound          Kind = "not_found"
)

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func wrapError(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf extracts the classification from any error in the chain; unknown
// errors report an empty kind.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// HTTPStatus maps an error kind to its response status.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindSlotTaken:
		return fiber.StatusConflict
	case KindInvalidTransition, KindRescheduleLimit, KindPastDate:
		return fiber.StatusUnprocessableEntity
	case KindInvalidSchedule:
		return fiber.StatusBadRequest
	case KindNotFound:
		return fiber.StatusNotFound
	default:
		return fiber.StatusInternalServerError
	}
}

// errDuplicate is the store-level signal that a storage uniqueness
// constraint rejected a write.
var errDuplicate = errors.New("duplicate record")
