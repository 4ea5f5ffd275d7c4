package assistant

import (
	"context"
	"errors"
	"meetslot/internal/calendar"
	"meetslot/internal/slots"
)

// Failure reasons reported in MetaData.reason and metrics.
const (
	ReasonInvalidRequest      = "invalid_request"
	ReasonInvalidDuration     = "invalid_duration"
	ReasonCalendarUnavailable = "calendar_unavailable"
	ReasonMissingCredentials  = "missing_credentials"
	ReasonNoAvailability      = "no_availability"
	ReasonInternal            = "internal"
)

// Reason classifies a Schedule error.
func Reason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNoAvailability):
		return ReasonNoAvailability
	case errors.Is(err, slots.ErrInvalidDuration):
		return ReasonInvalidDuration
	case errors.Is(err, ErrInvalidRequest):
		return ReasonInvalidRequest
	case errors.Is(err, calendar.ErrNoCredentials):
		return ReasonMissingCredentials
	case errors.Is(err, calendar.ErrProvider), errors.Is(err, context.DeadlineExceeded):
		return ReasonCalendarUnavailable
	}
	var fe *calendar.FetchError
	if errors.As(err, &fe) {
		return ReasonCalendarUnavailable
	}
	return ReasonInternal
}
