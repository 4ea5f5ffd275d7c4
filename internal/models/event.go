package models

import "time"

// Event represents a calendar event that blocks a participant's time.
// This is an internal representation, independent of any specific calendar provider.
type Event struct {
	ID           string    `json:"id,omitempty"`        // Identifier from the source calendar
	Summary      string    `json:"Summary"`             // Title of the event
	StartTime    time.Time `json:"StartTime"`           // Start of the busy period
	EndTime      time.Time `json:"EndTime"`             // End of the busy period (exclusive)
	Attendees    []string  `json:"Attendees,omitempty"` // Attendee emails
	NumAttendees int       `json:"NumAttendees"`        // Number of attendees on the event
	Source       string    `json:"source,omitempty"`    // The source of the event (e.g., "google", "caldav")
	UID          string    `json:"uid,omitempty"`       // The iCalendar UID
}

// Valid reports whether the event describes a usable busy period.
func (e Event) Valid() bool {
	return !e.StartTime.IsZero() && !e.EndTime.IsZero() && e.StartTime.Before(e.EndTime)
}

// Busy returns the half-open interval the event occupies.
func (e Event) Busy() Interval {
	return Interval{Start: e.StartTime, End: e.EndTime}
}
