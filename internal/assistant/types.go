// Package assistant turns meeting request emails into scheduled meetings.
package assistant

import (
	"meetslot/internal/models"
	"strings"
)

// Attendee is one invited participant.
type Attendee struct {
	Email string `json:"email"`
}

// MeetingRequest is an incoming request to schedule a meeting.
type MeetingRequest struct {
	RequestID    string     `json:"Request_id"`
	Datetime     string     `json:"Datetime"`
	Location     string     `json:"Location"`
	From         string     `json:"From"`
	Attendees    []Attendee `json:"Attendees"`
	Subject      string     `json:"Subject"`
	EmailContent string     `json:"EmailContent"`
}

// AttendeeEmails returns the attendees' addresses in request order.
func (r MeetingRequest) AttendeeEmails() []string {
	out := make([]string, 0, len(r.Attendees))
	for _, a := range r.Attendees {
		if email := strings.TrimSpace(a.Email); email != "" {
			out = append(out, email)
		}
	}
	return out
}

// AttendeeEvents lists a participant's events including the new meeting.
type AttendeeEvents struct {
	Email  string         `json:"email"`
	Events []models.Event `json:"events"`
}

// Performance reports per-stage timings.
type Performance struct {
	ParseTime    string `json:"parse_time"`
	FetchTime    string `json:"fetch_time"`
	ScheduleTime string `json:"schedule_time"`
}

// MetaData describes how a request was handled.
type MetaData struct {
	Status         string       `json:"status"`
	AgentNotes     string       `json:"agent_notes,omitempty"`
	IsUrgent       bool         `json:"is_urgent"`
	ProcessingTime string       `json:"processing_time"`
	Performance    *Performance `json:"performance,omitempty"`
	Reason         string       `json:"reason,omitempty"`
	Warnings       []string     `json:"warnings,omitempty"`
}

// MeetingResponse is the outcome of a scheduling request.
type MeetingResponse struct {
	RequestID    string           `json:"Request_id"`
	Datetime     string           `json:"Datetime,omitempty"`
	Location     string           `json:"Location,omitempty"`
	From         string           `json:"From,omitempty"`
	Attendees    []AttendeeEvents `json:"Attendees,omitempty"`
	Subject      string           `json:"Subject,omitempty"`
	EmailContent string           `json:"EmailContent,omitempty"`
	EventStart   string           `json:"EventStart,omitempty"`
	EventEnd     string           `json:"EventEnd,omitempty"`
	DurationMins string           `json:"Duration_mins,omitempty"`
	Error        string           `json:"error,omitempty"`
	MetaData     MetaData         `json:"MetaData"`

	// Meeting is the scheduled event, zero when scheduling failed.
	Meeting models.Event `json:"-"`
}
