package icloud

import (
	"bytes"
	"fmt"
	"meetslot/internal/models"
	"time"

	"github.com/emersion/go-ical"
	"github.com/google/uuid"
)

// Invite builds a METHOD:REQUEST iCalendar object for a scheduled meeting.
// stamp becomes DTSTAMP so the output is reproducible.
func Invite(event models.Event, organizer string, stamp time.Time) *ical.Calendar {
	if event.UID == "" {
		event.UID = GenerateUID()
	}

	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, "-//meetslot//EN")
	cal.Props.SetText(ical.PropMethod, "REQUEST")
	cal.Children = append(cal.Children, toICal(event, organizer, stamp))
	return cal
}

// EncodeInvite renders Invite as iCalendar text.
func EncodeInvite(event models.Event, organizer string, stamp time.Time) (string, error) {
	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(Invite(event, organizer, stamp)); err != nil {
		return "", fmt.Errorf("failed to encode event to iCal format: %w", err)
	}
	return buf.String(), nil
}

// toICal converts an internal Event model to an ical.Component (VEvent).
func toICal(event models.Event, organizer string, stamp time.Time) *ical.Component {
	ve := ical.NewComponent(ical.CompEvent)
	ve.Props.SetText(ical.PropUID, event.UID)
	ve.Props.SetText(ical.PropSummary, event.Summary)
	ve.Props.SetDateTime(ical.PropDateTimeStamp, stamp.UTC())
	ve.Props.SetDateTime(ical.PropDateTimeStart, event.StartTime)
	ve.Props.SetDateTime(ical.PropDateTimeEnd, event.EndTime)

	if organizer != "" {
		p := ical.NewProp(ical.PropOrganizer)
		p.SetText(fmt.Sprintf("mailto:%s", organizer))
		ve.Props.Add(p)
	}
	for _, attendee := range event.Attendees {
		p := ical.NewProp(ical.PropAttendee)
		p.SetText(fmt.Sprintf("mailto:%s", attendee))
		ve.Props.Add(p)
	}
	return ve
}

// GenerateUID creates a new unique identifier for an event.
func GenerateUID() string {
	return uuid.New().String() + "@meetslot"
}
