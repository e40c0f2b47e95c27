package dto

import "time"

// GoogleEventTime is a start or end of a Google Calendar event.
type GoogleEventTime struct {
	DateTime string `json:"dateTime"`
	TimeZone string `json:"timeZone"`
}

// GoogleEvent is the body sent to the Calendar events.insert API.
type GoogleEvent struct {
	Summary     string          `json:"summary"`
	Description string          `json:"description,omitempty"`
	Start       GoogleEventTime `json:"start"`
	End         GoogleEventTime `json:"end"`
}

type GoogleEventResponse struct {
	ID       string `json:"id"`
	HTMLLink string `json:"htmlLink"`
}

// ICSEntry is one VEVENT of an exported calendar.
type ICSEntry struct {
	UID         string
	Summary     string
	Description string
	Start       time.Time
	End         time.Time
}
