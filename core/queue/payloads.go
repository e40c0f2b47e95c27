package queue

import "github.com/google/uuid"

// BlobDeletePayload asks the worker to remove a stored file.
type BlobDeletePayload struct {
	Key string `json:"key"`
}

// CalendarPublishPayload carries a confirmed slot to the organizer's external calendar.
type CalendarPublishPayload struct {
	EventID     uuid.UUID `json:"event_id"`
	Name        string    `json:"name"`
	Memo        string    `json:"memo,omitempty"`
	Date        string    `json:"date"`
	Time        string    `json:"time"`
	AccessToken string    `json:"access_token"`
}
