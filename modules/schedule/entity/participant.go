package entity

import (
	"time"

	"github.com/google/uuid"
)

// Participant is a lightweight, unauthenticated identity created on first response.
type Participant struct {
	ID         int64     `db:"id" json:"id"`
	EventID    uuid.UUID `db:"event_id" json:"event_id"`
	Name       string    `db:"name" json:"name"`
	Comment    *string   `db:"comment" json:"comment,omitempty"`
	IsPriority bool      `db:"is_priority" json:"is_priority"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}
