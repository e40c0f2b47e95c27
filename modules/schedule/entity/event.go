package entity

import (
	"time"

	"github.com/google/uuid"
)

// Event is the thing being scheduled. OwnerTokenHash is the bcrypt hash of the capability
// token handed to the organizer at creation.
type Event struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	OwnerID        *uuid.UUID `db:"owner_id" json:"owner_id,omitempty"`
	OwnerTokenHash string     `db:"owner_token_hash" json:"-"`
	Name           string     `db:"name" json:"name"`
	Memo           *string    `db:"memo" json:"memo,omitempty"`
	IconKey        *string    `db:"icon_key" json:"icon_key,omitempty"`
	Deadline       *time.Time `db:"deadline" json:"deadline,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}

// DeadlinePassed reports whether responses are closed at now.
func (e *Event) DeadlinePassed(now time.Time) bool {
	return e.Deadline != nil && now.After(*e.Deadline)
}
