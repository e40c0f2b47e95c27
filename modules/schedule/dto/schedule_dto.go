package dto

import (
	"time"

	"go-schedule-api/modules/schedule/entity"

	"github.com/google/uuid"
)

// ===================== Requests =====================

type SlotInput struct {
	Date string `json:"date" validate:"required,slotdate"`
	Time string `json:"time" validate:"required,slottime"`
}

type CreateEventRequest struct {
	Name     string      `json:"name" validate:"required,runemax=30"`
	Memo     *string     `json:"memo" validate:"omitempty,runemax=300"`
	IconKey  *string     `json:"icon_key"`
	Deadline *time.Time  `json:"deadline"`
	Slots    []SlotInput `json:"slots" validate:"required,min=1,dive"`
}

// UpdateEventRequest carries deltas; nil fields are left unchanged. An empty icon_key
// removes the icon.
type UpdateEventRequest struct {
	Name          *string           `json:"name" validate:"omitempty,runemax=30"`
	Memo          *string           `json:"memo" validate:"omitempty,runemax=300"`
	IconKey       *string           `json:"icon_key"`
	Deadline      *time.Time        `json:"deadline"`
	ClearDeadline bool              `json:"clear_deadline"`
	Slots         *SlotEditsRequest `json:"slots"`
}

// SlotEditsRequest is the slot set edit as the client sends it. Entries in Update without
// an id are slots that were created during the edit session and are created, not updated.
type SlotEditsRequest struct {
	Update []SlotUpdateInput `json:"update"`
	Delete []int64           `json:"delete"`
	Create []SlotCreateInput `json:"create"`
}

type SlotUpdateInput struct {
	ID           *int64 `json:"id"`
	Date         string `json:"date"`
	Time         string `json:"time"`
	DisplayOrder *int   `json:"display_order"`
}

type SlotCreateInput struct {
	Date         string `json:"date"`
	Time         string `json:"time"`
	DisplayOrder *int   `json:"display_order"`
}

type AddSlotsRequest struct {
	Slots []SlotInput `json:"slots" validate:"required,min=1,dive"`
}

type UpdateSlotRequest struct {
	Date         *string `json:"date" validate:"omitempty,slotdate"`
	Time         *string `json:"time" validate:"omitempty,slottime"`
	DisplayOrder *int    `json:"display_order" validate:"omitempty,min=0"`
}

const (
	ActionConfirm = "confirm"
	ActionCancel  = "cancel"
)

type ConfirmationRequest struct {
	Action string `json:"action" validate:"required,oneof=confirm cancel"`
	SlotID *int64 `json:"slot_id"`
}

// ===================== Responses =====================

type SlotView struct {
	ID                  int64               `json:"id"`
	Date                string              `json:"date"`
	Time                string              `json:"time"`
	DisplayOrder        *int                `json:"display_order,omitempty"`
	IsConfirmed         bool                `json:"is_confirmed"`
	Counts              entity.StatusCounts `json:"counts"`
	PriorityAttendeeIDs []int64             `json:"priority_attendee_ids"`
	Highlight           string              `json:"highlight,omitempty"`
}

type AnswerView struct {
	SlotID  int64                 `json:"slot_id"`
	Status  entity.ResponseStatus `json:"status"`
	Comment *string               `json:"comment,omitempty"`
}

type ParticipantView struct {
	ID         int64        `json:"id"`
	Name       string       `json:"name"`
	Comment    *string      `json:"comment,omitempty"`
	IsPriority bool         `json:"is_priority"`
	Answers    []AnswerView `json:"answers"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
}

type SummaryView struct {
	MaxAttend               int     `json:"max_attend"`
	HighlightedSlotIDs      []int64 `json:"highlighted_slot_ids"`
	PriorityFriendlySlotIDs []int64 `json:"priority_friendly_slot_ids"`
	ConfirmedSlotID         *int64  `json:"confirmed_slot_id,omitempty"`
	ParticipantCount        int     `json:"participant_count"`
}

// EventSnapshot is the full read model of one event.
type EventSnapshot struct {
	ID           uuid.UUID         `json:"id"`
	Name         string            `json:"name"`
	Memo         *string           `json:"memo,omitempty"`
	IconKey      *string           `json:"icon_key,omitempty"`
	IconURL      string            `json:"icon_url,omitempty"`
	Deadline     *time.Time        `json:"deadline,omitempty"`
	Slots        []SlotView        `json:"slots"`
	Participants []ParticipantView `json:"participants"`
	Summary      SummaryView       `json:"summary"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// ConfirmedSlot returns the confirmed slot of the snapshot, if any.
func (e *EventSnapshot) ConfirmedSlot() *SlotView {
	for i := range e.Slots {
		if e.Slots[i].IsConfirmed {
			return &e.Slots[i]
		}
	}
	return nil
}

type CreateEventResponse struct {
	Event *EventSnapshot `json:"event"`
	// OwnerToken is shown once; only its hash is stored.
	OwnerToken string `json:"owner_token"`
}

type EventListItem struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	Memo      *string    `json:"memo,omitempty"`
	Deadline  *time.Time `json:"deadline,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

type SlotStatsResponse struct {
	SlotID int64               `json:"slot_id"`
	Counts entity.StatusCounts `json:"counts"`
	Total  int                 `json:"total"`
}

const (
	StateConfirmed   = "confirmed"
	StateUnconfirmed = "unconfirmed"
)

type ConfirmationResponse struct {
	State string    `json:"state"`
	Slot  *SlotView `json:"slot,omitempty"`
}
