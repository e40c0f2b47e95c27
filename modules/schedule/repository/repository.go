package repository

import (
	"context"
	"errors"

	"go-schedule-api/modules/schedule/entity"

	"github.com/google/uuid"
)

var (
	// ErrEventNotFound is returned by writes to an event that no longer exists.
	ErrEventNotFound = errors.New("event not found")
	// ErrSlotNotFound is returned when a response references a slot that does not exist,
	// typically because a concurrent edit deleted it first.
	ErrSlotNotFound        = errors.New("slot not found")
	ErrParticipantNotFound = errors.New("participant not found")
	// ErrConfirmationTaken is returned when a second slot of the same event is marked confirmed.
	ErrConfirmationTaken = errors.New("another slot is already confirmed")
)

// Store is the data access contract for events, slots, participants and responses.
// Getters return nil, nil when the row does not exist.
type Store interface {
	// Events
	CreateEvent(ctx context.Context, event *entity.Event) (*entity.Event, error)
	GetEventByID(ctx context.Context, id uuid.UUID) (*entity.Event, error)
	GetEventsByOwnerID(ctx context.Context, ownerID uuid.UUID) ([]entity.Event, error)
	UpdateEvent(ctx context.Context, event *entity.Event) error
	DeleteEvent(ctx context.Context, id uuid.UUID) error

	// Slots
	CreateSlots(ctx context.Context, slots []entity.Slot) ([]entity.Slot, error)
	GetSlotByID(ctx context.Context, id int64) (*entity.Slot, error)
	GetSlotsByEventID(ctx context.Context, eventID uuid.UUID) ([]entity.Slot, error)
	UpdateSlot(ctx context.Context, slot *entity.Slot) error
	DeleteSlots(ctx context.Context, ids []int64) error
	ClearConfirmed(ctx context.Context, eventID uuid.UUID) error
	MarkConfirmed(ctx context.Context, slotID int64) error
	CountConfirmed(ctx context.Context, eventID uuid.UUID) (int, error)

	// Participants
	CreateParticipant(ctx context.Context, p *entity.Participant) (*entity.Participant, error)
	GetParticipantByID(ctx context.Context, id int64) (*entity.Participant, error)
	GetParticipantsByEventID(ctx context.Context, eventID uuid.UUID) ([]entity.Participant, error)
	UpdateParticipant(ctx context.Context, p *entity.Participant) error
	SetPriority(ctx context.Context, id int64, isPriority bool) error

	// Responses
	ReplaceResponses(ctx context.Context, participantID int64, responses []entity.Response) ([]entity.Response, error)
	GetResponsesByEventID(ctx context.Context, eventID uuid.UUID) ([]entity.Response, error)
	GetResponsesByParticipantID(ctx context.Context, participantID int64) ([]entity.Response, error)
	CountByStatus(ctx context.Context, slotID int64) (entity.StatusCounts, error)
	CountResponsesBySlot(ctx context.Context, eventID uuid.UUID) (map[int64]int, error)
}

// Repository is a Store that can also run a unit of work atomically.
type Repository interface {
	Store
	// WithTx runs fn against a transactional Store. All writes made through it are
	// committed when fn returns nil and discarded otherwise.
	WithTx(ctx context.Context, fn func(tx Store) error) error
}
