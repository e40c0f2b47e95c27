package service

import (
	"context"
	"errors"
	"fmt"

	appErrors "go-schedule-api/core/errors"
	"go-schedule-api/modules/schedule/entity"
	"go-schedule-api/modules/schedule/repository"

	"github.com/google/uuid"
)

// ConfirmationCommand is either Confirm or Cancel.
type ConfirmationCommand interface {
	isConfirmationCommand()
}

// Confirm locks in one slot. Re-confirming the confirmed slot is a no-op.
type Confirm struct {
	SlotID int64
}

// Cancel clears the confirmation. It is a no-op when nothing is confirmed.
type Cancel struct{}

func (Confirm) isConfirmationCommand() {}
func (Cancel) isConfirmationCommand()  {}

// ConfirmationState is Unconfirmed when SlotID is nil, Confirmed(*SlotID) otherwise.
type ConfirmationState struct {
	SlotID *int64
}

func (s ConfirmationState) Confirmed() bool { return s.SlotID != nil }

// StateOf derives the state from a slot snapshot and fails when more than one slot is confirmed.
func StateOf(slots []entity.Slot) (ConfirmationState, error) {
	var state ConfirmationState
	for _, s := range slots {
		if !s.IsConfirmed {
			continue
		}
		if state.SlotID != nil {
			return ConfirmationState{}, fmt.Errorf("slots %d and %d are both confirmed", *state.SlotID, s.ID)
		}
		id := s.ID
		state.SlotID = &id
	}
	return state, nil
}

// applyConfirmation runs one transition inside tx and returns the confirmed slot, or nil after a cancel.
func applyConfirmation(ctx context.Context, tx repository.Store, eventID uuid.UUID, cmd ConfirmationCommand) (*entity.Slot, error) {
	switch c := cmd.(type) {
	case Confirm:
		slot, err := tx.GetSlotByID(ctx, c.SlotID)
		if err != nil {
			return nil, appErrors.NewAppError(appErrors.ErrGetFailed, "Failed to load slot", err)
		}
		if slot == nil || slot.EventID != eventID {
			return nil, appErrors.NotFound("Slot not found")
		}
		if err := tx.ClearConfirmed(ctx, eventID); err != nil {
			return nil, appErrors.Integrity("Failed to clear confirmation", err)
		}
		if err := tx.MarkConfirmed(ctx, slot.ID); err != nil {
			if errors.Is(err, repository.ErrSlotNotFound) {
				return nil, appErrors.NotFound("Slot not found")
			}
			if errors.Is(err, repository.ErrConfirmationTaken) {
				return nil, appErrors.NewAppError(appErrors.ErrConflict, "Another slot was confirmed at the same time", err)
			}
			return nil, appErrors.Integrity("Failed to confirm slot", err)
		}
		if err := verifyConfirmation(ctx, tx, eventID); err != nil {
			return nil, err
		}
		slot.IsConfirmed = true
		return slot, nil

	case Cancel:
		if err := tx.ClearConfirmed(ctx, eventID); err != nil {
			return nil, appErrors.Integrity("Failed to clear confirmation", err)
		}
		return nil, verifyConfirmation(ctx, tx, eventID)

	default:
		return nil, appErrors.Validation(fmt.Sprintf("unknown confirmation command %T", cmd))
	}
}

// verifyConfirmation checks that at most one slot of the event is confirmed.
func verifyConfirmation(ctx context.Context, tx repository.Store, eventID uuid.UUID) error {
	n, err := tx.CountConfirmed(ctx, eventID)
	if err != nil {
		return appErrors.Integrity("Failed to verify confirmation", err)
	}
	if n > 1 {
		return appErrors.Integrity("Confirmation invariant violated",
			fmt.Errorf("event %s has %d confirmed slots", eventID, n))
	}
	return nil
}
