package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"go-schedule-api/modules/schedule/entity"
)

func seed(t *testing.T, r *MemoryRepository) (*entity.Event, []entity.Slot, *entity.Participant) {
	t.Helper()
	ctx := context.Background()

	event, err := r.CreateEvent(ctx, &entity.Event{Name: "Team Lunch", OwnerTokenHash: "x"})
	if err != nil {
		t.Fatalf("CreateEvent() error = %v", err)
	}
	day := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	zero, one := 0, 1
	slots, err := r.CreateSlots(ctx, []entity.Slot{
		{EventID: event.ID, Date: day, Time: "12:00", DisplayOrder: &zero},
		{EventID: event.ID, Date: day.AddDate(0, 0, 1), Time: "12:00", DisplayOrder: &one},
	})
	if err != nil {
		t.Fatalf("CreateSlots() error = %v", err)
	}
	p, err := r.CreateParticipant(ctx, &entity.Participant{EventID: event.ID, Name: "Alice"})
	if err != nil {
		t.Fatalf("CreateParticipant() error = %v", err)
	}
	return event, slots, p
}

func TestMemoryRepositoryReplaceResponses(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepository()
	event, slots, p := seed(t, r)

	batch := []entity.Response{
		{SlotID: slots[0].ID, Status: entity.StatusAttend},
		{SlotID: slots[1].ID, Status: entity.StatusAbsent},
	}
	for i := 0; i < 2; i++ {
		if _, err := r.ReplaceResponses(ctx, p.ID, batch); err != nil {
			t.Fatalf("ReplaceResponses() error = %v", err)
		}
	}

	got, _ := r.GetResponsesByEventID(ctx, event.ID)
	if len(got) != 2 {
		t.Fatalf("responses = %d, want 2", len(got))
	}

	_, err := r.ReplaceResponses(ctx, p.ID, []entity.Response{{SlotID: 999, Status: entity.StatusAttend}})
	if !errors.Is(err, ErrSlotNotFound) {
		t.Fatalf("unknown slot error = %v, want ErrSlotNotFound", err)
	}
	got, _ = r.GetResponsesByEventID(ctx, event.ID)
	if len(got) != 2 {
		t.Fatalf("failed replace changed state: %d responses", len(got))
	}
}

func TestMemoryRepositoryWithTxRollback(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepository()
	event, slots, _ := seed(t, r)

	boom := errors.New("boom")
	err := r.WithTx(ctx, func(tx Store) error {
		if err := tx.DeleteSlots(ctx, []int64{slots[0].ID}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("WithTx() error = %v, want boom", err)
	}

	got, _ := r.GetSlotsByEventID(ctx, event.ID)
	if len(got) != 2 {
		t.Fatalf("slots after rollback = %d, want 2", len(got))
	}
}

func TestMemoryRepositoryCascade(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepository()
	event, slots, p := seed(t, r)

	if _, err := r.ReplaceResponses(ctx, p.ID, []entity.Response{
		{SlotID: slots[0].ID, Status: entity.StatusAttend},
		{SlotID: slots[1].ID, Status: entity.StatusUndecided},
	}); err != nil {
		t.Fatalf("ReplaceResponses() error = %v", err)
	}

	if err := r.DeleteSlots(ctx, []int64{slots[0].ID}); err != nil {
		t.Fatalf("DeleteSlots() error = %v", err)
	}
	counts, _ := r.CountByStatus(ctx, slots[0].ID)
	if counts.Total() != 0 {
		t.Errorf("responses left on deleted slot = %d", counts.Total())
	}

	if err := r.DeleteEvent(ctx, event.ID); err != nil {
		t.Fatalf("DeleteEvent() error = %v", err)
	}
	left, _ := r.GetSlotsByEventID(ctx, event.ID)
	participants, _ := r.GetParticipantsByEventID(ctx, event.ID)
	responses, _ := r.GetResponsesByParticipantID(ctx, p.ID)
	if len(left) != 0 || len(participants) != 0 || len(responses) != 0 {
		t.Errorf("after delete: slots=%d participants=%d responses=%d", len(left), len(participants), len(responses))
	}
}

func TestMemoryRepositoryConfirmationBackstop(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepository()
	_, slots, _ := seed(t, r)

	if err := r.MarkConfirmed(ctx, slots[0].ID); err != nil {
		t.Fatalf("MarkConfirmed() error = %v", err)
	}
	if err := r.MarkConfirmed(ctx, slots[1].ID); !errors.Is(err, ErrConfirmationTaken) {
		t.Fatalf("second MarkConfirmed() error = %v, want ErrConfirmationTaken", err)
	}
}

func TestMemoryRepositoryUpdateMissingEvent(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepository()
	event, _, _ := seed(t, r)

	if err := r.DeleteEvent(ctx, event.ID); err != nil {
		t.Fatalf("DeleteEvent() error = %v", err)
	}
	event.Name = "Renamed"
	if err := r.UpdateEvent(ctx, event); !errors.Is(err, ErrEventNotFound) {
		t.Fatalf("UpdateEvent() error = %v, want ErrEventNotFound", err)
	}
}
