package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go-schedule-api/core/constants"
	appErrors "go-schedule-api/core/errors"
	"go-schedule-api/modules/schedule/dto"
	"go-schedule-api/modules/schedule/entity"
	"go-schedule-api/modules/schedule/repository"

	"github.com/google/uuid"
)

const msgSlotDatesRequired = "all candidate dates must be set"

// SlotEdit is one of KeepSlot, NewSlot or RemoveSlot.
type SlotEdit interface {
	isSlotEdit()
}

// KeepSlot keeps an existing slot, possibly with a new date, time or position.
type KeepSlot struct {
	ID           int64
	Date         time.Time
	Time         string
	DisplayOrder *int
}

// NewSlot creates a slot. DisplayOrder only ranks new slots among themselves; they are
// always appended after the kept ones.
type NewSlot struct {
	Date         time.Time
	Time         string
	DisplayOrder *int
}

// RemoveSlot deletes a slot and its responses.
type RemoveSlot struct {
	ID int64
}

func (KeepSlot) isSlotEdit()   {}
func (NewSlot) isSlotEdit()    {}
func (RemoveSlot) isSlotEdit() {}

// ParseSlotDate parses a calendar date.
func ParseSlotDate(s string) (time.Time, error) {
	return time.Parse(constants.SlotDateLayout, strings.TrimSpace(s))
}

// NormalizeSlotTime parses H:MM or HH:MM and returns the zero padded HH:MM form.
func NormalizeSlotTime(s string) (string, error) {
	t, err := time.Parse(constants.SlotTimeLayout, strings.TrimSpace(s))
	if err != nil {
		return "", err
	}
	return t.Format(constants.SlotTimeLayout), nil
}

func parseDateTime(date, clock string) (time.Time, string, *appErrors.AppError) {
	if strings.TrimSpace(date) == "" || strings.TrimSpace(clock) == "" {
		return time.Time{}, "", appErrors.Validation(msgSlotDatesRequired)
	}
	d, err := ParseSlotDate(date)
	if err != nil {
		return time.Time{}, "", appErrors.Validation(fmt.Sprintf("invalid slot date %q", date))
	}
	t, err := NormalizeSlotTime(clock)
	if err != nil {
		return time.Time{}, "", appErrors.Validation(fmt.Sprintf("invalid slot time %q", clock))
	}
	return d, t, nil
}

// SlotEditsFromRequest turns the wire form into edits. Update entries without an id are
// slots that were added during the edit session and become NewSlot, whatever group they
// sat in on the client; only membership at save time counts.
func SlotEditsFromRequest(req *dto.SlotEditsRequest) ([]SlotEdit, *appErrors.AppError) {
	if req == nil {
		return nil, nil
	}
	edits := make([]SlotEdit, 0, len(req.Update)+len(req.Delete)+len(req.Create))

	for _, id := range req.Delete {
		edits = append(edits, RemoveSlot{ID: id})
	}
	for _, u := range req.Update {
		date, clock, appErr := parseDateTime(u.Date, u.Time)
		if appErr != nil {
			return nil, appErr
		}
		if u.ID == nil || *u.ID <= 0 {
			edits = append(edits, NewSlot{Date: date, Time: clock, DisplayOrder: u.DisplayOrder})
			continue
		}
		edits = append(edits, KeepSlot{ID: *u.ID, Date: date, Time: clock, DisplayOrder: u.DisplayOrder})
	}
	for _, c := range req.Create {
		date, clock, appErr := parseDateTime(c.Date, c.Time)
		if appErr != nil {
			return nil, appErr
		}
		edits = append(edits, NewSlot{Date: date, Time: clock, DisplayOrder: c.DisplayOrder})
	}
	return edits, nil
}

// ReconciliationPlan is the set of writes one edit resolves to.
type ReconciliationPlan struct {
	Deletes []int64
	Updates []entity.Slot
	Creates []entity.Slot
	// ClearsConfirmation is set when the confirmed slot is among the deletes.
	ClearsConfirmation bool
}

func (p *ReconciliationPlan) Empty() bool {
	return len(p.Deletes) == 0 && len(p.Updates) == 0 && len(p.Creates) == 0
}

// PlanReconciliation validates edits against the current slots of one event and computes
// the writes. It is all or nothing: any invalid edit rejects the whole batch.
// responseCounts maps slot id to its number of responses.
func PlanReconciliation(current []entity.Slot, responseCounts map[int64]int, edits []SlotEdit) (*ReconciliationPlan, *appErrors.AppError) {
	byID := make(map[int64]entity.Slot, len(current))
	for _, s := range current {
		byID[s.ID] = s
	}

	plan := &ReconciliationPlan{}
	removed := make(map[int64]bool)
	kept := make(map[int64]KeepSlot)
	var created []NewSlot

	for _, e := range edits {
		switch edit := e.(type) {
		case RemoveSlot:
			if _, ok := byID[edit.ID]; !ok {
				return nil, appErrors.NotFound(fmt.Sprintf("slot %d not found", edit.ID))
			}
			if removed[edit.ID] {
				return nil, appErrors.Validation(fmt.Sprintf("slot %d is deleted twice", edit.ID))
			}
			removed[edit.ID] = true
		case KeepSlot:
			if _, ok := byID[edit.ID]; !ok {
				return nil, appErrors.NotFound(fmt.Sprintf("slot %d not found", edit.ID))
			}
			if _, dup := kept[edit.ID]; dup {
				return nil, appErrors.Validation(fmt.Sprintf("slot %d is updated twice", edit.ID))
			}
			if edit.Time == "" || edit.Date.IsZero() {
				return nil, appErrors.Validation(msgSlotDatesRequired)
			}
			kept[edit.ID] = edit
		case NewSlot:
			if edit.Time == "" || edit.Date.IsZero() {
				return nil, appErrors.Validation(msgSlotDatesRequired)
			}
			created = append(created, edit)
		default:
			return nil, appErrors.Validation(fmt.Sprintf("unknown slot edit %T", e))
		}
	}

	for id := range kept {
		if removed[id] {
			return nil, appErrors.Validation(fmt.Sprintf("slot %d is both updated and deleted", id))
		}
	}

	// Surviving slots with their edits applied, in their current order so plan output is
	// deterministic.
	survivors := make([]entity.Slot, 0, len(current))
	for _, s := range current {
		if removed[s.ID] {
			if s.IsConfirmed {
				plan.ClearsConfirmation = true
			}
			plan.Deletes = append(plan.Deletes, s.ID)
			continue
		}

		next := s
		if edit, ok := kept[s.ID]; ok {
			if !s.SameMoment(edit.Date, edit.Time) && responseCounts[s.ID] > 0 {
				return nil, appErrors.Conflict(fmt.Sprintf(
					"slot %d already has responses; its date and time cannot change, delete it instead", s.ID))
			}
			next.Date = edit.Date
			next.Time = edit.Time
			if edit.DisplayOrder != nil {
				next.DisplayOrder = copyInt(edit.DisplayOrder)
			}
		}
		survivors = append(survivors, next)
	}

	// Unordered slots sort after every ordered one, so appending behind them needs them
	// numbered first. Renumber all survivors in their display order.
	if len(created) > 0 && hasUnordered(survivors) {
		entity.SortSlots(survivors)
		for i := range survivors {
			order := i
			survivors[i].DisplayOrder = &order
		}
	}
	for _, next := range survivors {
		prev := byID[next.ID]
		if !prev.SameMoment(next.Date, next.Time) || !sameOrder(prev.DisplayOrder, next.DisplayOrder) {
			plan.Updates = append(plan.Updates, next)
		}
	}
	highest := entity.MaxDisplayOrder(survivors)

	if len(current)-len(plan.Deletes)+len(created) == 0 {
		return nil, appErrors.Validation("at least one candidate date is required")
	}

	sort.SliceStable(created, func(i, j int) bool {
		a, b := created[i].DisplayOrder, created[j].DisplayOrder
		if a != nil && b != nil {
			return *a < *b
		}
		return a != nil && b == nil
	})
	for i, c := range created {
		order := highest + 1 + i
		plan.Creates = append(plan.Creates, entity.Slot{Date: c.Date, Time: c.Time, DisplayOrder: &order})
	}
	return plan, nil
}

func hasUnordered(slots []entity.Slot) bool {
	for _, s := range slots {
		if s.DisplayOrder == nil {
			return true
		}
	}
	return false
}

func sameOrder(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func copyInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// reconcile plans and applies edits to the event's slots inside tx: deletes, then updates,
// then creates. The confirmation invariant is re-checked before tx commits.
func reconcile(ctx context.Context, tx repository.Store, eventID uuid.UUID, edits []SlotEdit) (*ReconciliationPlan, error) {
	current, err := tx.GetSlotsByEventID(ctx, eventID)
	if err != nil {
		return nil, appErrors.NewAppError(appErrors.ErrGetFailed, "Failed to load slots", err)
	}
	counts, err := tx.CountResponsesBySlot(ctx, eventID)
	if err != nil {
		return nil, appErrors.NewAppError(appErrors.ErrGetFailed, "Failed to count responses", err)
	}

	plan, appErr := PlanReconciliation(current, counts, edits)
	if appErr != nil {
		return nil, appErr
	}

	if err := tx.DeleteSlots(ctx, plan.Deletes); err != nil {
		return nil, appErrors.Integrity("Failed to delete slots", err)
	}
	for i := range plan.Updates {
		if err := tx.UpdateSlot(ctx, &plan.Updates[i]); err != nil {
			return nil, appErrors.Integrity("Failed to update slot", err)
		}
	}
	if len(plan.Creates) > 0 {
		for i := range plan.Creates {
			plan.Creates[i].EventID = eventID
		}
		created, err := tx.CreateSlots(ctx, plan.Creates)
		if err != nil {
			return nil, appErrors.Integrity("Failed to create slots", err)
		}
		plan.Creates = created
	}

	if plan.ClearsConfirmation {
		if err := tx.ClearConfirmed(ctx, eventID); err != nil {
			return nil, appErrors.Integrity("Failed to clear confirmation", err)
		}
	}
	if err := verifyConfirmation(ctx, tx, eventID); err != nil {
		return nil, err
	}
	return plan, nil
}
