package service

import (
	"go-schedule-api/modules/schedule/entity"
)

// Highlight is how a slot should be rendered.
type Highlight string

const (
	HighlightNone      Highlight = ""
	HighlightConfirmed Highlight = "confirmed"
	HighlightPriority  Highlight = "priority"
	HighlightBest      Highlight = "best"
)

type SlotTally struct {
	SlotID              int64
	Counts              entity.StatusCounts
	PriorityAttendeeIDs []int64
	Highlight           Highlight
}

// Aggregate is the computed view over one event's slots and responses.
type Aggregate struct {
	// Slots follows the order of the slots passed to Summarize.
	Slots     []SlotTally
	MaxAttend int
	// HighlightedSlotIDs holds every slot at the attendance maximum; empty when nobody attends anything.
	HighlightedSlotIDs      []int64
	PriorityFriendlySlotIDs []int64
	ConfirmedSlotID         *int64
}

// Tally returns the tally of one slot.
func (a *Aggregate) Tally(slotID int64) (SlotTally, bool) {
	for _, t := range a.Slots {
		if t.SlotID == slotID {
			return t, true
		}
	}
	return SlotTally{}, false
}

// Summarize computes attendance counts, best slots and priority attendance. Responses
// for slots not in slots are ignored. Rendering precedence is confirmed, then
// priority-friendly, then max attendance.
func Summarize(slots []entity.Slot, participants []entity.Participant, responses []entity.Response) Aggregate {
	priority := make(map[int64]bool, len(participants))
	for _, p := range participants {
		if p.IsPriority {
			priority[p.ID] = true
		}
	}

	index := make(map[int64]int, len(slots))
	agg := Aggregate{
		Slots:                   make([]SlotTally, len(slots)),
		HighlightedSlotIDs:      []int64{},
		PriorityFriendlySlotIDs: []int64{},
	}
	for i, s := range slots {
		index[s.ID] = i
		agg.Slots[i] = SlotTally{SlotID: s.ID, PriorityAttendeeIDs: []int64{}}
		if s.IsConfirmed && agg.ConfirmedSlotID == nil {
			id := s.ID
			agg.ConfirmedSlotID = &id
		}
	}

	for _, r := range responses {
		i, ok := index[r.SlotID]
		if !ok {
			continue
		}
		agg.Slots[i].Counts.Add(r.Status)
		if r.Status == entity.StatusAttend && priority[r.ParticipantID] {
			agg.Slots[i].PriorityAttendeeIDs = append(agg.Slots[i].PriorityAttendeeIDs, r.ParticipantID)
		}
	}

	for _, t := range agg.Slots {
		if t.Counts.Attend > agg.MaxAttend {
			agg.MaxAttend = t.Counts.Attend
		}
	}
	for _, t := range agg.Slots {
		if agg.MaxAttend > 0 && t.Counts.Attend == agg.MaxAttend {
			agg.HighlightedSlotIDs = append(agg.HighlightedSlotIDs, t.SlotID)
		}
		if len(t.PriorityAttendeeIDs) > 0 {
			agg.PriorityFriendlySlotIDs = append(agg.PriorityFriendlySlotIDs, t.SlotID)
		}
	}

	best := toSet(agg.HighlightedSlotIDs)
	friendly := toSet(agg.PriorityFriendlySlotIDs)
	for i := range agg.Slots {
		t := &agg.Slots[i]
		switch {
		case agg.ConfirmedSlotID != nil:
			if t.SlotID == *agg.ConfirmedSlotID {
				t.Highlight = HighlightConfirmed
			}
		case len(friendly) > 0:
			if friendly[t.SlotID] {
				t.Highlight = HighlightPriority
			}
		case best[t.SlotID]:
			t.Highlight = HighlightBest
		}
	}
	return agg
}

func toSet(ids []int64) map[int64]bool {
	set := make(map[int64]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
