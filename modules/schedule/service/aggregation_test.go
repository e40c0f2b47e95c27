package service

import (
	"reflect"
	"testing"

	"go-schedule-api/modules/schedule/entity"
)

func responsesFor(slotID int64, statuses ...entity.ResponseStatus) []entity.Response {
	out := make([]entity.Response, len(statuses))
	for i, s := range statuses {
		out[i] = entity.Response{ParticipantID: int64(i + 1), SlotID: slotID, Status: s}
	}
	return out
}

func TestSummarizeHighlights(t *testing.T) {
	a, u, x := entity.StatusAttend, entity.StatusUndecided, entity.StatusAbsent

	tt := []struct {
		name      string
		slots     []entity.Slot
		responses []entity.Response
		wantMax   int
		wantIDs   []int64
	}{
		{
			name:  "all ties at the maximum are highlighted",
			slots: []entity.Slot{{ID: 1}, {ID: 2}, {ID: 3}},
			responses: append(append(
				responsesFor(1, a, a, x),
				responsesFor(2, a, a, a)...),
				responsesFor(3, a, a, a, u)...),
			wantMax: 3,
			wantIDs: []int64{2, 3},
		},
		{
			name:    "no responses highlights nothing",
			slots:   []entity.Slot{{ID: 1}, {ID: 2}},
			wantMax: 0,
			wantIDs: []int64{},
		},
		{
			name:      "nobody attending highlights nothing",
			slots:     []entity.Slot{{ID: 1}, {ID: 2}},
			responses: append(responsesFor(1, x, u), responsesFor(2, x)...),
			wantMax:   0,
			wantIDs:   []int64{},
		},
		{
			name:      "responses for unknown slots are ignored",
			slots:     []entity.Slot{{ID: 1}},
			responses: append(responsesFor(1, a), responsesFor(99, a, a)...),
			wantMax:   1,
			wantIDs:   []int64{1},
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			agg := Summarize(tc.slots, nil, tc.responses)
			if agg.MaxAttend != tc.wantMax {
				t.Errorf("MaxAttend = %d, want %d", agg.MaxAttend, tc.wantMax)
			}
			if !reflect.DeepEqual(agg.HighlightedSlotIDs, tc.wantIDs) {
				t.Errorf("HighlightedSlotIDs = %v, want %v", agg.HighlightedSlotIDs, tc.wantIDs)
			}
		})
	}
}

func TestSummarizeRenderingPrecedence(t *testing.T) {
	participants := []entity.Participant{{ID: 1}, {ID: 2}, {ID: 3, IsPriority: true}}
	responses := []entity.Response{
		{ParticipantID: 1, SlotID: 10, Status: entity.StatusAttend},
		{ParticipantID: 2, SlotID: 10, Status: entity.StatusAttend},
		{ParticipantID: 3, SlotID: 10, Status: entity.StatusAbsent},
		{ParticipantID: 3, SlotID: 20, Status: entity.StatusAttend},
	}

	tt := []struct {
		name  string
		slots []entity.Slot
		want  map[int64]Highlight
	}{
		{
			name:  "priority friendly wins over max attendance",
			slots: []entity.Slot{{ID: 10}, {ID: 20}, {ID: 30}},
			want:  map[int64]Highlight{10: HighlightNone, 20: HighlightPriority, 30: HighlightNone},
		},
		{
			name:  "confirmed wins over everything",
			slots: []entity.Slot{{ID: 10}, {ID: 20}, {ID: 30, IsConfirmed: true}},
			want:  map[int64]Highlight{10: HighlightNone, 20: HighlightNone, 30: HighlightConfirmed},
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			agg := Summarize(tc.slots, participants, responses)
			for id, want := range tc.want {
				tally, ok := agg.Tally(id)
				if !ok {
					t.Fatalf("no tally for slot %d", id)
				}
				if tally.Highlight != want {
					t.Errorf("slot %d highlight = %q, want %q", id, tally.Highlight, want)
				}
			}
			if !reflect.DeepEqual(agg.HighlightedSlotIDs, []int64{10}) {
				t.Errorf("HighlightedSlotIDs = %v, want [10]", agg.HighlightedSlotIDs)
			}
			if !reflect.DeepEqual(agg.PriorityFriendlySlotIDs, []int64{20}) {
				t.Errorf("PriorityFriendlySlotIDs = %v, want [20]", agg.PriorityFriendlySlotIDs)
			}
		})
	}
}

func TestSummarizeWithoutPriorityUsesBest(t *testing.T) {
	slots := []entity.Slot{{ID: 1}, {ID: 2}}
	responses := append(responsesFor(1, entity.StatusAttend, entity.StatusAttend), responsesFor(2, entity.StatusAttend)...)

	agg := Summarize(slots, nil, responses)
	t1, _ := agg.Tally(1)
	t2, _ := agg.Tally(2)
	if t1.Highlight != HighlightBest || t2.Highlight != HighlightNone {
		t.Errorf("highlights = %q, %q; want best, none", t1.Highlight, t2.Highlight)
	}
	if t1.Counts.Attend != 2 || t2.Counts.Attend != 1 {
		t.Errorf("attend counts = %d, %d; want 2, 1", t1.Counts.Attend, t2.Counts.Attend)
	}
}
