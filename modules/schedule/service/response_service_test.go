package service

import (
	"context"
	"reflect"
	"sync"
	"testing"
	"time"

	appErrors "go-schedule-api/core/errors"
	"go-schedule-api/modules/schedule/dto"
	"go-schedule-api/modules/schedule/entity"
)

func TestReplaceResponsesIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	event, _ := f.createEvent(t, "Retry",
		dto.SlotInput{Date: "2025-06-01", Time: "12:00"},
		dto.SlotInput{Date: "2025-06-02", Time: "12:00"},
	)
	p := f.answer(t, event.ID, "Alice", map[int64]string{event.Slots[0].ID: "UNDECIDED"})

	req := &dto.UpdateParticipantRequest{Responses: []dto.ResponseInput{
		{SlotID: event.Slots[0].ID, Status: entity.StatusAttend, Comment: ptr("after 1pm")},
		{SlotID: event.Slots[1].ID, Status: entity.StatusAbsent},
	}}

	state := func() []entity.Response {
		got, _ := f.repo.GetResponsesByParticipantID(ctx, p.ID)
		for i := range got {
			got[i].ID, got[i].CreatedAt, got[i].UpdatedAt = 0, time.Time{}, time.Time{}
		}
		return got
	}

	if _, appErr := f.responses.UpdateParticipant(ctx, event.ID, p.ID, req); appErr != nil {
		t.Fatalf("first UpdateParticipant() error = %v", appErr)
	}
	first := state()
	if _, appErr := f.responses.UpdateParticipant(ctx, event.ID, p.ID, req); appErr != nil {
		t.Fatalf("second UpdateParticipant() error = %v", appErr)
	}
	second := state()

	if len(second) != 2 {
		t.Fatalf("responses = %d, want 2", len(second))
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("state differs after retry:\nfirst  %+v\nsecond %+v", first, second)
	}
}

func TestSubmitResponsesValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	event, _ := f.createEvent(t, "Checks", dto.SlotInput{Date: "2025-06-01", Time: "12:00"})
	other, _ := f.createEvent(t, "Other", dto.SlotInput{Date: "2025-06-01", Time: "12:00"})
	slot := event.Slots[0].ID

	tt := []struct {
		name string
		req  dto.CreateParticipantRequest
		want appErrors.ErrorCode
	}{
		{
			name: "empty name",
			req:  dto.CreateParticipantRequest{Responses: []dto.ResponseInput{{SlotID: slot, Status: entity.StatusAttend}}},
			want: appErrors.ErrInvalidInput,
		},
		{
			name: "empty list",
			req:  dto.CreateParticipantRequest{Name: "Alice"},
			want: appErrors.ErrInvalidInput,
		},
		{
			name: "bad status",
			req:  dto.CreateParticipantRequest{Name: "Alice", Responses: []dto.ResponseInput{{SlotID: slot, Status: "attend"}}},
			want: appErrors.ErrInvalidInput,
		},
		{
			name: "slot answered twice",
			req: dto.CreateParticipantRequest{Name: "Alice", Responses: []dto.ResponseInput{
				{SlotID: slot, Status: entity.StatusAttend},
				{SlotID: slot, Status: entity.StatusAbsent},
			}},
			want: appErrors.ErrInvalidInput,
		},
		{
			name: "slot of another event",
			req:  dto.CreateParticipantRequest{Name: "Alice", Responses: []dto.ResponseInput{{SlotID: other.Slots[0].ID, Status: entity.StatusAttend}}},
			want: appErrors.ErrNotFound,
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			_, appErr := f.responses.CreateParticipant(ctx, event.ID, &tc.req)
			wantCode(t, appErr, tc.want)
		})
	}

	participants, _ := f.repo.GetParticipantsByEventID(ctx, event.ID)
	if len(participants) != 0 {
		t.Errorf("rejected submissions created %d participants", len(participants))
	}
}

func TestResponseToDeletedSlotFails(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	event, owner := f.createEvent(t, "Race",
		dto.SlotInput{Date: "2025-06-01", Time: "12:00"},
		dto.SlotInput{Date: "2025-06-02", Time: "12:00"},
	)
	gone := event.Slots[0].ID
	if _, appErr := f.schedule.DeleteSlot(ctx, event.ID, gone, owner); appErr != nil {
		t.Fatalf("DeleteSlot() error = %v", appErr)
	}

	_, appErr := f.responses.CreateParticipant(ctx, event.ID, &dto.CreateParticipantRequest{
		Name:      "Late",
		Responses: []dto.ResponseInput{{SlotID: gone, Status: entity.StatusAttend}},
	})
	wantCode(t, appErr, appErrors.ErrNotFound)
}

func TestUpdateUnknownParticipant(t *testing.T) {
	f := newFixture(t)
	event, _ := f.createEvent(t, "Who", dto.SlotInput{Date: "2025-06-01", Time: "12:00"})

	_, appErr := f.responses.UpdateParticipant(context.Background(), event.ID, 4242, &dto.UpdateParticipantRequest{
		Responses: []dto.ResponseInput{{SlotID: event.Slots[0].ID, Status: entity.StatusAttend}},
	})
	wantCode(t, appErr, appErrors.ErrNotFound)
}

func TestDuplicateNamesAreSeparateParticipants(t *testing.T) {
	f := newFixture(t)
	event, _ := f.createEvent(t, "Twins", dto.SlotInput{Date: "2025-06-01", Time: "12:00"})
	a := f.answer(t, event.ID, "Sam", map[int64]string{event.Slots[0].ID: "ATTEND"})
	b := f.answer(t, event.ID, "Sam", map[int64]string{event.Slots[0].ID: "ABSENT"})

	if a.ID == b.ID {
		t.Fatalf("participants share id %d", a.ID)
	}
	snap := f.snapshot(t, event.ID)
	if snap.Summary.ParticipantCount != 2 || snap.Slots[0].Counts.Total() != 2 {
		t.Errorf("summary = %+v, counts = %+v", snap.Summary, snap.Slots[0].Counts)
	}
}

func TestDeadlineClosesResponses(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	event, owner := f.createEvent(t, "Closing", dto.SlotInput{Date: "2025-06-01", Time: "12:00"})
	deadline := f.now.Add(time.Hour)
	if _, appErr := f.schedule.UpdateEvent(ctx, event.ID, owner, &dto.UpdateEventRequest{Deadline: &deadline}); appErr != nil {
		t.Fatalf("UpdateEvent() error = %v", appErr)
	}

	p := f.answer(t, event.ID, "Early", map[int64]string{event.Slots[0].ID: "ATTEND"})

	f.now = deadline.Add(time.Minute)
	_, appErr := f.responses.CreateParticipant(ctx, event.ID, &dto.CreateParticipantRequest{
		Name:      "Late",
		Responses: []dto.ResponseInput{{SlotID: event.Slots[0].ID, Status: entity.StatusAttend}},
	})
	wantCode(t, appErr, appErrors.ErrConflict)

	_, appErr = f.responses.UpdateParticipant(ctx, event.ID, p.ID, &dto.UpdateParticipantRequest{
		Responses: []dto.ResponseInput{{SlotID: event.Slots[0].ID, Status: entity.StatusAbsent}},
	})
	wantCode(t, appErr, appErrors.ErrConflict)
}

func TestParticipantAnswersDefaultToAttend(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	event, owner := f.createEvent(t, "Prefill",
		dto.SlotInput{Date: "2025-06-01", Time: "12:00"},
		dto.SlotInput{Date: "2025-06-02", Time: "12:00"},
	)
	p := f.answer(t, event.ID, "Alice", map[int64]string{event.Slots[0].ID: "ABSENT"})

	snap, appErr := f.schedule.AddSlots(ctx, event.ID, owner, &dto.AddSlotsRequest{Slots: []dto.SlotInput{{Date: "2025-06-03", Time: "12:00"}}})
	if appErr != nil {
		t.Fatalf("AddSlots() error = %v", appErr)
	}

	got, appErr := f.responses.ParticipantAnswers(ctx, event.ID, p.ID)
	if appErr != nil {
		t.Fatalf("ParticipantAnswers() error = %v", appErr)
	}
	want := []entity.ResponseStatus{entity.StatusAbsent, entity.StatusAttend, entity.StatusAttend}
	if len(got.Answers) != len(snap.Slots) {
		t.Fatalf("answers = %d, want %d", len(got.Answers), len(snap.Slots))
	}
	for i, a := range got.Answers {
		if a.SlotID != snap.Slots[i].ID || a.Status != want[i] {
			t.Errorf("answer %d = %+v, want slot %d %s", i, a, snap.Slots[i].ID, want[i])
		}
	}
}

func TestSetPriority(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	event, owner := f.createEvent(t, "Birthday",
		dto.SlotInput{Date: "2025-06-01", Time: "12:00"},
		dto.SlotInput{Date: "2025-06-02", Time: "12:00"},
	)
	s1, s2 := event.Slots[0].ID, event.Slots[1].ID
	guest := f.answer(t, event.ID, "Guest", map[int64]string{s1: "ABSENT", s2: "ATTEND"})
	f.answer(t, event.ID, "A", map[int64]string{s1: "ATTEND", s2: "ABSENT"})
	f.answer(t, event.ID, "B", map[int64]string{s1: "ATTEND", s2: "ABSENT"})
	other := f.answer(t, event.ID, "C", map[int64]string{s1: "ATTEND", s2: "ATTEND"})

	_, appErr := f.responses.SetPriority(ctx, event.ID, guest.ID, Caller{}, &dto.PriorityRequest{})
	wantCode(t, appErr, appErrors.ErrForbidden)

	tt := []struct {
		name string
		id   int64
		req  *dto.PriorityRequest
		want bool
	}{
		{name: "toggle on", id: guest.ID, req: &dto.PriorityRequest{}, want: true},
		{name: "explicit true is stable", id: guest.ID, req: &dto.PriorityRequest{IsPriority: ptr(true)}, want: true},
		{name: "second priority attendee", id: other.ID, req: nil, want: true},
		{name: "explicit false", id: other.ID, req: &dto.PriorityRequest{IsPriority: ptr(false)}, want: false},
	}
	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			resp, appErr := f.responses.SetPriority(ctx, event.ID, tc.id, owner, tc.req)
			if appErr != nil {
				t.Fatalf("SetPriority() error = %v", appErr)
			}
			if resp.IsPriority != tc.want {
				t.Errorf("IsPriority = %v, want %v", resp.IsPriority, tc.want)
			}
		})
	}

	snap := f.snapshot(t, event.ID)
	if !reflect.DeepEqual(snap.Summary.PriorityFriendlySlotIDs, []int64{s2}) {
		t.Errorf("priority friendly = %v, want [%d]", snap.Summary.PriorityFriendlySlotIDs, s2)
	}
	if !reflect.DeepEqual(snap.Summary.HighlightedSlotIDs, []int64{s1}) {
		t.Errorf("highlighted = %v, want [%d]", snap.Summary.HighlightedSlotIDs, s1)
	}
	if snap.Slots[1].Highlight != string(HighlightPriority) || snap.Slots[0].Highlight != "" {
		t.Errorf("highlights = %q, %q", snap.Slots[0].Highlight, snap.Slots[1].Highlight)
	}

	_, appErr = f.responses.SetPriority(ctx, event.ID, 999, owner, nil)
	wantCode(t, appErr, appErrors.ErrNotFound)
}

func TestConcurrentParticipantsDoNotInterfere(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	event, _ := f.createEvent(t, "Crowd", dto.SlotInput{Date: "2025-06-01", Time: "12:00"})

	const n = 20
	var wg sync.WaitGroup
	errs := make(chan *appErrors.AppError, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, appErr := f.responses.CreateParticipant(ctx, event.ID, &dto.CreateParticipantRequest{
				Name:      "P",
				Responses: []dto.ResponseInput{{SlotID: event.Slots[0].ID, Status: entity.StatusAttend}},
			})
			if appErr != nil {
				errs <- appErr
			}
		}()
	}
	wg.Wait()
	close(errs)
	for appErr := range errs {
		t.Fatalf("CreateParticipant() error = %v", appErr)
	}

	counts, _ := f.repo.CountByStatus(ctx, event.Slots[0].ID)
	if counts.Attend != n {
		t.Errorf("attend = %d, want %d", counts.Attend, n)
	}
}
