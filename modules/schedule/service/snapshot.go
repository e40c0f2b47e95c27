package service

import (
	"context"
	"errors"

	"go-schedule-api/core/constants"
	appErrors "go-schedule-api/core/errors"
	"go-schedule-api/core/storage"
	"go-schedule-api/modules/schedule/dto"
	"go-schedule-api/modules/schedule/entity"
	"go-schedule-api/modules/schedule/repository"
)

// loadSnapshot reads everything attached to event and builds its read model. event must
// be non-nil.
func loadSnapshot(ctx context.Context, store repository.Store, blobs storage.BlobStore, event *entity.Event) (*dto.EventSnapshot, error) {
	slots, err := store.GetSlotsByEventID(ctx, event.ID)
	if err != nil {
		return nil, err
	}
	participants, err := store.GetParticipantsByEventID(ctx, event.ID)
	if err != nil {
		return nil, err
	}
	responses, err := store.GetResponsesByEventID(ctx, event.ID)
	if err != nil {
		return nil, err
	}
	return buildSnapshot(event, slots, participants, responses, blobs), nil
}

func buildSnapshot(event *entity.Event, slots []entity.Slot, participants []entity.Participant,
	responses []entity.Response, blobs storage.BlobStore) *dto.EventSnapshot {

	agg := Summarize(slots, participants, responses)

	snap := &dto.EventSnapshot{
		ID:           event.ID,
		Name:         event.Name,
		Memo:         event.Memo,
		IconKey:      event.IconKey,
		Deadline:     event.Deadline,
		Slots:        make([]dto.SlotView, 0, len(slots)),
		Participants: make([]dto.ParticipantView, 0, len(participants)),
		Summary: dto.SummaryView{
			MaxAttend:               agg.MaxAttend,
			HighlightedSlotIDs:      agg.HighlightedSlotIDs,
			PriorityFriendlySlotIDs: agg.PriorityFriendlySlotIDs,
			ConfirmedSlotID:         agg.ConfirmedSlotID,
			ParticipantCount:        len(participants),
		},
		CreatedAt: event.CreatedAt,
		UpdatedAt: event.UpdatedAt,
	}
	if event.IconKey != nil && *event.IconKey != "" && blobs != nil {
		snap.IconURL = blobs.URL(*event.IconKey)
	}

	for i, s := range slots {
		snap.Slots = append(snap.Slots, toSlotView(s, agg.Slots[i]))
	}

	byParticipant := make(map[int64][]dto.AnswerView, len(participants))
	for _, r := range responses {
		byParticipant[r.ParticipantID] = append(byParticipant[r.ParticipantID], dto.AnswerView{
			SlotID:  r.SlotID,
			Status:  r.Status,
			Comment: r.Comment,
		})
	}
	for _, p := range participants {
		answers := byParticipant[p.ID]
		if answers == nil {
			answers = []dto.AnswerView{}
		}
		snap.Participants = append(snap.Participants, dto.ParticipantView{
			ID:         p.ID,
			Name:       p.Name,
			Comment:    p.Comment,
			IsPriority: p.IsPriority,
			Answers:    answers,
			CreatedAt:  p.CreatedAt,
			UpdatedAt:  p.UpdatedAt,
		})
	}
	return snap
}

func toSlotView(s entity.Slot, tally SlotTally) dto.SlotView {
	return dto.SlotView{
		ID:                  s.ID,
		Date:                s.Date.Format(constants.SlotDateLayout),
		Time:                s.Time,
		DisplayOrder:        s.DisplayOrder,
		IsConfirmed:         s.IsConfirmed,
		Counts:              tally.Counts,
		PriorityAttendeeIDs: tally.PriorityAttendeeIDs,
		Highlight:           string(tally.Highlight),
	}
}

// asAppError passes AppErrors through and wraps anything else as an integrity failure.
func asAppError(err error, message string) *appErrors.AppError {
	if err == nil {
		return nil
	}
	var ae *appErrors.AppError
	if errors.As(err, &ae) {
		return ae
	}
	if errors.Is(err, repository.ErrEventNotFound) {
		return appErrors.NotFound("Event not found")
	}
	return appErrors.Integrity(message, err)
}
