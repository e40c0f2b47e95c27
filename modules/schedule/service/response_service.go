package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go-schedule-api/core/cache"
	"go-schedule-api/core/constants"
	appErrors "go-schedule-api/core/errors"
	"go-schedule-api/core/logger"
	"go-schedule-api/core/queue"
	"go-schedule-api/core/storage"
	"go-schedule-api/modules/schedule/dto"
	"go-schedule-api/modules/schedule/entity"
	"go-schedule-api/modules/schedule/repository"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// ResponseServiceInterface covers the participant registry and the response ledger.
type ResponseServiceInterface interface {
	CreateParticipant(ctx context.Context, eventID uuid.UUID, req *dto.CreateParticipantRequest) (*dto.ParticipantView, *appErrors.AppError)
	UpdateParticipant(ctx context.Context, eventID uuid.UUID, participantID int64, req *dto.UpdateParticipantRequest) (*dto.ParticipantView, *appErrors.AppError)
	ParticipantAnswers(ctx context.Context, eventID uuid.UUID, participantID int64) (*dto.AnswersResponse, *appErrors.AppError)
	SetPriority(ctx context.Context, eventID uuid.UUID, participantID int64, caller Caller, req *dto.PriorityRequest) (*dto.PriorityResponse, *appErrors.AppError)
}

type ResponseService struct {
	*base
}

func NewResponseService(repo repository.Repository, c cache.Cache, blobs storage.BlobStore, publisher queue.Publisher, opts ...Option) *ResponseService {
	return &ResponseService{base: newBase(repo, c, blobs, publisher, opts)}
}

func normalizeComment(comment *string) *string {
	if comment == nil {
		return nil
	}
	c := strings.TrimSpace(*comment)
	if c == "" {
		return nil
	}
	return &c
}

// buildResponses validates a submitted batch against the event's current slots. The batch
// must not repeat a slot and every slot must belong to the event.
func buildResponses(inputs []dto.ResponseInput, slots []entity.Slot) ([]entity.Response, *appErrors.AppError) {
	if len(inputs) == 0 {
		return nil, appErrors.Validation("at least one response is required")
	}
	known := make(map[int64]bool, len(slots))
	for _, s := range slots {
		known[s.ID] = true
	}

	seen := make(map[int64]bool, len(inputs))
	responses := make([]entity.Response, 0, len(inputs))
	for _, in := range inputs {
		if !in.Status.Valid() {
			return nil, appErrors.Validation(fmt.Sprintf("invalid status %q", in.Status))
		}
		if seen[in.SlotID] {
			return nil, appErrors.Validation(fmt.Sprintf("slot %d is answered twice", in.SlotID))
		}
		seen[in.SlotID] = true
		if !known[in.SlotID] {
			return nil, appErrors.NotFound(fmt.Sprintf("slot %d not found; reload the event and try again", in.SlotID))
		}
		responses = append(responses, entity.Response{
			SlotID:  in.SlotID,
			Status:  in.Status,
			Comment: normalizeComment(in.Comment),
		})
	}
	return responses, nil
}

// ledgerError maps integrity errors raised while writing responses.
func ledgerError(err error) error {
	switch {
	case errors.Is(err, repository.ErrSlotNotFound):
		return appErrors.NewAppError(appErrors.ErrNotFound, "Slot not found; reload the event and try again", err)
	case errors.Is(err, repository.ErrParticipantNotFound):
		return appErrors.NewAppError(appErrors.ErrNotFound, "Participant not found", err)
	}
	return err
}

func (s *ResponseService) openEvent(ctx context.Context, eventID uuid.UUID) (*entity.Event, *appErrors.AppError) {
	event, appErr := s.getEvent(ctx, eventID)
	if appErr != nil {
		return nil, appErr
	}
	if event.DeadlinePassed(s.now()) {
		return nil, appErrors.Conflict("Responses are closed for this event")
	}
	return event, nil
}

func participantView(p *entity.Participant, responses []entity.Response) *dto.ParticipantView {
	answers := make([]dto.AnswerView, 0, len(responses))
	for _, r := range responses {
		answers = append(answers, dto.AnswerView{SlotID: r.SlotID, Status: r.Status, Comment: r.Comment})
	}
	return &dto.ParticipantView{
		ID:         p.ID,
		Name:       p.Name,
		Comment:    p.Comment,
		IsPriority: p.IsPriority,
		Answers:    answers,
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}
}

// CreateParticipant registers a participant and records their first response set.
func (s *ResponseService) CreateParticipant(ctx context.Context, eventID uuid.UUID, req *dto.CreateParticipantRequest) (view *dto.ParticipantView, appErr *appErrors.AppError) {
	ctx, span := tracer.Start(ctx, "ResponseService.CreateParticipant")
	defer func() { endSpan(span, appErr) }()

	if _, appErr = s.openEvent(ctx, eventID); appErr != nil {
		return nil, appErr
	}
	name, appErr := normalizeName(req.Name, constants.ParticipantNameMaxLength, "name")
	if appErr != nil {
		return nil, appErr
	}

	appErr = s.inTx(ctx, "Failed to save responses", func(tx repository.Store) error {
		if _, err := eventInTx(ctx, tx, eventID); err != nil {
			return err
		}
		slots, err := tx.GetSlotsByEventID(ctx, eventID)
		if err != nil {
			return err
		}
		responses, appErr := buildResponses(req.Responses, slots)
		if appErr != nil {
			return appErr
		}
		p, err := tx.CreateParticipant(ctx, &entity.Participant{
			EventID: eventID,
			Name:    name,
			Comment: normalizeComment(req.Comment),
		})
		if err != nil {
			return err
		}
		saved, err := tx.ReplaceResponses(ctx, p.ID, responses)
		if err != nil {
			return ledgerError(err)
		}
		view = participantView(p, saved)
		return nil
	})
	if appErr != nil {
		return nil, appErr
	}

	s.invalidate(ctx, eventID)
	span.SetAttributes(attribute.Int64("participant.id", view.ID))
	logger.Info("ResponseService:CreateParticipant", "event_id", eventID, "participant_id", view.ID)
	return view, nil
}

// UpdateParticipant replaces the participant's whole response set. Resubmitting the same
// batch leaves the ledger unchanged.
func (s *ResponseService) UpdateParticipant(ctx context.Context, eventID uuid.UUID, participantID int64, req *dto.UpdateParticipantRequest) (view *dto.ParticipantView, appErr *appErrors.AppError) {
	ctx, span := tracer.Start(ctx, "ResponseService.UpdateParticipant")
	defer func() { endSpan(span, appErr) }()

	if _, appErr = s.openEvent(ctx, eventID); appErr != nil {
		return nil, appErr
	}

	appErr = s.inTx(ctx, "Failed to save responses", func(tx repository.Store) error {
		p, err := tx.GetParticipantByID(ctx, participantID)
		if err != nil {
			return err
		}
		if p == nil || p.EventID != eventID {
			return appErrors.NotFound("Participant not found")
		}
		slots, err := tx.GetSlotsByEventID(ctx, eventID)
		if err != nil {
			return err
		}
		responses, appErr := buildResponses(req.Responses, slots)
		if appErr != nil {
			return appErr
		}

		if req.Name != nil {
			if p.Name, appErr = normalizeName(*req.Name, constants.ParticipantNameMaxLength, "name"); appErr != nil {
				return appErr
			}
		}
		if req.Comment != nil {
			p.Comment = normalizeComment(req.Comment)
		}
		if err := tx.UpdateParticipant(ctx, p); err != nil {
			return ledgerError(err)
		}
		saved, err := tx.ReplaceResponses(ctx, p.ID, responses)
		if err != nil {
			return ledgerError(err)
		}
		view = participantView(p, saved)
		return nil
	})
	if appErr != nil {
		return nil, appErr
	}

	s.invalidate(ctx, eventID)
	logger.Info("ResponseService:UpdateParticipant", "event_id", eventID, "participant_id", participantID)
	return view, nil
}

// ParticipantAnswers returns one answer per current slot for the edit form. Slots the
// participant never answered default to ATTEND.
func (s *ResponseService) ParticipantAnswers(ctx context.Context, eventID uuid.UUID, participantID int64) (*dto.AnswersResponse, *appErrors.AppError) {
	if _, appErr := s.getEvent(ctx, eventID); appErr != nil {
		return nil, appErr
	}
	p, err := s.repo.GetParticipantByID(ctx, participantID)
	if err != nil {
		return nil, appErrors.NewAppError(appErrors.ErrGetFailed, "Failed to load participant", err)
	}
	if p == nil || p.EventID != eventID {
		return nil, appErrors.NotFound("Participant not found")
	}
	slots, err := s.repo.GetSlotsByEventID(ctx, eventID)
	if err != nil {
		return nil, appErrors.NewAppError(appErrors.ErrGetFailed, "Failed to load slots", err)
	}
	responses, err := s.repo.GetResponsesByParticipantID(ctx, participantID)
	if err != nil {
		return nil, appErrors.NewAppError(appErrors.ErrGetFailed, "Failed to load responses", err)
	}

	bySlot := make(map[int64]entity.Response, len(responses))
	for _, r := range responses {
		bySlot[r.SlotID] = r
	}
	answers := make([]dto.AnswerView, 0, len(slots))
	for _, slot := range slots {
		answer := dto.AnswerView{SlotID: slot.ID, Status: entity.StatusAttend}
		if r, ok := bySlot[slot.ID]; ok {
			answer.Status = r.Status
			answer.Comment = r.Comment
		}
		answers = append(answers, answer)
	}

	return &dto.AnswersResponse{
		ParticipantID: p.ID,
		Name:          p.Name,
		Comment:       p.Comment,
		Answers:       answers,
	}, nil
}

// SetPriority marks or unmarks a priority attendee. Without an explicit value the flag is
// toggled. Other participants keep their flags.
func (s *ResponseService) SetPriority(ctx context.Context, eventID uuid.UUID, participantID int64, caller Caller, req *dto.PriorityRequest) (resp *dto.PriorityResponse, appErr *appErrors.AppError) {
	ctx, span := tracer.Start(ctx, "ResponseService.SetPriority")
	defer func() { endSpan(span, appErr) }()

	if _, appErr = s.ownedEvent(ctx, eventID, caller); appErr != nil {
		return nil, appErr
	}

	appErr = s.inTx(ctx, "Failed to update participant", func(tx repository.Store) error {
		p, err := tx.GetParticipantByID(ctx, participantID)
		if err != nil {
			return err
		}
		if p == nil || p.EventID != eventID {
			return appErrors.NotFound("Participant not found")
		}
		next := !p.IsPriority
		if req != nil && req.IsPriority != nil {
			next = *req.IsPriority
		}
		if err := tx.SetPriority(ctx, p.ID, next); err != nil {
			return ledgerError(err)
		}
		resp = &dto.PriorityResponse{ParticipantID: p.ID, IsPriority: next}
		return nil
	})
	if appErr != nil {
		return nil, appErr
	}

	s.invalidate(ctx, eventID)
	return resp, nil
}
