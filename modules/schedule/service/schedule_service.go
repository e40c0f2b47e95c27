package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"go-schedule-api/core/cache"
	"go-schedule-api/core/constants"
	appErrors "go-schedule-api/core/errors"
	"go-schedule-api/core/logger"
	"go-schedule-api/core/queue"
	"go-schedule-api/core/storage"
	"go-schedule-api/core/utils"
	"go-schedule-api/modules/schedule/dto"
	"go-schedule-api/modules/schedule/entity"
	"go-schedule-api/modules/schedule/repository"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// ScheduleServiceInterface covers events, the slot store and confirmation.
type ScheduleServiceInterface interface {
	CreateEvent(ctx context.Context, ownerID *uuid.UUID, req *dto.CreateEventRequest) (*dto.CreateEventResponse, *appErrors.AppError)
	GetEvent(ctx context.Context, id uuid.UUID) (*dto.EventSnapshot, *appErrors.AppError)
	GetMyEvents(ctx context.Context, ownerID uuid.UUID) ([]dto.EventListItem, *appErrors.AppError)
	UpdateEvent(ctx context.Context, id uuid.UUID, caller Caller, req *dto.UpdateEventRequest) (*dto.EventSnapshot, *appErrors.AppError)
	DeleteEvent(ctx context.Context, id uuid.UUID, caller Caller) *appErrors.AppError
	AddSlots(ctx context.Context, id uuid.UUID, caller Caller, req *dto.AddSlotsRequest) (*dto.EventSnapshot, *appErrors.AppError)
	UpdateSlot(ctx context.Context, id uuid.UUID, slotID int64, caller Caller, req *dto.UpdateSlotRequest) (*dto.EventSnapshot, *appErrors.AppError)
	DeleteSlot(ctx context.Context, id uuid.UUID, slotID int64, caller Caller) (*dto.EventSnapshot, *appErrors.AppError)
	SlotStats(ctx context.Context, id uuid.UUID, slotID int64) (*dto.SlotStatsResponse, *appErrors.AppError)
	SetConfirmation(ctx context.Context, id uuid.UUID, caller Caller, cmd ConfirmationCommand, calendarToken string) (*dto.ConfirmationResponse, *appErrors.AppError)
}

type ScheduleService struct {
	*base
}

func NewScheduleService(repo repository.Repository, c cache.Cache, blobs storage.BlobStore, publisher queue.Publisher, opts ...Option) *ScheduleService {
	return &ScheduleService{base: newBase(repo, c, blobs, publisher, opts)}
}

// ConfirmationCommandFromRequest maps the wire action to a command.
func ConfirmationCommandFromRequest(req *dto.ConfirmationRequest) (ConfirmationCommand, *appErrors.AppError) {
	switch req.Action {
	case dto.ActionConfirm:
		if req.SlotID == nil || *req.SlotID <= 0 {
			return nil, appErrors.Validation("slot_id is required to confirm")
		}
		return Confirm{SlotID: *req.SlotID}, nil
	case dto.ActionCancel:
		return Cancel{}, nil
	}
	return nil, appErrors.Validation(fmt.Sprintf("unknown action %q", req.Action))
}

func normalizeName(name string, limit int, field string) (string, *appErrors.AppError) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", appErrors.Validation(field + " is required")
	}
	if utf8.RuneCountInString(name) > limit {
		return "", appErrors.Validation(fmt.Sprintf("%s must be at most %d characters", field, limit))
	}
	return name, nil
}

func normalizeMemo(memo *string) (*string, *appErrors.AppError) {
	if memo == nil {
		return nil, nil
	}
	m := strings.TrimSpace(*memo)
	if m == "" {
		return nil, nil
	}
	if utf8.RuneCountInString(m) > constants.EventMemoMaxLength {
		return nil, appErrors.Validation(fmt.Sprintf("memo must be at most %d characters", constants.EventMemoMaxLength))
	}
	return &m, nil
}

func (s *ScheduleService) CreateEvent(ctx context.Context, ownerID *uuid.UUID, req *dto.CreateEventRequest) (resp *dto.CreateEventResponse, appErr *appErrors.AppError) {
	ctx, span := tracer.Start(ctx, "ScheduleService.CreateEvent")
	defer func() { endSpan(span, appErr) }()

	name, appErr := normalizeName(req.Name, constants.EventNameMaxLength, "event name")
	if appErr != nil {
		return nil, appErr
	}
	memo, appErr := normalizeMemo(req.Memo)
	if appErr != nil {
		return nil, appErr
	}
	if len(req.Slots) == 0 {
		return nil, appErrors.Validation("at least one candidate date is required")
	}
	slots := make([]entity.Slot, len(req.Slots))
	for i, in := range req.Slots {
		date, clock, appErr := parseDateTime(in.Date, in.Time)
		if appErr != nil {
			return nil, appErr
		}
		order := i
		slots[i] = entity.Slot{Date: date, Time: clock, DisplayOrder: &order}
	}

	token := utils.GenerateRandomString(constants.OwnerTokenLength)
	hash, err := utils.HashSecret(token)
	if err != nil {
		logger.Error("ScheduleService:CreateEvent:HashSecret", "error", err)
		return nil, appErrors.NewAppError(appErrors.ErrCreateFailed, "Failed to create event", err)
	}

	event := &entity.Event{
		OwnerID:        ownerID,
		OwnerTokenHash: hash,
		Name:           name,
		Memo:           memo,
		Deadline:       req.Deadline,
	}
	if req.IconKey != nil && *req.IconKey != "" {
		event.IconKey = req.IconKey
	}

	var snapshot *dto.EventSnapshot
	appErr = s.inTx(ctx, "Failed to create event", func(tx repository.Store) error {
		created, err := tx.CreateEvent(ctx, event)
		if err != nil {
			return err
		}
		for i := range slots {
			slots[i].EventID = created.ID
		}
		createdSlots, err := tx.CreateSlots(ctx, slots)
		if err != nil {
			return err
		}
		snapshot = buildSnapshot(created, createdSlots, nil, nil, s.blobs)
		return nil
	})
	if appErr != nil {
		return nil, appErr
	}

	span.SetAttributes(attribute.String("event.id", snapshot.ID.String()))
	logger.Info("ScheduleService:CreateEvent", "event_id", snapshot.ID, "slots", len(snapshot.Slots))
	return &dto.CreateEventResponse{Event: snapshot, OwnerToken: token}, nil
}

func (s *ScheduleService) GetEvent(ctx context.Context, id uuid.UUID) (snapshot *dto.EventSnapshot, appErr *appErrors.AppError) {
	ctx, span := tracer.Start(ctx, "ScheduleService.GetEvent")
	defer func() { endSpan(span, appErr) }()

	var cached dto.EventSnapshot
	found, err := s.cache.Get(ctx, cacheKey(id), &cached)
	if err != nil {
		logger.Warn("ScheduleService:GetEvent:CacheGet", "error", err, "event_id", id)
	}
	if found {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return &cached, nil
	}

	event, appErr := s.getEvent(ctx, id)
	if appErr != nil {
		return nil, appErr
	}
	snapshot, err = loadSnapshot(ctx, s.repo, s.blobs, event)
	if err != nil {
		return nil, appErrors.NewAppError(appErrors.ErrGetFailed, "Failed to load event", err)
	}

	if err := s.cache.Set(ctx, cacheKey(id), snapshot, s.cacheTTL); err != nil {
		logger.Warn("ScheduleService:GetEvent:CacheSet", "error", err, "event_id", id)
	}
	return snapshot, nil
}

func (s *ScheduleService) GetMyEvents(ctx context.Context, ownerID uuid.UUID) ([]dto.EventListItem, *appErrors.AppError) {
	events, err := s.repo.GetEventsByOwnerID(ctx, ownerID)
	if err != nil {
		return nil, appErrors.NewAppError(appErrors.ErrGetFailed, "Failed to load events", err)
	}
	items := make([]dto.EventListItem, 0, len(events))
	for _, e := range events {
		items = append(items, dto.EventListItem{
			ID:        e.ID,
			Name:      e.Name,
			Memo:      e.Memo,
			Deadline:  e.Deadline,
			CreatedAt: e.CreatedAt,
		})
	}
	return items, nil
}

func (s *ScheduleService) UpdateEvent(ctx context.Context, id uuid.UUID, caller Caller, req *dto.UpdateEventRequest) (snapshot *dto.EventSnapshot, appErr *appErrors.AppError) {
	ctx, span := tracer.Start(ctx, "ScheduleService.UpdateEvent")
	defer func() { endSpan(span, appErr) }()

	event, appErr := s.ownedEvent(ctx, id, caller)
	if appErr != nil {
		return nil, appErr
	}
	oldIcon := event.IconKey

	if req.Name != nil {
		if event.Name, appErr = normalizeName(*req.Name, constants.EventNameMaxLength, "event name"); appErr != nil {
			return nil, appErr
		}
	}
	if req.Memo != nil {
		if event.Memo, appErr = normalizeMemo(req.Memo); appErr != nil {
			return nil, appErr
		}
	}
	if req.IconKey != nil {
		event.IconKey = nil
		if *req.IconKey != "" {
			event.IconKey = req.IconKey
		}
	}
	switch {
	case req.ClearDeadline:
		event.Deadline = nil
	case req.Deadline != nil:
		event.Deadline = req.Deadline
	}

	edits, appErr := SlotEditsFromRequest(req.Slots)
	if appErr != nil {
		return nil, appErr
	}

	appErr = s.inTx(ctx, "Failed to update event", func(tx repository.Store) error {
		if err := tx.UpdateEvent(ctx, event); err != nil {
			return err
		}
		if len(edits) > 0 {
			if _, err := reconcile(ctx, tx, event.ID, edits); err != nil {
				return err
			}
		}
		updated, err := eventInTx(ctx, tx, event.ID)
		if err != nil {
			return err
		}
		snapshot, err = loadSnapshot(ctx, tx, s.blobs, updated)
		return err
	})
	if appErr != nil {
		return nil, appErr
	}

	s.invalidate(ctx, id)
	if oldIcon != nil && (event.IconKey == nil || *event.IconKey != *oldIcon) {
		s.cleanupBlob(ctx, oldIcon)
	}
	logger.Info("ScheduleService:UpdateEvent", "event_id", id, "slot_edits", len(edits))
	return snapshot, nil
}

func (s *ScheduleService) DeleteEvent(ctx context.Context, id uuid.UUID, caller Caller) (appErr *appErrors.AppError) {
	ctx, span := tracer.Start(ctx, "ScheduleService.DeleteEvent")
	defer func() { endSpan(span, appErr) }()

	event, appErr := s.ownedEvent(ctx, id, caller)
	if appErr != nil {
		return appErr
	}

	appErr = s.inTx(ctx, "Failed to delete event", func(tx repository.Store) error {
		return tx.DeleteEvent(ctx, id)
	})
	if appErr != nil {
		return appErr
	}

	s.invalidate(ctx, id)
	s.cleanupBlob(ctx, event.IconKey)
	logger.Info("ScheduleService:DeleteEvent", "event_id", id)
	return nil
}

// editSlots applies edits for the owner and returns the fresh snapshot.
func (s *ScheduleService) editSlots(ctx context.Context, id uuid.UUID, caller Caller, build func(tx repository.Store) ([]SlotEdit, error)) (*dto.EventSnapshot, *appErrors.AppError) {
	if _, appErr := s.ownedEvent(ctx, id, caller); appErr != nil {
		return nil, appErr
	}

	var snapshot *dto.EventSnapshot
	appErr := s.inTx(ctx, "Failed to update slots", func(tx repository.Store) error {
		event, err := eventInTx(ctx, tx, id)
		if err != nil {
			return err
		}
		edits, err := build(tx)
		if err != nil {
			return err
		}
		if _, err := reconcile(ctx, tx, id, edits); err != nil {
			return err
		}
		snapshot, err = loadSnapshot(ctx, tx, s.blobs, event)
		return err
	})
	if appErr != nil {
		return nil, appErr
	}
	s.invalidate(ctx, id)
	return snapshot, nil
}

func (s *ScheduleService) AddSlots(ctx context.Context, id uuid.UUID, caller Caller, req *dto.AddSlotsRequest) (snapshot *dto.EventSnapshot, appErr *appErrors.AppError) {
	ctx, span := tracer.Start(ctx, "ScheduleService.AddSlots")
	defer func() { endSpan(span, appErr) }()

	if len(req.Slots) == 0 {
		return nil, appErrors.Validation("at least one candidate date is required")
	}
	edits := make([]SlotEdit, 0, len(req.Slots))
	for _, in := range req.Slots {
		date, clock, appErr := parseDateTime(in.Date, in.Time)
		if appErr != nil {
			return nil, appErr
		}
		edits = append(edits, NewSlot{Date: date, Time: clock})
	}

	return s.editSlots(ctx, id, caller, func(repository.Store) ([]SlotEdit, error) {
		return edits, nil
	})
}

func (s *ScheduleService) UpdateSlot(ctx context.Context, id uuid.UUID, slotID int64, caller Caller, req *dto.UpdateSlotRequest) (snapshot *dto.EventSnapshot, appErr *appErrors.AppError) {
	ctx, span := tracer.Start(ctx, "ScheduleService.UpdateSlot")
	defer func() { endSpan(span, appErr) }()

	return s.editSlots(ctx, id, caller, func(tx repository.Store) ([]SlotEdit, error) {
		slot, err := tx.GetSlotByID(ctx, slotID)
		if err != nil {
			return nil, err
		}
		if slot == nil || slot.EventID != id {
			return nil, appErrors.NotFound("Slot not found")
		}

		edit := KeepSlot{ID: slot.ID, Date: slot.Date, Time: slot.Time, DisplayOrder: slot.DisplayOrder}
		if req.Date != nil {
			if edit.Date, err = ParseSlotDate(*req.Date); err != nil {
				return nil, appErrors.Validation(fmt.Sprintf("invalid slot date %q", *req.Date))
			}
		}
		if req.Time != nil {
			if edit.Time, err = NormalizeSlotTime(*req.Time); err != nil {
				return nil, appErrors.Validation(fmt.Sprintf("invalid slot time %q", *req.Time))
			}
		}
		if req.DisplayOrder != nil {
			edit.DisplayOrder = req.DisplayOrder
		}
		return []SlotEdit{edit}, nil
	})
}

func (s *ScheduleService) DeleteSlot(ctx context.Context, id uuid.UUID, slotID int64, caller Caller) (snapshot *dto.EventSnapshot, appErr *appErrors.AppError) {
	ctx, span := tracer.Start(ctx, "ScheduleService.DeleteSlot")
	defer func() { endSpan(span, appErr) }()

	return s.editSlots(ctx, id, caller, func(repository.Store) ([]SlotEdit, error) {
		return []SlotEdit{RemoveSlot{ID: slotID}}, nil
	})
}

func (s *ScheduleService) SlotStats(ctx context.Context, id uuid.UUID, slotID int64) (*dto.SlotStatsResponse, *appErrors.AppError) {
	slot, err := s.repo.GetSlotByID(ctx, slotID)
	if err != nil {
		return nil, appErrors.NewAppError(appErrors.ErrGetFailed, "Failed to load slot", err)
	}
	if slot == nil || slot.EventID != id {
		return nil, appErrors.NotFound("Slot not found")
	}
	counts, err := s.repo.CountByStatus(ctx, slotID)
	if err != nil {
		return nil, appErrors.NewAppError(appErrors.ErrGetFailed, "Failed to count responses", err)
	}
	return &dto.SlotStatsResponse{SlotID: slotID, Counts: counts, Total: counts.Total()}, nil
}

// SetConfirmation confirms a slot or cancels the confirmation. With a calendar token the
// confirmed slot is also published to the organizer's calendar in the background.
func (s *ScheduleService) SetConfirmation(ctx context.Context, id uuid.UUID, caller Caller, cmd ConfirmationCommand, calendarToken string) (resp *dto.ConfirmationResponse, appErr *appErrors.AppError) {
	ctx, span := tracer.Start(ctx, "ScheduleService.SetConfirmation")
	defer func() { endSpan(span, appErr) }()

	event, appErr := s.ownedEvent(ctx, id, caller)
	if appErr != nil {
		return nil, appErr
	}

	// Concurrent confirms are last write wins. The loser sees the winner's row through the
	// unique index and starts over, clearing it this time.
	var snapshot *dto.EventSnapshot
	for attempt := 1; ; attempt++ {
		appErr = s.inTx(ctx, "Failed to update confirmation", func(tx repository.Store) error {
			current, err := eventInTx(ctx, tx, id)
			if err != nil {
				return err
			}
			if _, err := applyConfirmation(ctx, tx, id, cmd); err != nil {
				return err
			}
			snapshot, err = loadSnapshot(ctx, tx, s.blobs, current)
			return err
		})
		if appErr == nil || attempt >= constants.ConfirmationAttempts || !errors.Is(appErr, repository.ErrConfirmationTaken) {
			break
		}
		logger.Warn("ScheduleService:SetConfirmation:Retry", "event_id", id, "attempt", attempt)
	}
	if appErr != nil {
		return nil, appErr
	}
	s.invalidate(ctx, id)

	resp = &dto.ConfirmationResponse{State: dto.StateUnconfirmed}
	if slot := snapshot.ConfirmedSlot(); slot != nil {
		resp.State = dto.StateConfirmed
		resp.Slot = slot
		if calendarToken != "" {
			s.publishToCalendar(ctx, event, slot, calendarToken)
		}
	}
	logger.Info("ScheduleService:SetConfirmation", "event_id", id, "state", resp.State)
	return resp, nil
}

func (s *ScheduleService) publishToCalendar(ctx context.Context, event *entity.Event, slot *dto.SlotView, token string) {
	if s.publisher == nil {
		return
	}
	payload := queue.CalendarPublishPayload{
		EventID:     event.ID,
		Name:        event.Name,
		Date:        slot.Date,
		Time:        slot.Time,
		AccessToken: token,
	}
	if event.Memo != nil {
		payload.Memo = *event.Memo
	}
	if err := s.publisher.Enqueue(ctx, queue.TypeCalendarPublish, payload); err != nil {
		logger.Warn("ScheduleService:PublishToCalendar", "error", err, "event_id", event.ID)
	}
}
