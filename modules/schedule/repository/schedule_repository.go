package repository

import (
	"context"
	"database/sql"
	"errors"

	"go-schedule-api/core/database"
	"go-schedule-api/core/logger"
	"go-schedule-api/modules/schedule/entity"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const (
	pqForeignKeyViolation = "23503"
	pqUniqueViolation     = "23505"
)

const (
	eventColumns       = `id, owner_id, owner_token_hash, name, memo, icon_key, deadline, created_at, updated_at`
	slotColumns        = `id, event_id, slot_date, slot_time, is_confirmed, display_order, created_at, updated_at`
	participantColumns = `id, event_id, name, comment, is_priority, created_at, updated_at`
	responseColumns    = `id, participant_id, slot_id, status, comment, created_at, updated_at`
)

// ScheduleRepository is the Postgres-backed Repository.
type ScheduleRepository struct {
	DB database.IDatabase
	sqlStore
}

func NewScheduleRepository(db database.IDatabase) *ScheduleRepository {
	return &ScheduleRepository{DB: db, sqlStore: sqlStore{q: db.SQLx()}}
}

func (r *ScheduleRepository) WithTx(ctx context.Context, fn func(tx Store) error) error {
	return r.DB.WithTx(ctx, func(tx *sqlx.Tx) error {
		return fn(&sqlStore{q: tx})
	})
}

// sqlStore runs queries against either the pool or an open transaction.
type sqlStore struct {
	q sqlx.ExtContext
}

func translate(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pqForeignKeyViolation:
			if pqErr.Constraint == "slot_responses_participant_id_fkey" {
				return ErrParticipantNotFound
			}
			if pqErr.Table == "slot_responses" {
				return ErrSlotNotFound
			}
		case pqUniqueViolation:
			if pqErr.Constraint == "uq_event_slots_confirmed" {
				return ErrConfirmationTaken
			}
		}
	}
	return err
}

// ===================== Events =====================

func (s *sqlStore) CreateEvent(ctx context.Context, event *entity.Event) (*entity.Event, error) {
	query := `
		INSERT INTO events (owner_id, owner_token_hash, name, memo, icon_key, deadline)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + eventColumns

	var created entity.Event
	err := sqlx.GetContext(ctx, s.q, &created, query,
		event.OwnerID, event.OwnerTokenHash, event.Name, event.Memo, event.IconKey, event.Deadline)
	if err != nil {
		logger.Error("ScheduleRepository:CreateEvent", "error", err)
		return nil, err
	}
	return &created, nil
}

func (s *sqlStore) GetEventByID(ctx context.Context, id uuid.UUID) (*entity.Event, error) {
	var event entity.Event
	err := sqlx.GetContext(ctx, s.q, &event, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		logger.Error("ScheduleRepository:GetEventByID", "error", err, "event_id", id)
		return nil, err
	}
	return &event, nil
}

func (s *sqlStore) GetEventsByOwnerID(ctx context.Context, ownerID uuid.UUID) ([]entity.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE owner_id = $1 ORDER BY created_at DESC`

	events := []entity.Event{}
	if err := sqlx.SelectContext(ctx, s.q, &events, query, ownerID); err != nil {
		logger.Error("ScheduleRepository:GetEventsByOwnerID", "error", err)
		return nil, err
	}
	return events, nil
}

func (s *sqlStore) UpdateEvent(ctx context.Context, event *entity.Event) error {
	query := `
		UPDATE events
		SET name = $2, memo = $3, icon_key = $4, deadline = $5, updated_at = NOW()
		WHERE id = $1
	`
	res, err := s.q.ExecContext(ctx, query, event.ID, event.Name, event.Memo, event.IconKey, event.Deadline)
	if err != nil {
		logger.Error("ScheduleRepository:UpdateEvent", "error", err, "event_id", event.ID)
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrEventNotFound
	}
	return nil
}

// DeleteEvent removes the event; slots, participants and responses go with it through FK cascades.
func (s *sqlStore) DeleteEvent(ctx context.Context, id uuid.UUID) error {
	if _, err := s.q.ExecContext(ctx, `DELETE FROM events WHERE id = $1`, id); err != nil {
		logger.Error("ScheduleRepository:DeleteEvent", "error", err, "event_id", id)
		return err
	}
	return nil
}

// ===================== Slots =====================

func (s *sqlStore) CreateSlots(ctx context.Context, slots []entity.Slot) ([]entity.Slot, error) {
	query := `
		INSERT INTO event_slots (event_id, slot_date, slot_time, is_confirmed, display_order)
		VALUES ($1, $2, $3, FALSE, $4)
		RETURNING ` + slotColumns

	created := make([]entity.Slot, 0, len(slots))
	for _, slot := range slots {
		var row entity.Slot
		err := sqlx.GetContext(ctx, s.q, &row, query, slot.EventID, slot.Date, slot.Time, slot.DisplayOrder)
		if err != nil {
			logger.Error("ScheduleRepository:CreateSlots", "error", err, "event_id", slot.EventID)
			return nil, translate(err)
		}
		created = append(created, row)
	}
	return created, nil
}

func (s *sqlStore) GetSlotByID(ctx context.Context, id int64) (*entity.Slot, error) {
	var slot entity.Slot
	err := sqlx.GetContext(ctx, s.q, &slot, `SELECT `+slotColumns+` FROM event_slots WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		logger.Error("ScheduleRepository:GetSlotByID", "error", err, "slot_id", id)
		return nil, err
	}
	return &slot, nil
}

func (s *sqlStore) GetSlotsByEventID(ctx context.Context, eventID uuid.UUID) ([]entity.Slot, error) {
	query := `
		SELECT ` + slotColumns + `
		FROM event_slots
		WHERE event_id = $1
		ORDER BY display_order ASC NULLS LAST, id ASC
	`
	slots := []entity.Slot{}
	if err := sqlx.SelectContext(ctx, s.q, &slots, query, eventID); err != nil {
		logger.Error("ScheduleRepository:GetSlotsByEventID", "error", err, "event_id", eventID)
		return nil, err
	}
	entity.SortSlots(slots)
	return slots, nil
}

func (s *sqlStore) UpdateSlot(ctx context.Context, slot *entity.Slot) error {
	query := `
		UPDATE event_slots
		SET slot_date = $2, slot_time = $3, display_order = $4, updated_at = NOW()
		WHERE id = $1
	`
	res, err := s.q.ExecContext(ctx, query, slot.ID, slot.Date, slot.Time, slot.DisplayOrder)
	if err != nil {
		logger.Error("ScheduleRepository:UpdateSlot", "error", err, "slot_id", slot.ID)
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrSlotNotFound
	}
	return nil
}

// DeleteSlots removes slots; their responses are removed by FK cascade.
func (s *sqlStore) DeleteSlots(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := s.q.ExecContext(ctx, `DELETE FROM event_slots WHERE id = ANY($1)`, pq.Array(ids)); err != nil {
		logger.Error("ScheduleRepository:DeleteSlots", "error", err)
		return err
	}
	return nil
}

func (s *sqlStore) ClearConfirmed(ctx context.Context, eventID uuid.UUID) error {
	query := `UPDATE event_slots SET is_confirmed = FALSE, updated_at = NOW() WHERE event_id = $1 AND is_confirmed`
	if _, err := s.q.ExecContext(ctx, query, eventID); err != nil {
		logger.Error("ScheduleRepository:ClearConfirmed", "error", err, "event_id", eventID)
		return err
	}
	return nil
}

func (s *sqlStore) MarkConfirmed(ctx context.Context, slotID int64) error {
	res, err := s.q.ExecContext(ctx,
		`UPDATE event_slots SET is_confirmed = TRUE, updated_at = NOW() WHERE id = $1`, slotID)
	if err != nil {
		logger.Error("ScheduleRepository:MarkConfirmed", "error", err, "slot_id", slotID)
		return translate(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrSlotNotFound
	}
	return nil
}

func (s *sqlStore) CountConfirmed(ctx context.Context, eventID uuid.UUID) (int, error) {
	var n int
	err := sqlx.GetContext(ctx, s.q, &n,
		`SELECT COUNT(*) FROM event_slots WHERE event_id = $1 AND is_confirmed`, eventID)
	if err != nil {
		logger.Error("ScheduleRepository:CountConfirmed", "error", err, "event_id", eventID)
		return 0, err
	}
	return n, nil
}

// ===================== Participants =====================

func (s *sqlStore) CreateParticipant(ctx context.Context, p *entity.Participant) (*entity.Participant, error) {
	query := `
		INSERT INTO participants (event_id, name, comment, is_priority)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + participantColumns

	var created entity.Participant
	if err := sqlx.GetContext(ctx, s.q, &created, query, p.EventID, p.Name, p.Comment, p.IsPriority); err != nil {
		logger.Error("ScheduleRepository:CreateParticipant", "error", err, "event_id", p.EventID)
		return nil, err
	}
	return &created, nil
}

func (s *sqlStore) GetParticipantByID(ctx context.Context, id int64) (*entity.Participant, error) {
	var p entity.Participant
	err := sqlx.GetContext(ctx, s.q, &p, `SELECT `+participantColumns+` FROM participants WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		logger.Error("ScheduleRepository:GetParticipantByID", "error", err, "participant_id", id)
		return nil, err
	}
	return &p, nil
}

func (s *sqlStore) GetParticipantsByEventID(ctx context.Context, eventID uuid.UUID) ([]entity.Participant, error) {
	query := `SELECT ` + participantColumns + ` FROM participants WHERE event_id = $1 ORDER BY id`

	participants := []entity.Participant{}
	if err := sqlx.SelectContext(ctx, s.q, &participants, query, eventID); err != nil {
		logger.Error("ScheduleRepository:GetParticipantsByEventID", "error", err, "event_id", eventID)
		return nil, err
	}
	return participants, nil
}

func (s *sqlStore) UpdateParticipant(ctx context.Context, p *entity.Participant) error {
	query := `UPDATE participants SET name = $2, comment = $3, updated_at = NOW() WHERE id = $1`
	res, err := s.q.ExecContext(ctx, query, p.ID, p.Name, p.Comment)
	if err != nil {
		logger.Error("ScheduleRepository:UpdateParticipant", "error", err, "participant_id", p.ID)
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrParticipantNotFound
	}
	return nil
}

func (s *sqlStore) SetPriority(ctx context.Context, id int64, isPriority bool) error {
	res, err := s.q.ExecContext(ctx,
		`UPDATE participants SET is_priority = $2, updated_at = NOW() WHERE id = $1`, id, isPriority)
	if err != nil {
		logger.Error("ScheduleRepository:SetPriority", "error", err, "participant_id", id)
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrParticipantNotFound
	}
	return nil
}

// ===================== Responses =====================

// ReplaceResponses deletes every response of the participant and inserts the given set.
// Call it inside WithTx so the swap is atomic.
func (s *sqlStore) ReplaceResponses(ctx context.Context, participantID int64, responses []entity.Response) ([]entity.Response, error) {
	if _, err := s.q.ExecContext(ctx, `DELETE FROM slot_responses WHERE participant_id = $1`, participantID); err != nil {
		logger.Error("ScheduleRepository:ReplaceResponses:Delete", "error", err, "participant_id", participantID)
		return nil, err
	}

	query := `
		INSERT INTO slot_responses (participant_id, slot_id, status, comment)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + responseColumns

	created := make([]entity.Response, 0, len(responses))
	for _, r := range responses {
		var row entity.Response
		if err := sqlx.GetContext(ctx, s.q, &row, query, participantID, r.SlotID, r.Status, r.Comment); err != nil {
			err = translate(err)
			if errors.Is(err, ErrSlotNotFound) || errors.Is(err, ErrParticipantNotFound) {
				logger.Warn("ScheduleRepository:ReplaceResponses:Insert", "error", err, "slot_id", r.SlotID)
			} else {
				logger.Error("ScheduleRepository:ReplaceResponses:Insert", "error", err, "slot_id", r.SlotID)
			}
			return nil, err
		}
		created = append(created, row)
	}
	return created, nil
}

func (s *sqlStore) GetResponsesByEventID(ctx context.Context, eventID uuid.UUID) ([]entity.Response, error) {
	query := `
		SELECT r.id, r.participant_id, r.slot_id, r.status, r.comment, r.created_at, r.updated_at
		FROM slot_responses r
		JOIN event_slots s ON s.id = r.slot_id
		WHERE s.event_id = $1
		ORDER BY r.participant_id, r.slot_id
	`
	responses := []entity.Response{}
	if err := sqlx.SelectContext(ctx, s.q, &responses, query, eventID); err != nil {
		logger.Error("ScheduleRepository:GetResponsesByEventID", "error", err, "event_id", eventID)
		return nil, err
	}
	return responses, nil
}

func (s *sqlStore) GetResponsesByParticipantID(ctx context.Context, participantID int64) ([]entity.Response, error) {
	query := `SELECT ` + responseColumns + ` FROM slot_responses WHERE participant_id = $1 ORDER BY slot_id`

	responses := []entity.Response{}
	if err := sqlx.SelectContext(ctx, s.q, &responses, query, participantID); err != nil {
		logger.Error("ScheduleRepository:GetResponsesByParticipantID", "error", err, "participant_id", participantID)
		return nil, err
	}
	return responses, nil
}

func (s *sqlStore) CountByStatus(ctx context.Context, slotID int64) (entity.StatusCounts, error) {
	query := `
		SELECT
			COUNT(*) FILTER (WHERE status = 'ATTEND')    AS attend,
			COUNT(*) FILTER (WHERE status = 'UNDECIDED') AS undecided,
			COUNT(*) FILTER (WHERE status = 'ABSENT')    AS absent
		FROM slot_responses
		WHERE slot_id = $1
	`
	var counts entity.StatusCounts
	if err := sqlx.GetContext(ctx, s.q, &counts, query, slotID); err != nil {
		logger.Error("ScheduleRepository:CountByStatus", "error", err, "slot_id", slotID)
		return entity.StatusCounts{}, err
	}
	return counts, nil
}

func (s *sqlStore) CountResponsesBySlot(ctx context.Context, eventID uuid.UUID) (map[int64]int, error) {
	query := `
		SELECT s.id AS slot_id, COUNT(r.id) AS total
		FROM event_slots s
		LEFT JOIN slot_responses r ON r.slot_id = s.id
		WHERE s.event_id = $1
		GROUP BY s.id
	`
	var rows []struct {
		SlotID int64 `db:"slot_id"`
		Total  int   `db:"total"`
	}
	if err := sqlx.SelectContext(ctx, s.q, &rows, query, eventID); err != nil {
		logger.Error("ScheduleRepository:CountResponsesBySlot", "error", err, "event_id", eventID)
		return nil, err
	}
	counts := make(map[int64]int, len(rows))
	for _, row := range rows {
		counts[row.SlotID] = row.Total
	}
	return counts, nil
}
