package dto

import "go-schedule-api/modules/schedule/entity"

type ResponseInput struct {
	SlotID  int64                 `json:"slot_id" validate:"required,min=1"`
	Status  entity.ResponseStatus `json:"status" validate:"required,oneof=ATTEND UNDECIDED ABSENT"`
	Comment *string               `json:"comment"`
}

// CreateParticipantRequest is the first submission of a participant.
type CreateParticipantRequest struct {
	Name      string          `json:"name" validate:"required,runemax=30"`
	Comment   *string         `json:"comment"`
	Responses []ResponseInput `json:"responses" validate:"required,min=1,dive"`
}

// UpdateParticipantRequest replaces the participant's whole response set. Name and comment
// are kept when omitted.
type UpdateParticipantRequest struct {
	Name      *string         `json:"name" validate:"omitempty,runemax=30"`
	Comment   *string         `json:"comment"`
	Responses []ResponseInput `json:"responses" validate:"required,min=1,dive"`
}

// PriorityRequest sets the flag; without a value the flag is toggled.
type PriorityRequest struct {
	IsPriority *bool `json:"is_priority"`
}

type PriorityResponse struct {
	ParticipantID int64 `json:"participant_id"`
	IsPriority    bool  `json:"is_priority"`
}

// AnswersResponse pre-populates the edit form: one answer per current slot.
type AnswersResponse struct {
	ParticipantID int64        `json:"participant_id"`
	Name          string       `json:"name"`
	Comment       *string      `json:"comment,omitempty"`
	Answers       []AnswerView `json:"answers"`
}
