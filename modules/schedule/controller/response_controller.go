package controller

import (
	"go-schedule-api/core/controller"
	"go-schedule-api/modules/schedule/dto"
	"go-schedule-api/modules/schedule/service"

	"github.com/labstack/echo/v4"
)

// ResponseController handles participant submissions
type ResponseController struct {
	controller.BaseController
	ResponseService service.ResponseServiceInterface
}

func NewResponseController(svc service.ResponseServiceInterface) *ResponseController {
	return &ResponseController{
		BaseController:  controller.NewBaseController(),
		ResponseService: svc,
	}
}

// CreateParticipant handles POST /events/:id/participants
// @Summary Submit responses
// @Description First submission of a participant: creates the participant and one response per slot
// @Tags Responses
// @Accept json
// @Produce json
// @Param id path string true "Event ID"
// @Param request body dto.CreateParticipantRequest true "Responses"
// @Success 200 {object} dto.ParticipantView
// @Failure 400 {object} errors.AppError
// @Failure 409 {object} errors.AppError
// @Router /events/{id}/participants [post]
func (c *ResponseController) CreateParticipant(ctx echo.Context) error {
	id, ok := eventID(ctx)
	if !ok {
		return c.BadRequest(ctx, "Invalid event ID")
	}
	var req dto.CreateParticipantRequest
	if msg := bindAndValidate(ctx, &req); msg != "" {
		return c.BadRequest(ctx, msg)
	}

	result, appErr := c.ResponseService.CreateParticipant(ctx.Request().Context(), id, &req)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, result, "Responses saved")
}

// UpdateParticipant handles PUT /events/:id/participants/:participantId
// @Summary Replace responses
// @Tags Responses
// @Accept json
// @Produce json
// @Param id path string true "Event ID"
// @Param participantId path int true "Participant ID"
// @Param request body dto.UpdateParticipantRequest true "Responses"
// @Success 200 {object} dto.ParticipantView
// @Router /events/{id}/participants/{participantId} [put]
func (c *ResponseController) UpdateParticipant(ctx echo.Context) error {
	id, ok := eventID(ctx)
	if !ok {
		return c.BadRequest(ctx, "Invalid event ID")
	}
	participantID, ok := int64Param(ctx, "participantId")
	if !ok {
		return c.BadRequest(ctx, "Invalid participant ID")
	}
	var req dto.UpdateParticipantRequest
	if msg := bindAndValidate(ctx, &req); msg != "" {
		return c.BadRequest(ctx, msg)
	}

	result, appErr := c.ResponseService.UpdateParticipant(ctx.Request().Context(), id, participantID, &req)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, result, "Responses saved")
}

// ParticipantAnswers handles GET /events/:id/participants/:participantId/responses
// @Summary Prefill answers for the edit form
// @Tags Responses
// @Produce json
// @Param id path string true "Event ID"
// @Param participantId path int true "Participant ID"
// @Success 200 {object} dto.AnswersResponse
// @Router /events/{id}/participants/{participantId}/responses [get]
func (c *ResponseController) ParticipantAnswers(ctx echo.Context) error {
	id, ok := eventID(ctx)
	if !ok {
		return c.BadRequest(ctx, "Invalid event ID")
	}
	participantID, ok := int64Param(ctx, "participantId")
	if !ok {
		return c.BadRequest(ctx, "Invalid participant ID")
	}

	result, appErr := c.ResponseService.ParticipantAnswers(ctx.Request().Context(), id, participantID)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, result, "Success")
}

// SetPriority handles PUT /events/:id/participants/:participantId/priority
// @Summary Mark a priority attendee
// @Description Sets the flag, or toggles it when is_priority is omitted
// @Tags Responses
// @Accept json
// @Produce json
// @Param id path string true "Event ID"
// @Param participantId path int true "Participant ID"
// @Param X-Owner-Token header string false "Owner token"
// @Param request body dto.PriorityRequest false "Flag"
// @Success 200 {object} dto.PriorityResponse
// @Failure 404 {object} errors.AppError
// @Router /events/{id}/participants/{participantId}/priority [put]
func (c *ResponseController) SetPriority(ctx echo.Context) error {
	id, ok := eventID(ctx)
	if !ok {
		return c.BadRequest(ctx, "Invalid event ID")
	}
	participantID, ok := int64Param(ctx, "participantId")
	if !ok {
		return c.BadRequest(ctx, "Invalid participant ID")
	}
	var req dto.PriorityRequest
	if ctx.Request().ContentLength != 0 {
		if err := ctx.Bind(&req); err != nil {
			return c.BadRequest(ctx, "Invalid request body")
		}
	}

	result, appErr := c.ResponseService.SetPriority(ctx.Request().Context(), id, participantID, callerFrom(ctx), &req)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, result, "Priority updated")
}
