package controller

import (
	"strconv"
	"strings"

	"go-schedule-api/core/constants"
	"go-schedule-api/core/controller"
	"go-schedule-api/core/middleware"
	"go-schedule-api/modules/schedule/dto"
	"go-schedule-api/modules/schedule/service"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// ScheduleController handles event, slot and confirmation requests
type ScheduleController struct {
	controller.BaseController
	ScheduleService service.ScheduleServiceInterface
}

func NewScheduleController(svc service.ScheduleServiceInterface) *ScheduleController {
	return &ScheduleController{
		BaseController:  controller.NewBaseController(),
		ScheduleService: svc,
	}
}

// bindAndValidate returns the client-facing message when the body is rejected.
func bindAndValidate(ctx echo.Context, req any) string {
	if err := ctx.Bind(req); err != nil {
		return "Invalid request body"
	}
	if err := ctx.Validate(req); err != nil {
		return err.Error()
	}
	return ""
}

func eventID(ctx echo.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(ctx.Param("id"))
	return id, err == nil
}

func int64Param(ctx echo.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param(name), 10, 64)
	return id, err == nil && id > 0
}

func callerFrom(ctx echo.Context) service.Caller {
	return service.Caller{
		OwnerToken: middleware.Owner(ctx),
		UserID:     middleware.UserID(ctx),
	}
}

// CreateEvent handles POST /events
// @Summary Create event
// @Description Creates an event with its candidate slots. The owner token is returned only once.
// @Tags Schedule
// @Accept json
// @Produce json
// @Param request body dto.CreateEventRequest true "Event"
// @Success 200 {object} dto.CreateEventResponse
// @Failure 400 {object} errors.AppError
// @Router /events [post]
func (c *ScheduleController) CreateEvent(ctx echo.Context) error {
	var req dto.CreateEventRequest
	if msg := bindAndValidate(ctx, &req); msg != "" {
		return c.BadRequest(ctx, msg)
	}

	result, appErr := c.ScheduleService.CreateEvent(ctx.Request().Context(), middleware.UserID(ctx), &req)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, result, "Event created successfully")
}

// GetEvent handles GET /events/:id
// @Summary Get event
// @Description Event with ordered slots, attendance counts, highlights and participants
// @Tags Schedule
// @Produce json
// @Param id path string true "Event ID"
// @Success 200 {object} dto.EventSnapshot
// @Failure 404 {object} errors.AppError
// @Router /events/{id} [get]
func (c *ScheduleController) GetEvent(ctx echo.Context) error {
	id, ok := eventID(ctx)
	if !ok {
		return c.BadRequest(ctx, "Invalid event ID")
	}

	result, appErr := c.ScheduleService.GetEvent(ctx.Request().Context(), id)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, result, "Success")
}

// GetMyEvents handles GET /events/mine
// @Summary List my events
// @Tags Schedule
// @Security BearerAuth
// @Produce json
// @Success 200 {array} dto.EventListItem
// @Failure 401 {object} errors.AppError
// @Router /events/mine [get]
func (c *ScheduleController) GetMyEvents(ctx echo.Context) error {
	userID := middleware.UserID(ctx)
	if userID == nil {
		return c.BadRequest(ctx, "User not authenticated")
	}

	result, appErr := c.ScheduleService.GetMyEvents(ctx.Request().Context(), *userID)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, result, "Success")
}

// UpdateEvent handles PUT /events/:id
// @Summary Update event
// @Description Updates event fields and applies a slot update/delete/create batch atomically
// @Tags Schedule
// @Accept json
// @Produce json
// @Param id path string true "Event ID"
// @Param X-Owner-Token header string false "Owner token"
// @Param request body dto.UpdateEventRequest true "Changes"
// @Success 200 {object} dto.EventSnapshot
// @Failure 400 {object} errors.AppError
// @Failure 403 {object} errors.AppError
// @Failure 409 {object} errors.AppError
// @Router /events/{id} [put]
func (c *ScheduleController) UpdateEvent(ctx echo.Context) error {
	id, ok := eventID(ctx)
	if !ok {
		return c.BadRequest(ctx, "Invalid event ID")
	}
	var req dto.UpdateEventRequest
	if msg := bindAndValidate(ctx, &req); msg != "" {
		return c.BadRequest(ctx, msg)
	}

	result, appErr := c.ScheduleService.UpdateEvent(ctx.Request().Context(), id, callerFrom(ctx), &req)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, result, "Event updated successfully")
}

// DeleteEvent handles DELETE /events/:id
// @Summary Delete event
// @Tags Schedule
// @Param id path string true "Event ID"
// @Param X-Owner-Token header string false "Owner token"
// @Success 200 {object} map[string]bool
// @Failure 403 {object} errors.AppError
// @Router /events/{id} [delete]
func (c *ScheduleController) DeleteEvent(ctx echo.Context) error {
	id, ok := eventID(ctx)
	if !ok {
		return c.BadRequest(ctx, "Invalid event ID")
	}

	if appErr := c.ScheduleService.DeleteEvent(ctx.Request().Context(), id, callerFrom(ctx)); appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, map[string]bool{"deleted": true}, "Event deleted successfully")
}

// AddSlots handles POST /events/:id/slots
// @Summary Add candidate slots
// @Tags Schedule
// @Accept json
// @Produce json
// @Param id path string true "Event ID"
// @Param request body dto.AddSlotsRequest true "Slots"
// @Success 200 {object} dto.EventSnapshot
// @Router /events/{id}/slots [post]
func (c *ScheduleController) AddSlots(ctx echo.Context) error {
	id, ok := eventID(ctx)
	if !ok {
		return c.BadRequest(ctx, "Invalid event ID")
	}
	var req dto.AddSlotsRequest
	if msg := bindAndValidate(ctx, &req); msg != "" {
		return c.BadRequest(ctx, msg)
	}

	result, appErr := c.ScheduleService.AddSlots(ctx.Request().Context(), id, callerFrom(ctx), &req)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, result, "Slots added successfully")
}

// UpdateSlot handles PATCH /events/:id/slots/:slotId
// @Summary Update slot
// @Description Date and time of a slot that already has responses cannot change; reordering is allowed
// @Tags Schedule
// @Accept json
// @Produce json
// @Param id path string true "Event ID"
// @Param slotId path int true "Slot ID"
// @Param request body dto.UpdateSlotRequest true "Changes"
// @Success 200 {object} dto.EventSnapshot
// @Failure 409 {object} errors.AppError
// @Router /events/{id}/slots/{slotId} [patch]
func (c *ScheduleController) UpdateSlot(ctx echo.Context) error {
	id, ok := eventID(ctx)
	if !ok {
		return c.BadRequest(ctx, "Invalid event ID")
	}
	slotID, ok := int64Param(ctx, "slotId")
	if !ok {
		return c.BadRequest(ctx, "Invalid slot ID")
	}
	var req dto.UpdateSlotRequest
	if msg := bindAndValidate(ctx, &req); msg != "" {
		return c.BadRequest(ctx, msg)
	}

	result, appErr := c.ScheduleService.UpdateSlot(ctx.Request().Context(), id, slotID, callerFrom(ctx), &req)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, result, "Slot updated successfully")
}

// DeleteSlot handles DELETE /events/:id/slots/:slotId
// @Summary Delete slot
// @Tags Schedule
// @Param id path string true "Event ID"
// @Param slotId path int true "Slot ID"
// @Success 200 {object} dto.EventSnapshot
// @Router /events/{id}/slots/{slotId} [delete]
func (c *ScheduleController) DeleteSlot(ctx echo.Context) error {
	id, ok := eventID(ctx)
	if !ok {
		return c.BadRequest(ctx, "Invalid event ID")
	}
	slotID, ok := int64Param(ctx, "slotId")
	if !ok {
		return c.BadRequest(ctx, "Invalid slot ID")
	}

	result, appErr := c.ScheduleService.DeleteSlot(ctx.Request().Context(), id, slotID, callerFrom(ctx))
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, result, "Slot deleted successfully")
}

// SlotStats handles GET /events/:id/slots/:slotId/stats
// @Summary Response counts of a slot
// @Tags Schedule
// @Produce json
// @Param id path string true "Event ID"
// @Param slotId path int true "Slot ID"
// @Success 200 {object} dto.SlotStatsResponse
// @Router /events/{id}/slots/{slotId}/stats [get]
func (c *ScheduleController) SlotStats(ctx echo.Context) error {
	id, ok := eventID(ctx)
	if !ok {
		return c.BadRequest(ctx, "Invalid event ID")
	}
	slotID, ok := int64Param(ctx, "slotId")
	if !ok {
		return c.BadRequest(ctx, "Invalid slot ID")
	}

	result, appErr := c.ScheduleService.SlotStats(ctx.Request().Context(), id, slotID)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, result, "Success")
}

// SetConfirmation handles PUT /events/:id/confirmation
// @Summary Confirm or cancel the final slot
// @Tags Schedule
// @Accept json
// @Produce json
// @Param id path string true "Event ID"
// @Param X-Calendar-Token header string false "Calendar access token; publishes the confirmed slot"
// @Param request body dto.ConfirmationRequest true "Action"
// @Success 200 {object} dto.ConfirmationResponse
// @Router /events/{id}/confirmation [put]
func (c *ScheduleController) SetConfirmation(ctx echo.Context) error {
	id, ok := eventID(ctx)
	if !ok {
		return c.BadRequest(ctx, "Invalid event ID")
	}
	var req dto.ConfirmationRequest
	if msg := bindAndValidate(ctx, &req); msg != "" {
		return c.BadRequest(ctx, msg)
	}
	cmd, appErr := service.ConfirmationCommandFromRequest(&req)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	calendarToken := strings.TrimSpace(ctx.Request().Header.Get(constants.HeaderCalendar))
	result, appErr := c.ScheduleService.SetConfirmation(ctx.Request().Context(), id, callerFrom(ctx), cmd, calendarToken)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, result, "Confirmation updated")
}
