package controller

import (
	"fmt"
	"net/http"

	"go-schedule-api/core/controller"
	"go-schedule-api/modules/calendar/service"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type CalendarController struct {
	controller.BaseController
	CalendarService service.CalendarServiceInterface
}

func NewCalendarController(svc service.CalendarServiceInterface) *CalendarController {
	return &CalendarController{
		BaseController:  controller.NewBaseController(),
		CalendarService: svc,
	}
}

// ExportICS handles GET /events/:id/calendar.ics
// @Summary Download the confirmed date
// @Description iCalendar file with the confirmed slot of the event
// @Tags Calendar
// @Produce text/calendar
// @Param id path string true "Event ID"
// @Success 200 {string} string "text/calendar"
// @Failure 404 {object} errors.AppError
// @Router /events/{id}/calendar.ics [get]
func (c *CalendarController) ExportICS(ctx echo.Context) error {
	eventID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return c.BadRequest(ctx, "Invalid event ID")
	}

	ics, appErr := c.CalendarService.ExportICS(ctx.Request().Context(), eventID)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	ctx.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", eventID.String()+".ics"))
	return ctx.Blob(http.StatusOK, "text/calendar; charset=utf-8", []byte(ics))
}
