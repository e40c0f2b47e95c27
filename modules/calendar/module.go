package calendar

import (
	"go-schedule-api/core/config"
	"go-schedule-api/core/middleware"
	"go-schedule-api/core/queue"
	"go-schedule-api/modules/calendar/controller"
	"go-schedule-api/modules/calendar/router"
	"go-schedule-api/modules/calendar/service"

	"github.com/labstack/echo/v4"
)

// Init registers the ICS export route and the calendar publish task handler.
func Init(e *echo.Echo, mw *middleware.Middleware, events service.EventReader, registry *queue.Registry, cfg config.GoogleConfig) {
	svc := service.NewCalendarService(events, cfg)
	registry.HandleFunc(queue.TypeCalendarPublish, svc.HandlePublishTask)

	rtr := router.NewCalendarRouter(controller.NewCalendarController(svc))
	rtr.Setup(e, mw)
}
