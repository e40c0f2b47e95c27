package router

import (
	"go-schedule-api/core/middleware"
	"go-schedule-api/modules/schedule/controller"

	"github.com/labstack/echo/v4"
)

// ScheduleRouter handles event, slot and response routes
type ScheduleRouter struct {
	ScheduleController *controller.ScheduleController
	ResponseController *controller.ResponseController
}

func NewScheduleRouter(scheduleController *controller.ScheduleController, responseController *controller.ResponseController) *ScheduleRouter {
	return &ScheduleRouter{
		ScheduleController: scheduleController,
		ResponseController: responseController,
	}
}

// Setup registers schedule routes
func (r *ScheduleRouter) Setup(e *echo.Echo, mw *middleware.Middleware) {
	v1 := e.Group("/api/v1")

	// Organizer listing requires a bearer token
	v1.GET("/events/mine", r.ScheduleController.GetMyEvents, mw.AuthMiddleware())

	// Everything else is reachable by link; owner-only operations check the owner token
	eventRoutes := v1.Group("/events", mw.OptionalAuth(), mw.OwnerToken())

	eventRoutes.POST("", r.ScheduleController.CreateEvent)
	eventRoutes.GET("/:id", r.ScheduleController.GetEvent)
	eventRoutes.PUT("/:id", r.ScheduleController.UpdateEvent)
	eventRoutes.DELETE("/:id", r.ScheduleController.DeleteEvent)

	// Slots
	eventRoutes.POST("/:id/slots", r.ScheduleController.AddSlots)
	eventRoutes.PATCH("/:id/slots/:slotId", r.ScheduleController.UpdateSlot)
	eventRoutes.DELETE("/:id/slots/:slotId", r.ScheduleController.DeleteSlot)
	eventRoutes.GET("/:id/slots/:slotId/stats", r.ScheduleController.SlotStats)
	eventRoutes.PUT("/:id/confirmation", r.ScheduleController.SetConfirmation)

	// Responses
	eventRoutes.POST("/:id/participants", r.ResponseController.CreateParticipant)
	eventRoutes.PUT("/:id/participants/:participantId", r.ResponseController.UpdateParticipant)
	eventRoutes.GET("/:id/participants/:participantId/responses", r.ResponseController.ParticipantAnswers)
	eventRoutes.PUT("/:id/participants/:participantId/priority", r.ResponseController.SetPriority)
}
