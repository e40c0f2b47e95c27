package schedule

import (
	"go-schedule-api/core/cache"
	"go-schedule-api/core/middleware"
	"go-schedule-api/core/queue"
	"go-schedule-api/core/storage"
	"go-schedule-api/modules/schedule/controller"
	"go-schedule-api/modules/schedule/repository"
	"go-schedule-api/modules/schedule/router"
	"go-schedule-api/modules/schedule/service"

	"github.com/labstack/echo/v4"
)

// Deps are the shared infrastructure the schedule module runs on. Blobs and Publisher may be nil.
type Deps struct {
	Repo      repository.Repository
	Cache     cache.Cache
	Blobs     storage.BlobStore
	Publisher queue.Publisher
	Options   []service.Option
}

// Init initializes the schedule module and registers routes. The schedule service is
// returned for modules that read events.
func Init(e *echo.Echo, mw *middleware.Middleware, deps Deps) *service.ScheduleService {
	scheduleSvc := service.NewScheduleService(deps.Repo, deps.Cache, deps.Blobs, deps.Publisher, deps.Options...)
	responseSvc := service.NewResponseService(deps.Repo, deps.Cache, deps.Blobs, deps.Publisher, deps.Options...)

	rtr := router.NewScheduleRouter(
		controller.NewScheduleController(scheduleSvc),
		controller.NewResponseController(responseSvc),
	)
	rtr.Setup(e, mw)
	return scheduleSvc
}
