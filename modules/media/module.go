package media

import (
	"go-schedule-api/core/middleware"
	"go-schedule-api/core/queue"
	"go-schedule-api/core/storage"
	"go-schedule-api/modules/media/controller"
	"go-schedule-api/modules/media/router"
	"go-schedule-api/modules/media/service"

	"github.com/labstack/echo/v4"
)

// Init registers the upload route and the blob cleanup task handler. blobs may be nil.
func Init(e *echo.Echo, mw *middleware.Middleware, blobs storage.BlobStore, registry *queue.Registry) {
	svc := service.NewMediaService(blobs)
	registry.HandleFunc(queue.TypeBlobDelete, svc.HandleBlobDelete)

	rtr := router.NewMediaRouter(controller.NewMediaController(svc))
	rtr.Setup(e, mw)
}
