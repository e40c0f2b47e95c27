package router

import (
	"fmt"

	"go-schedule-api/core/constants"
	"go-schedule-api/core/middleware"
	"go-schedule-api/modules/media/controller"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
)

type MediaRouter struct {
	MediaController *controller.MediaController
}

func NewMediaRouter(mediaController *controller.MediaController) *MediaRouter {
	return &MediaRouter{
		MediaController: mediaController,
	}
}

// Setup registers upload routes
func (r *MediaRouter) Setup(e *echo.Echo, mw *middleware.Middleware) {
	v1 := e.Group("/api/v1")

	// multipart overhead on top of the file itself
	limit := fmt.Sprintf("%dK", constants.IconMaxBytes/1024+64)
	uploads := v1.Group("/uploads", echoMiddleware.BodyLimit(limit), mw.OptionalAuth())
	uploads.POST("/icons", r.MediaController.UploadIcon)
}
