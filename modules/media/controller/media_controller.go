package controller

import (
	"go-schedule-api/core/controller"
	"go-schedule-api/modules/media/service"

	"github.com/labstack/echo/v4"
)

type MediaController struct {
	controller.BaseController
	MediaService service.MediaServiceInterface
}

func NewMediaController(svc service.MediaServiceInterface) *MediaController {
	return &MediaController{
		BaseController: controller.NewBaseController(),
		MediaService:   svc,
	}
}

// UploadIcon handles POST /uploads/icons
// @Summary Upload event icon
// @Description Stores an image and returns the key to send as icon_key when creating or editing an event
// @Tags Media
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "PNG, JPEG, GIF or WebP image"
// @Success 200 {object} dto.UploadIconResponse
// @Failure 400 {object} errors.AppError
// @Router /uploads/icons [post]
func (c *MediaController) UploadIcon(ctx echo.Context) error {
	fh, err := ctx.FormFile("file")
	if err != nil {
		return c.BadRequest(ctx, "file is required")
	}
	file, err := fh.Open()
	if err != nil {
		return c.BadRequest(ctx, "file could not be read")
	}
	defer file.Close()

	result, appErr := c.MediaService.UploadIcon(ctx.Request().Context(), fh.Filename, file, fh.Size)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, result, "File uploaded successfully")
}
