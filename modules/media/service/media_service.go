package service

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"

	"go-schedule-api/core/constants"
	appErrors "go-schedule-api/core/errors"
	"go-schedule-api/core/logger"
	"go-schedule-api/core/queue"
	"go-schedule-api/core/storage"
	"go-schedule-api/core/utils"
	"go-schedule-api/modules/media/dto"

	"github.com/hibiken/asynq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("go-schedule-api/modules/media/service")

var iconContentTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/gif":  true,
	"image/webp": true,
}

type MediaServiceInterface interface {
	UploadIcon(ctx context.Context, filename string, body io.Reader, size int64) (*dto.UploadIconResponse, *appErrors.AppError)
	HandleBlobDelete(ctx context.Context, task *asynq.Task) error
}

type MediaService struct {
	blobs storage.BlobStore
}

// NewMediaService accepts a nil store; uploads are then refused and cleanups skipped.
func NewMediaService(blobs storage.BlobStore) *MediaService {
	return &MediaService{blobs: blobs}
}

// UploadIcon stores an event icon image and returns its key.
func (s *MediaService) UploadIcon(ctx context.Context, filename string, body io.Reader, size int64) (*dto.UploadIconResponse, *appErrors.AppError) {
	ctx, span := tracer.Start(ctx, "MediaService.UploadIcon")
	defer span.End()

	if s.blobs == nil {
		return nil, appErrors.NewAppError(appErrors.ErrInternalServer, "File storage is not configured", nil)
	}
	if size <= 0 {
		return nil, appErrors.Validation("file is empty")
	}
	if size > constants.IconMaxBytes {
		return nil, appErrors.Validation(fmt.Sprintf("file must be at most %d bytes", constants.IconMaxBytes))
	}

	// sniff the real type from the first bytes rather than trusting the client header
	br := bufio.NewReaderSize(body, 512)
	head, err := br.Peek(512)
	if err != nil && err != io.EOF {
		return nil, appErrors.Validation("file could not be read")
	}
	contentType := http.DetectContentType(head)
	if !iconContentTypes[contentType] {
		return nil, appErrors.Validation("icon must be a PNG, JPEG, GIF or WebP image")
	}

	key := utils.BlobKey(constants.IconKeyPrefix, filename)
	span.SetAttributes(attribute.String("blob.key", key), attribute.Int64("blob.size", size))
	if err := s.blobs.Put(ctx, key, br, size, contentType); err != nil {
		span.RecordError(err)
		return nil, appErrors.NewAppError(appErrors.ErrCreateFailed, "Failed to store file", err)
	}

	logger.Info("MediaService:UploadIcon", "key", key, "size", size, "content_type", contentType)
	return &dto.UploadIconResponse{
		Key:         key,
		URL:         s.blobs.URL(key),
		ContentType: contentType,
		Size:        size,
	}, nil
}

// HandleBlobDelete removes a file no event references any more.
func (s *MediaService) HandleBlobDelete(ctx context.Context, task *asynq.Task) error {
	var payload queue.BlobDeletePayload
	if err := queue.Decode(task, &payload); err != nil {
		return err
	}
	if s.blobs == nil || payload.Key == "" {
		logger.Debug("MediaService:HandleBlobDelete:Skip", "key", payload.Key)
		return nil
	}
	if err := s.blobs.Delete(ctx, payload.Key); err != nil {
		return fmt.Errorf("delete blob %s: %w", payload.Key, err)
	}
	logger.Info("MediaService:HandleBlobDelete", "key", payload.Key)
	return nil
}
