package service

import (
	"context"
	"time"

	"go-schedule-api/core/cache"
	"go-schedule-api/core/constants"
	appErrors "go-schedule-api/core/errors"
	"go-schedule-api/core/logger"
	"go-schedule-api/core/queue"
	"go-schedule-api/core/storage"
	"go-schedule-api/core/utils"
	"go-schedule-api/modules/schedule/entity"
	"go-schedule-api/modules/schedule/repository"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("go-schedule-api/modules/schedule/service")

// Caller is what an owner-only request presents: the capability token issued at
// creation, or the organizer identity from a bearer token.
type Caller struct {
	OwnerToken string
	UserID     *uuid.UUID
}

type Option func(*base)

func WithCacheTTL(ttl time.Duration) Option {
	return func(b *base) {
		if ttl > 0 {
			b.cacheTTL = ttl
		}
	}
}

// WithCacheRedeleteDelay sets the delay of the second cache delete after a write. Zero
// turns the second delete off.
func WithCacheRedeleteDelay(d time.Duration) Option {
	return func(b *base) { b.redeleteDelay = d }
}

func WithClock(now func() time.Time) Option {
	return func(b *base) { b.now = now }
}

// base holds what both schedule services share.
type base struct {
	repo      repository.Repository
	cache     cache.Cache
	blobs     storage.BlobStore
	publisher queue.Publisher
	cacheTTL  time.Duration
	now       func() time.Time

	redeleteDelay time.Duration
}

func newBase(repo repository.Repository, c cache.Cache, blobs storage.BlobStore, publisher queue.Publisher, opts []Option) *base {
	if c == nil {
		c = cache.NewNoopCache()
	}
	b := &base{
		repo:      repo,
		cache:     c,
		blobs:     blobs,
		publisher: publisher,
		cacheTTL:  constants.EventCacheTTL,
		now:       time.Now,

		redeleteDelay: constants.EventCacheRedeleteDelay,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func cacheKey(eventID uuid.UUID) string {
	return constants.EventCachePrefix + eventID.String()
}

func (b *base) getEvent(ctx context.Context, id uuid.UUID) (*entity.Event, *appErrors.AppError) {
	event, err := b.repo.GetEventByID(ctx, id)
	if err != nil {
		return nil, appErrors.NewAppError(appErrors.ErrGetFailed, "Failed to load event", err)
	}
	if event == nil {
		return nil, appErrors.NotFound("Event not found")
	}
	return event, nil
}

// eventInTx re-reads the event inside tx so writes never run against an event deleted
// after the ownership check.
func eventInTx(ctx context.Context, tx repository.Store, id uuid.UUID) (*entity.Event, error) {
	event, err := tx.GetEventByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, appErrors.NotFound("Event not found")
	}
	return event, nil
}

// authorize checks the caller against the event's owner marker.
func authorize(event *entity.Event, caller Caller) *appErrors.AppError {
	if caller.UserID != nil && event.OwnerID != nil && *caller.UserID == *event.OwnerID {
		return nil
	}
	if caller.OwnerToken != "" && utils.CompareSecret(event.OwnerTokenHash, caller.OwnerToken) {
		return nil
	}
	return appErrors.Forbidden("Only the event owner can do this")
}

func (b *base) ownedEvent(ctx context.Context, id uuid.UUID, caller Caller) (*entity.Event, *appErrors.AppError) {
	event, appErr := b.getEvent(ctx, id)
	if appErr != nil {
		return nil, appErr
	}
	if appErr := authorize(event, caller); appErr != nil {
		return nil, appErr
	}
	return event, nil
}

// invalidate drops the cached snapshot after a commit, then once more after
// redeleteDelay: a read that loaded pre-commit rows may write them back after the first
// delete. Failures only make reads stale until the TTL expires, so they are logged.
func (b *base) invalidate(ctx context.Context, eventID uuid.UUID) {
	key := cacheKey(eventID)
	if err := b.cache.Delete(ctx, key); err != nil {
		logger.Warn("ScheduleService:Invalidate", "error", err, "event_id", eventID)
	}
	if b.redeleteDelay <= 0 {
		return
	}
	detached := context.WithoutCancel(ctx)
	time.AfterFunc(b.redeleteDelay, func() {
		if err := b.cache.Delete(detached, key); err != nil {
			logger.Warn("ScheduleService:Invalidate:Redelete", "error", err, "event_id", eventID)
		}
	})
}

// cleanupBlob schedules removal of a stored file. Fire and forget.
func (b *base) cleanupBlob(ctx context.Context, key *string) {
	if key == nil || *key == "" || b.publisher == nil {
		return
	}
	if err := b.publisher.Enqueue(ctx, queue.TypeBlobDelete, queue.BlobDeletePayload{Key: *key}); err != nil {
		logger.Warn("ScheduleService:CleanupBlob", "error", err, "key", *key)
	}
}

// inTx runs fn in a transaction and converts the outcome to an AppError.
func (b *base) inTx(ctx context.Context, message string, fn func(tx repository.Store) error) *appErrors.AppError {
	return asAppError(b.repo.WithTx(ctx, fn), message)
}

func endSpan(span trace.Span, appErr *appErrors.AppError) {
	if appErr != nil {
		span.RecordError(appErr)
		span.SetStatus(codes.Error, appErr.Message)
	}
	span.End()
}
