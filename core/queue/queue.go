package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"go-schedule-api/core/config"
	"go-schedule-api/core/logger"

	"github.com/hibiken/asynq"
)

const (
	TypeBlobDelete      = "blob:delete"
	TypeCalendarPublish = "calendar:publish"
)

// Publisher enqueues fire-and-forget background work.
type Publisher interface {
	Enqueue(ctx context.Context, taskType string, payload any) error
}

// Registry maps task types to handlers. The same registry feeds the asynq worker and the inline publisher.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]asynq.Handler
}

func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]asynq.Handler)}
}

func (r *Registry) HandleFunc(taskType string, fn func(context.Context, *asynq.Task) error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[taskType] = asynq.HandlerFunc(fn)
}

func (r *Registry) handler(taskType string) (asynq.Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[taskType]
	return h, ok
}

func (r *Registry) mux() *asynq.ServeMux {
	r.mu.RLock()
	defer r.mu.RUnlock()
	mux := asynq.NewServeMux()
	for taskType, h := range r.handlers {
		mux.Handle(taskType, h)
	}
	return mux
}

func newTask(taskType string, payload any) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", taskType, err)
	}
	return asynq.NewTask(taskType, body), nil
}

// Decode unmarshals a task payload.
func Decode(t *asynq.Task, dest any) error {
	if err := json.Unmarshal(t.Payload(), dest); err != nil {
		return fmt.Errorf("decode %s payload: %w: %w", t.Type(), err, asynq.SkipRetry)
	}
	return nil
}

type AsynqPublisher struct {
	client   *asynq.Client
	maxRetry int
}

func redisOpt(cfg config.RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}
}

func NewAsynqPublisher(redisCfg config.RedisConfig, queueCfg config.QueueConfig) *AsynqPublisher {
	return &AsynqPublisher{
		client:   asynq.NewClient(redisOpt(redisCfg)),
		maxRetry: queueCfg.MaxRetry,
	}
}

func (p *AsynqPublisher) Enqueue(ctx context.Context, taskType string, payload any) error {
	task, err := newTask(taskType, payload)
	if err != nil {
		return err
	}
	info, err := p.client.EnqueueContext(ctx, task, asynq.MaxRetry(p.maxRetry))
	if err != nil {
		logger.Error("Queue:Enqueue", "error", err, "type", taskType)
		return err
	}
	logger.Debug("Queue:Enqueue", "type", taskType, "id", info.ID, "queue", info.Queue)
	return nil
}

func (p *AsynqPublisher) Close() error {
	return p.client.Close()
}

// InlinePublisher runs handlers on a goroutine in-process. Used when no redis is configured.
type InlinePublisher struct {
	registry *Registry
	wg       sync.WaitGroup
}

func NewInlinePublisher(registry *Registry) *InlinePublisher {
	return &InlinePublisher{registry: registry}
}

func (p *InlinePublisher) Enqueue(_ context.Context, taskType string, payload any) error {
	h, ok := p.registry.handler(taskType)
	if !ok {
		return fmt.Errorf("no handler registered for %s", taskType)
	}
	task, err := newTask(taskType, payload)
	if err != nil {
		return err
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		if err := h.ProcessTask(context.Background(), task); err != nil {
			logger.Error("Queue:Inline:ProcessTask", "error", err, "type", taskType)
		}
	}()
	return nil
}

// Wait blocks until every inline task started so far has finished.
func (p *InlinePublisher) Wait() {
	p.wg.Wait()
}

type Worker struct {
	server   *asynq.Server
	registry *Registry
}

func NewWorker(redisCfg config.RedisConfig, queueCfg config.QueueConfig, registry *Registry) *Worker {
	srv := asynq.NewServer(redisOpt(redisCfg), asynq.Config{
		Concurrency: queueCfg.Concurrency,
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			logger.Error("Queue:Worker:TaskFailed", "type", task.Type(), "error", err)
		}),
	})
	return &Worker{server: srv, registry: registry}
}

// Run processes tasks until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	if err := w.server.Start(w.registry.mux()); err != nil {
		return fmt.Errorf("start worker: %w", err)
	}
	logger.Info("Queue worker started")

	<-ctx.Done()
	w.server.Shutdown()
	logger.Info("Queue worker stopped")
	return nil
}
