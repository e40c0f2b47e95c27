package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	appErrors "go-schedule-api/core/errors"
	"go-schedule-api/modules/schedule/dto"
	"go-schedule-api/modules/schedule/entity"
	"go-schedule-api/modules/schedule/repository"

	"github.com/google/uuid"
)

type recordedTask struct {
	Type    string
	Payload any
}

type recordingPublisher struct {
	mu    sync.Mutex
	tasks []recordedTask
}

func (p *recordingPublisher) Enqueue(_ context.Context, taskType string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tasks = append(p.tasks, recordedTask{Type: taskType, Payload: payload})
	return nil
}

func (p *recordingPublisher) ofType(taskType string) []recordedTask {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []recordedTask
	for _, t := range p.tasks {
		if t.Type == taskType {
			out = append(out, t)
		}
	}
	return out
}

// mapCache stores JSON like the redis cache does, without expiry.
type mapCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMapCache() *mapCache { return &mapCache{data: map[string][]byte{}} }

func (c *mapCache) Get(_ context.Context, key string, dest any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (c *mapCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = raw
	return nil
}

func (c *mapCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.data, k)
	}
	return nil
}

type fixture struct {
	repo      *repository.MemoryRepository
	cache     *mapCache
	publisher *recordingPublisher
	schedule  *ScheduleService
	responses *ResponseService
	now       time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		repo:      repository.NewMemoryRepository(),
		cache:     newMapCache(),
		publisher: &recordingPublisher{},
		now:       time.Date(2025, 5, 20, 9, 0, 0, 0, time.UTC),
	}
	clock := WithClock(func() time.Time { return f.now })
	noRedelete := WithCacheRedeleteDelay(0)
	f.schedule = NewScheduleService(f.repo, f.cache, nil, f.publisher, clock, noRedelete)
	f.responses = NewResponseService(f.repo, f.cache, nil, f.publisher, clock, noRedelete)
	return f
}

// createEvent creates an event with the given "date time" slots and returns it with the owner caller.
func (f *fixture) createEvent(t *testing.T, name string, slots ...dto.SlotInput) (*dto.EventSnapshot, Caller) {
	t.Helper()
	resp, appErr := f.schedule.CreateEvent(context.Background(), nil, &dto.CreateEventRequest{Name: name, Slots: slots})
	if appErr != nil {
		t.Fatalf("CreateEvent() error = %v", appErr)
	}
	return resp.Event, Caller{OwnerToken: resp.OwnerToken}
}

func (f *fixture) answer(t *testing.T, eventID uuid.UUID, name string, answers map[int64]string) *dto.ParticipantView {
	t.Helper()
	req := &dto.CreateParticipantRequest{Name: name}
	for slotID, status := range answers {
		req.Responses = append(req.Responses, dto.ResponseInput{SlotID: slotID, Status: entity.ResponseStatus(status)})
	}
	view, appErr := f.responses.CreateParticipant(context.Background(), eventID, req)
	if appErr != nil {
		t.Fatalf("CreateParticipant(%s) error = %v", name, appErr)
	}
	return view
}

func (f *fixture) snapshot(t *testing.T, eventID uuid.UUID) *dto.EventSnapshot {
	t.Helper()
	snap, appErr := f.schedule.GetEvent(context.Background(), eventID)
	if appErr != nil {
		t.Fatalf("GetEvent() error = %v", appErr)
	}
	return snap
}

func (f *fixture) confirmedCount(t *testing.T, eventID uuid.UUID) int {
	t.Helper()
	n, err := f.repo.CountConfirmed(context.Background(), eventID)
	if err != nil {
		t.Fatalf("CountConfirmed() error = %v", err)
	}
	return n
}

func wantCode(t *testing.T, appErr *appErrors.AppError, code appErrors.ErrorCode) {
	t.Helper()
	if appErr == nil {
		t.Fatalf("error = nil, want code %d", code)
	}
	if appErr.Code != code {
		t.Fatalf("error = %v (code %d), want code %d", appErr, appErr.Code, code)
	}
}

func slotIDs(snap *dto.EventSnapshot) []int64 {
	ids := make([]int64, len(snap.Slots))
	for i, s := range snap.Slots {
		ids[i] = s.ID
	}
	return ids
}

func ptr[T any](v T) *T { return &v }
