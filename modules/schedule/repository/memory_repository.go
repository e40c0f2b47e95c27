package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go-schedule-api/modules/schedule/entity"

	"github.com/google/uuid"
)

type memState struct {
	events       map[uuid.UUID]entity.Event
	slots        map[int64]entity.Slot
	participants map[int64]entity.Participant
	responses    map[int64]entity.Response

	nextSlotID        int64
	nextParticipantID int64
	nextResponseID    int64
}

func newMemState() *memState {
	return &memState{
		events:       make(map[uuid.UUID]entity.Event),
		slots:        make(map[int64]entity.Slot),
		participants: make(map[int64]entity.Participant),
		responses:    make(map[int64]entity.Response),
	}
}

func (st *memState) clone() *memState {
	c := *st
	c.events = make(map[uuid.UUID]entity.Event, len(st.events))
	for k, v := range st.events {
		c.events[k] = v
	}
	c.slots = make(map[int64]entity.Slot, len(st.slots))
	for k, v := range st.slots {
		c.slots[k] = v
	}
	c.participants = make(map[int64]entity.Participant, len(st.participants))
	for k, v := range st.participants {
		c.participants[k] = v
	}
	c.responses = make(map[int64]entity.Response, len(st.responses))
	for k, v := range st.responses {
		c.responses[k] = v
	}
	return &c
}

// MemoryRepository keeps everything in process memory. Transactions hold the lock for
// their whole duration and work on a copy that is swapped in on success, so they are
// serializable. Used by tests and by the memory database driver.
type MemoryRepository struct {
	mu sync.Mutex
	memStore
}

func NewMemoryRepository() *MemoryRepository {
	r := &MemoryRepository{}
	r.memStore = memStore{st: newMemState(), mu: &r.mu, now: time.Now}
	return r
}

func (r *MemoryRepository) WithTx(ctx context.Context, fn func(tx Store) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	work := r.st.clone()
	if err := fn(&memStore{st: work, now: r.now}); err != nil {
		return err
	}
	*r.st = *work
	return nil
}

// memStore operates on one state. mu is nil inside a transaction, where the
// repository lock is already held.
type memStore struct {
	st  *memState
	mu  *sync.Mutex
	now func() time.Time
}

func (s *memStore) lock() func() {
	if s.mu == nil {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

// ===================== Events =====================

func (s *memStore) CreateEvent(_ context.Context, event *entity.Event) (*entity.Event, error) {
	defer s.lock()()

	created := *event
	if created.ID == uuid.Nil {
		created.ID = uuid.New()
	}
	created.CreatedAt = s.now()
	created.UpdatedAt = created.CreatedAt
	s.st.events[created.ID] = created
	return &created, nil
}

func (s *memStore) GetEventByID(_ context.Context, id uuid.UUID) (*entity.Event, error) {
	defer s.lock()()

	event, ok := s.st.events[id]
	if !ok {
		return nil, nil
	}
	return &event, nil
}

func (s *memStore) GetEventsByOwnerID(_ context.Context, ownerID uuid.UUID) ([]entity.Event, error) {
	defer s.lock()()

	events := []entity.Event{}
	for _, e := range s.st.events {
		if e.OwnerID != nil && *e.OwnerID == ownerID {
			events = append(events, e)
		}
	}
	sort.Slice(events, func(i, j int) bool { return events[i].CreatedAt.After(events[j].CreatedAt) })
	return events, nil
}

func (s *memStore) UpdateEvent(_ context.Context, event *entity.Event) error {
	defer s.lock()()

	current, ok := s.st.events[event.ID]
	if !ok {
		return ErrEventNotFound
	}
	current.Name = event.Name
	current.Memo = event.Memo
	current.IconKey = event.IconKey
	current.Deadline = event.Deadline
	current.UpdatedAt = s.now()
	s.st.events[event.ID] = current
	return nil
}

func (s *memStore) DeleteEvent(_ context.Context, id uuid.UUID) error {
	defer s.lock()()

	delete(s.st.events, id)
	for slotID, slot := range s.st.slots {
		if slot.EventID == id {
			s.deleteSlot(slotID)
		}
	}
	for pid, p := range s.st.participants {
		if p.EventID != id {
			continue
		}
		delete(s.st.participants, pid)
		for rid, r := range s.st.responses {
			if r.ParticipantID == pid {
				delete(s.st.responses, rid)
			}
		}
	}
	return nil
}

// ===================== Slots =====================

func (s *memStore) CreateSlots(_ context.Context, slots []entity.Slot) ([]entity.Slot, error) {
	defer s.lock()()

	created := make([]entity.Slot, 0, len(slots))
	for _, slot := range slots {
		if _, ok := s.st.events[slot.EventID]; !ok {
			return nil, fmt.Errorf("create slot: event %s does not exist", slot.EventID)
		}
		s.st.nextSlotID++
		slot.ID = s.st.nextSlotID
		slot.IsConfirmed = false
		slot.CreatedAt = s.now()
		slot.UpdatedAt = slot.CreatedAt
		s.st.slots[slot.ID] = slot
		created = append(created, slot)
	}
	return created, nil
}

func (s *memStore) GetSlotByID(_ context.Context, id int64) (*entity.Slot, error) {
	defer s.lock()()

	slot, ok := s.st.slots[id]
	if !ok {
		return nil, nil
	}
	return &slot, nil
}

func (s *memStore) GetSlotsByEventID(_ context.Context, eventID uuid.UUID) ([]entity.Slot, error) {
	defer s.lock()()

	slots := []entity.Slot{}
	for _, slot := range s.st.slots {
		if slot.EventID == eventID {
			slots = append(slots, slot)
		}
	}
	entity.SortSlots(slots)
	return slots, nil
}

func (s *memStore) UpdateSlot(_ context.Context, slot *entity.Slot) error {
	defer s.lock()()

	current, ok := s.st.slots[slot.ID]
	if !ok {
		return ErrSlotNotFound
	}
	current.Date = slot.Date
	current.Time = slot.Time
	current.DisplayOrder = slot.DisplayOrder
	current.UpdatedAt = s.now()
	s.st.slots[slot.ID] = current
	return nil
}

func (s *memStore) DeleteSlots(_ context.Context, ids []int64) error {
	defer s.lock()()

	for _, id := range ids {
		s.deleteSlot(id)
	}
	return nil
}

func (s *memStore) deleteSlot(id int64) {
	delete(s.st.slots, id)
	for rid, r := range s.st.responses {
		if r.SlotID == id {
			delete(s.st.responses, rid)
		}
	}
}

func (s *memStore) ClearConfirmed(_ context.Context, eventID uuid.UUID) error {
	defer s.lock()()

	for id, slot := range s.st.slots {
		if slot.EventID == eventID && slot.IsConfirmed {
			slot.IsConfirmed = false
			slot.UpdatedAt = s.now()
			s.st.slots[id] = slot
		}
	}
	return nil
}

func (s *memStore) MarkConfirmed(_ context.Context, slotID int64) error {
	defer s.lock()()

	slot, ok := s.st.slots[slotID]
	if !ok {
		return ErrSlotNotFound
	}
	for id, other := range s.st.slots {
		if id != slotID && other.EventID == slot.EventID && other.IsConfirmed {
			return ErrConfirmationTaken
		}
	}
	slot.IsConfirmed = true
	slot.UpdatedAt = s.now()
	s.st.slots[slotID] = slot
	return nil
}

func (s *memStore) CountConfirmed(_ context.Context, eventID uuid.UUID) (int, error) {
	defer s.lock()()

	n := 0
	for _, slot := range s.st.slots {
		if slot.EventID == eventID && slot.IsConfirmed {
			n++
		}
	}
	return n, nil
}

// ===================== Participants =====================

func (s *memStore) CreateParticipant(_ context.Context, p *entity.Participant) (*entity.Participant, error) {
	defer s.lock()()

	if _, ok := s.st.events[p.EventID]; !ok {
		return nil, fmt.Errorf("create participant: event %s does not exist", p.EventID)
	}
	created := *p
	s.st.nextParticipantID++
	created.ID = s.st.nextParticipantID
	created.CreatedAt = s.now()
	created.UpdatedAt = created.CreatedAt
	s.st.participants[created.ID] = created
	return &created, nil
}

func (s *memStore) GetParticipantByID(_ context.Context, id int64) (*entity.Participant, error) {
	defer s.lock()()

	p, ok := s.st.participants[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (s *memStore) GetParticipantsByEventID(_ context.Context, eventID uuid.UUID) ([]entity.Participant, error) {
	defer s.lock()()

	participants := []entity.Participant{}
	for _, p := range s.st.participants {
		if p.EventID == eventID {
			participants = append(participants, p)
		}
	}
	sort.Slice(participants, func(i, j int) bool { return participants[i].ID < participants[j].ID })
	return participants, nil
}

func (s *memStore) UpdateParticipant(_ context.Context, p *entity.Participant) error {
	defer s.lock()()

	current, ok := s.st.participants[p.ID]
	if !ok {
		return ErrParticipantNotFound
	}
	current.Name = p.Name
	current.Comment = p.Comment
	current.UpdatedAt = s.now()
	s.st.participants[p.ID] = current
	return nil
}

func (s *memStore) SetPriority(_ context.Context, id int64, isPriority bool) error {
	defer s.lock()()

	current, ok := s.st.participants[id]
	if !ok {
		return ErrParticipantNotFound
	}
	current.IsPriority = isPriority
	current.UpdatedAt = s.now()
	s.st.participants[id] = current
	return nil
}

// ===================== Responses =====================

func (s *memStore) ReplaceResponses(_ context.Context, participantID int64, responses []entity.Response) ([]entity.Response, error) {
	defer s.lock()()

	if _, ok := s.st.participants[participantID]; !ok {
		return nil, ErrParticipantNotFound
	}
	seen := make(map[int64]bool, len(responses))
	for _, r := range responses {
		if _, ok := s.st.slots[r.SlotID]; !ok {
			return nil, ErrSlotNotFound
		}
		if seen[r.SlotID] {
			return nil, fmt.Errorf("duplicate response for slot %d", r.SlotID)
		}
		seen[r.SlotID] = true
	}

	for rid, r := range s.st.responses {
		if r.ParticipantID == participantID {
			delete(s.st.responses, rid)
		}
	}

	created := make([]entity.Response, 0, len(responses))
	for _, r := range responses {
		s.st.nextResponseID++
		r.ID = s.st.nextResponseID
		r.ParticipantID = participantID
		r.CreatedAt = s.now()
		r.UpdatedAt = r.CreatedAt
		s.st.responses[r.ID] = r
		created = append(created, r)
	}
	return created, nil
}

func (s *memStore) GetResponsesByEventID(_ context.Context, eventID uuid.UUID) ([]entity.Response, error) {
	defer s.lock()()

	responses := []entity.Response{}
	for _, r := range s.st.responses {
		if slot, ok := s.st.slots[r.SlotID]; ok && slot.EventID == eventID {
			responses = append(responses, r)
		}
	}
	sortResponses(responses)
	return responses, nil
}

func (s *memStore) GetResponsesByParticipantID(_ context.Context, participantID int64) ([]entity.Response, error) {
	defer s.lock()()

	responses := []entity.Response{}
	for _, r := range s.st.responses {
		if r.ParticipantID == participantID {
			responses = append(responses, r)
		}
	}
	sortResponses(responses)
	return responses, nil
}

func (s *memStore) CountByStatus(_ context.Context, slotID int64) (entity.StatusCounts, error) {
	defer s.lock()()

	var counts entity.StatusCounts
	for _, r := range s.st.responses {
		if r.SlotID == slotID {
			counts.Add(r.Status)
		}
	}
	return counts, nil
}

func (s *memStore) CountResponsesBySlot(_ context.Context, eventID uuid.UUID) (map[int64]int, error) {
	defer s.lock()()

	counts := make(map[int64]int)
	for id, slot := range s.st.slots {
		if slot.EventID == eventID {
			counts[id] = 0
		}
	}
	for _, r := range s.st.responses {
		if _, ok := counts[r.SlotID]; ok {
			counts[r.SlotID]++
		}
	}
	return counts, nil
}

func sortResponses(responses []entity.Response) {
	sort.Slice(responses, func(i, j int) bool {
		if responses[i].ParticipantID != responses[j].ParticipantID {
			return responses[i].ParticipantID < responses[j].ParticipantID
		}
		return responses[i].SlotID < responses[j].SlotID
	})
}
