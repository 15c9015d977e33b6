package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"waitlistlottery/internal/domain"
)

// bucket keeps members in insertion order, which is the store order ReadBucket reports.
type bucket struct {
	order   []string
	markers map[string]*domain.Marker
}

func newBucket() *bucket {
	return &bucket{markers: make(map[string]*domain.Marker)}
}

// Store is an in-process StatusStore and EventRepository keyed by (eventID, bucket).
// Commits validate against the current state before touching it, so a rejected
// commit leaves nothing behind.
type Store struct {
	mu     sync.RWMutex
	events map[string]*domain.Event
	lists  map[string]map[domain.Status]*bucket
	now    func() time.Time
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		events: make(map[string]*domain.Event),
		lists:  make(map[string]map[domain.Status]*bucket),
		now:    time.Now,
	}
}

// PutEvent creates or replaces an event. Used for seeding.
func (s *Store) PutEvent(e *domain.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := cloneEvent(e)
	if cp.UpdatedAt.IsZero() {
		cp.UpdatedAt = s.now()
	}
	s.events[e.ID] = cp
}

func (s *Store) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.events[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneEvent(e), nil
}

func (s *Store) SetEntrantLimit(ctx context.Context, eventID string, limit *int) (*domain.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[eventID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if limit == nil {
		e.EntrantLimit = nil
	} else {
		v := *limit
		e.EntrantLimit = &v
	}
	e.UpdatedAt = s.now()
	return cloneEvent(e), nil
}

func (s *Store) ReadEntrantLimit(ctx context.Context, eventID string) (*int, error) {
	e, err := s.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	return e.EntrantLimit, nil
}

func (s *Store) ReadLotteryRan(ctx context.Context, eventID string) (bool, error) {
	e, err := s.GetByID(ctx, eventID)
	if err != nil {
		return false, err
	}
	return e.LotteryRan, nil
}

func (s *Store) ReadEntry(ctx context.Context, p domain.Path) (*domain.Marker, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	b := s.lists[p.EventID][p.Bucket]
	if b == nil {
		return nil, nil
	}
	m, ok := b.markers[p.EntrantID]
	if !ok {
		return nil, nil
	}
	return cloneMarker(m), nil
}

func (s *Store) ReadBucket(ctx context.Context, eventID string, status domain.Status) ([]domain.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	b := s.lists[eventID][status]
	if b == nil {
		return []domain.Entry{}, nil
	}
	entries := make([]domain.Entry, 0, len(b.order))
	for _, id := range b.order {
		entries = append(entries, domain.Entry{EntrantID: id, Marker: cloneMarker(b.markers[id])})
	}
	return entries, nil
}

func (s *Store) BucketHasAny(ctx context.Context, eventID string, status domain.Status) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	b := s.lists[eventID][status]
	return b != nil && len(b.order) > 0, nil
}

func (s *Store) Commit(ctx context.Context, u *domain.Update) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := u.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if u.MarkLotteryRan {
		if _, ok := s.events[u.EventID]; !ok {
			return fmt.Errorf("mark lottery ran: %w", domain.ErrNotFound)
		}
	}

	buckets := s.lists[u.EventID]
	for _, w := range u.Puts() {
		for st, b := range buckets {
			if st == w.Path.Bucket {
				continue
			}
			if _, present := b.markers[w.Path.EntrantID]; !present {
				continue
			}
			other := domain.Path{EventID: u.EventID, Bucket: st, EntrantID: w.Path.EntrantID}
			if m, inUpdate := u.Writes[other]; inUpdate && m == nil {
				continue
			}
			return fmt.Errorf("%w: %s already in %s", domain.ErrDoubleMembership, w.Path.EntrantID, st)
		}
	}

	if buckets == nil {
		buckets = make(map[domain.Status]*bucket)
		s.lists[u.EventID] = buckets
	}
	removed := make(map[domain.Status]map[string]struct{})
	for _, p := range u.Deletes() {
		b := buckets[p.Bucket]
		if b == nil {
			continue
		}
		if _, ok := b.markers[p.EntrantID]; !ok {
			continue
		}
		delete(b.markers, p.EntrantID)
		if removed[p.Bucket] == nil {
			removed[p.Bucket] = make(map[string]struct{})
		}
		removed[p.Bucket][p.EntrantID] = struct{}{}
	}
	for st, ids := range removed {
		b := buckets[st]
		b.order = slices.DeleteFunc(b.order, func(id string) bool {
			_, gone := ids[id]
			return gone
		})
	}
	for _, w := range u.Puts() {
		b := buckets[w.Path.Bucket]
		if b == nil {
			b = newBucket()
			buckets[w.Path.Bucket] = b
		}
		if _, ok := b.markers[w.Path.EntrantID]; !ok {
			b.order = append(b.order, w.Path.EntrantID)
		}
		b.markers[w.Path.EntrantID] = cloneMarker(w.Marker)
	}
	if u.MarkLotteryRan {
		e := s.events[u.EventID]
		e.LotteryRan = true
		e.UpdatedAt = s.now()
	}
	return nil
}

func cloneEvent(e *domain.Event) *domain.Event {
	cp := *e
	if e.EntrantLimit != nil {
		v := *e.EntrantLimit
		cp.EntrantLimit = &v
	}
	return &cp
}

func cloneMarker(m *domain.Marker) *domain.Marker {
	if m == nil {
		return &domain.Marker{}
	}
	cp := &domain.Marker{}
	if m.Location != nil {
		loc := *m.Location
		cp.Location = &loc
	}
	return cp
}
