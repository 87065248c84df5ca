package service

import (
	"context"
	"sync"
	"time"

	"eventd/internal/domain"
	"eventd/internal/notify"
	"eventd/internal/store"
)

// In-memory fakes for the store and dispatcher interfaces, shared by the
// tests in this package.

type fakeEventStore struct {
	mu     sync.Mutex
	events map[string]*domain.Event
	err    error // when set, every method fails with it
}

func newFakeEventStore(events ...*domain.Event) *fakeEventStore {
	s := &fakeEventStore{events: make(map[string]*domain.Event)}
	for _, e := range events {
		s.events[e.ID] = e
	}
	return s
}

func (s *fakeEventStore) get(id string) (*domain.Event, error) {
	if s.err != nil {
		return nil, s.err
	}
	e, ok := s.events[id]
	if !ok {
		return nil, store.ErrEventNotFound
	}
	return e, nil
}

func (s *fakeEventStore) Create(ctx context.Context, event *domain.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	if _, ok := s.events[event.ID]; ok {
		return store.ErrDuplicate
	}
	s.events[event.ID] = event
	return nil
}

func (s *fakeEventStore) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.get(id)
	if err != nil {
		return nil, err
	}
	cp := *e
	cp.Participants = append([]string(nil), e.Participants...)
	cp.Cancellations = append([]domain.CancellationRecord(nil), e.Cancellations...)
	return &cp, nil
}

func (s *fakeEventStore) GetByDate(ctx context.Context, date string, status domain.EventStatus) ([]*domain.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	var out []*domain.Event
	for _, e := range s.events {
		if e.Date == date && e.Status == status {
			cp := *e
			cp.Participants = append([]string(nil), e.Participants...)
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *fakeEventStore) AddParticipant(ctx context.Context, eventID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.get(eventID)
	if err != nil {
		return err
	}
	return e.AddParticipant(userID)
}

func (s *fakeEventStore) WithdrawParticipant(ctx context.Context, eventID string, rec domain.CancellationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.get(eventID)
	if err != nil {
		return err
	}
	e.RemoveParticipant(rec.UserID)
	e.AppendCancellation(rec)
	return nil
}

func (s *fakeEventStore) SetCancelled(ctx context.Context, eventID, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.get(eventID)
	if err != nil {
		return err
	}
	return e.MarkCancelled(reason)
}

func (s *fakeEventStore) Delete(ctx context.Context, eventID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.get(eventID); err != nil {
		return err
	}
	delete(s.events, eventID)
	return nil
}

type fakeDirectory struct {
	contacts map[string]*domain.Contact
	err      error
}

func (d *fakeDirectory) GetContact(ctx context.Context, userID string) (*domain.Contact, error) {
	if d.err != nil {
		return nil, d.err
	}
	c, ok := d.contacts[userID]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	return c, nil
}

type fakeActivityLog struct {
	mu      sync.Mutex
	entries []*domain.ActivityEntry
	err     error
}

func (l *fakeActivityLog) Append(ctx context.Context, entry *domain.ActivityEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return l.err
	}
	l.entries = append(l.entries, entry)
	return nil
}

func (l *fakeActivityLog) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return 0, l.err
	}
	kept := l.entries[:0]
	var removed int64
	for _, e := range l.entries {
		if e.Timestamp.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	l.entries = kept
	return removed, nil
}

type fakeDispatcher struct {
	mu       sync.Mutex
	messages []notify.Message
	err      error
}

func (d *fakeDispatcher) Submit(msg notify.Message) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.messages = append(d.messages, msg)
	return nil
}

func (d *fakeDispatcher) sent() []notify.Message {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]notify.Message(nil), d.messages...)
}

func (d *fakeDispatcher) recipients() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, len(d.messages))
	for i, m := range d.messages {
		out[i] = m.To
	}
	return out
}
