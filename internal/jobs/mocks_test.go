package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"eventd/internal/domain"
	"eventd/internal/notify"
	"eventd/internal/store"
)

// In-memory fakes for the store and dispatcher interfaces used by the job
// tests. The jobs only read events, so the event fake implements just enough
// of store.EventStore to satisfy the interface.

type fakeEventStore struct {
	events []*domain.Event
	err    error
}

func (s *fakeEventStore) GetByDate(ctx context.Context, date string, status domain.EventStatus) ([]*domain.Event, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []*domain.Event
	for _, e := range s.events {
		if e.Date == date && e.Status == status {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *fakeEventStore) Create(ctx context.Context, event *domain.Event) error { return nil }

func (s *fakeEventStore) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	return nil, store.ErrEventNotFound
}

func (s *fakeEventStore) AddParticipant(ctx context.Context, eventID, userID string) error {
	return nil
}

func (s *fakeEventStore) WithdrawParticipant(ctx context.Context, eventID string, rec domain.CancellationRecord) error {
	return nil
}

func (s *fakeEventStore) SetCancelled(ctx context.Context, eventID, reason string) error {
	return nil
}

func (s *fakeEventStore) Delete(ctx context.Context, eventID string) error { return nil }

type fakeDirectory struct {
	contacts map[string]*domain.Contact
	errFor   map[string]error
}

func (d *fakeDirectory) GetContact(ctx context.Context, userID string) (*domain.Contact, error) {
	if err, ok := d.errFor[userID]; ok {
		return nil, err
	}
	c, ok := d.contacts[userID]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	return c, nil
}

type fakeLedger struct {
	mu      sync.Mutex
	sent    map[string]bool
	err     error
	markErr error // fails MarkSent only, AlreadySent keeps working
	marked  []string
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{sent: make(map[string]bool)}
}

func ledgerKey(eventID, userID, date string) string {
	return fmt.Sprintf("%s|%s|%s", eventID, userID, date)
}

func (l *fakeLedger) AlreadySent(ctx context.Context, eventID, userID, date string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return false, l.err
	}
	return l.sent[ledgerKey(eventID, userID, date)], nil
}

func (l *fakeLedger) MarkSent(ctx context.Context, eventID, userID, date string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return l.err
	}
	if l.markErr != nil {
		return l.markErr
	}
	key := ledgerKey(eventID, userID, date)
	l.sent[key] = true
	l.marked = append(l.marked, key)
	return nil
}

type fakeActivityLog struct {
	entries []*domain.ActivityEntry
	err     error

	lastCutoff time.Time
}

func (l *fakeActivityLog) Append(ctx context.Context, entry *domain.ActivityEntry) error {
	if l.err != nil {
		return l.err
	}
	l.entries = append(l.entries, entry)
	return nil
}

func (l *fakeActivityLog) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	if l.err != nil {
		return 0, l.err
	}
	l.lastCutoff = cutoff
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

func (d *fakeDispatcher) recipients() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, len(d.messages))
	for i, m := range d.messages {
		out[i] = m.To
	}
	return out
}
