package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventd/internal/domain"
	"eventd/internal/service"
	"eventd/internal/store"
)

// fakeEventService records calls and returns canned errors per operation.
type fakeEventService struct {
	confirmErr error
	cancelErr  error
	eventErr   error
	deleteErr  error

	calls  []string
	reason string
	actor  service.Actor
}

func (s *fakeEventService) ConfirmParticipation(ctx context.Context, eventID, userID string) error {
	s.record(ctx, "confirm "+eventID+" "+userID, "")
	return s.confirmErr
}

func (s *fakeEventService) CancelParticipation(ctx context.Context, eventID, userID, reason string) error {
	s.record(ctx, "cancel_participation "+eventID+" "+userID, reason)
	return s.cancelErr
}

func (s *fakeEventService) CancelEvent(ctx context.Context, eventID, reason string) error {
	s.record(ctx, "cancel_event "+eventID, reason)
	return s.eventErr
}

func (s *fakeEventService) DeleteEvent(ctx context.Context, eventID string) error {
	s.record(ctx, "delete_event "+eventID, "")
	return s.deleteErr
}

func (s *fakeEventService) record(ctx context.Context, call, reason string) {
	s.calls = append(s.calls, call)
	s.reason = reason
	s.actor = service.ActorFromContext(ctx)
}

// fakeEventReader serves the participant listing.
type fakeEventReader struct {
	store.EventStore
	event *domain.Event
	err   error
}

func (r *fakeEventReader) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.event, nil
}

func newEventRouter(svc *fakeEventService, reader *fakeEventReader) http.Handler {
	return NewRouter(nil, NewEventHandler(svc, reader, nil))
}

func doRequest(t *testing.T, router http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestListParticipants(t *testing.T) {
	event, err := domain.NewEvent("e1", "2026-05-10", "18:30", "Tibble Gymnasium",
		domain.LocalizedText{"en": "Training"})
	require.NoError(t, err)
	require.NoError(t, event.AddParticipant("user_a"))
	require.NoError(t, event.AddParticipant("user_b"))

	router := newEventRouter(&fakeEventService{}, &fakeEventReader{event: event})
	rec := doRequest(t, router, http.MethodGet, "/events/e1/participants", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t,
		`{"event_id":"e1","status":"active","participants":["user_a","user_b"]}`,
		rec.Body.String())
}

func TestListParticipantsNotFound(t *testing.T) {
	router := newEventRouter(&fakeEventService{}, &fakeEventReader{err: store.ErrEventNotFound})
	rec := doRequest(t, router, http.MethodGet, "/events/missing/participants", "", nil)

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"Event not found"}`, rec.Body.String())
}

func TestConfirmParticipation(t *testing.T) {
	svc := &fakeEventService{}
	router := newEventRouter(svc, &fakeEventReader{})

	rec := doRequest(t, router, http.MethodPost, "/events/e1/participants/user_a", "", nil)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []string{"confirm e1 user_a"}, svc.calls)
}

func TestConfirmParticipationOnCancelledEvent(t *testing.T) {
	svc := &fakeEventService{confirmErr: domain.ErrEventCancelled}
	router := newEventRouter(svc, &fakeEventReader{})

	rec := doRequest(t, router, http.MethodPost, "/events/e1/participants/user_a", "", nil)

	require.Equal(t, http.StatusConflict, rec.Code)
	assert.JSONEq(t, `{"error":"Event is already cancelled"}`, rec.Body.String())
}

func TestCancelParticipationPassesReason(t *testing.T) {
	svc := &fakeEventService{}
	router := newEventRouter(svc, &fakeEventReader{})

	rec := doRequest(t, router, http.MethodDelete, "/events/e1/participants/user_a",
		`{"reason":"sick"}`, nil)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []string{"cancel_participation e1 user_a"}, svc.calls)
	assert.Equal(t, "sick", svc.reason)
}

func TestCancelParticipationEmptyBody(t *testing.T) {
	svc := &fakeEventService{}
	router := newEventRouter(svc, &fakeEventReader{})

	rec := doRequest(t, router, http.MethodDelete, "/events/e1/participants/user_a", "", nil)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, svc.reason)
}

func TestCancelEventCarriesActorHeaders(t *testing.T) {
	svc := &fakeEventService{}
	router := newEventRouter(svc, &fakeEventReader{})

	rec := doRequest(t, router, http.MethodPost, "/events/e1/cancel",
		`{"reason":"rain"}`, map[string]string{
			"X-Actor-ID":   "admin_1",
			"X-Actor-Name": "Vesna",
		})

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "rain", svc.reason)
	assert.Equal(t, service.Actor{ID: "admin_1", Name: "Vesna"}, svc.actor)
}

func TestCancelEventMalformedBody(t *testing.T) {
	svc := &fakeEventService{}
	router := newEventRouter(svc, &fakeEventReader{})

	rec := doRequest(t, router, http.MethodPost, "/events/e1/cancel", `{"reason":`, nil)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, svc.calls)
}

func TestDeleteEvent(t *testing.T) {
	svc := &fakeEventService{}
	router := newEventRouter(svc, &fakeEventReader{})

	rec := doRequest(t, router, http.MethodDelete, "/events/e1", "", nil)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []string{"delete_event e1"}, svc.calls)
}

func TestDeleteEventNotFound(t *testing.T) {
	svc := &fakeEventService{deleteErr: store.ErrEventNotFound}
	router := newEventRouter(svc, &fakeEventReader{})

	rec := doRequest(t, router, http.MethodDelete, "/events/e1", "", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStorageFailureMapsToInternalError(t *testing.T) {
	svc := &fakeEventService{eventErr: store.NewStoreError("event", "cancel", "db down", nil)}
	router := newEventRouter(svc, &fakeEventReader{})

	rec := doRequest(t, router, http.MethodPost, "/events/e1/cancel", "", nil)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"An unexpected error occurred"}`, rec.Body.String())
}
