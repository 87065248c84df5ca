package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"eventd/internal/service"
	"eventd/internal/store"
)

// EventHandler exposes the event lifecycle operations as a minimal admin
// API. Authentication sits in front of this service (reverse proxy); the
// acting admin is identified by headers so the activity trail can name them.
type EventHandler struct {
	service service.EventService
	events  store.EventStore
	logger  *slog.Logger
}

// NewEventHandler creates a new EventHandler.
func NewEventHandler(svc service.EventService, events store.EventStore, log *slog.Logger) *EventHandler {
	if log == nil {
		log = slog.Default()
	}
	return &EventHandler{
		service: svc,
		events:  events,
		logger:  log.With(slog.String("component", "event_api")),
	}
}

func (h *EventHandler) registerRoutes(r chi.Router) {
	r.Route("/events/{eventID}", func(r chi.Router) {
		r.Get("/participants", h.ListParticipants)
		r.Post("/participants/{userID}", h.ConfirmParticipation)
		r.Delete("/participants/{userID}", h.CancelParticipation)
		r.Post("/cancel", h.CancelEvent)
		r.Delete("/", h.DeleteEvent)
	})
}

// reasonRequest is the body for the operations that accept an optional
// free-text reason.
type reasonRequest struct {
	Reason string `json:"reason"`
}

// participantsResponse lists the confirmed participants of an event.
type participantsResponse struct {
	EventID      string   `json:"event_id"`
	Status       string   `json:"status"`
	Participants []string `json:"participants"`
}

// ListParticipants returns the current participant set of an event.
func (h *EventHandler) ListParticipants(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")

	event, err := h.events.GetByID(r.Context(), eventID)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	participants := event.Participants
	if participants == nil {
		participants = []string{}
	}
	respondJSON(w, h.logger, http.StatusOK, participantsResponse{
		EventID:      event.ID,
		Status:       string(event.Status),
		Participants: participants,
	})
}

// ConfirmParticipation records the user's attendance confirmation.
func (h *EventHandler) ConfirmParticipation(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")
	userID := chi.URLParam(r, "userID")

	err := h.service.ConfirmParticipation(h.actorContext(r), eventID, userID)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CancelParticipation withdraws the user from the event, recording the
// optional reason from the request body.
func (h *EventHandler) CancelParticipation(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")
	userID := chi.URLParam(r, "userID")

	req, err := h.decodeReason(r)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	if err := h.service.CancelParticipation(h.actorContext(r), eventID, userID, req.Reason); err != nil {
		respondError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CancelEvent cancels the whole event and notifies its participants.
func (h *EventHandler) CancelEvent(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")

	req, err := h.decodeReason(r)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	if err := h.service.CancelEvent(h.actorContext(r), eventID, req.Reason); err != nil {
		respondError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteEvent removes the event without notifying anyone.
func (h *EventHandler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")

	if err := h.service.DeleteEvent(h.actorContext(r), eventID); err != nil {
		respondError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// decodeReason reads an optional JSON body of the form {"reason": "..."}.
// An empty body is valid and yields an empty reason.
func (h *EventHandler) decodeReason(r *http.Request) (reasonRequest, error) {
	var req reasonRequest
	if r.Body == nil {
		return req, nil
	}
	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil && !errors.Is(err, io.EOF) {
		return req, errBadRequestBody
	}
	return req, nil
}

// actorContext stamps the request context with the acting admin taken from
// the X-Actor-ID and X-Actor-Name headers, when present.
func (h *EventHandler) actorContext(r *http.Request) context.Context {
	ctx := r.Context()
	if id := r.Header.Get("X-Actor-ID"); id != "" {
		ctx = service.WithActor(ctx, service.Actor{
			ID:   id,
			Name: r.Header.Get("X-Actor-Name"),
		})
	}
	return ctx
}
