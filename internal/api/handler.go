// Package api provides the HTTP interface for the Foundry Engine.
package api

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/cerina/foundry-engine/internal/domain"
	"github.com/cerina/foundry-engine/internal/store"
	"github.com/cerina/foundry-engine/internal/workflow"
)

// Handler holds all dependencies for the HTTP handlers.
type Handler struct {
	Engine    *workflow.Engine
	DB        *sql.DB
	Events    *store.EventRepo
	Critiques *store.CritiqueRepo
}

// CreateSessionRequest is the body for POST /api/v1/session.
type CreateSessionRequest struct {
	MissionText string `json:"mission_text"`
}

// DecisionRequest is the body for POST /api/v1/session/{sessionKey}/decision.
type DecisionRequest struct {
	Action   string `json:"action"`
	Feedback string `json:"feedback"`
}

// SessionResponse is the wire form of a session snapshot.
type SessionResponse struct {
	SessionKey      string            `json:"session_key"`
	Status          domain.Status     `json:"status"`
	Phase           domain.Phase      `json:"phase"`
	CurrentDraft    string            `json:"current_draft"`
	IterationCount  int               `json:"iteration_count"`
	Critiques       []CritiqueEntry   `json:"critiques"`
	PendingFeedback string            `json:"pending_feedback,omitempty"`
	LastError       string            `json:"last_error,omitempty"`
}

// CritiqueEntry is the wire form of one critique log entry.
type CritiqueEntry struct {
	Seq       int            `json:"seq"`
	AgentName string         `json:"agent_name"`
	Score     int            `json:"score"`
	Feedback  string         `json:"feedback"`
	Verdict   domain.Verdict `json:"verdict"`
	CreatedAt int64          `json:"created_at"`
}

// EventEntry is the wire form of one session event.
type EventEntry struct {
	SeqNo     int64       `json:"seq_no"`
	Node      domain.Node `json:"node,omitempty"`
	EventType string      `json:"event_type"`
	Payload   string      `json:"payload"`
	CreatedAt int64       `json:"created_at"`
}

// APIError is a structured error response.
type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func toSessionResponse(s *domain.Snapshot) SessionResponse {
	critiques := make([]CritiqueEntry, 0, len(s.Critiques))
	for _, c := range s.Critiques {
		critiques = append(critiques, CritiqueEntry{
			Seq:       c.Seq,
			AgentName: c.AgentName,
			Score:     c.Score,
			Feedback:  c.Feedback,
			Verdict:   c.Verdict,
			CreatedAt: c.CreatedAt,
		})
	}
	return SessionResponse{
		SessionKey:      s.SessionKey,
		Status:          s.Status,
		Phase:           s.Phase,
		CurrentDraft:    s.CurrentDraft,
		IterationCount:  s.IterationCount,
		Critiques:       critiques,
		PendingFeedback: s.PendingFeedback,
		LastError:       s.LastError,
	}
}

func toEventEntry(e domain.SessionEvent) EventEntry {
	return EventEntry{
		SeqNo:     e.SeqNo,
		Node:      e.Node,
		EventType: e.EventType,
		Payload:   e.PayloadJSON,
		CreatedAt: e.CreatedAt,
	}
}

// Health handles GET /api/v1/health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// CreateSession handles POST /api/v1/session.
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, APIError{Code: 400, Message: "invalid request body"})
		return
	}

	snap, err := h.Engine.StartSession(r.Context(), req.MissionText)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toSessionResponse(snap))
}

// GetSession handles GET /api/v1/session/{sessionKey}.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	sessionKey := r.PathValue("sessionKey")
	snap, err := h.Engine.GetSnapshot(r.Context(), sessionKey)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionResponse(snap))
}

// SubmitDecision handles POST /api/v1/session/{sessionKey}/decision.
func (h *Handler) SubmitDecision(w http.ResponseWriter, r *http.Request) {
	sessionKey := r.PathValue("sessionKey")
	var req DecisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, APIError{Code: 400, Message: "invalid request body"})
		return
	}

	decision := domain.Decision{
		Action:   domain.DecisionAction(req.Action),
		Feedback: req.Feedback,
	}
	snap, err := h.Engine.SubmitDecision(r.Context(), sessionKey, decision)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionResponse(snap))
}

// ResumeSession handles POST /api/v1/session/{sessionKey}/resume.
func (h *Handler) ResumeSession(w http.ResponseWriter, r *http.Request) {
	sessionKey := r.PathValue("sessionKey")
	snap, err := h.Engine.ResumeSession(r.Context(), sessionKey)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionResponse(snap))
}

// ListCritiques handles GET /api/v1/session/{sessionKey}/critiques.
func (h *Handler) ListCritiques(w http.ResponseWriter, r *http.Request) {
	sessionKey := r.PathValue("sessionKey")
	critiques, err := h.Critiques.ListBySession(r.Context(), h.DB, sessionKey)
	if err != nil {
		writeError(w, err)
		return
	}
	entries := make([]CritiqueEntry, 0, len(critiques))
	for _, c := range critiques {
		entries = append(entries, CritiqueEntry{
			Seq:       c.Seq,
			AgentName: c.AgentName,
			Score:     c.Score,
			Feedback:  c.Feedback,
			Verdict:   c.Verdict,
			CreatedAt: c.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, entries)
}

// ListEvents handles GET /api/v1/session/{sessionKey}/events?since_seq=N.
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	sessionKey := r.PathValue("sessionKey")
	sinceSeq := int64(0)
	if s := r.URL.Query().Get("since_seq"); s != "" {
		parsed, err := strconv.ParseInt(s, 10, 64)
		if err == nil {
			sinceSeq = parsed
		}
	}

	events, err := h.Events.ListBySession(r.Context(), h.DB, sessionKey, sinceSeq)
	if err != nil {
		writeError(w, err)
		return
	}
	entries := make([]EventEntry, 0, len(events))
	for _, e := range events {
		entries = append(entries, toEventEntry(e))
	}
	writeJSON(w, http.StatusOK, entries)
}

// StreamEvents handles GET /api/v1/session/{sessionKey}/events/stream (SSE).
func (h *Handler) StreamEvents(w http.ResponseWriter, r *http.Request) {
	sessionKey := r.PathValue("sessionKey")
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, APIError{Code: 500, Message: "streaming not supported"})
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	// Send initial batch of events.
	events, err := h.Events.ListBySession(r.Context(), h.DB, sessionKey, 0)
	if err != nil {
		writeSSEError(w, flusher, err)
		return
	}
	for _, ev := range events {
		writeSSEEvent(w, flusher, toEventEntry(ev))
	}

	// Poll for new events.
	lastSeq := int64(0)
	if len(events) > 0 {
		lastSeq = events[len(events)-1].SeqNo
	}

	ctx := r.Context()
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			newEvents, err := h.Events.ListBySession(ctx, h.DB, sessionKey, lastSeq)
			if err != nil {
				return
			}
			for _, ev := range newEvents {
				writeSSEEvent(w, flusher, toEventEntry(ev))
				lastSeq = ev.SeqNo
			}
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	if engErr, ok := err.(*domain.EngineError); ok {
		status := http.StatusInternalServerError
		switch engErr.Code {
		case domain.ErrSessionNotFound.Code:
			status = http.StatusNotFound
		case domain.ErrDuplicateSession.Code, domain.ErrStaleDecision.Code, domain.ErrOptimisticLock.Code:
			status = http.StatusConflict
		case domain.ErrInvalidDecision.Code, domain.ErrInvalidMission.Code:
			status = http.StatusBadRequest
		case domain.ErrSessionTerminal.Code:
			status = http.StatusUnprocessableEntity
		}
		writeJSON(w, status, APIError{Code: engErr.Code, Message: engErr.Message})
		return
	}
	writeJSON(w, http.StatusInternalServerError, APIError{Code: -1, Message: err.Error()})
}

func writeSSEEvent(w http.ResponseWriter, f http.Flusher, ev EventEntry) {
	data, _ := json.Marshal(ev)
	fmt.Fprintf(w, "data: %s\n\n", data)
	f.Flush()
}

func writeSSEError(w http.ResponseWriter, f http.Flusher, err error) {
	fmt.Fprintf(w, "event: error\ndata: %s\n\n", err.Error())
	f.Flush()
}
