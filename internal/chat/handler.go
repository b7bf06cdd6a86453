package chat

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/bentacars/qualifier/internal/memory"
	"github.com/bentacars/qualifier/internal/observability/metrics"
	"github.com/bentacars/qualifier/internal/qualify"
	"github.com/bentacars/qualifier/pkg/logging"
)

const maxBodyBytes = 64 << 10

// Engine runs one qualification turn.
type Engine interface {
	Handle(ctx context.Context, turn qualify.Turn) (qualify.Result, error)
}

// Handler serves POST /api/chat.
type Handler struct {
	engine  Engine
	store   memory.Store
	metrics *metrics.TurnMetrics
	logger  *logging.Logger
}

// NewHandler creates a chat handler. store and m may be nil.
func NewHandler(engine Engine, store memory.Store, m *metrics.TurnMetrics, logger *logging.Logger) *Handler {
	if engine == nil {
		panic("chat: engine cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{engine: engine, store: store, metrics: m, logger: logger}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		h.writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Reply: ReplyMethodNotAllowed})
		return
	}

	var req Request
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		h.logger.Warn("failed to decode chat request", "error", err)
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Reply: ReplyInvalidBody})
		return
	}

	resp, status := h.Process(r.Context(), req)
	h.writeJSON(w, status, resp)
}

// Process runs a decoded request and returns the payload and status code.
func (h *Handler) Process(ctx context.Context, req Request) (any, int) {
	start := time.Now()
	turn := qualify.Turn{
		Message: req.Message.String(),
		User:    qualify.Clean(req.User.String()),
		Name:    req.Name.String(),
		Memory:  req.Memory(),
	}
	hydrated := false
	if turn.User != "" && h.store != nil {
		turn.Memory, hydrated = h.hydrate(ctx, turn.User, turn.Memory)
	}

	res, err := h.engine.Handle(ctx, turn)
	if err != nil {
		if errors.Is(err, qualify.ErrMalformedTurn) {
			h.metrics.ObserveMalformed()
			h.metrics.ObserveTurnLatency("malformed", time.Since(start).Seconds())
			return errorResponse{Reply: ReplyMissingFields}, http.StatusBadRequest
		}
		h.logger.Error("chat turn failed", "user_id", turn.User, "error", err)
		h.metrics.ObserveTurnLatency("error", time.Since(start).Seconds())
		return errorResponse{Reply: ReplyInternalError}, http.StatusInternalServerError
	}

	if h.store != nil {
		if err := h.store.Save(ctx, turn.User, res.State); err != nil {
			h.metrics.ObserveMemory("save", "error")
			h.logger.Warn("failed to save slot memory", "user_id", turn.User, "error", err)
		} else {
			h.metrics.ObserveMemory("save", "ok")
		}
	}

	h.metrics.ObserveTurn(string(res.Next), res.Complete, res.Reset)
	h.metrics.ObserveReply(string(res.Source), res.FallbackReason)
	h.metrics.ObserveTurnLatency("ok", time.Since(start).Seconds())
	h.logger.Info("chat turn handled",
		"user_id", turn.User,
		"next_slot", string(res.Next),
		"complete", res.Complete,
		"reset", res.Reset,
		"mood", string(res.Mood),
		"source", string(res.Source),
		"fallback_reason", res.FallbackReason,
		"memory_hydrated", hydrated,
		"latency_ms", time.Since(start).Milliseconds(),
	)
	return NewResponse(res), http.StatusOK
}

// hydrate layers remembered slots under the caller's fields; a slot the
// caller sent always wins. Failures are logged and the turn continues with
// the caller's fields alone.
func (h *Handler) hydrate(ctx context.Context, userID string, sent map[qualify.Slot]any) (map[qualify.Slot]any, bool) {
	state, err := h.store.Load(ctx, userID)
	if err != nil {
		h.metrics.ObserveMemory("load", "error")
		h.logger.Warn("failed to load slot memory", "user_id", userID, "error", err)
		return sent, false
	}
	if state.Empty() {
		h.metrics.ObserveMemory("load", "miss")
		return sent, false
	}
	h.metrics.ObserveMemory("load", "hit")
	out := make(map[qualify.Slot]any, len(state)+len(sent))
	used := false
	for slot, v := range state {
		if _, ok := sent[slot]; !ok {
			out[slot] = v
			used = true
		}
	}
	for slot, v := range sent {
		out[slot] = v
	}
	return out, used
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", "error", err)
	}
}
