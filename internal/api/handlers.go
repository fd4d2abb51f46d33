package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"cinevox/client/internal/events"
	"cinevox/client/internal/feed"
	"cinevox/client/internal/health"
)

// Checker probes the assistant's dependencies.
type Checker func(ctx context.Context) health.HealthStatus

type Handlers struct {
	ctrl    feed.Controller
	journal *events.Journal
	feed    *feed.Server
	checker Checker
}

func NewHandlers(ctrl feed.Controller, journal *events.Journal, fs *feed.Server, checker Checker) *Handlers {
	return &Handlers{ctrl: ctrl, journal: journal, feed: fs, checker: checker}
}

func (h *Handlers) HandleHealthDeps(w http.ResponseWriter, r *http.Request) {
	if h.checker == nil {
		http.Error(w, "health checks not configured", http.StatusNotImplemented)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()
	st := h.checker(ctx)
	code := http.StatusOK
	if !st.OK {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, st)
}

func (h *Handlers) HandleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.ctrl.Snapshot())
}

// HandleCommand queues start, stop or clear. The loop applies it
// asynchronously, so the response carries no state.
func (h *Handlers) HandleCommand(w http.ResponseWriter, r *http.Request, cmd string) {
	switch cmd {
	case "start":
		h.ctrl.Start()
	case "stop":
		h.ctrl.Stop()
	case "clear":
		h.ctrl.Clear()
	default:
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"ok": true, "command": cmd})
}

// HandleVoice sets voice output from {"enabled": bool}, or toggles it when
// the body is empty.
func (h *Handlers) HandleVoice(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Enabled *bool `json:"enabled"`
	}
	if err := decodeBody(r, &body); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if body.Enabled != nil {
		h.ctrl.SetVoiceEnabled(*body.Enabled)
	} else {
		h.ctrl.ToggleVoice()
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"ok": true})
}

func (h *Handlers) HandleSay(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Text string `json:"text"`
	}
	if err := decodeBody(r, &body); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(body.Text) == "" {
		http.Error(w, "missing text", http.StatusBadRequest)
		return
	}
	if h.ctrl.Snapshot().Processing {
		http.Error(w, feed.ErrBusy.Error(), http.StatusConflict)
		return
	}
	if err := h.ctrl.Say(body.Text); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"ok": true})
}

func (h *Handlers) HandleListEvents(w http.ResponseWriter, r *http.Request) {
	list := h.journal.List()
	if since := r.URL.Query().Get("since"); since != "" {
		list = h.journal.Since(since)
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": list})
}

func (h *Handlers) HandleFeed(w http.ResponseWriter, r *http.Request) {
	h.feed.HandleFeed(w, r)
}

func decodeBody(r *http.Request, v any) error {
	err := json.NewDecoder(io.LimitReader(r.Body, 64<<10)).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
