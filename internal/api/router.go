package api

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"cinevox/client/internal/auth"
)

// PanelAuth guards /assistant/ routes. An empty Secret leaves them open.
type PanelAuth struct {
	Secret string
	Skew   time.Duration
}

func NewRouter(h *Handlers, pa PanelAuth) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("deps") != "" {
			h.HandleHealthDeps(w, r)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/assistant/", pa.wrap(func(w http.ResponseWriter, r *http.Request) {
		// /assistant/{state|events|feed|start|stop|clear|voice|say}
		path := strings.TrimSuffix(r.URL.Path, "/")
		const prefix = "/assistant/"
		if !strings.HasPrefix(path, prefix) {
			http.NotFound(w, r)
			return
		}
		parts := strings.Split(strings.TrimPrefix(path, prefix), "/")
		if len(parts) != 1 || parts[0] == "" {
			http.NotFound(w, r)
			return
		}

		switch action := parts[0]; action {
		case "state", "events", "feed":
			if r.Method != http.MethodGet {
				http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
				return
			}
			switch action {
			case "state":
				h.HandleState(w, r)
			case "events":
				h.HandleListEvents(w, r)
			default:
				h.HandleFeed(w, r)
			}
		case "start", "stop", "clear":
			if r.Method != http.MethodPost {
				http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
				return
			}
			h.HandleCommand(w, r, action)
		case "voice":
			if r.Method != http.MethodPost {
				http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
				return
			}
			h.HandleVoice(w, r)
		case "say":
			if r.Method != http.MethodPost {
				http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
				return
			}
			h.HandleSay(w, r)
		default:
			http.NotFound(w, r)
		}
	}))

	return mux
}

// wrap requires a panel token as a Bearer header, or as ?token= for
// websocket clients that cannot set headers.
func (pa PanelAuth) wrap(next http.HandlerFunc) http.HandlerFunc {
	if pa.Secret == "" {
		return next
	}
	return func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("token")
		if authz := r.Header.Get("Authorization"); strings.HasPrefix(authz, "Bearer ") {
			token = strings.TrimPrefix(authz, "Bearer ")
		}
		if token == "" {
			http.Error(w, "missing bearer token", http.StatusUnauthorized)
			return
		}
		if _, err := auth.ValidatePanelToken(pa.Secret, token, time.Now(), pa.Skew); err != nil {
			msg := "invalid token"
			if errors.Is(err, auth.ErrTokenExp) {
				msg = "token expired"
			}
			log.Printf("[api] panel auth rejected path=%s err=%v", r.URL.Path, err)
			http.Error(w, msg, http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}
