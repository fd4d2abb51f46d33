// Package feed streams assistant snapshots and journal events to browser
// panels over a websocket and accepts panel commands on the same socket.
package feed

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	ws "nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"cinevox/client/internal/types"
)

var ErrBusy = errors.New("assistant is processing a turn")

// Controller is the assistant surface a panel drives.
type Controller interface {
	Start()
	Stop()
	Clear()
	ToggleVoice()
	SetVoiceEnabled(on bool)
	Snapshot() types.SessionState
	// Say submits typed text as the next utterance.
	Say(text string) error
}

// Command is an inbound panel frame.
type Command struct {
	Type    string `json:"type"`
	Text    string `json:"text,omitempty"`
	Enabled *bool  `json:"enabled,omitempty"`
}

const (
	TypeSnapshot = "snapshot"
	TypeEvent    = "event"
	TypeError    = "error"
)

type Server struct {
	Reg     *Registry
	Ctrl    Controller
	Backlog func() []types.Event
}

func NewServer(reg *Registry, ctrl Controller, backlog func() []types.Event) *Server {
	return &Server{Reg: reg, Ctrl: ctrl, Backlog: backlog}
}

// HandleFeed upgrades the request, sends the current snapshot and the event
// backlog, then relays broadcasts until the panel disconnects.
func (s *Server) HandleFeed(w http.ResponseWriter, r *http.Request) {
	c, err := ws.Accept(w, r, nil)
	if err != nil {
		log.Printf("[feed] ws accept: %v", err)
		return
	}
	id, out := s.Reg.Add()
	log.Printf("[feed] panel connected id=%s subscribers=%d", id, s.Reg.Count())

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	initial := []Message{{Type: TypeSnapshot, TsMs: time.Now().UnixMilli(), Payload: s.Ctrl.Snapshot()}}
	if s.Backlog != nil {
		for _, e := range s.Backlog() {
			initial = append(initial, Message{Type: TypeEvent, TsMs: e.Ts.UnixMilli(), Payload: e})
		}
	}
	writeDone := make(chan struct{})
	go func() {
		defer close(writeDone)
		for _, m := range initial {
			if err := write(ctx, c, m); err != nil {
				cancel()
				return
			}
		}
		for m := range out {
			if err := write(ctx, c, m); err != nil {
				cancel()
				return
			}
		}
	}()

	for {
		var cmd Command
		if err := wsjson.Read(ctx, c, &cmd); err != nil {
			break
		}
		if err := s.apply(cmd); err != nil {
			s.Reg.Broadcast(TypeError, map[string]any{"command": cmd.Type, "error": err.Error()})
		}
	}
	s.Reg.Remove(id)
	cancel()
	<-writeDone
	_ = c.Close(ws.StatusNormalClosure, "done")
	log.Printf("[feed] panel disconnected id=%s", id)
}

func (s *Server) apply(cmd Command) error {
	typ := strings.ToLower(strings.TrimSpace(cmd.Type))
	metricCommands.WithLabelValues(typ).Inc()
	switch typ {
	case "start":
		s.Ctrl.Start()
	case "stop":
		s.Ctrl.Stop()
	case "clear":
		s.Ctrl.Clear()
	case "voice":
		if cmd.Enabled != nil {
			s.Ctrl.SetVoiceEnabled(*cmd.Enabled)
		} else {
			s.Ctrl.ToggleVoice()
		}
	case "say":
		if strings.TrimSpace(cmd.Text) == "" {
			return errors.New("empty text")
		}
		if s.Ctrl.Snapshot().Processing {
			return ErrBusy
		}
		return s.Ctrl.Say(cmd.Text)
	default:
		return errors.New("unknown command " + cmd.Type)
	}
	return nil
}

func write(ctx context.Context, c *ws.Conn, m Message) error {
	wctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return wsjson.Write(wctx, c, m)
}
