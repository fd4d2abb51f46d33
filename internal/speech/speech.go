// Package speech describes the platform speech capabilities the assistant
// depends on: one-shot recognition and synthesized output.
package speech

import (
	"context"
	"errors"
)

// ErrUnavailable is returned when a capability is absent on this platform.
var ErrUnavailable = errors.New("speech capability unavailable")

// Capability is either Available(handle) or Unavailable.
type Capability[T any] struct {
	handle T
	ok     bool
}

func Available[T any](h T) Capability[T] { return Capability[T]{handle: h, ok: true} }

func Unavailable[T any]() Capability[T] { return Capability[T]{} }

// Get returns the handle and whether the capability is present.
func (c Capability[T]) Get() (T, bool) { return c.handle, c.ok }

func (c Capability[T]) Available() bool { return c.ok }

type EventKind string

const (
	Started EventKind = "started"
	Partial EventKind = "partial"
	Error   EventKind = "error"
	Ended   EventKind = "ended"
)

// CaptureEvent is one item of a capture stream. For Partial, Final is the
// cumulative final text of the session so far and Interim the volatile tail.
// Complete marks the last Partial of a session; only then is Final ready to
// be submitted.
type CaptureEvent struct {
	Kind     EventKind
	Final    string
	Interim  string
	Complete bool
	Err      error
}

// Text is the live transcript: settled finals followed by the interim tail.
func (e CaptureEvent) Text() string {
	switch {
	case e.Final == "":
		return e.Interim
	case e.Interim == "":
		return e.Final
	}
	return e.Final + " " + e.Interim
}

// Recognizer starts one-shot capture sessions. Listen returns a stream that
// is closed after Ended, after a terminal Error, or once ctx is cancelled.
type Recognizer interface {
	Listen(ctx context.Context, locale string) (<-chan CaptureEvent, error)
}

// Speech is one synthesized output request.
type Speech struct {
	ID     string
	Text   string
	Lang   string
	Rate   float64
	Pitch  float64
	Volume float64
}

// Synthesizer plays text aloud. Speak blocks until playback finishes or ctx
// is cancelled.
type Synthesizer interface {
	Speak(ctx context.Context, s Speech) error
}
