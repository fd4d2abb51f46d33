package stt

import (
	"context"
	"errors"
	"strings"

	"cinevox/client/internal/speech"
)

var ErrTypedQueueFull = errors.New("typed input queue full")

// Typed delivers keyboard or panel text as capture sessions. Each Listen
// consumes one pushed line: Started, Partial{Final}, Ended.
type Typed struct {
	lines chan string
}

func NewTyped() *Typed { return &Typed{lines: make(chan string, 4)} }

// Push queues a line for the next capture session.
func (t *Typed) Push(text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	select {
	case t.lines <- text:
		return nil
	default:
		return ErrTypedQueueFull
	}
}

// Pending reports queued lines not yet consumed by a capture.
func (t *Typed) Pending() int { return len(t.lines) }

func (t *Typed) Listen(ctx context.Context, locale string) (<-chan speech.CaptureEvent, error) {
	out := make(chan speech.CaptureEvent, 3)
	go func() {
		defer close(out)
		send := func(ev speech.CaptureEvent) bool {
			select {
			case out <- ev:
				return true
			case <-ctx.Done():
				return false
			}
		}
		if !send(speech.CaptureEvent{Kind: speech.Started}) {
			return
		}
		select {
		case <-ctx.Done():
			return
		case line := <-t.lines:
			metricFinalEmitted.WithLabelValues("typed").Inc()
			if send(speech.CaptureEvent{Kind: speech.Partial, Final: line, Complete: true}) {
				send(speech.CaptureEvent{Kind: speech.Ended})
			}
		}
	}()
	return out, nil
}
