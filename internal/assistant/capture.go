package assistant

import (
	"context"
	"errors"
	"log"
	"strings"

	"cinevox/client/internal/speech"
	"cinevox/client/internal/types"
)

func (a *Assistant) handleStart() {
	rec, ok := a.deps.Recognizer.Get()
	if !ok {
		// reported once at mount
		return
	}
	if a.listening || a.starting || a.processing {
		return
	}
	a.transcript = ""
	a.starting = true
	a.captureGen++
	gen := a.captureGen
	ctx, cancel := context.WithCancel(a.runCtx)
	a.stopCapture = cancel
	log.Printf("[assistant] capture start gen=%d locale=%s", gen, a.opts.Locale)
	go a.pumpCapture(ctx, gen, rec)
}

// pumpCapture opens the capture stream and forwards its events to the loop.
func (a *Assistant) pumpCapture(ctx context.Context, gen int, rec speech.Recognizer) {
	ch, err := rec.Listen(ctx, a.opts.Locale)
	if err != nil {
		a.post(captureEvent{gen: gen, ev: speech.CaptureEvent{Kind: speech.Error, Err: err}})
		a.post(captureEvent{gen: gen, closed: true})
		return
	}
	for {
		select {
		case <-ctx.Done():
			a.post(captureEvent{gen: gen, closed: true})
			return
		case ev, ok := <-ch:
			if !ok {
				a.post(captureEvent{gen: gen, closed: true})
				return
			}
			a.post(captureEvent{gen: gen, ev: ev})
		}
	}
}

func (a *Assistant) handleCapture(e captureEvent) {
	if e.gen != a.captureGen || (!a.listening && !a.starting) {
		return
	}
	if e.closed {
		metricCaptureSessions.WithLabelValues("ended").Inc()
		a.endCapture()
		return
	}
	switch e.ev.Kind {
	case speech.Started:
		a.starting = false
		a.listening = true
	case speech.Partial:
		a.starting = false
		a.listening = true
		a.transcript = e.ev.Text()
		if e.ev.Complete && strings.TrimSpace(e.ev.Final) != "" {
			metricCaptureSessions.WithLabelValues("final").Inc()
			final := e.ev.Final
			a.transcript = ""
			a.endCapture()
			a.processTurn(final)
		}
	case speech.Error:
		metricCaptureSessions.WithLabelValues("error").Inc()
		a.endCapture()
		if e.ev.Err == nil || errors.Is(e.ev.Err, context.Canceled) {
			return
		}
		log.Printf("[assistant] capture error gen=%d: %v", e.gen, e.ev.Err)
		a.notify(types.NoticeError, msgRecognitionError+e.ev.Err.Error(), "recognition_error")
	case speech.Ended:
		metricCaptureSessions.WithLabelValues("ended").Inc()
		a.endCapture()
	}
}

func (a *Assistant) handleStop() {
	if a.listening || a.starting {
		metricCaptureSessions.WithLabelValues("stopped").Inc()
		log.Printf("[assistant] capture stopped gen=%d", a.captureGen)
	}
	a.endCapture()
	a.applyFloor(a.floor.OnStop())
}

// endCapture cancels the active capture and invalidates its remaining events.
func (a *Assistant) endCapture() {
	if a.stopCapture != nil {
		a.stopCapture()
		a.stopCapture = nil
	}
	if a.listening || a.starting {
		a.captureGen++
	}
	a.listening = false
	a.starting = false
}
