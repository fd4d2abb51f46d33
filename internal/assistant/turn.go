package assistant

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"cinevox/client/internal/floor"
	"cinevox/client/internal/speech"
	"cinevox/client/internal/types"
)

// processTurn submits one finalized utterance. The processing flag blocks new
// captures until the turn, including any booking confirmation, settles.
func (a *Assistant) processTurn(text string) {
	if strings.TrimSpace(text) == "" || a.processing {
		return
	}
	a.processing = true
	a.turnSeq++
	seq, epoch := a.turnSeq, a.epoch
	a.conversation.Append(newUtterance(types.SourceUser, text, false))
	log.Printf("[assistant] turn seq=%d submitted text=%q", seq, text)

	nlu := a.deps.NLU
	ctx := a.runCtx
	go func() {
		start := time.Now()
		res, err := nlu.Parse(ctx, text)
		metricNLULatency.Observe(float64(time.Since(start).Milliseconds()))
		a.post(turnSettled{seq: seq, epoch: epoch, text: text, result: res, err: err})
	}()
}

func (a *Assistant) handleTurnSettled(e turnSettled) {
	confirming := false
	defer func() {
		if !confirming {
			a.processing = false
		}
	}()

	if e.epoch != a.epoch {
		metricTurns.WithLabelValues("discarded").Inc()
		log.Printf("[assistant] turn seq=%d settled after clear; discarded", e.seq)
		return
	}
	if e.err != nil {
		metricTurns.WithLabelValues("error").Inc()
		log.Printf("[assistant] turn seq=%d nlu error: %v", e.seq, e.err)
		a.conversation.Append(newUtterance(types.SourceAgent, msgApology, false))
		a.notify(types.NoticeError, msgRequestFailed, "nlu_error")
		return
	}
	metricTurns.WithLabelValues("ok").Inc()

	res := e.result
	if a.opts.InvalidateOnTopicChange {
		if dropped := a.slots.InvalidateOnTopicChange(res.Slots); len(dropped) > 0 {
			log.Printf("[assistant] turn seq=%d topic changed; dropped=%v", e.seq, dropped)
		}
	}
	a.slots.Merge(res.Slots)
	a.conversation.Append(newUtterance(types.SourceAgent, res.ResponseText, res.NeedsClarification))

	if res.Intent == a.opts.PaymentIntent {
		metricSpeechSuppressed.Inc()
		log.Printf("[assistant] turn seq=%d intent=%s response_len=%d", e.seq, res.Intent, len(res.ResponseText))
	} else {
		log.Printf("[assistant] turn seq=%d intent=%s clarify=%v response=%q", e.seq, res.Intent, res.NeedsClarification, res.ResponseText)
		a.speak(res.ResponseText)
	}

	if res.Intent == a.opts.BookingIntent && !res.NeedsClarification {
		merged := a.slots.Get()
		if _, ok := merged.ID(types.SlotShowtimeID); ok {
			confirming = a.confirmBooking(e.seq, merged)
		}
	}
}

func (a *Assistant) speak(text string) {
	synth, ok := a.deps.Synthesizer.Get()
	if !ok || !a.voice || strings.TrimSpace(text) == "" {
		return
	}
	id := uuid.NewString()
	a.applyFloor(a.floor.OnSpeakStarted(id))
	ctx, cancel := context.WithCancel(a.runCtx)
	a.speaking[id] = cancel
	req := speech.Speech{
		ID:     id,
		Text:   text,
		Lang:   a.opts.Locale,
		Rate:   a.opts.SpeechRate,
		Pitch:  a.opts.SpeechPitch,
		Volume: a.opts.SpeechVolume,
	}
	go func() {
		err := synth.Speak(ctx, req)
		a.post(speechDone{id: id, err: err})
	}()
}

func (a *Assistant) handleSpeechDone(e speechDone) {
	if cancel, ok := a.speaking[e.id]; ok {
		cancel()
		delete(a.speaking, e.id)
	}
	a.floor.OnSpeakStopped(e.id)
	if e.err != nil && !errors.Is(e.err, context.Canceled) {
		log.Printf("[assistant] speech id=%s failed: %v", e.id, e.err)
	}
}

// applyFloor cancels the utterance named by a stop decision.
func (a *Assistant) applyFloor(d floor.Decision) {
	if !d.ShouldStop {
		return
	}
	if cancel, ok := a.speaking[d.StopUtteranceID]; ok {
		cancel()
		delete(a.speaking, d.StopUtteranceID)
		log.Printf("[assistant] speech id=%s cancelled reason=%s", d.StopUtteranceID, d.Reason)
	}
}
