// Package assistant implements the voice booking assistant: it captures an
// utterance, sends it to the NLU service, accumulates booking slots across
// turns and navigates to seat selection once a showtime is settled.
//
// All session state is owned by a single event loop (Run). Capture, NLU,
// catalog and synthesis work runs in goroutines that post their completions
// back onto the loop.
package assistant

import (
	"context"
	"errors"
	"log"
	"sync"

	"cinevox/client/internal/floor"
	"cinevox/client/internal/speech"
	"cinevox/client/internal/types"
)

const (
	StateIdle       = "IDLE"
	StateListening  = "LISTENING"
	StateProcessing = "PROCESSING"
)

const (
	msgApology            = "Kripaya dobara koshish karein."
	msgRequestFailed      = "Request process karte waqt error aaya"
	msgMovieNotFound      = "Movie nahi mili"
	msgBookingError       = "Booking process error"
	msgRecognitionMissing = "Speech recognition not supported"
	msgRecognitionError   = "Speech recognition error: "
)

// NLU parses one utterance. Calls are stateless; no history is sent.
type NLU interface {
	Parse(ctx context.Context, text string) (types.TurnResult, error)
}

type Catalog interface {
	Movies(ctx context.Context) ([]types.Movie, error)
}

// Navigator moves the application to another view. It must not block.
type Navigator interface {
	SeatSelection(route types.SeatSelectionRoute)
}

type Notifier interface {
	Notify(level types.NoticeLevel, message string)
}

type Deps struct {
	NLU         NLU
	Catalog     Catalog
	Navigator   Navigator
	Notifier    Notifier
	Recognizer  speech.Capability[speech.Recognizer]
	Synthesizer speech.Capability[speech.Synthesizer]
}

type Options struct {
	Locale                  string
	VoiceEnabled            bool
	BookingIntent           string
	PaymentIntent           string
	InvalidateOnTopicChange bool
	SpeechRate              float64
	SpeechPitch             float64
	SpeechVolume            float64
}

func DefaultOptions() Options {
	return Options{
		Locale:                  "hi-IN",
		VoiceEnabled:            true,
		BookingIntent:           "book_ticket",
		PaymentIntent:           "payment_step",
		InvalidateOnTopicChange: false,
		SpeechRate:              1,
		SpeechPitch:             1.2,
		SpeechVolume:            1,
	}
}

var ErrAlreadyRunning = errors.New("assistant already running")

type Assistant struct {
	deps Deps
	opts Options

	events  chan event
	done    chan struct{}
	running sync.Once
	runCtx  context.Context

	// loop-owned
	state        string
	listening    bool
	starting     bool
	processing   bool
	transcript   string
	conversation Conversation
	slots        Slots
	voice        bool
	epoch        int
	turnSeq      int
	captureGen   int
	stopCapture  context.CancelFunc
	floor        *floor.Manager
	speaking     map[string]context.CancelFunc

	mu       sync.RWMutex
	snap     types.SessionState
	onUpdate func(types.SessionState)
}

func New(deps Deps, opts Options) *Assistant {
	if deps.Notifier == nil {
		deps.Notifier = nopNotifier{}
	}
	if deps.Navigator == nil {
		deps.Navigator = nopNavigator{}
	}
	a := &Assistant{
		deps:     deps,
		opts:     opts,
		events:   make(chan event, 64),
		done:     make(chan struct{}),
		runCtx:   context.Background(),
		state:    StateIdle,
		voice:    opts.VoiceEnabled,
		floor:    floor.New(),
		speaking: make(map[string]context.CancelFunc),
	}
	a.slots.Reset()
	a.snap = a.buildSnapshot()
	return a
}

// OnUpdate registers fn to receive every published snapshot. fn runs on the
// loop goroutine and must not call back into the assistant synchronously.
func (a *Assistant) OnUpdate(fn func(types.SessionState)) {
	a.mu.Lock()
	a.onUpdate = fn
	a.mu.Unlock()
}

// Run owns the session until ctx is cancelled. It may be called once.
func (a *Assistant) Run(ctx context.Context) error {
	first := false
	a.running.Do(func() { first = true })
	if !first {
		return ErrAlreadyRunning
	}
	defer close(a.done)
	a.runCtx = ctx
	a.mount()
	a.publish()
	for {
		select {
		case <-ctx.Done():
			a.unmount()
			return ctx.Err()
		case ev := <-a.events:
			a.dispatch(ev)
			a.publish()
		}
	}
}

// Start begins a one-shot capture when idle. Safe from any goroutine.
func (a *Assistant) Start() { a.post(cmdStart{}) }

// Stop halts capture and cancels speech output. An in-flight turn is not
// cancelled.
func (a *Assistant) Stop() { a.post(cmdStop{}) }

// Clear empties the conversation, slots and transcript.
func (a *Assistant) Clear() { a.post(cmdClear{}) }

func (a *Assistant) ToggleVoice() { a.post(cmdVoice{toggle: true}) }

func (a *Assistant) SetVoiceEnabled(on bool) { a.post(cmdVoice{on: on}) }

// Snapshot returns a deep copy of the last published session state.
func (a *Assistant) Snapshot() types.SessionState {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return cloneState(a.snap)
}

func (a *Assistant) post(ev event) {
	select {
	case a.events <- ev:
	case <-a.done:
	}
}

func (a *Assistant) mount() {
	if !a.deps.Recognizer.Available() {
		log.Printf("[assistant] recognition unavailable; capture disabled")
		a.notify(types.NoticeError, msgRecognitionMissing, "recognition_unavailable")
	}
	if !a.deps.Synthesizer.Available() {
		log.Printf("[assistant] synthesis unavailable; responses are text only")
	}
}

func (a *Assistant) unmount() {
	a.endCapture()
	a.applyFloor(a.floor.OnStop())
	for id, cancel := range a.speaking {
		cancel()
		delete(a.speaking, id)
	}
}

func (a *Assistant) dispatch(ev event) {
	switch e := ev.(type) {
	case cmdStart:
		a.handleStart()
	case cmdStop:
		a.handleStop()
	case cmdClear:
		a.handleClear()
	case cmdVoice:
		a.handleVoice(e)
	case captureEvent:
		a.handleCapture(e)
	case turnSettled:
		a.handleTurnSettled(e)
	case bookingResolved:
		a.handleBookingResolved(e)
	case speechDone:
		a.handleSpeechDone(e)
	default:
		log.Printf("[assistant] unknown event %T", ev)
	}
	a.setState(a.deriveState())
}

func (a *Assistant) handleClear() {
	a.epoch++
	a.conversation.Clear()
	a.slots.Reset()
	a.transcript = ""
	a.applyFloor(a.floor.OnClear())
	log.Printf("[assistant] cleared epoch=%d", a.epoch)
}

func (a *Assistant) handleVoice(e cmdVoice) {
	on := e.on
	if e.toggle {
		on = !a.voice
	}
	if a.voice && !on {
		a.applyFloor(a.floor.OnVoiceDisabled())
	}
	a.voice = on
}

func (a *Assistant) deriveState() string {
	switch {
	case a.processing:
		return StateProcessing
	case a.listening || a.starting:
		return StateListening
	default:
		return StateIdle
	}
}

// setState transitions state and records the metric.
func (a *Assistant) setState(to string) {
	from := a.state
	if from == to {
		return
	}
	metricStateTransitions.WithLabelValues(from, to).Inc()
	a.state = to
}

func (a *Assistant) notify(level types.NoticeLevel, msg, kind string) {
	metricNotices.WithLabelValues(kind).Inc()
	a.deps.Notifier.Notify(level, msg)
}

func (a *Assistant) buildSnapshot() types.SessionState {
	return types.SessionState{
		State:              a.state,
		Listening:          a.listening,
		Processing:         a.processing,
		Transcript:         a.transcript,
		Conversation:       a.conversation.Entries(),
		Slots:              a.slots.Get(),
		VoiceOutputEnabled: a.voice,
	}
}

func (a *Assistant) publish() {
	s := a.buildSnapshot()
	a.mu.Lock()
	a.snap = s
	fn := a.onUpdate
	a.mu.Unlock()
	if fn != nil {
		fn(cloneState(s))
	}
}

func cloneState(s types.SessionState) types.SessionState {
	out := s
	out.Conversation = make([]types.Utterance, len(s.Conversation))
	copy(out.Conversation, s.Conversation)
	out.Slots = s.Slots.Clone()
	return out
}

type nopNotifier struct{}

func (nopNotifier) Notify(types.NoticeLevel, string) {}

type nopNavigator struct{}

func (nopNavigator) SeatSelection(types.SeatSelectionRoute) {}
