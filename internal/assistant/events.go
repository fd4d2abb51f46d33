package assistant

import (
	"cinevox/client/internal/speech"
	"cinevox/client/internal/types"
)

// event is anything the loop dispatches.
type event interface{}

type cmdStart struct{}

type cmdStop struct{}

type cmdClear struct{}

type cmdVoice struct {
	toggle bool
	on     bool
}

// captureEvent carries one item of capture session gen. closed marks the
// end of the stream.
type captureEvent struct {
	gen    int
	ev     speech.CaptureEvent
	closed bool
}

type turnSettled struct {
	seq    int
	epoch  int
	text   string
	result types.TurnResult
	err    error
}

type bookingResolved struct {
	seq    int
	epoch  int
	slots  types.SlotSet
	movies []types.Movie
	err    error
}

type speechDone struct {
	id  string
	err error
}
