package types

import "time"

type Event struct {
	ID      string         `json:"id"`
	Type    string         `json:"type"`
	Ts      time.Time      `json:"timestamp"`
	Payload map[string]any `json:"payload,omitempty"`
}

// Source marks who produced an utterance.
type Source string

const (
	SourceUser  Source = "user"
	SourceAgent Source = "agent"
)

// Utterance is one entry of the conversation log. Entries are never mutated
// after they are appended.
type Utterance struct {
	ID                 string    `json:"id"`
	Text               string    `json:"text"`
	Source             Source    `json:"source"`
	NeedsClarification bool      `json:"needs_clarification,omitempty"`
	Timestamp          time.Time `json:"timestamp"`
}

// TurnResult is what the NLU service returns for one utterance.
type TurnResult struct {
	Intent             string  `json:"intent"`
	Slots              SlotSet `json:"slots"`
	ResponseText       string  `json:"response"`
	NeedsClarification bool    `json:"needsClarification"`
}

// SessionState is the assistant's view-model. Snapshots handed out by the
// assistant are deep copies.
type SessionState struct {
	State              string      `json:"state"`
	Listening          bool        `json:"listening"`
	Processing         bool        `json:"processing"`
	Transcript         string      `json:"transcript"`
	Conversation       []Utterance `json:"conversation"`
	Slots              SlotSet     `json:"slots"`
	VoiceOutputEnabled bool        `json:"voice_output_enabled"`
}

// SeatSelectionRoute is the navigation-scoped state carried into the seat
// selection view. It is never persisted.
type SeatSelectionRoute struct {
	ShowtimeID int64  `json:"showtime_id"`
	MovieID    int64  `json:"movie_id"`
	NumSeats   int    `json:"num_seats"`
	Date       string `json:"date,omitempty"`
	Time       string `json:"time,omitempty"`
}

// NoticeLevel classifies user-visible notices.
type NoticeLevel string

const (
	NoticeInfo    NoticeLevel = "info"
	NoticeSuccess NoticeLevel = "success"
	NoticeError   NoticeLevel = "error"
)
