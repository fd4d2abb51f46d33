// Package events keeps the capped journal of what the user saw: notices,
// seat-selection navigations and assistant state changes.
package events

import (
	"log"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"cinevox/client/internal/types"
)

const (
	TypeNotice     = "notice"
	TypeNavigation = "navigation"
	TypeState      = "state"
	TypeTruncated  = "events_truncated"
)

// MaxEvents caps the journal; the oldest events are dropped first.
const MaxEvents = 200

type Journal struct {
	mu       sync.RWMutex
	events   []types.Event
	onAppend []func(types.Event)
}

func NewJournal() *Journal { return &Journal{} }

// OnAppend registers fn for every appended event. fn runs on the
// appending goroutine and must not block.
func (j *Journal) OnAppend(fn func(types.Event)) {
	j.mu.Lock()
	j.onAppend = append(j.onAppend, fn)
	j.mu.Unlock()
}

// Notify records a user-visible notice.
func (j *Journal) Notify(level types.NoticeLevel, message string) {
	log.Printf("[events] notice level=%s msg=%q", level, message)
	j.Record(TypeNotice, map[string]any{"level": string(level), "message": message})
}

// SeatSelection records a navigation to the seat-selection view.
func (j *Journal) SeatSelection(route types.SeatSelectionRoute) {
	j.Record(TypeNavigation, map[string]any{
		"view":       "seat_selection",
		"showtimeId": route.ShowtimeID,
		"movieId":    route.MovieID,
		"numSeats":   route.NumSeats,
		"date":       route.Date,
		"time":       route.Time,
	})
}

func (j *Journal) Record(typ string, payload map[string]any) types.Event {
	evt := types.Event{ID: uuid.NewString(), Type: typ, Ts: time.Now().UTC(), Payload: payload}
	j.mu.Lock()
	j.events = append(j.events, evt)
	appended := []types.Event{evt}
	if l := len(j.events); l > MaxEvents {
		// one slot is kept for the truncation marker
		keep := MaxEvents - 1
		dropped := l - keep
		j.events = append([]types.Event(nil), j.events[l-keep:]...)
		warn := types.Event{
			ID:      uuid.NewString(),
			Type:    TypeTruncated,
			Ts:      time.Now().UTC(),
			Payload: map[string]any{"dropped": dropped, "kept": keep},
		}
		j.events = append(j.events, warn)
		appended = append(appended, warn)
	}
	hooks := slices.Clone(j.onAppend)
	j.mu.Unlock()

	for _, e := range appended {
		for _, fn := range hooks {
			fn(e)
		}
	}
	return evt
}

func (j *Journal) List() []types.Event {
	j.mu.RLock()
	defer j.mu.RUnlock()
	out := make([]types.Event, len(j.events))
	copy(out, j.events)
	return out
}

// Since returns events appended after the event with id, or everything when
// id is unknown.
func (j *Journal) Since(id string) []types.Event {
	all := j.List()
	for i := len(all) - 1; i >= 0; i-- {
		if all[i].ID == id {
			return all[i+1:]
		}
	}
	return all
}
