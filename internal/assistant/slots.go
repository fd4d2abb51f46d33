package assistant

import (
	"strings"

	"cinevox/client/internal/types"
)

// Slots accumulates booking parameters across turns.
type Slots struct {
	set types.SlotSet
}

// Merge overwrites keys present in next and leaves the rest untouched.
func (s *Slots) Merge(next types.SlotSet) {
	if s.set == nil {
		s.set = types.SlotSet{}
	}
	for k, v := range next {
		s.set[k] = v
	}
}

func (s *Slots) Reset() { s.set = types.SlotSet{} }

// Get returns a copy of the accumulated slots.
func (s *Slots) Get() types.SlotSet {
	if s.set == nil {
		return types.SlotSet{}
	}
	return s.set.Clone()
}

// InvalidateOnTopicChange drops the accumulated showtime and movie id when
// next names a different movie, so an abandoned booking cannot resurface.
// Keys re-supplied by next are restored by the following Merge. It reports
// which keys were dropped.
func (s *Slots) InvalidateOnTopicChange(next types.SlotSet) []types.SlotKey {
	if !s.topicChanged(next) {
		return nil
	}
	var dropped []types.SlotKey
	for _, k := range []types.SlotKey{types.SlotShowtimeID, types.SlotMovieID} {
		if _, ok := s.set[k]; ok {
			delete(s.set, k)
			dropped = append(dropped, k)
		}
	}
	return dropped
}

func (s *Slots) topicChanged(next types.SlotSet) bool {
	if next.Has(types.SlotMovieName) && s.set.Has(types.SlotMovieName) {
		if !strings.EqualFold(strings.TrimSpace(next.String(types.SlotMovieName)), strings.TrimSpace(s.set.String(types.SlotMovieName))) {
			return true
		}
	}
	newID, ok1 := next.ID(types.SlotMovieID)
	oldID, ok2 := s.set.ID(types.SlotMovieID)
	return ok1 && ok2 && newID != oldID
}
