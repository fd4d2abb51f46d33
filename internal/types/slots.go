package types

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// SlotKey names one booking parameter gathered by the assistant.
type SlotKey string

const (
	SlotMovieID    SlotKey = "movie_id"
	SlotMovieName  SlotKey = "movie_name"
	SlotShowtimeID SlotKey = "showtime_id"
	SlotNumSeats   SlotKey = "num_seats"
	SlotDate       SlotKey = "date"
	SlotTime       SlotKey = "time"
)

var knownSlots = map[SlotKey]bool{
	SlotMovieID:    true,
	SlotMovieName:  true,
	SlotShowtimeID: true,
	SlotNumSeats:   true,
	SlotDate:       true,
	SlotTime:       true,
}

// KnownSlot reports whether k belongs to the fixed slot key set.
func KnownSlot(k SlotKey) bool { return knownSlots[k] }

// SlotSet maps slot keys to loosely typed values as returned by the NLU.
type SlotSet map[SlotKey]any

// UnmarshalJSON keeps only keys from the fixed slot key set.
func (s *SlotSet) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(SlotSet, len(raw))
	for k, v := range raw {
		if knownSlots[SlotKey(k)] {
			out[SlotKey(k)] = v
		}
	}
	*s = out
	return nil
}

// Clone returns a shallow copy; slot values are scalars.
func (s SlotSet) Clone() SlotSet {
	out := make(SlotSet, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Has reports whether k holds a non-nil, non-empty value.
func (s SlotSet) Has(k SlotKey) bool {
	v, ok := s[k]
	if !ok || v == nil {
		return false
	}
	if str, ok := v.(string); ok {
		return strings.TrimSpace(str) != ""
	}
	return true
}

// String returns the slot as text. Numbers are formatted without exponent.
func (s SlotSet) String(k SlotKey) string {
	switch t := s[k].(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

// ID reads an integral identifier. Malformed values report false.
func (s SlotSet) ID(k SlotKey) (int64, bool) {
	switch t := s[k].(type) {
	case float64:
		if t != math.Trunc(t) || math.IsInf(t, 0) || math.IsNaN(t) {
			return 0, false
		}
		return int64(t), true
	case int:
		return int64(t), true
	case int64:
		return t, true
	case json.Number:
		n, err := t.Int64()
		return n, err == nil
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		return n, err == nil
	default:
		return 0, false
	}
}

// IntOr reads a positive integer slot, falling back to def.
func (s SlotSet) IntOr(k SlotKey, def int) int {
	n, ok := s.ID(k)
	if !ok || n <= 0 {
		return def
	}
	return int(n)
}
