package feed

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Message is one frame pushed to panel subscribers.
type Message struct {
	Type    string `json:"type"`
	TsMs    int64  `json:"ts_ms"`
	Seq     int64  `json:"seq"`
	Payload any    `json:"payload,omitempty"`
}

const subscriberBuffer = 32

// Registry fans messages out to connected panels. Broadcast never blocks:
// a subscriber whose buffer is full misses the message.
type Registry struct {
	mu   sync.Mutex
	subs map[string]chan Message
	seq  int64
}

func NewRegistry() *Registry { return &Registry{subs: make(map[string]chan Message)} }

// Add registers a subscriber and returns its id and outbound queue.
func (r *Registry) Add() (string, <-chan Message) {
	id := uuid.NewString()
	ch := make(chan Message, subscriberBuffer)
	r.mu.Lock()
	r.subs[id] = ch
	r.mu.Unlock()
	metricSubscribers.Inc()
	return id, ch
}

// Remove closes the subscriber's queue. Unknown ids are ignored.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	ch, ok := r.subs[id]
	delete(r.subs, id)
	r.mu.Unlock()
	if ok {
		close(ch)
		metricSubscribers.Dec()
	}
}

func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.subs)
}

// Broadcast stamps and queues msg for every subscriber. It returns how many
// subscribers dropped it.
func (r *Registry) Broadcast(typ string, payload any) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	msg := Message{Type: typ, TsMs: time.Now().UnixMilli(), Seq: r.seq, Payload: payload}
	dropped := 0
	for _, ch := range r.subs {
		select {
		case ch <- msg:
		default:
			dropped++
		}
	}
	if dropped > 0 {
		metricDropped.Add(float64(dropped))
	}
	return dropped
}
