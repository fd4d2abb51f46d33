package assistant

import (
	"time"

	"github.com/google/uuid"

	"cinevox/client/internal/types"
)

// Conversation is the display-only transcript of the session.
type Conversation struct {
	entries []types.Utterance
}

func (c *Conversation) Append(u types.Utterance) {
	c.entries = append(c.entries, u)
}

func (c *Conversation) Len() int { return len(c.entries) }

// Entries returns a copy in insertion order.
func (c *Conversation) Entries() []types.Utterance {
	out := make([]types.Utterance, len(c.entries))
	copy(out, c.entries)
	return out
}

func (c *Conversation) Clear() { c.entries = nil }

func newUtterance(src types.Source, text string, clarify bool) types.Utterance {
	return types.Utterance{
		ID:                 uuid.NewString(),
		Text:               text,
		Source:             src,
		NeedsClarification: clarify,
		Timestamp:          time.Now().UTC(),
	}
}
