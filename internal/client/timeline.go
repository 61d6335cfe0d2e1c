package client

import (
	"sync"

	"messaging-service/internal/models"
)

// Timeline reconciles live-delivered messages with paginated history for one
// conversation. Live events append, backfill pages prepend; both paths
// deduplicate by message id because a message can race in through the socket
// and through a history page at the same time.
type Timeline struct {
	selfID int

	mu   sync.Mutex
	msgs []models.DeliveredMessage
	seen map[int]struct{}
}

// NewTimeline creates an empty timeline for the given local user.
func NewTimeline(selfID int) *Timeline {
	return &Timeline{selfID: selfID, seen: make(map[int]struct{})}
}

// Append adds a live-delivered message to the end of the timeline. A message
// whose id is already present is dropped and the rendered list stays
// unchanged. Reports whether the message was added.
func (t *Timeline) Append(msg models.DeliveredMessage) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, dup := t.seen[msg.ID]; dup {
		return false
	}
	t.seen[msg.ID] = struct{}{}
	t.msgs = append(t.msgs, msg)
	return true
}

// Prepend inserts an older history page (chronological ascending, as served
// by the history endpoint) in front of the existing messages. Ids already
// present are dropped and the already-rendered suffix is left untouched, so
// the caller can re-anchor scroll by the returned number of inserted entries.
func (t *Timeline) Prepend(page []models.Message) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	fresh := make([]models.DeliveredMessage, 0, len(page))
	for _, msg := range page {
		if _, dup := t.seen[msg.ID]; dup {
			continue
		}
		t.seen[msg.ID] = struct{}{}
		view := msg.ReceivedView()
		if msg.SenderID == t.selfID {
			view = msg.SentView()
		}
		fresh = append(fresh, view)
	}

	t.msgs = append(fresh, t.msgs...)
	return len(fresh)
}

// Messages returns a snapshot of the timeline in render order.
func (t *Timeline) Messages() []models.DeliveredMessage {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]models.DeliveredMessage, len(t.msgs))
	copy(out, t.msgs)
	return out
}

// Len reports the number of rendered messages.
func (t *Timeline) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.msgs)
}
