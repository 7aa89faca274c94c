package bridge

import (
	"sync"
	"time"
)

// turnController tracks whose turn it is on the wire. The Twilio read loop
// feeds it media timestamps and mark acks; the backend read loop feeds it
// response items and speech-start events. Playback position is derived
// entirely from Twilio's media timestamps, never from wall clock.
type turnController struct {
	grace time.Duration

	mu              sync.Mutex
	streamStartedAt time.Time
	latestMediaMs   int64
	responseItemID  string
	responseStartMs int64
	marksPending    int
}

func newTurnController(grace time.Duration) *turnController {
	return &turnController{grace: grace, responseStartMs: -1}
}

func (t *turnController) streamStarted(now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.streamStartedAt = now
}

func (t *turnController) mediaReceived(timestampMs int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.latestMediaMs = timestampMs
}

// audioDelta notes an outbound chunk for item. The first chunk of a new
// item pins the response start to the current media timestamp.
func (t *turnController) audioDelta(itemID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if itemID != "" && itemID != t.responseItemID {
		t.responseItemID = itemID
		t.responseStartMs = t.latestMediaMs
	}
}

func (t *turnController) markSent() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.marksPending++
}

func (t *turnController) markAcked() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.marksPending > 0 {
		t.marksPending--
	}
}

// interruption is the action speechStarted decided on. Truncate may be
// false while the buffer still needs clearing (no item id seen yet).
type interruption struct {
	Truncate   bool
	ItemID     string
	AudioEndMs int64
}

// speechStarted decides whether caller speech interrupts playback. Within
// the grace window after stream start, or with nothing in flight, it is a
// no-op: the first event per playback window wins and later ones are
// dropped because tracking has already been reset.
func (t *turnController) speechStarted(now time.Time) (interruption, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.streamStartedAt.IsZero() && now.Sub(t.streamStartedAt) < t.grace {
		return interruption{}, false
	}
	if t.marksPending == 0 || t.responseStartMs < 0 {
		return interruption{}, false
	}

	in := interruption{}
	if t.responseItemID != "" {
		in.Truncate = true
		in.ItemID = t.responseItemID
		in.AudioEndMs = t.latestMediaMs - t.responseStartMs
		if in.AudioEndMs < 0 {
			in.AudioEndMs = 0
		}
	}

	t.marksPending = 0
	t.responseItemID = ""
	t.responseStartMs = -1
	return in, true
}
