// Package session holds the live state of in-flight calls. One Call exists
// per Twilio CallSid from the inbound webhook until finalization removes it.
package session

import (
	"sync"
	"time"

	"receptionist-platform/internal/business"
	"receptionist-platform/internal/extract"
)

// Turn is one transcript entry. Role is "user", "assistant", or
// "voicemail" for messages left via the message-taking flow.
type Turn struct {
	Role    string
	Content string
	At      time.Time
}

// Slot is an appointment the caller has agreed to. The calendar write is
// deferred to finalization, so until then the slot lives only here.
type Slot struct {
	Start time.Time
	Label string
}

// Call is the mutable per-call state. The bridge goroutine is its main
// writer; the finalizer and the operator API read through Snapshot.
type Call struct {
	CallSid      string
	StreamSid    string
	CallerPhone  string
	DialedNumber string
	Business     business.Profile
	RecordID     string
	StartedAt    time.Time

	mu            sync.Mutex
	entities      extract.Accumulator
	turns         []Turn
	bookedSlot    *Slot
	voicemailMode bool
	trialLinkSent bool
	failed        bool
	failureReason string
}

// Snapshot is an immutable copy of the collected state, taken at
// finalization or for the operator API.
type Snapshot struct {
	CallSid       string
	CallerPhone   string
	Business      business.Profile
	StartedAt     time.Time
	Entities      extract.Entities
	BookedSlot    *Slot
	VoicemailMode bool
	Failed        bool
	FailureReason string
	Turns         []Turn
}

func (c *Call) Observe(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entities.Observe(text)
}

func (c *Call) AppendTurn(role, content string, at time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.turns = append(c.turns, Turn{Role: role, Content: content, At: at})
}

func (c *Call) Entities() extract.Entities {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entities.Entities
}

// BookSlot records the agreed appointment. A later booking replaces the
// earlier one; the caller changed their mind.
func (c *Call) BookSlot(s Slot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bookedSlot = &s
}

// MarkTrialLinkSent flips the sent flag and reports whether this call was
// the first. The dispatcher uses it for per-session idempotence.
func (c *Call) MarkTrialLinkSent() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.trialLinkSent {
		return false
	}
	c.trialLinkSent = true
	return true
}

func (c *Call) SetVoicemailMode(on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.voicemailMode = on
}

func (c *Call) VoicemailMode() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.voicemailMode
}

func (c *Call) MarkFailed(reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failed = true
	c.failureReason = reason
}

func (c *Call) Failed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.failed
}

func (c *Call) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	turns := make([]Turn, len(c.turns))
	copy(turns, c.turns)

	var slot *Slot
	if c.bookedSlot != nil {
		s := *c.bookedSlot
		slot = &s
	}

	return Snapshot{
		CallSid:       c.CallSid,
		CallerPhone:   c.CallerPhone,
		Business:      c.Business,
		StartedAt:     c.StartedAt,
		Entities:      c.entities.Entities,
		BookedSlot:    slot,
		VoicemailMode: c.voicemailMode,
		Failed:        c.failed,
		FailureReason: c.failureReason,
		Turns:         turns,
	}
}
