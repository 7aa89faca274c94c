// Package finalize runs the end-of-call workflow once Twilio reports a
// terminal status. All the durable side effects of a call happen here,
// after the line is down, so a mid-call drop never leaves partial state.
package finalize

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"receptionist-platform/internal/calendar"
	"receptionist-platform/internal/callstore"
	"receptionist-platform/internal/notify"
	"receptionist-platform/internal/session"
	"receptionist-platform/pkg/utils"
)

// Once guards against double finalization when Twilio retries the status
// callback.
type Once interface {
	First(ctx context.Context, key string) (bool, error)
}

// RedisOnce implements Once with SETNX so the guard holds across
// replicas.
type RedisOnce struct {
	RDB *redis.Client
	TTL time.Duration
}

func (o RedisOnce) First(ctx context.Context, key string) (bool, error) {
	ttl := o.TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return o.RDB.SetNX(ctx, "finalize:"+key, "1", ttl).Result()
}

// Workflow turns a finished call's session state into durable records and
// outbound notices. Steps run in order; a failed step alerts internally
// and the rest still run.
type Workflow struct {
	Sessions *session.Store
	Calendar calendar.Service
	Email    notify.EmailSender
	Alerts   notify.Alerter
	Store    callstore.Repo
	Once     Once

	// RDB releases the per-business concurrency slot taken at webhook
	// time. Nil when no cap is configured.
	RDB *redis.Client

	Log *slog.Logger
	Now func() time.Time

	SlotLen time.Duration
}

func (w *Workflow) log() *slog.Logger {
	if w.Log != nil {
		return w.Log
	}
	return slog.Default()
}

func (w *Workflow) now() time.Time {
	if w.Now != nil {
		return w.Now()
	}
	return time.Now()
}

func (w *Workflow) slotLen() time.Duration {
	if w.SlotLen > 0 {
		return w.SlotLen
	}
	return time.Hour
}

// Completed handles the "completed" status: calendar write, caller email,
// operator notice, then session removal.
func (w *Workflow) Completed(ctx context.Context, callSid string) error {
	log := w.log().With("call_sid", callSid)

	call, ok := w.Sessions.Get(callSid)
	if !ok {
		log.Info("no session to finalize, likely already done")
		return nil
	}
	if w.Once != nil {
		first, err := w.Once.First(ctx, callSid)
		if err != nil {
			log.Warn("finalize dedupe check failed, proceeding", "err", err)
		} else if !first {
			log.Info("finalize already ran, skipping")
			return nil
		}
	}

	snap := call.Snapshot()
	defer w.teardown(ctx, log, callSid, snap.Business.ID)

	if snap.Failed {
		w.alert(ctx, log, fmt.Sprintf("Call %s from %s ended in failure: %s", callSid, snap.CallerPhone, snap.FailureReason))
		w.setStatus(ctx, log, callSid, callstore.CallStatusFailed)
		return nil
	}
	w.setStatus(ctx, log, callSid, callstore.CallStatusCompleted)

	var booked *session.Slot
	if snap.BookedSlot != nil {
		booked = snap.BookedSlot
		if err := w.writeCalendar(ctx, snap); err != nil {
			log.Error("calendar write failed", "err", err)
			w.alert(ctx, log, fmt.Sprintf("Calendar write failed for call %s (%s): %v", callSid, snap.BookedSlot.Label, err))
			booked = nil
		}
	}

	if email := snap.Entities.Email; email != "" && w.Email != nil {
		subject, body := callerEmail(snap, booked)
		if err := w.Email.SendEmail(ctx, email, subject, body); err != nil {
			log.Error("caller email failed", "to", email, "err", err)
			w.alert(ctx, log, fmt.Sprintf("Caller follow-up email to %s failed for call %s: %v", email, callSid, err))
		}
	}

	if to := snap.Business.OwnerEmail; to != "" && w.Email != nil {
		subject, body := operatorEmail(snap, booked)
		if err := w.Email.SendEmail(ctx, to, subject, body); err != nil {
			log.Error("operator notice failed", "to", to, "err", err)
			w.alert(ctx, log, fmt.Sprintf("Operator notice to %s failed for call %s: %v", to, callSid, err))
		}
	}

	log.Info("call finalized",
		"booked", booked != nil,
		"voicemail", snap.VoicemailMode,
		"email", snap.Entities.Email != "",
	)
	return nil
}

// Failed handles terminal statuses other than completed (failed, busy,
// no-answer). Internal alert only; the caller never hears from us.
func (w *Workflow) Failed(ctx context.Context, callSid, status string) error {
	log := w.log().With("call_sid", callSid, "status", status)

	call, ok := w.Sessions.Get(callSid)
	if !ok {
		log.Info("no session for failed call")
		return nil
	}
	if w.Once != nil {
		if first, err := w.Once.First(ctx, callSid); err == nil && !first {
			return nil
		}
	}

	snap := call.Snapshot()
	defer w.teardown(ctx, log, callSid, snap.Business.ID)

	w.setStatus(ctx, log, callSid, callstore.CallStatusFailed)
	w.alert(ctx, log, fmt.Sprintf("Call %s from %s ended with status %s", callSid, snap.CallerPhone, status))
	return nil
}

func (w *Workflow) teardown(ctx context.Context, log *slog.Logger, callSid, businessID string) {
	w.Sessions.Remove(callSid)
	if w.RDB != nil && businessID != "" {
		if err := utils.ReleaseConcurrencyCap(ctx, w.RDB, capKey(businessID)); err != nil {
			log.Warn("concurrency cap release failed", "err", err)
		}
	}
}

func (w *Workflow) writeCalendar(ctx context.Context, snap session.Snapshot) error {
	slot := snap.BookedSlot
	summary := "Appointment"
	if snap.Entities.Name != "" {
		summary = "Appointment with " + snap.Entities.Name
	}
	var desc strings.Builder
	fmt.Fprintf(&desc, "Booked by phone (%s).\n", snap.CallerPhone)
	if snap.Entities.Email != "" {
		fmt.Fprintf(&desc, "Email: %s\n", snap.Entities.Email)
	}
	if snap.Entities.CompanyName != "" {
		fmt.Fprintf(&desc, "Company: %s\n", snap.Entities.CompanyName)
	}

	eventID, err := w.Calendar.Insert(ctx, snap.Business.CalendarID, calendar.Event{
		Summary:     summary,
		Description: desc.String(),
		Start:       slot.Start,
		End:         slot.Start.Add(w.slotLen()),
	})
	if err != nil {
		return err
	}
	w.log().Info("calendar event created", "call_sid", snap.CallSid, "event_id", eventID)

	if w.Store != nil {
		_, err := w.Store.CreateAppointment(ctx, snap.CallSid, callstore.Appointment{
			StartsAt: slot.Start,
			EndsAt:   slot.Start.Add(w.slotLen()),
			Label:    slot.Label,
		})
		if err != nil {
			w.log().Warn("appointment record failed", "call_sid", snap.CallSid, "err", err)
		}
	}
	return nil
}

func (w *Workflow) setStatus(ctx context.Context, log *slog.Logger, callSid string, status callstore.CallStatus) {
	if w.Store == nil {
		return
	}
	if err := w.Store.UpdateCallStatus(ctx, callSid, status); err != nil {
		log.Warn("call status update failed", "status", status, "err", err)
	}
}

func (w *Workflow) alert(ctx context.Context, log *slog.Logger, message string) {
	if w.Alerts == nil {
		return
	}
	if err := w.Alerts.Alert(ctx, message); err != nil {
		log.Error("internal alert failed", "err", err)
	}
}

func capKey(businessID string) string {
	return "calls:cap:" + businessID
}

// CapKey is the Redis key guarding a business's concurrent call slots.
// The inbound webhook acquires on it and finalization releases.
func CapKey(businessID string) string { return capKey(businessID) }

func callerEmail(snap session.Snapshot, booked *session.Slot) (string, string) {
	name := snap.Entities.Name
	if name == "" {
		name = "there"
	}
	biz := snap.Business.Name
	if biz == "" {
		biz = "our office"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "<p>Hi %s,</p>", name)
	fmt.Fprintf(&b, "<p>Thanks for calling %s.</p>", biz)
	if booked != nil {
		fmt.Fprintf(&b, "<p>Your appointment is confirmed for <strong>%s</strong>.</p>", booked.Label)
	}
	if snap.VoicemailMode {
		b.WriteString("<p>We received your message and will get back to you shortly.</p>")
	}
	fmt.Fprintf(&b, "<p>%s</p>", biz)

	subject := "Thanks for calling " + biz
	if booked != nil {
		subject = "Appointment confirmed: " + booked.Label
	}
	return subject, b.String()
}

func operatorEmail(snap session.Snapshot, booked *session.Slot) (string, string) {
	var b strings.Builder
	fmt.Fprintf(&b, "<p>Call summary for %s</p>", snap.CallSid)
	fmt.Fprintf(&b, "<p>Caller: %s</p>", snap.CallerPhone)
	if snap.Entities.Name != "" {
		fmt.Fprintf(&b, "<p>Name: %s</p>", snap.Entities.Name)
	}
	if snap.Entities.Email != "" {
		fmt.Fprintf(&b, "<p>Email: %s</p>", snap.Entities.Email)
	}
	if snap.Entities.CompanyName != "" {
		fmt.Fprintf(&b, "<p>Company: %s</p>", snap.Entities.CompanyName)
	}
	if snap.Entities.BusinessType != "" {
		fmt.Fprintf(&b, "<p>Business type: %s</p>", snap.Entities.BusinessType)
	}
	if booked != nil {
		fmt.Fprintf(&b, "<p>Booked: %s</p>", booked.Label)
	}
	if len(snap.Turns) > 0 {
		b.WriteString("<p>Transcript:</p><ul>")
		for _, turn := range snap.Turns {
			fmt.Fprintf(&b, "<li><strong>%s:</strong> %s</li>", turn.Role, turn.Content)
		}
		b.WriteString("</ul>")
	}

	subject := fmt.Sprintf("Call from %s", snap.CallerPhone)
	if snap.Entities.Name != "" {
		subject = fmt.Sprintf("Call from %s (%s)", snap.Entities.Name, snap.CallerPhone)
	}
	if booked != nil {
		subject += " - appointment booked"
	} else if snap.VoicemailMode {
		subject += " - message taken"
	}
	return subject, b.String()
}
