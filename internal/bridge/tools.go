package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"receptionist-platform/internal/calendar"
	"receptionist-platform/internal/callstore"
	"receptionist-platform/internal/notify"
	"receptionist-platform/internal/realtime"
	"receptionist-platform/internal/schedule"
	"receptionist-platform/internal/session"
)

// Tool names exposed to the model.
const (
	toolFindFirstSlot       = "find_first_slot"
	toolFindNextBusinessDay = "find_next_business_day_slot"
	toolBookSlot            = "book_slot"
	toolSendTrialLink       = "send_trial_link"
	toolTakeMessage         = "take_message"
	toolSaveMessage         = "save_message"
)

const defaultDaysAhead = 7

// toolDispatcher executes function calls for one call session. Dispatch is
// invoked from a single goroutine per session, off the audio path, and
// always produces exactly one JSON result string.
type toolDispatcher struct {
	call     *session.Call
	calendar calendar.Service
	finder   schedule.Finder
	sms      notify.SMSSender
	store    callstore.Repo
	log      *slog.Logger
	now      func() time.Time

	// daysAhead is the configured search horizon for find_first_slot.
	daysAhead int
}

// Dispatch never returns an error: collaborator failures degrade into a
// spoken-back failure result so the conversation continues.
func (d *toolDispatcher) Dispatch(ctx context.Context, name, argsJSON string) string {
	var args map[string]any
	if argsJSON != "" {
		if err := json.Unmarshal([]byte(argsJSON), &args); err != nil {
			d.log.Warn("tool arguments unparseable", "tool", name, "err", err)
			return failure("I could not understand the request.")
		}
	}

	switch name {
	case toolFindFirstSlot:
		return d.findFirstSlot(ctx, args)
	case toolFindNextBusinessDay:
		return d.findNextBusinessDaySlot(ctx)
	case toolBookSlot:
		return d.bookSlot(args)
	case toolSendTrialLink:
		return d.sendTrialLink(ctx)
	case toolTakeMessage:
		return d.takeMessage(args)
	case toolSaveMessage:
		return d.saveMessage(ctx, args)
	default:
		d.log.Warn("unknown tool requested", "tool", name)
		return failure("That action is not available.")
	}
}

func (d *toolDispatcher) findFirstSlot(ctx context.Context, args map[string]any) string {
	daysAhead := d.daysAhead
	if daysAhead <= 0 {
		daysAhead = defaultDaysAhead
	}
	if v, ok := args["days_ahead"].(float64); ok && v > 0 {
		daysAhead = int(v)
	}

	now := d.now()
	busy, err := d.calendar.ListBusy(ctx, d.call.Business.CalendarID, now, now.AddDate(0, 0, daysAhead+1))
	if err != nil {
		d.log.Error("calendar lookup failed", "err", err)
		return failure("I can't reach the calendar right now.")
	}

	slot, ok := d.finder.FirstAvailable(now, daysAhead, busy)
	if !ok {
		return result(map[string]any{
			"success": true,
			"found":   false,
			"message": fmt.Sprintf("No openings in the next %d days.", daysAhead),
		})
	}
	return slotResult(slot)
}

func (d *toolDispatcher) findNextBusinessDaySlot(ctx context.Context) string {
	now := d.now()
	busy, err := d.calendar.ListBusy(ctx, d.call.Business.CalendarID, now, now.AddDate(0, 0, 7))
	if err != nil {
		d.log.Error("calendar lookup failed", "err", err)
		return failure("I can't reach the calendar right now.")
	}

	slot, ok := d.finder.NextBusinessDay(now, busy)
	if !ok {
		return result(map[string]any{
			"success": true,
			"found":   false,
			"message": "The next business day is fully booked.",
		})
	}
	return slotResult(slot)
}

func (d *toolDispatcher) bookSlot(args map[string]any) string {
	raw, _ := args["datetime"].(string)
	start, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		d.log.Warn("book_slot datetime unparseable", "datetime", raw, "err", err)
		return failure("I did not catch which time to book.")
	}
	label, _ := args["label"].(string)

	// Recorded on the session only; the calendar write happens at
	// finalization so a dropped call never leaves a half-booked event.
	d.call.BookSlot(session.Slot{Start: start, Label: label})
	return result(map[string]any{
		"success": true,
		"message": fmt.Sprintf("Booked for %s.", spokenTime(start)),
	})
}

func (d *toolDispatcher) sendTrialLink(ctx context.Context) string {
	link := d.call.Business.TrialLinkURL
	if link == "" {
		return failure("There is no trial link configured.")
	}
	if !d.call.MarkTrialLinkSent() {
		return result(map[string]any{
			"success":      true,
			"already_sent": true,
			"message":      "The link was already texted to this number.",
		})
	}

	body := fmt.Sprintf("Here's your free trial link from %s: %s", d.call.Business.Name, link)
	if err := d.sms.SendSMS(ctx, d.call.CallerPhone, body); err != nil {
		d.log.Error("trial link sms failed", "err", err)
		return failure("I couldn't send the text message.")
	}
	return result(map[string]any{
		"success": true,
		"message": "Trial link sent by text.",
	})
}

func (d *toolDispatcher) takeMessage(args map[string]any) string {
	reason, _ := args["reason"].(string)
	d.call.SetVoicemailMode(true)
	d.log.Info("voicemail mode on", "call_sid", d.call.CallSid, "reason", reason)
	return result(map[string]any{
		"success": true,
		"message": "Ready to take the message. Ask for the message, a callback number, and how urgent it is.",
	})
}

func (d *toolDispatcher) saveMessage(ctx context.Context, args map[string]any) string {
	content, _ := args["content"].(string)
	if content == "" {
		return failure("There is no message content to save.")
	}
	callback, _ := args["callback_number"].(string)
	if callback == "" {
		callback = d.call.CallerPhone
	}
	urgency, _ := args["urgency"].(string)

	entry := fmt.Sprintf("Message: %s | Callback: %s | Urgency: %s", content, callback, urgency)
	d.call.AppendTurn("voicemail", entry, d.now())
	if d.store != nil {
		if err := d.store.AppendTranscript(ctx, d.call.CallSid, "voicemail", entry); err != nil {
			d.log.Warn("voicemail persist failed", "err", err)
		}
	}
	return result(map[string]any{
		"success": true,
		"message": "Message saved. Let the caller know someone will get back to them.",
	})
}

func slotResult(slot time.Time) string {
	return result(map[string]any{
		"success": true,
		"found":   true,
		"slot": map[string]any{
			"start":  slot.Format(time.RFC3339),
			"spoken": spokenTime(slot),
		},
	})
}

// spokenTime renders a slot the way the agent should say it.
func spokenTime(t time.Time) string {
	return t.Format("Monday, January 2 at 3:04 PM")
}

func result(v map[string]any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return `{"success":false,"message":"internal error"}`
	}
	return string(b)
}

func failure(message string) string {
	return result(map[string]any{"success": false, "message": message})
}

// toolDefinitions is the schema advertised in session.update.
func toolDefinitions() []realtime.ToolDefinition {
	obj := func(props map[string]any, required ...string) map[string]any {
		schema := map[string]any{"type": "object", "properties": props}
		if len(required) > 0 {
			schema["required"] = required
		}
		return schema
	}

	return []realtime.ToolDefinition{
		{
			Type:        "function",
			Name:        toolFindFirstSlot,
			Description: "Find the earliest open appointment slot within the next several days.",
			Parameters: obj(map[string]any{
				"days_ahead": map[string]any{"type": "integer", "description": "How many days ahead to search. Omit to use the default horizon."},
			}),
		},
		{
			Type:        "function",
			Name:        toolFindNextBusinessDay,
			Description: "Find the earliest open slot on the next business day, skipping weekends.",
			Parameters:  obj(map[string]any{}),
		},
		{
			Type:        "function",
			Name:        toolBookSlot,
			Description: "Book an appointment slot the caller agreed to.",
			Parameters: obj(map[string]any{
				"datetime": map[string]any{"type": "string", "description": "Slot start time in RFC3339."},
				"label":    map[string]any{"type": "string", "description": "Short description of the appointment."},
			}, "datetime"),
		},
		{
			Type:        "function",
			Name:        toolSendTrialLink,
			Description: "Text the caller the free trial signup link. Safe to call once per call.",
			Parameters:  obj(map[string]any{}),
		},
		{
			Type:        "function",
			Name:        toolTakeMessage,
			Description: "Switch to taking a message when the caller's request can't be handled directly.",
			Parameters: obj(map[string]any{
				"reason": map[string]any{"type": "string", "description": "Why a message is being taken."},
			}),
		},
		{
			Type:        "function",
			Name:        toolSaveMessage,
			Description: "Save the message the caller dictated.",
			Parameters: obj(map[string]any{
				"content":         map[string]any{"type": "string", "description": "The message content."},
				"callback_number": map[string]any{"type": "string", "description": "Number to call back. Defaults to the caller's number."},
				"urgency":         map[string]any{"type": "string", "description": "How urgent the matter is."},
			}, "content"),
		},
	}
}
