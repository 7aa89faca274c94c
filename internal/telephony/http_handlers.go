package telephony

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"receptionist-platform/internal/business"
	"receptionist-platform/internal/callstore"
	"receptionist-platform/internal/finalize"
	"receptionist-platform/internal/session"
	"receptionist-platform/pkg/logger"
	"receptionist-platform/pkg/utils"
)

// InboundHandler answers the Twilio voice webhook. It resolves the dialed
// number to a business profile, opens a session, and returns TwiML that
// connects the call to the media stream.
type InboundHandler struct {
	Businesses *business.Service
	Sessions   *session.Store
	Store      callstore.Repo

	// StreamURL is the public wss:// endpoint Twilio connects back to.
	StreamURL string

	// RDB enforces per-business concurrent call caps when set.
	RDB    *redis.Client
	CapTTL time.Duration

	Now func() time.Time
}

func (h InboundHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

const (
	msgUnconfigured = "This number is not configured to receive calls. Goodbye."
	msgAllLinesBusy = "All of our lines are busy right now. Please call back in a few minutes."
)

func (h InboundHandler) HandleInboundCall(c *gin.Context) {
	log := logger.FromGin(c)

	form, err := ParseTwilioInboundCall(c.Request)
	if err != nil {
		log.Warn("twilio webhook parse failed", "err", err)
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid form"})
		return
	}
	log = log.With("call_sid", form.CallSid, "from", form.From, "to", form.To)

	profile, err := h.Businesses.Resolve(c.Request.Context(), form.To)
	if err != nil {
		log.Warn("no business for dialed number")
		h.renderTwiMLOrFail(c, log, func() (string, error) { return RenderRejection(msgUnconfigured) })
		return
	}
	log = log.With("business_id", profile.ID)

	if !h.acquireCapSlot(c.Request.Context(), log, profile) {
		log.Warn("concurrent call cap reached, rejecting")
		h.renderTwiMLOrFail(c, log, func() (string, error) { return RenderRejection(msgAllLinesBusy) })
		return
	}

	call := &session.Call{
		CallSid:      form.CallSid,
		CallerPhone:  form.From,
		DialedNumber: form.To,
		Business:     profile,
		StartedAt:    h.now(),
	}

	if h.Store != nil {
		rec, err := h.Store.CreateCall(c.Request.Context(), callstore.Call{
			BusinessID:     profile.ID,
			ProviderCallID: form.CallSid,
			CallerPhone:    form.From,
			DialedNumber:   form.To,
		})
		if err != nil {
			log.Warn("call record create failed", "err", err)
		} else {
			call.RecordID = rec.ID
		}
	}

	h.Sessions.Put(call)
	log.Info("inbound call accepted")
	h.renderTwiMLOrFail(c, log, func() (string, error) { return RenderMediaStream(h.StreamURL, form.CallSid) })
}

// acquireCapSlot reports whether the call may proceed. Cap misconfiguration
// or a Redis outage fails open; rejecting every call is worse than briefly
// exceeding a cap.
func (h InboundHandler) acquireCapSlot(ctx context.Context, log *slog.Logger, profile business.Profile) bool {
	if h.RDB == nil || profile.MaxConcurrentCalls <= 0 {
		return true
	}
	ttl := h.CapTTL
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	ok, err := utils.AcquireConcurrencyCap(ctx, h.RDB, finalize.CapKey(profile.ID), profile.MaxConcurrentCalls, ttl)
	if err != nil {
		log.Warn("concurrency cap check failed, allowing call", "err", err)
		return true
	}
	return ok
}

func (h InboundHandler) renderTwiMLOrFail(c *gin.Context, log *slog.Logger, render func() (string, error)) {
	twiml, err := render()
	if err != nil {
		log.Error("twiml render failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "twiml failed"})
		return
	}
	c.Header("Content-Type", "application/xml")
	c.String(http.StatusOK, twiml)
}

// StatusHandler receives Twilio's status callbacks and triggers
// finalization on terminal statuses.
type StatusHandler struct {
	Finalizer *finalize.Workflow
}

func (h StatusHandler) HandleStatusCallback(c *gin.Context) {
	log := logger.FromGin(c)

	form, err := ParseTwilioStatusCallback(c.Request)
	if err != nil {
		log.Warn("status callback parse failed", "err", err)
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid form"})
		return
	}
	log = log.With("call_sid", form.CallSid, "call_status", form.CallStatus)

	switch form.CallStatus {
	case "completed":
		if err := h.Finalizer.Completed(c.Request.Context(), form.CallSid); err != nil {
			log.Error("finalization failed", "err", err)
		}
	case "failed", "busy", "no-answer", "canceled":
		if err := h.Finalizer.Failed(c.Request.Context(), form.CallSid, form.CallStatus); err != nil {
			log.Error("failure handling failed", "err", err)
		}
	default:
		log.Debug("ignoring non-terminal status")
	}

	c.Status(http.StatusNoContent)
}
