package httpapi

import (
	"errors"
	"net/http"
	"time"

	"receptionist-platform/internal/auth"
	"receptionist-platform/internal/callstore"
	"receptionist-platform/internal/reporting"
	"receptionist-platform/internal/session"

	"github.com/gin-gonic/gin"
)

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.

type Handlers struct {
	Auth     *auth.Manager
	Sessions *session.Store
	Store    callstore.Repo
	Reports  *reporting.Service
}

// --- Auth ---

type loginRequest struct {
	OperatorID string `json:"operator_id"`
	BusinessID string `json:"business_id"`
	Role       string `json:"role"`
}

// Login issues a JWT token.
//
// NOTE: This is a skeleton-only endpoint. Real systems must validate credentials.
func (h Handlers) Login(c *gin.Context) {
	if h.Auth == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "auth not configured"})
		return
	}
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.OperatorID == "" || req.Role == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "operator_id and role required"})
		return
	}
	if req.Role != auth.RoleAdmin && req.BusinessID == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "business_id required for operators"})
		return
	}
	tok, err := h.Auth.Issue(time.Now(), req.OperatorID, req.BusinessID, req.Role)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "token issuance failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": tok})
}

// --- Live sessions ---

type liveSession struct {
	CallSid      string    `json:"call_sid"`
	CallerPhone  string    `json:"caller_phone"`
	BusinessID   string    `json:"business_id"`
	BusinessName string    `json:"business_name"`
	StartedAt    time.Time `json:"started_at"`
	Turns        int       `json:"turns"`
	Voicemail    bool      `json:"voicemail"`
	BookedSlot   string    `json:"booked_slot,omitempty"`
}

// ListSessions returns the calls in flight right now, scoped to the
// operator's business.
func (h Handlers) ListSessions(c *gin.Context) {
	if h.Sessions == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "sessions not configured"})
		return
	}
	businessID, role := callerScope(c)

	out := []liveSession{}
	for _, snap := range h.Sessions.Snapshots() {
		if role != auth.RoleAdmin && snap.Business.ID != businessID {
			continue
		}
		ls := liveSession{
			CallSid:      snap.CallSid,
			CallerPhone:  snap.CallerPhone,
			BusinessID:   snap.Business.ID,
			BusinessName: snap.Business.Name,
			StartedAt:    snap.StartedAt,
			Turns:        len(snap.Turns),
			Voicemail:    snap.VoicemailMode,
		}
		if snap.BookedSlot != nil {
			ls.BookedSlot = snap.BookedSlot.Label
		}
		out = append(out, ls)
	}
	c.JSON(http.StatusOK, gin.H{"sessions": out})
}

// --- Transcripts ---

type transcriptTurn struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// GetTranscript returns the stored transcript of a finished (or live)
// call by its provider call SID.
func (h Handlers) GetTranscript(c *gin.Context) {
	if h.Store == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "call store not configured"})
		return
	}
	callSid := c.Param("call_sid")
	if callSid == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "call_sid required"})
		return
	}

	call, err := h.Store.GetCallByProviderID(c.Request.Context(), callSid)
	if err != nil {
		if errors.Is(err, callstore.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "call not found"})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "call lookup failed"})
		return
	}

	businessID, role := callerScope(c)
	if role != auth.RoleAdmin && call.BusinessID != businessID {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "call not found"})
		return
	}

	turns, err := h.Store.ListTranscript(c.Request.Context(), callSid)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "transcript lookup failed"})
		return
	}

	out := make([]transcriptTurn, 0, len(turns))
	for _, t := range turns {
		out = append(out, transcriptTurn{Role: t.Role, Content: t.Content, CreatedAt: t.CreatedAt})
	}
	c.JSON(http.StatusOK, gin.H{
		"call":       call,
		"transcript": out,
	})
}

// --- Reports ---

// GetCallsSummary aggregates the business's durable call records over a
// time range. Defaults to the trailing 30 days.
func (h Handlers) GetCallsSummary(c *gin.Context) {
	if h.Reports == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "reporting not configured"})
		return
	}
	businessID, rng, ok := reportScope(c)
	if !ok {
		return
	}

	out, err := h.Reports.CallsSummary(c.Request.Context(), reporting.CallsSummaryRequest{
		BusinessID: businessID,
		Range:      rng,
	})
	if err != nil {
		if errors.Is(err, reporting.ErrInvalidRequest) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid range"})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "report failed"})
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h Handlers) GetBookingMetrics(c *gin.Context) {
	if h.Reports == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "reporting not configured"})
		return
	}
	businessID, rng, ok := reportScope(c)
	if !ok {
		return
	}

	out, err := h.Reports.BookingMetrics(c.Request.Context(), reporting.BookingMetricsRequest{
		BusinessID: businessID,
		Range:      rng,
	})
	if err != nil {
		if errors.Is(err, reporting.ErrInvalidRequest) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid range"})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "report failed"})
		return
	}
	c.JSON(http.StatusOK, out)
}

// reportScope resolves the business to report on. Operators are pinned to
// their own; admins may pass ?business_id=.
func reportScope(c *gin.Context) (string, reporting.TimeRange, bool) {
	businessID, role := callerScope(c)
	if role == auth.RoleAdmin {
		if q := c.Query("business_id"); q != "" {
			businessID = q
		}
	}
	if businessID == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "business_id required"})
		return "", reporting.TimeRange{}, false
	}

	now := time.Now()
	rng := reporting.TimeRange{From: now.AddDate(0, 0, -30), To: now}
	if q := c.Query("from"); q != "" {
		t, err := time.Parse(time.RFC3339, q)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "from must be RFC3339"})
			return "", reporting.TimeRange{}, false
		}
		rng.From = t
	}
	if q := c.Query("to"); q != "" {
		t, err := time.Parse(time.RFC3339, q)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "to must be RFC3339"})
			return "", reporting.TimeRange{}, false
		}
		rng.To = t
	}
	return businessID, rng, true
}

func callerScope(c *gin.Context) (businessID, role string) {
	businessID, _ = auth.BusinessID(c.Request.Context())
	role, _ = auth.Role(c.Request.Context())
	return businessID, role
}
