package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"receptionist-platform/internal/auth"
	"receptionist-platform/internal/business"
	"receptionist-platform/internal/callstore"
	"receptionist-platform/internal/config"
	"receptionist-platform/internal/session"
)

func testRouter(t *testing.T, h Handlers, m *auth.Manager) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/v1/auth/login", h.Login)
	protected := r.Group("/v1", auth.RequireToken(m))
	protected.GET("/sessions", h.ListSessions)
	protected.GET("/calls/:call_sid/transcript", h.GetTranscript)
	return r
}

func newManager(t *testing.T) *auth.Manager {
	t.Helper()
	m, err := auth.NewManager(config.AuthConfig{JWTSecret: "secret", AccessTokenTTL: time.Hour})
	if err != nil {
		t.Fatalf("manager: %v", err)
	}
	return m
}

func bearerFor(t *testing.T, m *auth.Manager, operatorID, businessID, role string) string {
	t.Helper()
	tok, err := m.Issue(time.Now(), operatorID, businessID, role)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	return "Bearer " + tok
}

func TestLoginIssuesToken(t *testing.T) {
	m := newManager(t)
	router := testRouter(t, Handlers{Auth: m}, m)

	req := httptest.NewRequest(http.MethodPost, "/v1/auth/login",
		strings.NewReader(`{"operator_id":"op-1","business_id":"biz-1","role":"operator"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body["access_token"] == "" {
		t.Fatalf("expected access_token in response")
	}
}

func TestListSessionsScopedToBusiness(t *testing.T) {
	m := newManager(t)
	sessions := session.NewStore()
	sessions.Put(&session.Call{CallSid: "CA1", Business: business.Profile{ID: "biz-1", Name: "Lakeside Dental"}})
	sessions.Put(&session.Call{CallSid: "CA2", Business: business.Profile{ID: "biz-2", Name: "Hilltop Vet"}})

	router := testRouter(t, Handlers{Auth: m, Sessions: sessions}, m)

	req := httptest.NewRequest(http.MethodGet, "/v1/sessions", nil)
	req.Header.Set("Authorization", bearerFor(t, m, "op-1", "biz-1", auth.RoleOperator))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var body struct {
		Sessions []liveSession `json:"sessions"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(body.Sessions) != 1 || body.Sessions[0].CallSid != "CA1" {
		t.Fatalf("expected only the operator's business sessions, got %+v", body.Sessions)
	}

	// Admin sees everything.
	req = httptest.NewRequest(http.MethodGet, "/v1/sessions", nil)
	req.Header.Set("Authorization", bearerFor(t, m, "op-2", "", auth.RoleAdmin))
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(body.Sessions) != 2 {
		t.Fatalf("expected admin to see both sessions, got %d", len(body.Sessions))
	}
}

func TestGetTranscriptRequiresAuth(t *testing.T) {
	m := newManager(t)
	router := testRouter(t, Handlers{Auth: m, Store: callstore.NewMemoryRepo()}, m)

	req := httptest.NewRequest(http.MethodGet, "/v1/calls/CA1/transcript", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", w.Code)
	}
}

func TestGetTranscriptScopedToBusiness(t *testing.T) {
	m := newManager(t)
	store := callstore.NewMemoryRepo()
	ctx := context.Background()
	if _, err := store.CreateCall(ctx, callstore.Call{BusinessID: "biz-1", ProviderCallID: "CA1", CallerPhone: "+15551234567"}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := store.AppendTranscript(ctx, "CA1", "user", "Hi, I'd like an appointment."); err != nil {
		t.Fatalf("seed transcript: %v", err)
	}
	if err := store.AppendTranscript(ctx, "CA1", "assistant", "Of course, let me check the calendar."); err != nil {
		t.Fatalf("seed transcript: %v", err)
	}

	router := testRouter(t, Handlers{Auth: m, Store: store}, m)

	req := httptest.NewRequest(http.MethodGet, "/v1/calls/CA1/transcript", nil)
	req.Header.Set("Authorization", bearerFor(t, m, "op-1", "biz-1", auth.RoleOperator))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var body struct {
		Transcript []transcriptTurn `json:"transcript"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(body.Transcript) != 2 || body.Transcript[0].Role != "user" {
		t.Fatalf("unexpected transcript %+v", body.Transcript)
	}

	// A different business's operator gets a 404, not a 403, so call SIDs
	// are not probeable.
	req = httptest.NewRequest(http.MethodGet, "/v1/calls/CA1/transcript", nil)
	req.Header.Set("Authorization", bearerFor(t, m, "op-9", "biz-9", auth.RoleOperator))
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for foreign business, got %d", w.Code)
	}
}

func TestGetTranscriptUnknownCall(t *testing.T) {
	m := newManager(t)
	router := testRouter(t, Handlers{Auth: m, Store: callstore.NewMemoryRepo()}, m)

	req := httptest.NewRequest(http.MethodGet, "/v1/calls/CA404/transcript", nil)
	req.Header.Set("Authorization", bearerFor(t, m, "op-1", "biz-1", auth.RoleOperator))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}
