package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"voice-campaigns/internal/config"
	"voice-campaigns/internal/rbac"

	"github.com/gin-gonic/gin"
)

func newTestApp(t *testing.T, mutate func(*config.Config)) (*app, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Config{App: config.AppConfig{Port: 3000}}
	if mutate != nil {
		mutate(&cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("config: %v", err)
	}
	log := slog.New(slog.NewJSONHandler(io.Discard, nil))
	a, err := newApp(context.Background(), cfg, log)
	if err != nil {
		t.Fatalf("newApp: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = a.shutdown(ctx)
	})
	return a, a.newRouter(log, a.handlers(time.Now()))
}

func do(r http.Handler, method, path string, body io.Reader, hdr map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRoutes_HealthAndPages(t *testing.T) {
	_, r := newTestApp(t, nil)

	w := do(r, http.MethodGet, "/health", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var health map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &health); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if health["status"] != "healthy" {
		t.Fatalf("unexpected health body: %v", health)
	}
	if _, err := time.Parse(time.RFC3339, health["timestamp"].(string)); err != nil {
		t.Fatalf("timestamp not RFC3339: %v", err)
	}

	for _, path := range []string{"/", "/demo", "/dashboard", "/analytics"} {
		if w := do(r, http.MethodGet, path, nil, nil); w.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, w.Code)
		}
	}

	w = do(r, http.MethodGet, "/no/such/page", nil, nil)
	if w.Code != http.StatusNotFound || !strings.Contains(w.Body.String(), "Outbound Agent Demo") {
		t.Fatalf("expected demo page with 404, got %d", w.Code)
	}
	if w.Header().Get("Content-Security-Policy") == "" {
		t.Fatalf("expected security headers on every response")
	}
}

func TestRoutes_ConfigNeverLeaksAPIKey(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte("[]"))
	}))
	defer upstream.Close()

	_, r := newTestApp(t, func(c *config.Config) {
		c.Vapi.BaseURL = upstream.URL
		c.Vapi.APIKey = "sk-very-secret"
		c.Vapi.PhoneNumberID = "pn-1"
		c.Vapi.AssistantID = "asst-1"
	})

	w := do(r, http.MethodGet, "/api/config", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if strings.Contains(w.Body.String(), "sk-very-secret") {
		t.Fatalf("config response leaks the API key: %s", w.Body.String())
	}
	var got struct {
		DemoMode bool `json:"demoMode"`
		Vapi     struct {
			AssistantID string `json:"assistantId"`
			Configured  bool   `json:"configured"`
		} `json:"vapi"`
		RefreshIntervalMs int64 `json:"refreshIntervalMs"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.DemoMode || !got.Vapi.Configured || got.Vapi.AssistantID != "asst-1" {
		t.Fatalf("unexpected config: %+v", got)
	}
}

func TestRoutes_CallsUseSampleDataInDemoMode(t *testing.T) {
	_, r := newTestApp(t, nil)

	w := do(r, http.MethodGet, "/api/v1/calls?status=completed", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var list struct {
		Calls []struct {
			Status string `json:"status"`
		} `json:"calls"`
		SampleData bool `json:"sampleData"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !list.SampleData || len(list.Calls) == 0 {
		t.Fatalf("expected sample calls, got %+v", list)
	}
	for _, c := range list.Calls {
		if c.Status != "completed" {
			t.Fatalf("filter leaked status %q", c.Status)
		}
	}

	w = do(r, http.MethodGet, "/api/v1/calls/stats", nil, nil)
	var stats struct {
		TotalCalls int `json:"totalCalls"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &stats); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if stats.TotalCalls != 3 {
		t.Fatalf("stats must cover the full set, got %d", stats.TotalCalls)
	}

	if w := do(r, http.MethodGet, "/api/v1/calls?date=not-a-date", nil, nil); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for a bad date, got %d", w.Code)
	}
	if w := do(r, http.MethodGet, "/api/v1/calls/missing", nil, nil); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestRoutes_ImportThenRunCampaign(t *testing.T) {
	a, r := newTestApp(t, nil)

	csv := "name,phone,email\n\"Smith, Ann\",+15550001111,ann@example.com\nBob,+15550002222,\n"
	w := do(r, http.MethodPost, "/api/v1/contact-lists/import?name=Leads", strings.NewReader(csv), map[string]string{"Content-Type": "text/csv"})
	if w.Code != http.StatusCreated {
		t.Fatalf("import: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var list struct {
		ID       string `json:"id"`
		Contacts []struct {
			Name string `json:"name"`
		} `json:"contacts"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list.Contacts) != 2 || list.Contacts[0].Name != "Smith, Ann" {
		t.Fatalf("unexpected contacts: %+v", list.Contacts)
	}

	body, _ := json.Marshal(map[string]any{
		"name":   "Spring push",
		"listId": list.ID,
		"agent":  "Sarah",
		"script": "Introduce the spring offer.",
	})
	w = do(r, http.MethodPost, "/api/v1/campaigns", bytes.NewReader(body), map[string]string{"Content-Type": "application/json"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.campaigns.Wait(ctx, created.ID); err != nil {
		t.Fatalf("wait: %v", err)
	}

	w = do(r, http.MethodGet, "/api/v1/campaigns/"+created.ID, nil, nil)
	var view struct {
		Status          string `json:"status"`
		SuccessfulCalls int    `json:"successfulCalls"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &view); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if view.Status != "completed" || view.SuccessfulCalls != 2 {
		t.Fatalf("unexpected campaign: %+v", view)
	}

	w = do(r, http.MethodGet, "/api/v1/campaigns/"+created.ID+"/logs", nil, nil)
	if !strings.Contains(w.Body.String(), "Campaign completed!") {
		t.Fatalf("expected completion line in logs: %s", w.Body.String())
	}

	if w := do(r, http.MethodPost, "/api/v1/campaigns/"+created.ID+"/pause", nil, nil); w.Code != http.StatusConflict {
		t.Fatalf("pausing a completed campaign: expected 409, got %d", w.Code)
	}

	w = do(r, http.MethodGet, "/api/v1/contact-lists/"+list.ID+"/export", nil, nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Header().Get("Content-Disposition"), "Leads_contacts.csv") {
		t.Fatalf("unexpected export: %d %q", w.Code, w.Header().Get("Content-Disposition"))
	}
	if !strings.Contains(w.Body.String(), `"completed"`) {
		t.Fatalf("export should carry updated statuses: %s", w.Body.String())
	}
}

func TestRoutes_ImportRejectsMissingColumns(t *testing.T) {
	_, r := newTestApp(t, nil)
	w := do(r, http.MethodPost, "/api/v1/contact-lists/import?name=Bad", strings.NewReader("fullname,mobile\nA,1\n"), map[string]string{"Content-Type": "text/csv"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestRoutes_ViewerIsReadOnly(t *testing.T) {
	a, r := newTestApp(t, func(c *config.Config) {
		c.Auth.JWTSecret = "test-secret-test-secret-test-secret"
	})

	if w := do(r, http.MethodGet, "/api/v1/campaigns", nil, nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without a token, got %d", w.Code)
	}

	viewer, _, err := a.auth.IssueAccess(time.Now(), "u-1", rbac.RoleViewer)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	bearer := map[string]string{"Authorization": "Bearer " + viewer, "Content-Type": "application/json"}

	if w := do(r, http.MethodGet, "/api/v1/contact-lists", nil, bearer); w.Code != http.StatusOK {
		t.Fatalf("viewer GET: expected 200, got %d", w.Code)
	}
	if w := do(r, http.MethodPost, "/api/v1/calls/refresh", nil, bearer); w.Code != http.StatusForbidden {
		t.Fatalf("viewer POST: expected 403, got %d", w.Code)
	}

	operator, _, err := a.auth.IssueAccess(time.Now(), "u-2", rbac.RoleOperator)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	w := do(r, http.MethodPost, "/api/v1/calls/refresh", nil, map[string]string{"Authorization": "Bearer " + operator})
	if w.Code != http.StatusOK {
		t.Fatalf("operator POST: expected 200, got %d", w.Code)
	}

	// Pages and the config endpoint stay public.
	if w := do(r, http.MethodGet, "/api/config", nil, nil); w.Code != http.StatusOK {
		t.Fatalf("config must stay public, got %d", w.Code)
	}
}
