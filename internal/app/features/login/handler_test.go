package login_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	uierrors "github.com/dalemusser/memberhub/internal/app/features/errors"
	"github.com/dalemusser/memberhub/internal/app/features/login"
	"github.com/dalemusser/memberhub/internal/app/system/auditlog"
	"github.com/dalemusser/memberhub/internal/app/system/auth"
	"github.com/dalemusser/memberhub/internal/app/system/ratelimit"
	"github.com/dalemusser/memberhub/internal/domain/models"
	"github.com/dalemusser/memberhub/internal/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/crypto/bcrypt"
)

const testPassword = "correct horse battery"

func newTestHandler(t *testing.T) (*login.Handler, *testutil.Fixtures, *observer.ObservedLogs) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	errLog := uierrors.NewErrorLogger(logger)

	sessionMgr, err := auth.NewSessionManager("test-session-key-for-testing-only-32", "test-session", "", 24*time.Hour, false, logger)
	if err != nil {
		t.Fatalf("NewSessionManager failed: %v", err)
	}

	core, logs := observer.New(zapcore.InfoLevel)
	audit := auditlog.New(nil, zap.New(core), auditlog.Config{Auth: auditlog.Log, Admin: auditlog.Log})

	handler := login.NewHandler(db, sessionMgr, errLog, audit, false, logger)
	return handler, testutil.NewFixtures(t, db), logs
}

func createWithPassword(t *testing.T, f *testutil.Fixtures, email, status string) models.User {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	u := testutil.NewMember("Anna", email)
	u.PasswordHash = string(hash)
	u.Status = status
	return f.CreateUser(ctx, u)
}

func postLogin(handler *login.Handler, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	func() {
		// the failure paths render the login template, which is not booted here
		defer func() { _ = recover() }()
		handler.HandleLoginPost(rec, req)
	}()
	return rec
}

func auditTypes(logs *observer.ObservedLogs) []string {
	var out []string
	for _, e := range logs.FilterMessage("audit event").All() {
		out = append(out, e.ContextMap()["event_type"].(string))
	}
	return out
}

func TestHandleLoginPost_Success(t *testing.T) {
	handler, fixtures, logs := newTestHandler(t)
	createWithPassword(t, fixtures, "anna@example.com", models.StatusActive)

	rec := postLogin(handler, url.Values{"email": {"Anna@Example.com "}, "password": {testPassword}})

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected status %d, got %d", http.StatusSeeOther, rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/" {
		t.Errorf("Location: got %q, want %q", loc, "/")
	}

	found := false
	for _, c := range rec.Result().Cookies() {
		if c.Name == "test-session" {
			found = true
		}
	}
	if !found {
		t.Error("expected session cookie to be set")
	}
	if got := auditTypes(logs); len(got) != 1 || got[0] != "login_success" {
		t.Errorf("audit events: got %v", got)
	}
}

func TestHandleLoginPost_WithReturnURL(t *testing.T) {
	handler, fixtures, _ := newTestHandler(t)
	createWithPassword(t, fixtures, "anna@example.com", models.StatusActive)

	tests := []struct {
		name string
		ret  string
		want string
	}{
		{"local path", "/users/old", "/users/old"},
		{"absolute url", "https://evil.example/", "/"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postLogin(handler, url.Values{
				"email":    {"anna@example.com"},
				"password": {testPassword},
				"return":   {tt.ret},
			})
			if loc := rec.Header().Get("Location"); loc != tt.want {
				t.Errorf("Location: got %q, want %q", loc, tt.want)
			}
		})
	}
}

func TestHandleLoginPost_Failures(t *testing.T) {
	handler, fixtures, logs := newTestHandler(t)
	createWithPassword(t, fixtures, "anna@example.com", models.StatusActive)
	createWithPassword(t, fixtures, "old@example.com", models.StatusInactive)

	tests := []struct {
		name      string
		form      url.Values
		wantAudit string
	}{
		{"unknown email", url.Values{"email": {"nobody@example.com"}, "password": {testPassword}}, "login_failed_user_not_found"},
		{"wrong password", url.Values{"email": {"anna@example.com"}, "password": {"nope"}}, "login_failed_wrong_password"},
		{"inactive member", url.Values{"email": {"old@example.com"}, "password": {testPassword}}, "login_failed_user_inactive"},
		{"empty form", url.Values{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := logs.Len()
			rec := postLogin(handler, tt.form)

			if rec.Code != http.StatusUnauthorized {
				t.Errorf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
			}
			for _, c := range rec.Result().Cookies() {
				if c.Name == "test-session" {
					t.Error("no session cookie expected on failure")
				}
			}
			events := logs.All()[before:]
			if tt.wantAudit == "" {
				if len(events) != 0 {
					t.Errorf("expected no audit events, got %d", len(events))
				}
				return
			}
			if len(events) != 1 || events[0].ContextMap()["event_type"] != tt.wantAudit {
				t.Errorf("expected audit %s, got %v", tt.wantAudit, events)
			}
		})
	}
}

func TestServeLogin_Renders(t *testing.T) {
	handler, _, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	func() {
		defer func() { _ = recover() }()
		handler.ServeLogin(rec, httptest.NewRequest("GET", "/login?signed_out=1", nil))
	}()
}

func TestHandleLoginPost_Throttled(t *testing.T) {
	handler, fixtures, logs := newTestHandler(t)
	createWithPassword(t, fixtures, "anna@example.com", models.StatusActive)
	handler.Limiter = ratelimit.NewLoginLimiterWithConfig(100, time.Minute, 2, time.Minute)

	bad := url.Values{"email": {"anna@example.com"}, "password": {"nope"}}
	postLogin(handler, bad)
	postLogin(handler, bad)

	// the correct password is refused while the account is throttled
	rec := postLogin(handler, url.Values{"email": {"anna@example.com"}, "password": {testPassword}})
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected status %d, got %d", http.StatusTooManyRequests, rec.Code)
	}
	types := auditTypes(logs)
	if len(types) == 0 || types[len(types)-1] != "login_failed_rate_limit" {
		t.Errorf("expected login_failed_rate_limit audit, got %v", types)
	}
}
