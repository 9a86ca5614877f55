package api

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func setAuth(t *testing.T, cfg *authConfig) {
	t.Helper()
	prev := auth
	auth = cfg
	t.Cleanup(func() { auth = prev })
}

func okHandler(called *bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		*called = true
		w.WriteHeader(http.StatusOK)
	}
}

func TestAuthDisabledAllowsEverything(t *testing.T) {
	setAuth(t, &authConfig{enabled: false})

	if IsAuthEnabled() {
		t.Fatal("auth should be disabled")
	}

	called := false
	w := httptest.NewRecorder()
	RequireAdmin(okHandler(&called))(w, httptest.NewRequest("POST", "/operator/control", nil))

	if !called || w.Code != http.StatusOK {
		t.Errorf("expected handler call with 200, got called=%v code=%d", called, w.Code)
	}
}

func TestRequireRole(t *testing.T) {
	full := &authConfig{
		adminUser:    "admin",
		adminPass:    "secret",
		operatorUser: "operator",
		operatorPass: "opsecret",
		enabled:      true,
	}
	adminOnly := &authConfig{adminUser: "admin", adminPass: "secret", enabled: true}

	tests := []struct {
		name       string
		cfg        *authConfig
		adminOnly  bool
		user, pass string
		noAuth     bool
		wantCode   int
	}{
		{name: "no credentials", cfg: full, noAuth: true, wantCode: http.StatusUnauthorized},
		{name: "admin", cfg: full, user: "admin", pass: "secret", wantCode: http.StatusOK},
		{name: "operator", cfg: full, user: "operator", pass: "opsecret", wantCode: http.StatusOK},
		{name: "wrong password", cfg: full, user: "admin", pass: "nope", wantCode: http.StatusUnauthorized},
		{name: "admin endpoint admin", cfg: full, adminOnly: true, user: "admin", pass: "secret", wantCode: http.StatusOK},
		{name: "admin endpoint operator", cfg: full, adminOnly: true, user: "operator", pass: "opsecret", wantCode: http.StatusForbidden},
		{name: "operator not configured", cfg: adminOnly, user: "operator", pass: "anything", wantCode: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setAuth(t, tt.cfg)

			called := false
			h := RequireAnyRole(okHandler(&called))
			if tt.adminOnly {
				h = RequireAdmin(okHandler(&called))
			}

			req := httptest.NewRequest("GET", "/events", nil)
			if !tt.noAuth {
				req.SetBasicAuth(tt.user, tt.pass)
			}
			w := httptest.NewRecorder()
			h(w, req)

			if w.Code != tt.wantCode {
				t.Errorf("expected status %d, got %d", tt.wantCode, w.Code)
			}
			if called != (tt.wantCode == http.StatusOK) {
				t.Errorf("handler called = %v for status %d", called, w.Code)
			}
			if w.Code == http.StatusUnauthorized && w.Header().Get("WWW-Authenticate") != `Basic realm="Scenario Engine"` {
				t.Errorf("unexpected WWW-Authenticate %q", w.Header().Get("WWW-Authenticate"))
			}
		})
	}
}

func TestInitAuthFromEnv(t *testing.T) {
	setAuth(t, nil)

	dir := t.TempDir()
	passFile := filepath.Join(dir, "admin_pass")
	if err := os.WriteFile(passFile, []byte("from-file\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("SCENARIO_ADMIN_USER", "admin")
	t.Setenv("SCENARIO_ADMIN_PASS", "ignored")
	t.Setenv("SCENARIO_ADMIN_PASS_FILE", passFile)
	t.Setenv("SCENARIO_OPERATOR_USER", "")
	t.Setenv("SCENARIO_OPERATOR_PASS", "")

	if err := InitAuth(); err != nil {
		t.Fatalf("InitAuth failed: %v", err)
	}
	if !IsAuthEnabled() {
		t.Fatal("auth should be enabled with admin credentials")
	}
	if auth.adminPass != "from-file" {
		t.Errorf("expected password from file, got %q", auth.adminPass)
	}
}

func TestInitAuthDisabledWithoutAdmin(t *testing.T) {
	setAuth(t, nil)
	t.Setenv("SCENARIO_ADMIN_USER", "")
	t.Setenv("SCENARIO_ADMIN_PASS", "")
	t.Setenv("SCENARIO_OPERATOR_USER", "op")
	t.Setenv("SCENARIO_OPERATOR_PASS", "op")

	if err := InitAuth(); err != nil {
		t.Fatalf("InitAuth failed: %v", err)
	}
	if IsAuthEnabled() {
		t.Error("operator credentials alone should not enable auth")
	}
}

func TestInitAuthMissingSecretFile(t *testing.T) {
	setAuth(t, nil)
	t.Setenv("SCENARIO_ADMIN_USER_FILE", "/nonexistent/user")

	if err := InitAuth(); err == nil {
		t.Error("expected error for unreadable secret file")
	}
}

func TestSecureCompare(t *testing.T) {
	if !secureCompare("test", "test") {
		t.Error("identical strings should match")
	}
	if secureCompare("test", "Test") || secureCompare("test", "test1") || secureCompare("", "test") {
		t.Error("different strings should not match")
	}
}
