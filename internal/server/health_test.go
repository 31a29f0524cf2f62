package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func serve(t *testing.T, h http.Handler) (int, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	return rec.Code, body
}

func TestHealthChecker_Liveness(t *testing.T) {
	h := NewHealthChecker(nil, "dev")
	h.SetReady(false)

	code, body := serve(t, h.LivenessHandler())
	if code != http.StatusOK || body["status"] != healthStatusOK {
		t.Errorf("liveness = %d %v, want 200 ok", code, body)
	}
}

func TestHealthChecker_Readiness(t *testing.T) {
	tests := []struct {
		name     string
		ready    bool
		shutdown bool
		hasToken bool
		wantCode int
		wantKey  string
		wantVal  string
	}{
		{"ready", true, false, true, http.StatusOK, "gmail_token", healthStatusOK},
		{"not marked ready", false, false, true, http.StatusServiceUnavailable, "ready", healthStatusNotReady},
		{"shutting down", true, true, true, http.StatusServiceUnavailable, "shutdown", healthStatusShuttingDown},
		{"no token", true, false, false, http.StatusServiceUnavailable, "gmail_token", healthStatusNoToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc := newTestContext(t, "{}")
			h := NewHealthChecker(sc, "dev")
			h.hasToken = func(string) bool { return tt.hasToken }
			h.SetReady(tt.ready)
			if tt.shutdown {
				_ = sc.Shutdown()
			}

			code, body := serve(t, h.ReadinessHandler())
			if code != tt.wantCode {
				t.Errorf("readiness status = %d, want %d", code, tt.wantCode)
			}
			checks, _ := body["checks"].(map[string]any)
			if checks[tt.wantKey] != tt.wantVal {
				t.Errorf("checks[%q] = %v, want %q", tt.wantKey, checks[tt.wantKey], tt.wantVal)
			}
		})
	}
}

func TestHealthChecker_Detailed(t *testing.T) {
	sc := newTestContext(t, "{}")
	h := NewHealthChecker(sc, "v1.2.3")

	code, body := serve(t, h.DetailedHealthHandler())
	if code != http.StatusOK {
		t.Fatalf("detailed status = %d, want 200", code)
	}
	if body["version"] != "v1.2.3" || body["account"] != "default" || body["model"] != "mistral" {
		t.Errorf("detailed body = %v", body)
	}

	h.SetReady(false)
	code, body = serve(t, h.DetailedHealthHandler())
	if code != http.StatusServiceUnavailable || body["status"] != healthStatusNotReady {
		t.Errorf("detailed when not ready = %d %v", code, body)
	}
}
