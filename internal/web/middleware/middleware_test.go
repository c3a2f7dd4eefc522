package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Karshmistry/CrimAII/internal/auth"
	"github.com/Karshmistry/CrimAII/internal/constants"
	"github.com/Karshmistry/CrimAII/internal/database"
)

type fakeVerifier map[string]error

func (f fakeVerifier) Verify(token string) (string, error) {
	if err, ok := f[token]; ok {
		return "", err
	}
	return "user-" + token, nil
}

type fakeUsers map[string]*database.User

func (f fakeUsers) GetUserByID(_ context.Context, id string) (*database.User, error) {
	if u, ok := f[id]; ok {
		return u, nil
	}
	return nil, database.ErrNotFound
}

type countingLimiter struct{ left int }

func (l *countingLimiter) Allow(string) bool {
	l.left--
	return l.left >= 0
}

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("X-User", UserIDFromContext(r.Context()))
	w.WriteHeader(http.StatusOK)
})

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse body: %v\nBody: %s", err, rec.Body.String())
	}
	return body
}

func TestRequireAuth(t *testing.T) {
	verifier := fakeVerifier{
		"old": auth.ErrTokenExpired,
		"bad": auth.ErrTokenInvalid,
	}
	handler := RequireAuth(verifier)(okHandler)

	tests := []struct {
		name        string
		header      string
		wantStatus  int
		wantMessage string
		wantUser    string
	}{
		{"no header", "", http.StatusUnauthorized, "Missing or invalid token", ""},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized, "Missing or invalid token", ""},
		{"empty bearer", "Bearer ", http.StatusUnauthorized, "Missing or invalid token", ""},
		{"expired", "Bearer old", http.StatusUnauthorized, "Token expired", ""},
		{"invalid", "Bearer bad", http.StatusUnprocessableEntity, "Invalid token format", ""},
		{"valid", "Bearer 42", http.StatusOK, "", "user-42"},
		{"lowercase scheme", "bearer 42", http.StatusOK, "", "user-42"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tc.wantStatus)
			}
			if tc.wantMessage != "" {
				if got := decodeBody(t, rec)["message"]; got != tc.wantMessage {
					t.Errorf("message = %q, want %q", got, tc.wantMessage)
				}
			}
			if got := rec.Header().Get("X-User"); got != tc.wantUser {
				t.Errorf("user = %q, want %q", got, tc.wantUser)
			}
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	users := fakeUsers{
		"admin-1": {ID: "admin-1", Role: constants.RoleAdmin},
		"user-1":  {ID: "user-1", Role: constants.RoleUser},
	}
	var seen *database.User
	handler := RequireAdmin(users)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = UserFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name       string
		userID     string
		wantStatus int
	}{
		{"admin", "admin-1", http.StatusOK},
		{"plain user", "user-1", http.StatusForbidden},
		{"unknown user", "ghost", http.StatusForbidden},
		{"no user", "", http.StatusForbidden},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			seen = nil
			req := httptest.NewRequest(http.MethodGet, "/api/admin/users", nil)
			req = req.WithContext(SetUserIDInContext(req.Context(), tc.userID))
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tc.wantStatus)
			}
			if tc.wantStatus == http.StatusForbidden {
				if got := decodeBody(t, rec)["error"]; got != "Access denied" {
					t.Errorf("error = %q, want %q", got, "Access denied")
				}
				return
			}
			if seen == nil || seen.ID != tc.userID {
				t.Errorf("user in context = %+v, want id %s", seen, tc.userID)
			}
		})
	}
}

func TestRateLimit(t *testing.T) {
	handler := RateLimit(&countingLimiter{left: 1})(okHandler)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("first request status = %d, want 200", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second request status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header")
	}
}

func TestRateLimit_UsesLoginLimiter(t *testing.T) {
	handler := RateLimit(auth.NewRateLimiter(1))(okHandler)

	for i, addr := range []string{"10.0.0.1:1000", "10.0.0.1:2000"} {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		want := http.StatusOK
		if i == 1 {
			want = http.StatusTooManyRequests
		}
		if rec.Code != want {
			t.Errorf("request %d from %s: status = %d, want %d", i, addr, rec.Code, want)
		}
	}
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.168.1.5:5555"
	if got := clientIP(req); got != "192.168.1.5" {
		t.Errorf("clientIP = %q", got)
	}
	req.RemoteAddr = "192.168.1.5"
	if got := clientIP(req); got != "192.168.1.5" {
		t.Errorf("clientIP without port = %q", got)
	}
}

func TestCORS(t *testing.T) {
	tests := []struct {
		name    string
		allowed []string
		origin  string
		want    string
	}{
		{"any origin when unrestricted", nil, "https://crimai.example", "https://crimai.example"},
		{"listed origin", []string{"https://crimai.example"}, "https://crimai.example", "https://crimai.example"},
		{"unlisted origin", []string{"https://crimai.example"}, "https://evil.example", ""},
		{"localhost always", []string{"https://crimai.example"}, "http://localhost:3000", "http://localhost:3000"},
		{"localhost lookalike", []string{"https://crimai.example"}, "http://localhost.evil.example", ""},
		{"no origin", nil, "", ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			handler := CORS(tc.allowed)(okHandler)
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.origin != "" {
				req.Header.Set("Origin", tc.origin)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tc.want {
				t.Errorf("Allow-Origin = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestCORS_Preflight(t *testing.T) {
	called := false
	handler := CORS(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := httptest.NewRequest(http.MethodOptions, "/recognize", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if called {
		t.Error("preflight should not reach the next handler")
	}
}

func TestUserIDFromContext_Empty(t *testing.T) {
	if got := UserIDFromContext(context.Background()); got != "" {
		t.Errorf("UserIDFromContext = %q, want empty", got)
	}
	if UserFromContext(context.Background()) != nil {
		t.Error("UserFromContext should be nil")
	}
}
