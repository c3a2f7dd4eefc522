package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Karshmistry/CrimAII/internal/database"
	"github.com/Karshmistry/CrimAII/internal/database/mock"
)

func TestRespondJSON_SetsContentType(t *testing.T) {
	recorder := httptest.NewRecorder()
	respondJSON(recorder, http.StatusOK, map[string]string{"status": "ok"})
	assertContentType(t, recorder, "application/json")
}

func TestRespondJSON_SetsStatusCode(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
	}{
		{"OK", http.StatusOK},
		{"Created", http.StatusCreated},
		{"BadRequest", http.StatusBadRequest},
		{"NotFound", http.StatusNotFound},
		{"InternalServerError", http.StatusInternalServerError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			respondJSON(recorder, tc.statusCode, nil)
			assertStatusCode(t, recorder, tc.statusCode)
		})
	}
}

func TestRespondJSON_NilData(t *testing.T) {
	recorder := httptest.NewRecorder()
	respondJSON(recorder, http.StatusOK, nil)
	if recorder.Body.Len() != 0 {
		t.Errorf("expected empty body, got %q", recorder.Body.String())
	}
}

func TestRespondError(t *testing.T) {
	recorder := httptest.NewRecorder()
	respondError(recorder, http.StatusBadRequest, "something went wrong")
	assertStatusCode(t, recorder, http.StatusBadRequest)
	assertJSONError(t, recorder, "something went wrong")
}

func TestRespondMessage(t *testing.T) {
	recorder := httptest.NewRecorder()
	respondMessage(recorder, http.StatusCreated, "Signup successful")
	assertStatusCode(t, recorder, http.StatusCreated)
	assertJSONMessage(t, recorder, "Signup successful")
}

func TestRespondInternalError_ReportsAndHidesCause(t *testing.T) {
	var reported error
	orig := captureError
	captureError = func(_ *http.Request, err error) { reported = err }
	defer func() { captureError = orig }()

	cause := errors.New("connection refused to 10.0.0.5")
	req := httptest.NewRequest(http.MethodGet, "/api/detections", nil)
	recorder := httptest.NewRecorder()
	respondInternalError(recorder, req, "failed to list detections", cause)

	assertStatusCode(t, recorder, http.StatusInternalServerError)
	assertJSONError(t, recorder, "failed to list detections")
	if !errors.Is(reported, cause) {
		t.Errorf("expected cause to be reported, got %v", reported)
	}
}

func TestSanitizeForLog(t *testing.T) {
	if got := sanitizeForLog("a\nb\rc"); got != "abc" {
		t.Errorf("sanitizeForLog = %q", got)
	}
}

func TestFormatTime(t *testing.T) {
	if got := formatTime(time.Time{}); got != "" {
		t.Errorf("zero time = %q, want empty", got)
	}
	ts := time.Date(2025, 1, 2, 3, 4, 5, 0, time.FixedZone("CET", 3600))
	if got := formatTime(ts); got != "2025-01-02 02:04:05" {
		t.Errorf("formatTime = %q", got)
	}
}

func TestNewUserResponse_NeverIncludesPassword(t *testing.T) {
	u := &database.User{ID: "u1", Name: "A", Email: "a@example.com", PasswordHash: "secret-hash", Role: "user"}
	data, err := json.Marshal(newUserResponse(u, true))
	if err != nil {
		t.Fatal(err)
	}
	var out map[string]any
	json.Unmarshal(data, &out)
	if out["_id"] != "u1" {
		t.Errorf("expected _id u1, got %v", out["_id"])
	}
	for k, v := range out {
		if v == "secret-hash" {
			t.Errorf("password hash leaked in field %s", k)
		}
	}

	data, _ = json.Marshal(newUserResponse(u, false))
	out = nil
	json.Unmarshal(data, &out)
	if _, ok := out["_id"]; ok {
		t.Error("expected no _id when withID is false")
	}
}

func TestHealthHandler(t *testing.T) {
	store := mock.NewMockStore()
	handler := NewHealthHandler(store)

	recorder := httptest.NewRecorder()
	handler.Index(recorder, httptest.NewRequest(http.MethodGet, "/", nil))
	assertStatusCode(t, recorder, http.StatusOK)
	assertJSONMessage(t, recorder, "CrimAI Backend Running Successfully")

	recorder = httptest.NewRecorder()
	handler.Health(recorder, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assertStatusCode(t, recorder, http.StatusOK)
	assertJSONField(t, recorder, "status", "ok")

	store.PingError = errors.New("down")
	recorder = httptest.NewRecorder()
	handler.Health(recorder, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assertStatusCode(t, recorder, http.StatusServiceUnavailable)
	assertJSONField(t, recorder, "database", "unreachable")
}
