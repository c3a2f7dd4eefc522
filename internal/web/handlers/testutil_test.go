package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Karshmistry/CrimAII/internal/auth"
	"github.com/Karshmistry/CrimAII/internal/cases"
	"github.com/Karshmistry/CrimAII/internal/config"
	"github.com/Karshmistry/CrimAII/internal/constants"
	"github.com/Karshmistry/CrimAII/internal/database"
	"github.com/Karshmistry/CrimAII/internal/database/mock"
	"github.com/Karshmistry/CrimAII/internal/gallery"
	"github.com/Karshmistry/CrimAII/internal/web/middleware"
	"github.com/go-chi/chi/v5"
)

func init() {
	captureError = func(*http.Request, error) {}
}

// requestWithUser creates a request carrying an authenticated user id
func requestWithUser(method, path, body, userID string) *http.Request {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	return req.WithContext(middleware.SetUserIDInContext(req.Context(), userID))
}

// requestWithChiParams creates a request with chi URL parameters
func requestWithChiParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// testPNG encodes a small solid image
func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := range w {
		for y := range h {
			img.Set(x, y, color.RGBA{R: 200, G: 120, B: 80, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode png: %v", err)
	}
	return buf.Bytes()
}

// multipartRequest builds a multipart POST with form fields and an optional "image" file
func multipartRequest(t *testing.T, path string, fields map[string]string, filename string, image []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("failed to write field: %v", err)
		}
	}
	if image != nil {
		fw, err := mw.CreateFormFile("image", filename)
		if err != nil {
			t.Fatalf("failed to create form file: %v", err)
		}
		fw.Write(image)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("failed to close multipart writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

// newTestGallery creates a gallery in a temp dir
func newTestGallery(t *testing.T) *gallery.Store {
	t.Helper()
	g, err := gallery.New(config.GalleryConfig{
		Dir:        t.TempDir(),
		Extensions: []string{".jpg", ".jpeg", ".png"},
	})
	if err != nil {
		t.Fatalf("failed to create gallery: %v", err)
	}
	return g
}

// newTestCases creates a registration service over a temp gallery and a mock store
func newTestCases(t *testing.T) (*cases.Service, *gallery.Store, *mock.MockStore) {
	t.Helper()
	g := newTestGallery(t)
	store := mock.NewMockStore()
	return cases.NewService(g, store, nil, nil), g, store
}

// newTestTokens creates a token manager with a fixed secret
func newTestTokens(t *testing.T) *auth.TokenManager {
	t.Helper()
	tm, err := auth.NewTokenManager("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("failed to create token manager: %v", err)
	}
	return tm
}

// addTestUser stores a user with a hashed password
func addTestUser(t *testing.T, store *mock.MockStore, email, password, role string) *database.User {
	t.Helper()
	hash, err := auth.HashPassword(password)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	return store.AddUser(database.User{
		Name:         "Test User",
		Email:        email,
		PasswordHash: hash,
		Phone:        "555-0100",
		Role:         role,
		JoinDate:     time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC),
	})
}

func testDetection(name string, at time.Time) database.Detection {
	return database.Detection{
		CriminalName:    name,
		CriminalDetails: database.Case{Name: name, ImageFilename: name + ".jpg", ImagePath: constants.FacesURLPrefix + name + ".jpg"},
		DetectedAt:      at,
		Source:          constants.DefaultDetectionSource,
		Status:          constants.DetectionStatus,
	}
}

// parseJSONResponse parses a JSON response body into the target type
func parseJSONResponse(t *testing.T, recorder *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.Unmarshal(recorder.Body.Bytes(), target); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nBody: %s", err, recorder.Body.String())
	}
}

// assertStatusCode checks if the response has the expected status code
func assertStatusCode(t *testing.T, recorder *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if recorder.Code != expected {
		t.Errorf("expected status %d, got %d\nBody: %s", expected, recorder.Code, recorder.Body.String())
	}
}

// assertContentType checks if the response has the expected content type
func assertContentType(t *testing.T, recorder *httptest.ResponseRecorder, expected string) {
	t.Helper()
	ct := recorder.Header().Get("Content-Type")
	if ct != expected {
		t.Errorf("expected Content-Type '%s', got '%s'", expected, ct)
	}
}

// assertJSONError checks if the response is a JSON error with the expected message
func assertJSONError(t *testing.T, recorder *httptest.ResponseRecorder, expectedMessage string) {
	t.Helper()
	assertJSONField(t, recorder, "error", expectedMessage)
}

// assertJSONMessage checks if the response carries the expected "message"
func assertJSONMessage(t *testing.T, recorder *httptest.ResponseRecorder, expectedMessage string) {
	t.Helper()
	assertJSONField(t, recorder, "message", expectedMessage)
}

func assertJSONField(t *testing.T, recorder *httptest.ResponseRecorder, field, expected string) {
	t.Helper()
	var result map[string]any
	if err := json.Unmarshal(recorder.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse response: %v\nBody: %s", err, recorder.Body.String())
	}
	if result[field] != expected {
		t.Errorf("expected %s '%s', got '%v'", field, expected, result[field])
	}
}
