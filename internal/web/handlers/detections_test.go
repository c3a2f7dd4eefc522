package handlers

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Karshmistry/CrimAII/internal/database/mock"
)

func bytesReader(b []byte) io.Reader {
	return bytes.NewReader(b)
}

func TestDetectionsHandler_List(t *testing.T) {
	store := mock.NewMockStore()
	base := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	for i, name := range []string{"alice", "bob", "carol"} {
		d := testDetection(name, base.Add(time.Duration(i)*time.Minute))
		store.InsertDetection(t.Context(), &d)
	}
	handler := NewDetectionsHandler(store)

	recorder := httptest.NewRecorder()
	handler.List(recorder, httptest.NewRequest(http.MethodGet, "/api/detections", nil))

	assertStatusCode(t, recorder, http.StatusOK)
	var got []map[string]any
	parseJSONResponse(t, recorder, &got)
	if len(got) != 3 {
		t.Fatalf("expected 3 detections, got %d", len(got))
	}
	if got[0]["criminal_name"] != "carol" || got[2]["criminal_name"] != "alice" {
		t.Errorf("expected newest first, got %v ... %v", got[0]["criminal_name"], got[2]["criminal_name"])
	}
	if got[0]["detected_at"] != "2025-05-01 10:02:00" {
		t.Errorf("detected_at = %v", got[0]["detected_at"])
	}
	for _, d := range got {
		if _, ok := d["_id"]; ok {
			t.Errorf("public listing must not expose ids: %v", d)
		}
	}
}

func TestDetectionsHandler_Empty(t *testing.T) {
	handler := NewDetectionsHandler(mock.NewMockStore())
	recorder := httptest.NewRecorder()
	handler.List(recorder, httptest.NewRequest(http.MethodGet, "/api/detections", nil))

	assertStatusCode(t, recorder, http.StatusOK)
	if got := bytes.TrimSpace(recorder.Body.Bytes()); string(got) != "[]" {
		t.Errorf("expected [], got %s", got)
	}
}

func TestDetectionsHandler_StoreError(t *testing.T) {
	store := mock.NewMockStore()
	store.ListDetectionsError = errors.New("db down")
	handler := NewDetectionsHandler(store)

	recorder := httptest.NewRecorder()
	handler.List(recorder, httptest.NewRequest(http.MethodGet, "/api/detections", nil))
	assertStatusCode(t, recorder, http.StatusInternalServerError)
}
