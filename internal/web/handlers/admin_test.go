package handlers

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Karshmistry/CrimAII/internal/constants"
	"github.com/Karshmistry/CrimAII/internal/database/mock"
)

func newTestAdminHandler(t *testing.T) (*AdminHandler, *mock.MockStore) {
	t.Helper()
	svc, _, store := newTestCases(t)
	return NewAdminHandler(store, store, svc), store
}

func TestAdminHandler_ListUsers(t *testing.T) {
	handler, store := newTestAdminHandler(t)
	addTestUser(t, store, "a@example.com", "pw", constants.RoleAdmin)
	addTestUser(t, store, "b@example.com", "pw", constants.RoleUser)

	recorder := httptest.NewRecorder()
	handler.ListUsers(recorder, httptest.NewRequest(http.MethodGet, "/api/admin/users", nil))

	assertStatusCode(t, recorder, http.StatusOK)
	var users []map[string]any
	parseJSONResponse(t, recorder, &users)
	if len(users) != 2 {
		t.Fatalf("expected 2 users, got %d", len(users))
	}
	for _, u := range users {
		if u["_id"] == "" || u["_id"] == nil {
			t.Errorf("admin listing should include ids: %v", u)
		}
	}
	if bytes.Contains(recorder.Body.Bytes(), []byte("$2a$")) {
		t.Error("password hashes leaked")
	}
}

func TestAdminHandler_ListDetections(t *testing.T) {
	handler, store := newTestAdminHandler(t)
	base := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	d1 := testDetection("alice", base)
	d2 := testDetection("bob", base.Add(time.Hour))
	store.InsertDetection(t.Context(), &d1)
	store.InsertDetection(t.Context(), &d2)

	recorder := httptest.NewRecorder()
	handler.ListDetections(recorder, httptest.NewRequest(http.MethodGet, "/api/admin/detections", nil))

	assertStatusCode(t, recorder, http.StatusOK)
	var got []detectionResponse
	parseJSONResponse(t, recorder, &got)
	if len(got) != 2 {
		t.Fatalf("expected 2 detections, got %d", len(got))
	}
	if got[0].CriminalName != "bob" || got[0].ID != d2.ID {
		t.Errorf("expected newest first with id, got %+v", got[0])
	}
	if got[0].DetectedAt != "2025-05-01 11:00:00" {
		t.Errorf("detected_at = %q", got[0].DetectedAt)
	}
}

func TestAdminHandler_DeleteUser(t *testing.T) {
	handler, store := newTestAdminHandler(t)
	user := addTestUser(t, store, "a@example.com", "pw", constants.RoleUser)

	req := requestWithChiParams(httptest.NewRequest(http.MethodDelete, "/api/admin/delete_user/"+user.ID, nil),
		map[string]string{"id": user.ID})
	recorder := httptest.NewRecorder()
	handler.DeleteUser(recorder, req)

	assertStatusCode(t, recorder, http.StatusOK)
	assertJSONMessage(t, recorder, "User deleted successfully")
	if _, err := store.GetUserByID(t.Context(), user.ID); err == nil {
		t.Error("user should be gone")
	}

	recorder = httptest.NewRecorder()
	handler.DeleteUser(recorder, req)
	assertStatusCode(t, recorder, http.StatusNotFound)
	assertJSONError(t, recorder, "User not found")
}

func TestAdminHandler_DeleteDetection(t *testing.T) {
	handler, store := newTestAdminHandler(t)
	d := testDetection("alice", time.Now())
	store.InsertDetection(t.Context(), &d)

	req := requestWithChiParams(httptest.NewRequest(http.MethodDelete, "/", nil), map[string]string{"id": d.ID})
	recorder := httptest.NewRecorder()
	handler.DeleteDetection(recorder, req)

	assertStatusCode(t, recorder, http.StatusOK)
	assertJSONMessage(t, recorder, "Detection deleted successfully")
	if n, _ := store.CountDetections(t.Context()); n != 0 {
		t.Errorf("expected no detections, got %d", n)
	}

	recorder = httptest.NewRecorder()
	handler.DeleteDetection(recorder, req)
	assertStatusCode(t, recorder, http.StatusNotFound)
}

func TestAdminHandler_DeleteCase(t *testing.T) {
	svc, g, store := newTestCases(t)
	handler := NewAdminHandler(store, store, svc)

	c, err := svc.Register(t.Context(), casesInput("Alice"), bytes.NewReader(testPNG(t, 8, 8)), "alice.png")
	if err != nil {
		t.Fatal(err)
	}

	req := requestWithChiParams(httptest.NewRequest(http.MethodDelete, "/", nil),
		map[string]string{"filename": c.ImageFilename})
	recorder := httptest.NewRecorder()
	handler.DeleteCase(recorder, req)

	assertStatusCode(t, recorder, http.StatusOK)
	names, _ := g.Candidates()
	if len(names) != 0 {
		t.Errorf("image should be removed, gallery has %v", names)
	}

	recorder = httptest.NewRecorder()
	handler.DeleteCase(recorder, req)
	assertStatusCode(t, recorder, http.StatusNotFound)

	traversal := requestWithChiParams(httptest.NewRequest(http.MethodDelete, "/", nil),
		map[string]string{"filename": "../etc/passwd"})
	recorder = httptest.NewRecorder()
	handler.DeleteCase(recorder, traversal)
	assertStatusCode(t, recorder, http.StatusNotFound)
}

func TestAdminHandler_StoreErrors(t *testing.T) {
	handler, store := newTestAdminHandler(t)
	store.ListUsersError = errors.New("db down")
	store.ListDetectionsError = errors.New("db down")
	store.DeleteUserError = errors.New("db down")

	recorder := httptest.NewRecorder()
	handler.ListUsers(recorder, httptest.NewRequest(http.MethodGet, "/", nil))
	assertStatusCode(t, recorder, http.StatusInternalServerError)

	recorder = httptest.NewRecorder()
	handler.ListDetections(recorder, httptest.NewRequest(http.MethodGet, "/", nil))
	assertStatusCode(t, recorder, http.StatusInternalServerError)

	recorder = httptest.NewRecorder()
	handler.DeleteUser(recorder, requestWithChiParams(httptest.NewRequest(http.MethodDelete, "/", nil),
		map[string]string{"id": "x"}))
	assertStatusCode(t, recorder, http.StatusInternalServerError)
}
