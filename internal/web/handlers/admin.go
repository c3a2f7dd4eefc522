package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Karshmistry/CrimAII/internal/database"
	"github.com/Karshmistry/CrimAII/internal/web/middleware"
	"github.com/go-chi/chi/v5"
)

// CaseDeleter removes a case record together with its gallery image.
type CaseDeleter interface {
	Delete(ctx context.Context, filename string) error
}

// AdminHandler serves the admin dashboard endpoints
type AdminHandler struct {
	users      database.UserStore
	detections database.DetectionWriter
	cases      CaseDeleter
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(users database.UserStore, detections database.DetectionWriter, cases CaseDeleter) *AdminHandler {
	return &AdminHandler{
		users:      users,
		detections: detections,
		cases:      cases,
	}
}

// actor returns the admin's id for audit logs.
func actor(r *http.Request) string {
	if u := middleware.UserFromContext(r.Context()); u != nil {
		return u.ID
	}
	return middleware.UserIDFromContext(r.Context())
}

// ListUsers returns every account without password hashes
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.ListUsers(r.Context())
	if err != nil {
		respondInternalError(w, r, "failed to list users", err)
		return
	}
	out := make([]userResponse, 0, len(users))
	for i := range users {
		out = append(out, newUserResponse(&users[i], true))
	}
	respondJSON(w, http.StatusOK, out)
}

// ListDetections returns every detection including ids
func (h *AdminHandler) ListDetections(w http.ResponseWriter, r *http.Request) {
	dets, err := h.detections.ListDetections(r.Context())
	if err != nil {
		respondInternalError(w, r, "failed to list detections", err)
		return
	}
	respondJSON(w, http.StatusOK, newDetectionResponses(dets, true))
}

// DeleteUser removes an account
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	err := h.users.DeleteUser(r.Context(), id)
	if errors.Is(err, database.ErrNotFound) {
		respondError(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		respondInternalError(w, r, "failed to delete user", err)
		return
	}
	slog.Info("user deleted", "user", sanitizeForLog(id), "by", actor(r))
	respondMessage(w, http.StatusOK, "User deleted successfully")
}

// DeleteDetection removes a detection
func (h *AdminHandler) DeleteDetection(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	err := h.detections.DeleteDetection(r.Context(), id)
	if errors.Is(err, database.ErrNotFound) {
		respondError(w, http.StatusNotFound, "Detection not found")
		return
	}
	if err != nil {
		respondInternalError(w, r, "failed to delete detection", err)
		return
	}
	slog.Info("detection deleted", "detection", sanitizeForLog(id), "by", actor(r))
	respondMessage(w, http.StatusOK, "Detection deleted successfully")
}

// DeleteCase removes a case record and its reference image
func (h *AdminHandler) DeleteCase(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")
	err := h.cases.Delete(r.Context(), filename)
	if errors.Is(err, database.ErrNotFound) {
		respondError(w, http.StatusNotFound, "Case not found")
		return
	}
	if err != nil {
		respondInternalError(w, r, "failed to delete case", err)
		return
	}
	slog.Info("case deleted", "file", sanitizeForLog(filename), "by", actor(r))
	respondMessage(w, http.StatusOK, "Case deleted successfully")
}
