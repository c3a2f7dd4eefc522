package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Karshmistry/CrimAII/internal/database"
	"github.com/Karshmistry/CrimAII/internal/web/middleware"
)

// UsersHandler serves the authenticated user's own profile
type UsersHandler struct {
	users database.UserStore
}

// NewUsersHandler creates a new users handler
func NewUsersHandler(users database.UserStore) *UsersHandler {
	return &UsersHandler{users: users}
}

type updateProfileRequest struct {
	Name  *string `json:"name"`
	Phone *string `json:"phone"`
}

// Get returns the caller's profile
func (h *UsersHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.GetUserByID(r.Context(), middleware.UserIDFromContext(r.Context()))
	if errors.Is(err, database.ErrNotFound) {
		respondMessage(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		respondInternalError(w, r, "failed to load user", err)
		return
	}
	respondJSON(w, http.StatusOK, newUserResponse(user, true))
}

// Update changes the caller's name and/or phone
func (h *UsersHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	upd := database.ProfileUpdate{Name: req.Name, Phone: req.Phone}
	if upd.Empty() {
		respondMessage(w, http.StatusBadRequest, "No fields to update")
		return
	}

	user, err := h.users.UpdateUserProfile(r.Context(), middleware.UserIDFromContext(r.Context()), upd)
	if errors.Is(err, database.ErrNotFound) {
		respondMessage(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		respondInternalError(w, r, "failed to update user", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"message":      "Profile updated successfully",
		"updated_user": newUserResponse(user, true),
	})
}
