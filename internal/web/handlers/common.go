package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Karshmistry/CrimAII/internal/constants"
	"github.com/Karshmistry/CrimAII/internal/database"
	"github.com/getsentry/sentry-go"
)

// errInvalidRequestBody is a shared error message for invalid JSON request bodies.
const errInvalidRequestBody = "invalid request body"

// sanitizeForLog removes newlines and carriage returns to prevent log injection.
func sanitizeForLog(s string) string {
	return strings.NewReplacer("\n", "", "\r", "").Replace(s)
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondMessage sends a {"message": ...} response, the shape the account endpoints use.
func respondMessage(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"message": message})
}

// captureError reports a server-side failure. Replaced in tests.
var captureError = func(r *http.Request, err error) {
	hub := sentry.GetHubFromContext(r.Context())
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	hub.CaptureException(err)
}

// respondInternalError logs err, reports it and sends a 500 with a generic message.
func respondInternalError(w http.ResponseWriter, r *http.Request, message string, err error) {
	slog.Error(message, "path", sanitizeForLog(r.URL.Path), "error", err)
	captureError(r, err)
	respondError(w, http.StatusInternalServerError, message)
}

// formatTime renders timestamps the way API clients display them.
func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(constants.DisplayTimeLayout)
}

// userResponse is a user without the password hash.
type userResponse struct {
	ID       string `json:"_id,omitempty"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Role     string `json:"role"`
	JoinDate string `json:"joinDate"`
}

func newUserResponse(u *database.User, withID bool) userResponse {
	resp := userResponse{
		Name:     u.Name,
		Email:    u.Email,
		Phone:    u.Phone,
		Role:     u.Role,
		JoinDate: formatTime(u.JoinDate),
	}
	if withID {
		resp.ID = u.ID
	}
	return resp
}

// detectionResponse is a detection with a display timestamp.
type detectionResponse struct {
	ID              string        `json:"_id,omitempty"`
	CriminalName    string        `json:"criminal_name"`
	CriminalDetails database.Case `json:"criminal_details"`
	DetectedAt      string        `json:"detected_at"`
	Source          string        `json:"source"`
	Status          string        `json:"status"`
}

func newDetectionResponses(dets []database.Detection, withID bool) []detectionResponse {
	out := make([]detectionResponse, 0, len(dets))
	for _, d := range dets {
		resp := detectionResponse{
			CriminalName:    d.CriminalName,
			CriminalDetails: d.CriminalDetails,
			DetectedAt:      formatTime(d.DetectedAt),
			Source:          d.Source,
			Status:          d.Status,
		}
		if withID {
			resp.ID = d.ID
		}
		out = append(out, resp)
	}
	return out
}

// Pinger checks backend reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves the liveness endpoints.
type HealthHandler struct {
	store Pinger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(store Pinger) *HealthHandler {
	return &HealthHandler{store: store}
}

// Index handles the root endpoint.
func (h *HealthHandler) Index(w http.ResponseWriter, r *http.Request) {
	respondMessage(w, http.StatusOK, "CrimAI Backend Running Successfully")
}

// Health reports whether the record store is reachable.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		slog.Warn("health check failed", "error", err)
		respondJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status":   "unavailable",
			"database": "unreachable",
		})
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"status":   "ok",
		"database": "ok",
	})
}
