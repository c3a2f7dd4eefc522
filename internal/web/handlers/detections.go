package handlers

import (
	"net/http"

	"github.com/Karshmistry/CrimAII/internal/database"
)

// DetectionsHandler serves the public detection log
type DetectionsHandler struct {
	detections database.DetectionReader
}

// NewDetectionsHandler creates a new detections handler
func NewDetectionsHandler(detections database.DetectionReader) *DetectionsHandler {
	return &DetectionsHandler{detections: detections}
}

// List returns detections, most recent first, without store ids
func (h *DetectionsHandler) List(w http.ResponseWriter, r *http.Request) {
	dets, err := h.detections.ListDetections(r.Context())
	if err != nil {
		respondInternalError(w, r, "failed to list detections", err)
		return
	}
	respondJSON(w, http.StatusOK, newDetectionResponses(dets, false))
}
