package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/Karshmistry/CrimAII/internal/constants"
	"github.com/Karshmistry/CrimAII/internal/database"
	"github.com/Karshmistry/CrimAII/internal/imageutil"
	"github.com/Karshmistry/CrimAII/internal/matcher"
	"golang.org/x/sync/semaphore"
)

const errNoImageProvided = "No image provided"

// Matcher scans the gallery for a probe image.
type Matcher interface {
	Match(ctx context.Context, probePath, source string) (*matcher.Result, error)
}

// RecognizeHandler matches uploaded probe images against the gallery
type RecognizeHandler struct {
	matcher      Matcher
	scans        *semaphore.Weighted
	maxProbeSize int
	tempDir      string
}

// NewRecognizeHandler creates a new recognize handler. At most maxScans scans
// run at once (unbounded when <= 0). Probes larger than maxProbeSize on either
// side are downscaled. tempDir "" uses the OS default.
func NewRecognizeHandler(m Matcher, maxScans, maxProbeSize int, tempDir string) *RecognizeHandler {
	h := &RecognizeHandler{
		matcher:      m,
		maxProbeSize: maxProbeSize,
		tempDir:      tempDir,
	}
	if maxScans > 0 {
		h.scans = semaphore.NewWeighted(int64(maxScans))
	}
	return h
}

// RecognizeResponse is the outcome of a recognition request
type RecognizeResponse struct {
	Match           bool           `json:"match"`
	MatchedFilename string         `json:"matched_filename,omitempty"`
	ImageURL        string         `json:"image_url,omitempty"`
	Message         string         `json:"message"`
	CriminalDetails *database.Case `json:"criminal_details,omitempty"`
}

// writeProbe normalises the upload and writes it to a temp file the caller must remove.
func (h *RecognizeHandler) writeProbe(r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, constants.MaxUploadSize+1))
	if err != nil {
		return "", fmt.Errorf("reading probe: %w", err)
	}
	if len(data) > constants.MaxUploadSize {
		return "", fmt.Errorf("%w: larger than %d bytes", imageutil.ErrInvalidImage, constants.MaxUploadSize)
	}
	data, err = imageutil.ResizeImage(data, h.maxProbeSize)
	if err != nil {
		return "", err
	}

	f, err := os.CreateTemp(h.tempDir, "probe-*.jpg")
	if err != nil {
		return "", fmt.Errorf("creating probe file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("writing probe file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("closing probe file: %w", err)
	}
	return f.Name(), nil
}

// Recognize handles a multipart "image" upload with an optional "source" tag
func (h *RecognizeHandler) Recognize(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, constants.MaxUploadSize+1<<20)
	if err := r.ParseMultipartForm(constants.MaxUploadSize); err != nil {
		respondError(w, http.StatusBadRequest, errNoImageProvided)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, _, err := r.FormFile("image")
	if err != nil {
		respondError(w, http.StatusBadRequest, errNoImageProvided)
		return
	}
	defer file.Close()

	source := r.FormValue("source")
	if source == "" {
		source = constants.DefaultDetectionSource
	}

	probePath, err := h.writeProbe(file)
	if errors.Is(err, imageutil.ErrInvalidImage) {
		respondError(w, http.StatusBadRequest, "Invalid image")
		return
	}
	if err != nil {
		respondInternalError(w, r, "failed to store probe image", err)
		return
	}
	defer os.Remove(probePath)

	if h.scans != nil {
		// Waits for a free slot until the request is cancelled or times out.
		if err := h.scans.Acquire(r.Context(), 1); err != nil {
			respondError(w, http.StatusServiceUnavailable, "Server busy, try again later")
			return
		}
		defer h.scans.Release(1)
	}

	res, err := h.matcher.Match(r.Context(), probePath, source)
	if err != nil {
		respondInternalError(w, r, "recognition failed", err)
		return
	}

	if !res.Matched {
		respondJSON(w, http.StatusOK, RecognizeResponse{Match: false, Message: "No match found"})
		return
	}

	resp := RecognizeResponse{
		Match:           true,
		MatchedFilename: res.CandidateID,
		ImageURL:        constants.FacesURLPrefix + res.CandidateID,
		Message:         "Criminal Found: Unknown",
	}
	if res.Case != nil {
		snap := res.Case.Snapshot()
		resp.CriminalDetails = &snap
		resp.Message = "Criminal Found: " + res.Case.Name
	}
	respondJSON(w, http.StatusOK, resp)
}
