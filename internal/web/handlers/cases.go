package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/Karshmistry/CrimAII/internal/cases"
	"github.com/Karshmistry/CrimAII/internal/constants"
	"github.com/Karshmistry/CrimAII/internal/database"
	"github.com/Karshmistry/CrimAII/internal/gallery"
	"github.com/go-chi/chi/v5"
)

const errNameAndImageRequired = "Name and image are required"

// CaseRegistry registers and lists cases.
type CaseRegistry interface {
	Register(ctx context.Context, in cases.Input, image io.Reader, originalFilename string) (*database.Case, error)
	List(ctx context.Context) ([]database.Case, error)
}

// CasesHandler handles case registration and reference image endpoints
type CasesHandler struct {
	registry CaseRegistry
	gallery  *gallery.Store
}

// NewCasesHandler creates a new cases handler
func NewCasesHandler(registry CaseRegistry, g *gallery.Store) *CasesHandler {
	return &CasesHandler{
		registry: registry,
		gallery:  g,
	}
}

// Add registers a case from a multipart form: metadata fields plus "image"
func (h *CasesHandler) Add(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, constants.MaxUploadSize+1<<20)
	if err := r.ParseMultipartForm(constants.MaxUploadSize); err != nil {
		respondError(w, http.StatusBadRequest, errNameAndImageRequired)
		return
	}
	defer r.MultipartForm.RemoveAll()

	in := cases.Input{
		Name:       r.FormValue("name"),
		Age:        r.FormValue("age"),
		FatherName: r.FormValue("father_name"),
		Gender:     r.FormValue("gender"),
		BloodGroup: r.FormValue("blood_group"),
		Address:    r.FormValue("address"),
		Crime:      r.FormValue("crime"),
		Details:    r.FormValue("details"),
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		respondError(w, http.StatusBadRequest, errNameAndImageRequired)
		return
	}
	defer file.Close()

	c, err := h.registry.Register(r.Context(), in, file, header.Filename)
	switch {
	case errors.Is(err, cases.ErrNameRequired), errors.Is(err, cases.ErrImageRequired):
		respondError(w, http.StatusBadRequest, errNameAndImageRequired)
		return
	case errors.Is(err, cases.ErrInvalidImage):
		respondError(w, http.StatusBadRequest, "Invalid image")
		return
	case err != nil:
		respondInternalError(w, r, "failed to register case", err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{
		"message": fmt.Sprintf("Criminal %s added successfully!", c.Name),
		"case":    c,
	})
}

// List returns all registered cases, newest first
func (h *CasesHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.registry.List(r.Context())
	if err != nil {
		respondInternalError(w, r, "failed to list cases", err)
		return
	}
	if list == nil {
		list = []database.Case{}
	}
	respondJSON(w, http.StatusOK, list)
}

// Image serves a reference image from the gallery
func (h *CasesHandler) Image(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "filename")
	if !h.gallery.IsImage(name) {
		respondError(w, http.StatusNotFound, "Image not found")
		return
	}

	f, err := h.gallery.Open(name)
	if errors.Is(err, gallery.ErrInvalidName) || errors.Is(err, gallery.ErrNotFound) {
		respondError(w, http.StatusNotFound, "Image not found")
		return
	}
	if err != nil {
		respondInternalError(w, r, "failed to open image", err)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		respondInternalError(w, r, "failed to stat image", err)
		return
	}
	w.Header().Set("Cache-Control", "private, max-age=3600")
	http.ServeContent(w, r, name, info.ModTime(), f)
}
