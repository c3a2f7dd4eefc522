// Package cases registers reference entries: one gallery image plus its case record.
package cases

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/Karshmistry/CrimAII/internal/constants"
	"github.com/Karshmistry/CrimAII/internal/database"
	"github.com/Karshmistry/CrimAII/internal/gallery"
	"github.com/Karshmistry/CrimAII/internal/imageutil"
	"github.com/Karshmistry/CrimAII/internal/metrics"
)

var (
	// ErrNameRequired is returned when a case has a blank name.
	ErrNameRequired  = errors.New("name is required")
	// ErrImageRequired is returned when no image or an empty one is supplied.
	ErrImageRequired = errors.New("image is required")
	// ErrInvalidImage is returned when the uploaded bytes are not a supported image.
	ErrInvalidImage  = imageutil.ErrInvalidImage
)

// Input holds the descriptive fields of a new case.
type Input struct {
	Name       string `yaml:"name"`
	Age        string `yaml:"age"`
	FatherName string `yaml:"father_name"`
	Gender     string `yaml:"gender"`
	BloodGroup string `yaml:"blood_group"`
	Address    string `yaml:"address"`
	Crime      string `yaml:"crime"`
	Details    string `yaml:"details"`
}

// Service stores case images in the gallery and their records in the store.
type Service struct {
	gallery *gallery.Store
	store   database.CaseWriter
	metrics *metrics.Metrics
	logger  *slog.Logger
	now     func() time.Time
}

// NewService creates a registration service.
func NewService(g *gallery.Store, s database.CaseWriter, m *metrics.Metrics, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{gallery: g, store: s, metrics: m, logger: logger, now: time.Now}
}

// Register writes the image under a collision-free name derived from the
// case name and registration time, then inserts the case record. The image is
// removed again if the record cannot be stored.
func (s *Service) Register(ctx context.Context, in Input, image io.Reader, originalFilename string) (*database.Case, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, ErrNameRequired
	}
	if image == nil {
		return nil, ErrImageRequired
	}

	data, err := io.ReadAll(io.LimitReader(image, constants.MaxUploadSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading image: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrImageRequired
	}
	if len(data) > constants.MaxUploadSize {
		return nil, fmt.Errorf("%w: larger than %d bytes", ErrInvalidImage, constants.MaxUploadSize)
	}
	format, err := imageutil.Validate(data)
	if err != nil {
		return nil, err
	}
	data, ext, err := s.galleryImage(data, format, originalFilename)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	filename, err := s.gallery.Save(gallery.Stem(in.Name, now), ext, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("storing image: %w", err)
	}

	c := &database.Case{
		Name:          in.Name,
		Age:           in.Age,
		FatherName:    in.FatherName,
		Gender:        in.Gender,
		BloodGroup:    in.BloodGroup,
		Address:       in.Address,
		Crime:         in.Crime,
		Details:       in.Details,
		ImageFilename: filename,
		ImagePath:     constants.FacesURLPrefix + filename,
		CreatedAt:     now,
	}
	if err := s.store.InsertCase(ctx, c); err != nil {
		if rmErr := s.gallery.Remove(filename); rmErr != nil {
			s.logger.Error("failed to remove image after insert failure", "file", filename, "error", rmErr)
		}
		return nil, fmt.Errorf("storing case record: %w", err)
	}

	s.metrics.CaseRegistered()
	s.logger.Info("case registered", "name", c.Name, "file", filename)
	return c, nil
}

// galleryImage picks a gallery extension matching the decoded format. The
// uploaded filename only chooses between spellings of that format. Formats the
// gallery does not scan are re-encoded as JPEG.
func (s *Service) galleryImage(data []byte, format, originalFilename string) ([]byte, string, error) {
	exts := imageutil.Extensions(format)
	if ext := gallery.Extension(originalFilename); slices.Contains(exts, ext) && s.gallery.IsImage(ext) {
		return data, ext, nil
	}
	for _, ext := range exts {
		if s.gallery.IsImage(ext) {
			return data, ext, nil
		}
	}

	if !s.gallery.IsImage(constants.DefaultImageExtension) {
		return nil, "", fmt.Errorf("%w: gallery does not accept %s images", ErrInvalidImage, format)
	}
	jpg, err := imageutil.ResizeImage(data, 0)
	if err != nil {
		return nil, "", err
	}
	return jpg, constants.DefaultImageExtension, nil
}

// Delete removes a case record and its gallery image. A missing image is not an error.
func (s *Service) Delete(ctx context.Context, filename string) error {
	if _, err := s.gallery.Path(filename); err != nil {
		return database.ErrNotFound
	}
	if err := s.store.DeleteCaseByFilename(ctx, filename); err != nil {
		return err
	}
	if err := s.gallery.Remove(filename); err != nil && !errors.Is(err, gallery.ErrNotFound) {
		return fmt.Errorf("removing image: %w", err)
	}
	s.logger.Info("case deleted", "file", filename)
	return nil
}

// List returns all cases, newest first.
func (s *Service) List(ctx context.Context) ([]database.Case, error) {
	return s.store.ListCases(ctx)
}
