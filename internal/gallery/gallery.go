// Package gallery manages the directory of reference images that probes are matched against.
package gallery

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/Karshmistry/CrimAII/internal/config"
	"github.com/Karshmistry/CrimAII/internal/constants"
)

var (
	// ErrInvalidName is returned for names that are not a plain file in the gallery directory.
	ErrInvalidName = errors.New("invalid gallery filename")
	// ErrNotFound is returned when a gallery image does not exist.
	ErrNotFound = errors.New("gallery image not found")
)

// Store is a flat directory of reference images.
type Store struct {
	dir        string
	extensions map[string]struct{}
}

// New opens the gallery directory, creating it if needed.
func New(cfg config.GalleryConfig) (*Store, error) {
	if cfg.Dir == "" {
		return nil, errors.New("gallery directory is required")
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating gallery directory: %w", err)
	}

	exts := make(map[string]struct{}, len(cfg.Extensions))
	for _, e := range cfg.Extensions {
		exts[strings.ToLower(e)] = struct{}{}
	}
	return &Store{dir: cfg.Dir, extensions: exts}, nil
}

// Dir returns the gallery directory.
func (s *Store) Dir() string {
	return s.dir
}

// IsImage reports whether name has a recognised image extension.
func (s *Store) IsImage(name string) bool {
	_, ok := s.extensions[strings.ToLower(filepath.Ext(name))]
	return ok
}

// Candidates returns the filenames of all reference images, sorted lexicographically.
func (s *Store) Candidates() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("reading gallery: %w", err)
	}

	var names []string
	for _, e := range entries {
		if !e.Type().IsRegular() || !s.IsImage(e.Name()) {
			continue
		}
		names = append(names, e.Name())
	}
	slices.Sort(names)
	return names, nil
}

// Path joins a validated gallery filename onto the gallery directory.
func (s *Store) Path(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) {
		return "", ErrInvalidName
	}
	return filepath.Join(s.dir, name), nil
}

// Open opens a gallery image for reading.
func (s *Store) Open(name string) (*os.File, error) {
	p, err := s.Path(name)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("opening gallery image: %w", err)
	}
	return f, nil
}

// Save writes r under stem+ext. If the name is taken, _1, _2, ... is appended to
// the stem. Files are created exclusively so concurrent writers never overwrite
// each other. Returns the filename used.
func (s *Store) Save(stem, ext string, r io.Reader) (string, error) {
	for i := 0; i <= constants.MaxCollisionSuffix; i++ {
		name := stem + ext
		if i > 0 {
			name = stem + "_" + strconv.Itoa(i) + ext
		}
		p, err := s.Path(name)
		if err != nil {
			return "", err
		}

		f, err := os.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("creating gallery image: %w", err)
		}

		if _, err := io.Copy(f, r); err != nil {
			f.Close()
			os.Remove(p)
			return "", fmt.Errorf("writing gallery image: %w", err)
		}
		if err := f.Close(); err != nil {
			os.Remove(p)
			return "", fmt.Errorf("closing gallery image: %w", err)
		}
		return name, nil
	}
	return "", fmt.Errorf("no free filename for %s%s after %d attempts", stem, ext, constants.MaxCollisionSuffix)
}

// Remove deletes a gallery image.
func (s *Store) Remove(name string) error {
	p, err := s.Path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNotFound
		}
		return fmt.Errorf("removing gallery image: %w", err)
	}
	return nil
}
