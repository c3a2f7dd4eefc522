//go:build goface

package oracle

import (
	"context"
	"fmt"
	"math"
	"os"
	"strconv"
	"sync"
	"time"

	face "github.com/Kagami/go-face"
	"github.com/Karshmistry/CrimAII/internal/config"
	"github.com/Karshmistry/CrimAII/internal/imageutil"
	"github.com/patrickmn/go-cache"
)

const (
	descriptorTTL     = 30 * time.Minute
	descriptorCleanup = 10 * time.Minute
)

func init() {
	Register("goface", func(cfg *config.OracleConfig) (Oracle, error) {
		return NewGoFace(cfg)
	})
}

// GoFace compares 128-d dlib face descriptors in process.
type GoFace struct {
	mu        sync.Mutex // the dlib recognizer is not safe for concurrent use
	rec       *face.Recognizer
	threshold float64
	cache     *cache.Cache
}

type descriptorEntry struct {
	found bool
	desc  face.Descriptor
}

// NewGoFace loads the dlib models from cfg.GoFaceModelsDir.
func NewGoFace(cfg *config.OracleConfig) (*GoFace, error) {
	rec, err := face.NewRecognizer(cfg.GoFaceModelsDir)
	if err != nil {
		return nil, fmt.Errorf("loading face models from %s: %w", cfg.GoFaceModelsDir, err)
	}
	threshold := cfg.GoFaceThreshold
	if threshold <= 0 {
		threshold = 0.6
	}
	return &GoFace{
		rec:       rec,
		threshold: threshold,
		cache:     cache.New(descriptorTTL, descriptorCleanup),
	}, nil
}

// Name returns the oracle name.
func (g *GoFace) Name() string {
	return "goface"
}

// Close releases the recognizer.
func (g *GoFace) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.rec.Close()
	return nil
}

// descriptor returns the face descriptor of the image at path, cached by path, size and mtime.
func (g *GoFace) descriptor(path string) (descriptorEntry, error) {
	info, err := os.Stat(path)
	if err != nil {
		return descriptorEntry{}, err
	}
	key := path + "|" + strconv.FormatInt(info.Size(), 10) + "|" + strconv.FormatInt(info.ModTime().UnixNano(), 10)
	if v, ok := g.cache.Get(key); ok {
		return v.(descriptorEntry), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return descriptorEntry{}, err
	}
	// dlib decodes JPEG only.
	jpegData, err := imageutil.ResizeImage(data, 0)
	if err != nil {
		return descriptorEntry{}, err
	}

	g.mu.Lock()
	f, err := g.rec.RecognizeSingle(jpegData)
	g.mu.Unlock()
	if err != nil {
		return descriptorEntry{}, fmt.Errorf("recognizing %s: %w", path, err)
	}

	entry := descriptorEntry{}
	if f != nil {
		entry = descriptorEntry{found: true, desc: f.Descriptor}
	}
	g.cache.SetDefault(key, entry)
	return entry, nil
}

// Verify reports a match when the euclidean descriptor distance is within the threshold.
func (g *GoFace) Verify(ctx context.Context, probePath, candidatePath string) (Verdict, error) {
	if err := ctx.Err(); err != nil {
		return Verdict{}, err
	}

	probe, err := g.descriptor(probePath)
	if err != nil {
		return Verdict{}, fmt.Errorf("reading probe: %w", err)
	}
	if !probe.found {
		return Verdict{}, candidateFault("no face found in probe")
	}

	cand, err := g.descriptor(candidatePath)
	if err != nil {
		return Verdict{}, candidateFault("%s: %v", candidatePath, err)
	}
	if !cand.found {
		return Verdict{}, candidateFault("no face found in %s", candidatePath)
	}

	dist := euclidean(probe.desc, cand.desc)
	return Verdict{
		Verified:  dist <= g.threshold,
		Distance:  dist,
		Threshold: g.threshold,
		Model:     "dlib_face_recognition_resnet_model_v1",
	}, nil
}

func euclidean(a, b face.Descriptor) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}
