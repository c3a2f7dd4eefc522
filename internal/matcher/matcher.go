// Package matcher scans the reference gallery for the first image the
// verification oracle accepts as the same person as a probe, and records a
// detection for it.
package matcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/Karshmistry/CrimAII/internal/constants"
	"github.com/Karshmistry/CrimAII/internal/database"
	"github.com/Karshmistry/CrimAII/internal/metrics"
	"github.com/Karshmistry/CrimAII/internal/notify"
	"github.com/Karshmistry/CrimAII/internal/oracle"
)

// ErrProbeMissing is returned when the probe image does not exist or cannot be read.
var ErrProbeMissing = errors.New("probe image missing or unreadable")

// Gallery lists reference images and resolves their paths.
type Gallery interface {
	Candidates() ([]string, error)
	Path(name string) (string, error)
}

// Store is the part of the record store the matcher writes through.
type Store interface {
	GetCaseByFilename(ctx context.Context, filename string) (*database.Case, error)
	InsertDetection(ctx context.Context, d *database.Detection) error
}

// Result describes the outcome of one scan.
type Result struct {
	Matched     bool
	CandidateID string              // gallery filename of the match
	Case        *database.Case      // nil for a match without a case record
	Detection   *database.Detection // nil unless a detection was recorded
	Verdict     oracle.Verdict
}

// ProgressFunc is called after each candidate with the number compared so far and the total.
type ProgressFunc func(done, total int)

// Matcher runs gallery scans. It is safe for concurrent use.
type Matcher struct {
	gallery  Gallery
	oracle   oracle.Oracle
	store    Store
	notifier notify.Notifier
	metrics  *metrics.Metrics
	logger   *slog.Logger
	now      func() time.Time
}

// Option configures a Matcher.
type Option func(*Matcher)

// WithNotifier sends every recorded detection to n.
func WithNotifier(n notify.Notifier) Option {
	return func(m *Matcher) { m.notifier = n }
}

// WithMetrics records scan metrics.
func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Matcher) { m.metrics = mt }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Matcher) { m.logger = l }
}

// WithClock overrides the detection timestamp source.
func WithClock(now func() time.Time) Option {
	return func(m *Matcher) { m.now = now }
}

// New creates a matcher.
func New(g Gallery, o oracle.Oracle, s Store, opts ...Option) *Matcher {
	m := &Matcher{
		gallery: g,
		oracle:  o,
		store:   s,
		logger:  slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Match compares the probe against every gallery image in lexicographic order
// and stops at the first verified one. source tags the recorded detection and
// defaults to "image".
func (m *Matcher) Match(ctx context.Context, probePath, source string) (*Result, error) {
	return m.MatchWithProgress(ctx, probePath, source, nil)
}

// MatchWithProgress is Match with a per-candidate progress callback.
func (m *Matcher) MatchWithProgress(ctx context.Context, probePath, source string, progress ProgressFunc) (*Result, error) {
	start := time.Now()
	res, err := m.scan(ctx, probePath, source, progress)

	outcome := metrics.OutcomeNoMatch
	switch {
	case err != nil:
		outcome = metrics.OutcomeError
	case res.Matched:
		outcome = metrics.OutcomeMatch
	}
	m.metrics.ObserveScan(outcome, time.Since(start))
	return res, err
}

func (m *Matcher) scan(ctx context.Context, probePath, source string, progress ProgressFunc) (*Result, error) {
	if err := checkProbe(probePath); err != nil {
		return nil, err
	}
	if source == "" {
		source = constants.DefaultDetectionSource
	}

	candidates, err := m.gallery.Candidates()
	if err != nil {
		return nil, fmt.Errorf("listing gallery: %w", err)
	}

	for i, name := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("scan interrupted after %d of %d candidates: %w", i, len(candidates), err)
		}

		path, err := m.gallery.Path(name)
		if err != nil {
			return nil, fmt.Errorf("resolving candidate %s: %w", name, err)
		}

		m.metrics.CandidateCompared()
		verdict, err := m.oracle.Verify(ctx, probePath, path)
		if progress != nil {
			progress(i+1, len(candidates))
		}
		if err != nil {
			if errors.Is(err, oracle.ErrCandidate) {
				m.metrics.CandidateFault()
				m.logger.Debug("skipping candidate", "candidate", name, "error", err)
				continue
			}
			return nil, fmt.Errorf("comparing with %s: %w", name, err)
		}
		if !verdict.Verified {
			continue
		}

		return m.record(ctx, name, verdict, source)
	}

	return &Result{}, nil
}

// record looks up the case for a matched candidate and stores the detection.
func (m *Matcher) record(ctx context.Context, name string, verdict oracle.Verdict, source string) (*Result, error) {
	res := &Result{Matched: true, CandidateID: name, Verdict: verdict}

	c, err := m.store.GetCaseByFilename(ctx, name)
	if errors.Is(err, database.ErrNotFound) {
		m.logger.Warn("matched gallery image has no case record", "candidate", name)
		return res, nil
	}
	if err != nil {
		return nil, fmt.Errorf("looking up case for %s: %w", name, err)
	}
	res.Case = c

	det := &database.Detection{
		CriminalName:    c.Name,
		CriminalDetails: c.Snapshot(),
		DetectedAt:      m.now().UTC(),
		Source:          source,
		Status:          constants.DetectionStatus,
	}
	if err := m.store.InsertDetection(ctx, det); err != nil {
		return nil, fmt.Errorf("recording detection for %s: %w", name, err)
	}
	res.Detection = det
	m.metrics.DetectionRecorded(source)
	m.logger.Info("detection recorded",
		"candidate", name, "name", c.Name, "source", source, "distance", verdict.Distance)

	if m.notifier != nil {
		if err := m.notifier.Notify(ctx, det); err != nil {
			m.logger.Warn("detection notification failed", "detection", det.ID, "error", err)
		}
	}
	return res, nil
}

func checkProbe(path string) error {
	if path == "" {
		return ErrProbeMissing
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrProbeMissing, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || info.IsDir() || info.Size() == 0 {
		return ErrProbeMissing
	}
	return nil
}
