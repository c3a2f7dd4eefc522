// Package oracle compares a probe image against a reference image and decides
// whether both show the same person.
package oracle

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/Karshmistry/CrimAII/internal/config"
)

// ErrCandidate marks a failure that only concerns one comparison (unreadable
// reference image, no face found, per-image rejection). Callers skip the
// candidate and continue. Any other error is a global fault.
var ErrCandidate = errors.New("candidate comparison failed")

// Verdict is the outcome of one comparison.
type Verdict struct {
	Verified  bool    `json:"verified"`
	Distance  float64 `json:"distance"`
	Threshold float64 `json:"threshold"`
	Model     string  `json:"model"`
}

// Oracle decides whether two images show the same person.
type Oracle interface {
	Verify(ctx context.Context, probePath, candidatePath string) (Verdict, error)
	Name() string
}

// candidateFault wraps err so that errors.Is(err, ErrCandidate) holds.
func candidateFault(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrCandidate, fmt.Sprintf(format, args...))
}

// Factory builds an oracle from configuration.
type Factory func(cfg *config.OracleConfig) (Oracle, error)

var (
	factoriesMu sync.RWMutex
	factories   = make(map[string]Factory)
)

// Register makes an oracle kind available to New.
func Register(kind string, f Factory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	factories[kind] = f
}

// Kinds returns the registered oracle kinds, sorted.
func Kinds() []string {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()
	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// New builds the oracle selected by cfg.Kind.
func New(cfg *config.OracleConfig) (Oracle, error) {
	factoriesMu.RLock()
	f, ok := factories[cfg.Kind]
	factoriesMu.RUnlock()
	if !ok {
		if cfg.Kind == "goface" {
			return nil, errors.New("oracle kind \"goface\" requires a build with -tags goface")
		}
		return nil, fmt.Errorf("unknown oracle kind %q (available: %s)", cfg.Kind, strings.Join(Kinds(), ", "))
	}
	return f(cfg)
}
