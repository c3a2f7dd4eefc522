package database

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/Karshmistry/CrimAII/internal/config"
)

// Opener connects to a backend described by cfg and returns a ready Store.
type Opener func(ctx context.Context, cfg *config.DatabaseConfig) (Store, error)

var (
	backendsMu sync.RWMutex
	backends   = make(map[string]Opener)
)

// RegisterBackend registers an Opener for a DATABASE_URL scheme.
// Backend packages call this from init to avoid import cycles.
func RegisterBackend(scheme string, opener Opener) {
	backendsMu.Lock()
	defer backendsMu.Unlock()
	if opener == nil {
		panic("database: RegisterBackend opener is nil")
	}
	if _, dup := backends[scheme]; dup {
		panic("database: RegisterBackend called twice for scheme " + scheme)
	}
	backends[scheme] = opener
}

// Schemes returns the registered URL schemes, sorted.
func Schemes() []string {
	backendsMu.RLock()
	defer backendsMu.RUnlock()
	out := make([]string, 0, len(backends))
	for s := range backends {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Scheme extracts the backend scheme from a database URL ("postgres://..." -> "postgres").
// Plain "file:" DSNs select the sqlite backend.
func Scheme(url string) string {
	if strings.HasPrefix(url, "file:") {
		return "sqlite"
	}
	scheme, _, ok := strings.Cut(url, "://")
	if !ok {
		return ""
	}
	scheme = strings.ToLower(scheme)
	switch scheme {
	case "postgresql":
		return "postgres"
	case "mariadb":
		return "mysql"
	case "mongodb+srv":
		return "mongodb"
	}
	return scheme
}

// Open connects to the backend selected by the scheme of cfg.URL.
func Open(ctx context.Context, cfg *config.DatabaseConfig) (Store, error) {
	if cfg == nil || cfg.URL == "" {
		return nil, errors.New("DATABASE_URL environment variable is required")
	}
	scheme := Scheme(cfg.URL)

	backendsMu.RLock()
	opener, ok := backends[scheme]
	backendsMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unsupported database scheme %q (registered: %s)", scheme, strings.Join(Schemes(), ", "))
	}

	store, err := opener(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("opening %s backend: %w", scheme, err)
	}
	return store, nil
}
