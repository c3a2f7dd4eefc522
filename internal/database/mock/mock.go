// Package mock provides mock implementations of database interfaces for testing.
package mock

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Karshmistry/CrimAII/internal/database"
)

// MockStore is an in-memory implementation of database.Store
type MockStore struct {
	mu         sync.RWMutex
	cases      map[string]*database.Case // keyed by image filename
	detections []database.Detection
	users      map[string]*database.User // keyed by ID
	nextID     int
	closed     bool

	// Error injection
	GetCaseError         error
	ListCasesError       error
	InsertCaseError      error
	DeleteCaseError      error
	InsertDetectionError error
	ListDetectionsError  error
	DeleteDetectionError error
	CreateUserError      error
	GetUserError         error
	ListUsersError       error
	UpdateUserError      error
	DeleteUserError      error
	PingError            error

	// Call tracking
	GetCaseCalls []string
}

// NewMockStore creates a new empty mock store
func NewMockStore() *MockStore {
	return &MockStore{
		cases: make(map[string]*database.Case),
		users: make(map[string]*database.User),
	}
}

func (m *MockStore) newID() string {
	m.nextID++
	return fmt.Sprintf("mock-%d", m.nextID)
}

// AddCase adds a case to the mock store, assigning an ID if empty
func (m *MockStore) AddCase(c database.Case) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.ID == "" {
		c.ID = m.newID()
	}
	m.cases[c.ImageFilename] = &c
}

// AddUser adds a user to the mock store, assigning an ID if empty
func (m *MockStore) AddUser(u database.User) *database.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u.ID == "" {
		u.ID = m.newID()
	}
	m.users[u.ID] = &u
	cp := u
	return &cp
}

// Detections returns a copy of all stored detections in insertion order
func (m *MockStore) Detections() []database.Detection {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]database.Detection, len(m.detections))
	copy(out, m.detections)
	return out
}

// Closed reports whether Close was called
func (m *MockStore) Closed() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.closed
}

// GetCaseByFilename retrieves a case by gallery filename
func (m *MockStore) GetCaseByFilename(ctx context.Context, filename string) (*database.Case, error) {
	m.mu.Lock()
	m.GetCaseCalls = append(m.GetCaseCalls, filename)
	m.mu.Unlock()
	if m.GetCaseError != nil {
		return nil, m.GetCaseError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.cases[filename]
	if !ok {
		return nil, database.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

// ListCases returns all cases, newest first
func (m *MockStore) ListCases(ctx context.Context) ([]database.Case, error) {
	if m.ListCasesError != nil {
		return nil, m.ListCasesError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]database.Case, 0, len(m.cases))
	for _, c := range m.cases {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ImageFilename < out[j].ImageFilename
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// InsertCase stores a new case
func (m *MockStore) InsertCase(ctx context.Context, c *database.Case) error {
	if m.InsertCaseError != nil {
		return m.InsertCaseError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c.ID = m.newID()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	cp := *c
	m.cases[c.ImageFilename] = &cp
	return nil
}

// DeleteCaseByFilename removes a case
func (m *MockStore) DeleteCaseByFilename(ctx context.Context, filename string) error {
	if m.DeleteCaseError != nil {
		return m.DeleteCaseError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.cases[filename]; !ok {
		return database.ErrNotFound
	}
	delete(m.cases, filename)
	return nil
}

// InsertDetection appends a detection
func (m *MockStore) InsertDetection(ctx context.Context, d *database.Detection) error {
	if m.InsertDetectionError != nil {
		return m.InsertDetectionError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	d.ID = m.newID()
	m.detections = append(m.detections, *d)
	return nil
}

// ListDetections returns all detections, most recent first
func (m *MockStore) ListDetections(ctx context.Context) ([]database.Detection, error) {
	if m.ListDetectionsError != nil {
		return nil, m.ListDetectionsError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]database.Detection, len(m.detections))
	for i, d := range m.detections {
		out[len(out)-1-i] = d
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DetectedAt.After(out[j].DetectedAt)
	})
	return out, nil
}

// CountDetections returns the number of detections
func (m *MockStore) CountDetections(ctx context.Context) (int, error) {
	if m.ListDetectionsError != nil {
		return 0, m.ListDetectionsError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.detections), nil
}

// DeleteDetection removes a detection by ID
func (m *MockStore) DeleteDetection(ctx context.Context, id string) error {
	if m.DeleteDetectionError != nil {
		return m.DeleteDetectionError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, d := range m.detections {
		if d.ID == id {
			m.detections = append(m.detections[:i], m.detections[i+1:]...)
			return nil
		}
	}
	return database.ErrNotFound
}

// CreateUser stores a new user
func (m *MockStore) CreateUser(ctx context.Context, u *database.User) error {
	if m.CreateUserError != nil {
		return m.CreateUserError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return database.ErrDuplicateEmail
		}
	}
	u.ID = m.newID()
	if u.JoinDate.IsZero() {
		u.JoinDate = time.Now().UTC()
	}
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

// GetUserByEmail retrieves a user by email
func (m *MockStore) GetUserByEmail(ctx context.Context, email string) (*database.User, error) {
	if m.GetUserError != nil {
		return nil, m.GetUserError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, database.ErrNotFound
}

// GetUserByID retrieves a user by ID
func (m *MockStore) GetUserByID(ctx context.Context, id string) (*database.User, error) {
	if m.GetUserError != nil {
		return nil, m.GetUserError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

// ListUsers returns all users ordered by join date
func (m *MockStore) ListUsers(ctx context.Context) ([]database.User, error) {
	if m.ListUsersError != nil {
		return nil, m.ListUsersError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]database.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].JoinDate.Equal(out[j].JoinDate) {
			return out[i].Email < out[j].Email
		}
		return out[i].JoinDate.Before(out[j].JoinDate)
	})
	return out, nil
}

// UpdateUserProfile applies the non-nil fields of upd
func (m *MockStore) UpdateUserProfile(ctx context.Context, id string, upd database.ProfileUpdate) (*database.User, error) {
	if m.UpdateUserError != nil {
		return nil, m.UpdateUserError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	if upd.Name != nil {
		u.Name = *upd.Name
	}
	if upd.Phone != nil {
		u.Phone = *upd.Phone
	}
	cp := *u
	return &cp, nil
}

// SetUserRole changes a user's role
func (m *MockStore) SetUserRole(ctx context.Context, id, role string) error {
	if m.UpdateUserError != nil {
		return m.UpdateUserError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return database.ErrNotFound
	}
	u.Role = role
	return nil
}

// DeleteUser removes a user by ID
func (m *MockStore) DeleteUser(ctx context.Context, id string) error {
	if m.DeleteUserError != nil {
		return m.DeleteUserError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return database.ErrNotFound
	}
	delete(m.users, id)
	return nil
}

// Ping reports the injected ping error, if any
func (m *MockStore) Ping(ctx context.Context) error {
	return m.PingError
}

// Close marks the store closed
func (m *MockStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

var _ database.Store = (*MockStore)(nil)
