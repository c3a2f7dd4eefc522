package database

import (
	"context"
)

// CaseReader provides read-only access to registered cases
type CaseReader interface {
	// GetCaseByFilename retrieves the case whose gallery image has the given filename
	GetCaseByFilename(ctx context.Context, filename string) (*Case, error)
	// ListCases returns all cases, newest first
	ListCases(ctx context.Context) ([]Case, error)
}

// CaseWriter provides write access to registered cases
type CaseWriter interface {
	CaseReader

	// InsertCase stores a new case and sets its ID
	InsertCase(ctx context.Context, c *Case) error
	// DeleteCaseByFilename removes the case for a gallery image
	DeleteCaseByFilename(ctx context.Context, filename string) error
}

// DetectionReader provides read-only access to detection events
type DetectionReader interface {
	// ListDetections returns all detections, most recent first
	ListDetections(ctx context.Context) ([]Detection, error)
	// CountDetections returns the number of stored detections
	CountDetections(ctx context.Context) (int, error)
}

// DetectionWriter provides write access to detection events.
// Detections are immutable once inserted.
type DetectionWriter interface {
	DetectionReader

	// InsertDetection appends a detection and sets its ID
	InsertDetection(ctx context.Context, d *Detection) error
	// DeleteDetection removes a detection by ID
	DeleteDetection(ctx context.Context, id string) error
}

// UserStore provides access to user accounts
type UserStore interface {
	// CreateUser stores a new user and sets its ID. Returns ErrDuplicateEmail if taken.
	CreateUser(ctx context.Context, u *User) error
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	GetUserByID(ctx context.Context, id string) (*User, error)
	// ListUsers returns all users ordered by join date
	ListUsers(ctx context.Context) ([]User, error)
	// UpdateUserProfile applies the non-nil fields of upd and returns the updated user
	UpdateUserProfile(ctx context.Context, id string, upd ProfileUpdate) (*User, error)
	SetUserRole(ctx context.Context, id, role string) error
	DeleteUser(ctx context.Context, id string) error
}

// Store is the full record store used by the service
type Store interface {
	CaseWriter
	DetectionWriter
	UserStore

	// Ping checks that the backend is reachable
	Ping(ctx context.Context) error
	// Close releases the backend connection
	Close() error
}
