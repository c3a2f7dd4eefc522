package database

import (
	"errors"
	"time"

	"github.com/Karshmistry/CrimAII/internal/constants"
)

var (
	// ErrNotFound is returned when a record does not exist or its id is malformed.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateEmail is returned when creating a user whose email is already registered.
	ErrDuplicateEmail = errors.New("email already registered")
)

// Case is a registered reference entry: one gallery image plus its case record.
// ImageFilename is the identity within the gallery.
type Case struct {
	ID            string    `json:"id,omitempty"`
	Name          string    `json:"name"`
	Age           string    `json:"age"`
	FatherName    string    `json:"father_name"`
	Gender        string    `json:"gender"`
	BloodGroup    string    `json:"blood_group"`
	Address       string    `json:"address"`
	Crime         string    `json:"crime"`
	Details       string    `json:"details"`
	ImageFilename string    `json:"image_filename"`
	ImagePath     string    `json:"image_path"`
	CreatedAt     time.Time `json:"created_at"`
}

// Snapshot returns a copy of the case without its store identity.
// Detections embed the snapshot so later edits or deletes of the case do not alter them.
func (c *Case) Snapshot() Case {
	s := *c
	s.ID = ""
	return s
}

// Detection is a persisted record of one successful gallery match.
type Detection struct {
	ID              string    `json:"id,omitempty"`
	CriminalName    string    `json:"criminal_name"`
	CriminalDetails Case      `json:"criminal_details"`
	DetectedAt      time.Time `json:"detected_at"`
	Source          string    `json:"source"`
	Status          string    `json:"status"`
}

// User is an account allowed to use the service.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Phone        string    `json:"phone"`
	Role         string    `json:"role"`
	JoinDate     time.Time `json:"joinDate"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == constants.RoleAdmin
}

// ProfileUpdate holds the user-editable profile fields. Nil fields are left unchanged.
type ProfileUpdate struct {
	Name  *string
	Phone *string
}

// Empty reports whether the update changes nothing.
func (p ProfileUpdate) Empty() bool {
	return p.Name == nil && p.Phone == nil
}
