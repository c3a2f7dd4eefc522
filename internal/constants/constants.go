// Package constants provides shared constants used across the codebase.
// Centralizing these values ensures consistency and makes them easier to modify.
package constants

// Detection constants
const (
	// DetectionStatus is the status written on every recorded detection
	DetectionStatus = "Detected"

	// DefaultDetectionSource tags detections created from an uploaded image
	DefaultDetectionSource = "image"

	// FacesURLPrefix is the public path prefix reference images are served under
	FacesURLPrefix = "/faces_db/"
)

// Registration constants
const (
	// DefaultImageExtension is used for uploads without an extension and for
	// case images re-encoded as JPEG
	DefaultImageExtension = ".jpg"

	// FilenameTimeLayout is the UTC timestamp suffix appended to stored case images
	FilenameTimeLayout = "20060102150405"

	// MaxCollisionSuffix bounds the _N suffixes tried when a stored filename is taken
	MaxCollisionSuffix = 1000
)

// Display constants
const (
	// DisplayTimeLayout formats timestamps in API responses
	DisplayTimeLayout = "2006-01-02 15:04:05"
)

// Role constants
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// File upload constants
const (
	// MaxUploadSize is the maximum multipart upload size in bytes (32MB)
	MaxUploadSize = 32 << 20

	// JPEGQuality is used when re-encoding downscaled probes
	JPEGQuality = 90
)
