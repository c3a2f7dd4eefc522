// Package imageutil validates uploaded images and normalises probes before matching.
package imageutil

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"

	"github.com/Karshmistry/CrimAII/internal/constants"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// ErrInvalidImage is returned when data does not decode as a supported image.
var ErrInvalidImage = errors.New("not a supported image")

// Validate checks that data is a decodable image and returns its format name.
func Validate(data []byte) (string, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if cfg.Width == 0 || cfg.Height == 0 {
		return "", fmt.Errorf("%w: empty image", ErrInvalidImage)
	}
	return format, nil
}

// formatExtensions maps decoder format names to filename extensions, preferred first.
var formatExtensions = map[string][]string{
	"jpeg": {".jpg", ".jpeg"},
	"png":  {".png"},
	"webp": {".webp"},
	"bmp":  {".bmp"},
}

// Extensions returns the filename extensions for a format reported by Validate.
func Extensions(format string) []string {
	return formatExtensions[format]
}

// ResizeImage re-encodes data as JPEG, scaled to fit within maxSize (width or height)
// while keeping aspect ratio. A maxSize of zero or less disables scaling.
func ResizeImage(data []byte, maxSize int) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	if maxSize <= 0 || (width <= maxSize && height <= maxSize) {
		return encodeJPEG(img)
	}

	var newWidth, newHeight int
	if width > height {
		newWidth = maxSize
		newHeight = max(1, int(float64(height)*float64(maxSize)/float64(width)))
	} else {
		newHeight = maxSize
		newWidth = max(1, int(float64(width)*float64(maxSize)/float64(height)))
	}

	resized := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
	draw.CatmullRom.Scale(resized, resized.Bounds(), img, bounds, draw.Over, nil)

	return encodeJPEG(resized)
}

func encodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: constants.JPEGQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}
