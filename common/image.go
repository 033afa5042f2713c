// package common contains plain helper types and functions shared between the
// hud packages and host applications. They are not interface-wrapped structs,
// just commonly used data plumbing.
package common

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"os"
)

// DecodeRGBA decodes raw image bytes (PNG or JPEG) into an *image.RGBA with
// its origin normalized to (0,0), the pixel format every sprite registration
// call expects.
// Reference: https://pkg.go.dev/image
//
// Parameters:
//   - data: raw encoded image bytes
//
// Returns:
//   - *image.RGBA: decoded pixel data, 4 bytes per pixel, row-major order
//   - error: error if decoding fails
func DecodeRGBA(data []byte) (*image.RGBA, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("image data is empty")
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return toRGBA(img), nil
}

// DecodeRGBAFile decodes an image file on disk into an *image.RGBA.
//
// Parameters:
//   - path: file path of a PNG or JPEG image
//
// Returns:
//   - *image.RGBA: decoded pixel data
//   - error: error if the file cannot be opened or decoded
func DecodeRGBAFile(path string) (*image.RGBA, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image file %s: %w", path, err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image file %s: %w", path, err)
	}
	return toRGBA(img), nil
}

// toRGBA re-draws img into an RGBA buffer rooted at (0,0). Images that are
// already *image.RGBA with a zero origin pass through untouched.
func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Bounds().Min == (image.Point{}) {
		return rgba
	}
	bounds := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	return rgba
}
