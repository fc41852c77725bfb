// Package imageio reads and writes image files by extension.
package imageio

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var ErrDecode = errors.New("cannot decode image")

// JPEGQuality is used for .jpg and .jpeg output.
const JPEGQuality = 95

// Decode opens path and decodes it with any registered format.
func Decode(path string) (image.Image, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", ErrDecode, err)
	}
	defer f.Close()
	img, format, err := image.Decode(f)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %s: %w", ErrDecode, path, err)
	}
	return img, format, nil
}

// IsJPEG reports whether path names a jpeg file.
func IsJPEG(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return true
	}
	return false
}

// Encode writes img to path, as jpeg for .jpg/.jpeg and as png otherwise.
// Partial files are left behind on failure.
func Encode(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if IsJPEG(path) {
		err = jpeg.Encode(f, img, &jpeg.Options{Quality: JPEGQuality})
	} else {
		err = png.Encode(f, img)
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
