package preview

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/HugoSmits86/nativewebp"
)

// Encode writes img in the named format, "webp" or "png".
func Encode(w io.Writer, img image.Image, format string) error {
	switch strings.ToLower(format) {
	case "webp":
		if err := nativewebp.Encode(w, img, nil); err != nil {
			return fmt.Errorf("WebP encode: %w", err)
		}
		return nil
	case "png":
		return png.Encode(w, img)
	default:
		return fmt.Errorf("unsupported image format %q", format)
	}
}

// WriteFile encodes img by the extension of path (.webp or .png), creating
// parent directories as needed.
func WriteFile(path string, img image.Image) error {
	format := strings.TrimPrefix(filepath.Ext(path), ".")
	if format == "" {
		return fmt.Errorf("%s: missing image extension", path)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Encode(f, img, format); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}

// WriteWebP writes img as lossless WebP.
func WriteWebP(path string, img image.Image) error {
	return writeAs(path, img, "webp")
}

// WritePNG writes img as PNG.
func WritePNG(path string, img image.Image) error {
	return writeAs(path, img, "png")
}

func writeAs(path string, img image.Image, format string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Encode(f, img, format); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
