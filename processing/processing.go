// Package processing reads image dimensions, blur placeholders, EXIF details
// and writes resized variants for the build pipeline
package processing

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"io"
	"math"
	"os"

	"github.com/rwcarlsen/goexif/exif"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const (
	placeholderWidth   = 10
	placeholderQuality = 50
	placeholderPrefix  = "data:image/jpeg;base64,"
)

// Metadata is what the extractor learns about a single source image. Width and
// Height are the upright display dimensions.
type Metadata struct {
	Width       int
	Height      int
	BlurDataURL string
	Exif        *Exif
}

// Extract decodes the image at path and returns its display dimensions, a blur
// placeholder and a summary of its EXIF tags. Decode failures are returned.
func Extract(path string) (Metadata, error) {
	img, x, err := decode(path)
	if err != nil {
		return Metadata{}, err
	}

	blur, err := Placeholder(img)
	if err != nil {
		return Metadata{}, fmt.Errorf("unable to generate placeholder for %s, %w", path, err)
	}

	bounds := img.Bounds()
	return Metadata{
		Width:       bounds.Dx(),
		Height:      bounds.Dy(),
		BlurDataURL: blur,
		Exif:        summarize(x),
	}, nil
}

// decode opens path, reads any EXIF block and returns the upright image.
func decode(path string) (image.Image, *exif.Exif, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("unable to open image, %s, %w", path, err)
	}
	defer f.Close()

	// EXIF is optional; PNG and WebP files usually have none
	x, _ := exif.Decode(f)
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, nil, fmt.Errorf("unable to rewind image, %s, %w", path, err)
	}

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, nil, fmt.Errorf("unable to decode image, %s, %w", path, err)
	}

	return orient(img, orientationOf(x)), x, nil
}

// Placeholder renders img as a tiny JPEG data URL suitable for a blurred
// background while the full image loads.
func Placeholder(img image.Image) (string, error) {
	small := scaleToWidth(img, placeholderWidth)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, small, &jpeg.Options{Quality: placeholderQuality}); err != nil {
		return "", fmt.Errorf("encode jpeg: %w", err)
	}
	return placeholderPrefix + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// scaleToWidth resizes src to width pixels wide keeping the aspect ratio.
func scaleToWidth(src image.Image, width int) image.Image {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w == 0 || h == 0 {
		return src
	}
	height := max(1, int(math.Round(float64(h)*float64(width)/float64(w))))

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)
	return dst
}
