package processing

import (
	"fmt"
	"image"
	"image/jpeg"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

var variantPattern = regexp.MustCompile(`_[0-9]+w\.jpg$`)

// VariantSpec is one responsive size to render.
type VariantSpec struct {
	Width   int
	Quality int
}

// VariantName returns the file name of the variant of name at width,
// e.g. sunset.png at 640 becomes sunset_640w.jpg.
func VariantName(name string, width int) string {
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	return base + "_" + strconv.Itoa(width) + "w.jpg"
}

// IsVariantName reports whether name looks like a file produced by VariantName.
func IsVariantName(name string) bool {
	return variantPattern.MatchString(name)
}

// GenerateVariants writes a JPEG of the image at path for every spec into
// outDir. A spec wider than the upright source is written at the source width
// so every named size exists without enlarging. A failed size is logged and the
// rest continue. The returned paths are in spec order.
func GenerateVariants(path, outDir string, specs []VariantSpec) ([]string, error) {
	img, _, err := decode(path)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create variants directory: %w", err)
	}

	srcWidth := img.Bounds().Dx()
	var written []string
	for _, spec := range specs {
		width := min(spec.Width, srcWidth)
		if width < spec.Width {
			slog.Debug("variant clamped to source width", "name", path, "width", spec.Width, "source_width", srcWidth)
		}

		dst := filepath.Join(outDir, VariantName(path, spec.Width))
		if err := writeJPEG(dst, scaleToWidth(img, width), spec.Quality); err != nil {
			slog.Warn("failed to write variant", "name", dst, "error", err)
			continue
		}
		written = append(written, dst)
	}
	return written, nil
}

func writeJPEG(dst string, img image.Image, quality int) error {
	f, err := os.Create(dst)
	if err != nil {
		return err
	}
	if err := jpeg.Encode(f, img, &jpeg.Options{Quality: quality}); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
