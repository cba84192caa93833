package processing

import (
	"fmt"
	"image"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/rwcarlsen/goexif/exif"
)

// Exif is the camera summary shown next to a photo in the lightbox.
type Exif struct {
	Camera       string `json:"camera,omitempty"`
	Lens         string `json:"lens,omitempty"`
	ISO          int    `json:"iso,omitempty"`
	Aperture     string `json:"aperture,omitempty"`
	ShutterSpeed string `json:"shutterSpeed,omitempty"`
	FocalLength  string `json:"focalLength,omitempty"`
	ShootingDate string `json:"shootingDate,omitempty"`
}

func (e *Exif) empty() bool {
	return e == nil || *e == Exif{}
}

// summarize returns nil when x is nil or carries none of the summary tags.
func summarize(x *exif.Exif) *Exif {
	if x == nil {
		return nil
	}

	e := &Exif{
		Camera: camera(stringField(x, exif.Make), stringField(x, exif.Model)),
		Lens:   stringField(x, exif.LensModel),
	}
	if iso, ok := intField(x, exif.ISOSpeedRatings); ok {
		e.ISO = iso
	}
	if f, ok := ratField(x, exif.FNumber); ok {
		e.Aperture = formatAperture(f)
	}
	if t, ok := ratField(x, exif.ExposureTime); ok {
		e.ShutterSpeed = formatShutter(t)
	}
	if mm, ok := ratField(x, exif.FocalLength); ok {
		e.FocalLength = formatFocalLength(mm)
	}
	if taken, err := x.DateTime(); err == nil {
		e.ShootingDate = taken.Format(time.RFC3339)
	}

	if e.empty() {
		return nil
	}
	return e
}

func camera(maker, model string) string {
	switch {
	case maker == "":
		return model
	case model == "":
		return maker
	case strings.HasPrefix(model, maker):
		return model
	default:
		return maker + " " + model
	}
}

func stringField(x *exif.Exif, name exif.FieldName) string {
	tag, err := x.Get(name)
	if err != nil {
		return ""
	}
	s, err := tag.StringVal()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(strings.Trim(s, "\x00"))
}

func intField(x *exif.Exif, name exif.FieldName) (int, bool) {
	tag, err := x.Get(name)
	if err != nil {
		return 0, false
	}
	v, err := tag.Int(0)
	if err != nil {
		return 0, false
	}
	return v, true
}

func ratField(x *exif.Exif, name exif.FieldName) (float64, bool) {
	tag, err := x.Get(name)
	if err != nil {
		return 0, false
	}
	num, den, err := tag.Rat2(0)
	if err != nil || den == 0 {
		return 0, false
	}
	return float64(num) / float64(den), true
}

func formatAperture(f float64) string {
	return "f/" + trimFloat(f)
}

func formatShutter(seconds float64) string {
	if seconds <= 0 {
		return ""
	}
	if seconds >= 1 {
		return trimFloat(seconds) + "s"
	}
	return fmt.Sprintf("1/%d", int(math.Round(1/seconds)))
}

func formatFocalLength(mm float64) string {
	return trimFloat(mm) + "mm"
}

// trimFloat rounds to one decimal and drops a trailing ".0".
func trimFloat(v float64) string {
	return strconv.FormatFloat(math.Round(v*10)/10, 'f', -1, 64)
}

// orientationOf returns the EXIF orientation, 1 when absent or invalid.
func orientationOf(x *exif.Exif) int {
	if x == nil {
		return 1
	}
	o, ok := intField(x, exif.Orientation)
	if !ok || o < 1 || o > 8 {
		return 1
	}
	return o
}

// orient applies an EXIF orientation so the returned image is upright.
// Orientations 5 to 8 swap width and height.
func orient(img image.Image, orientation int) image.Image {
	switch orientation {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipV(img)
	case 5:
		return imaging.Transpose(img)
	case 6:
		return imaging.Rotate270(img)
	case 7:
		return imaging.Transverse(img)
	case 8:
		return imaging.Rotate90(img)
	default:
		return img
	}
}
