package store

import (
	"time"

	"github.com/aouyang1/photoportfolio/processing"
)

// CachedImage is the extracted metadata of a source image along with the
// file attributes it was computed from.
type CachedImage struct {
	Filename    string           `json:"filename"`
	ModTime     time.Time        `json:"mod_time"`
	Size        int64            `json:"size"`
	Width       int              `json:"width"`
	Height      int              `json:"height"`
	BlurDataURL string           `json:"blur_data_url"`
	Exif        *processing.Exif `json:"exif,omitempty"`
}

// Matches reports whether the cached entry was computed from a file with the
// given modification time and size.
func (c *CachedImage) Matches(modTime time.Time, size int64) bool {
	return c.ModTime.Equal(modTime) && c.Size == size
}

func (c *CachedImage) Metadata() processing.Metadata {
	return processing.Metadata{
		Width:       c.Width,
		Height:      c.Height,
		BlurDataURL: c.BlurDataURL,
		Exif:        c.Exif,
	}
}

type Build struct {
	ID        int64         `json:"id"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
	Mode      string        `json:"mode"`
	Processed int           `json:"processed"`
	Skipped   int           `json:"skipped"`
	Uploaded  int           `json:"uploaded"`
	Reused    int           `json:"reused"`
}
