package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsSupported(t *testing.T) {
	cases := map[string]bool{
		"_DSC1166.JPG":   true,
		"sunset.jpeg":    true,
		"scan.TIFF":      true,
		"pano.webp":      true,
		"icon.png":       true,
		"notes.txt":      false,
		"README":         false,
		"archive.jpg.7z": false,
	}
	for name, want := range cases {
		assert.Equal(t, want, IsSupported(name), name)
	}
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "image/jpeg", ContentType("a.JPG"))
	assert.Equal(t, "image/webp", ContentType("b.webp"))
	assert.Equal(t, "image/tiff", ContentType("c.tif"))
	assert.Equal(t, "application/octet-stream", ContentType("d.heic"))
}
