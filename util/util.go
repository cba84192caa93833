// Package util is a set of utility variables or methods
package util

import (
	"path/filepath"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
)

// SupportedExt holds the lower-cased image extensions the build pipeline can decode
var SupportedExt = mapset.NewSet(
	".jpeg", ".jpg",
	".png",
	".webp",
	".tif", ".tiff",
)

var contentTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
	".tif":  "image/tiff",
	".tiff": "image/tiff",
	".gif":  "image/gif",
}

// IsSupported reports whether name carries a supported image extension, ignoring case
func IsSupported(name string) bool {
	return SupportedExt.Contains(strings.ToLower(filepath.Ext(name)))
}

// ContentType maps a file name to its MIME type, defaulting to application/octet-stream
func ContentType(name string) string {
	if ct, ok := contentTypes[strings.ToLower(filepath.Ext(name))]; ok {
		return ct
	}
	return "application/octet-stream"
}
