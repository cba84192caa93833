package templates

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/aouyang1/photoportfolio/content"
)

// Breakpoints are the widths variants are published at.
var Breakpoints = []int{400, 640, 960, 1280, 1920, 2880}

// VariantURL returns the address of the smallest published variant at least
// width pixels wide. Without an asset prefix, or past the largest breakpoint,
// the original is returned.
func VariantURL(prefix, filename string, width int) string {
	if prefix == "" {
		return "/images/" + url.PathEscape(filename)
	}

	for _, bp := range Breakpoints {
		if width <= bp {
			base := strings.TrimSuffix(filename, filepath.Ext(filename))
			return fmt.Sprintf("%s/images/%s_%dw.jpg", prefix, url.PathEscape(base), bp)
		}
	}
	return prefix + "/images/" + url.PathEscape(filename)
}

// srcset lists every variant of filename, empty without an asset prefix.
func srcset(prefix, filename string) string {
	if prefix == "" {
		return ""
	}
	parts := make([]string, 0, len(Breakpoints))
	for _, bp := range Breakpoints {
		parts = append(parts, VariantURL(prefix, filename, bp)+" "+strconv.Itoa(bp)+"w")
	}
	return strings.Join(parts, ", ")
}

func aspectRatio(p content.Photo) string {
	if p.Width == 0 || p.Height == 0 {
		return "1 / 1"
	}
	return fmt.Sprintf("%d / %d", p.Width, p.Height)
}

func altText(item content.Item) string {
	if item.Description != "" {
		return item.Description
	}
	return item.Filename
}
