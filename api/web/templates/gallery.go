// Package templates renders the gallery and admin pages
package templates

import (
	"context"
	"io"
	"strconv"
	"strings"

	"github.com/a-h/templ"
	"github.com/aouyang1/photoportfolio/content"
)

const siteTitle = "Portfolio"

// Layout wraps body in the shared page shell.
func Layout(title string, scripts []string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n")
		b.WriteString("<meta charset=\"utf-8\">\n")
		b.WriteString("<meta name=\"viewport\" content=\"width=device-width, initial-scale=1\">\n")
		b.WriteString("<title>" + templ.EscapeString(title) + "</title>\n")
		b.WriteString("<link rel=\"icon\" href=\"/favicon.svg\" type=\"image/svg+xml\">\n")
		b.WriteString("<link rel=\"stylesheet\" href=\"/static/css/gallery.css\">\n")
		b.WriteString("</head>\n<body>\n")
		b.WriteString("<header class=\"site-header\"><a href=\"/\">" + templ.EscapeString(siteTitle) + "</a></header>\n")
		if _, err := io.WriteString(w, b.String()); err != nil {
			return err
		}

		if err := body.Render(ctx, w); err != nil {
			return err
		}

		b.Reset()
		b.WriteString("<footer class=\"site-footer\">&copy; " + templ.EscapeString(siteTitle) + "</footer>\n")
		for _, src := range scripts {
			b.WriteString("<script src=\"" + templ.EscapeString(src) + "\" defer></script>\n")
		}
		b.WriteString("</body>\n</html>\n")
		_, err := io.WriteString(w, b.String())
		return err
	})
}

// GalleryPage is the public masonry gallery.
func GalleryPage(items []content.Item, prefix string) templ.Component {
	return Layout(siteTitle, []string{"/static/js/lightbox.js"}, Gallery(items, prefix))
}

// Gallery renders one figure per photo in filename order. Each image reserves
// its aspect ratio and shows the blur placeholder until it loads.
func Gallery(items []content.Item, prefix string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		if len(items) == 0 {
			b.WriteString("<main class=\"gallery-empty\"><p>No photos yet.</p></main>\n")
			_, err := io.WriteString(w, b.String())
			return err
		}

		b.WriteString("<main class=\"gallery\" id=\"gallery\">\n")
		for i, item := range items {
			writeFigure(&b, i, item, prefix)
		}
		b.WriteString("</main>\n")
		b.WriteString(lightboxMarkup)
		_, err := io.WriteString(w, b.String())
		return err
	})
}

func writeFigure(b *strings.Builder, index int, item content.Item, prefix string) {
	b.WriteString("  <figure class=\"photo\" data-index=\"" + strconv.Itoa(index) + "\"")
	b.WriteString(" style=\"aspect-ratio: " + aspectRatio(item.Photo) + ";")
	if item.BlurDataURL != "" {
		b.WriteString(" background-image: url(&#39;" + templ.EscapeString(item.BlurDataURL) + "&#39;);")
	}
	b.WriteString("\">\n")

	src := item.Thumbnail
	if prefix != "" {
		src = VariantURL(prefix, item.Filename, 640)
	}
	b.WriteString("    <img loading=\"lazy\" decoding=\"async\"")
	b.WriteString(" src=\"" + templ.EscapeString(src) + "\"")
	if set := srcset(prefix, item.Filename); set != "" {
		b.WriteString(" srcset=\"" + templ.EscapeString(set) + "\"")
		b.WriteString(" sizes=\"(max-width: 640px) 100vw, (max-width: 1280px) 50vw, 33vw\"")
	}
	b.WriteString(" width=\"" + strconv.Itoa(item.Width) + "\" height=\"" + strconv.Itoa(item.Height) + "\"")
	b.WriteString(" alt=\"" + templ.EscapeString(altText(item)) + "\">\n")

	if item.Location != "" || item.Description != "" {
		b.WriteString("    <figcaption>")
		if item.Description != "" {
			b.WriteString("<span class=\"description\">" + templ.EscapeString(item.Description) + "</span>")
		}
		if item.Location != "" {
			b.WriteString("<span class=\"location\">" + templ.EscapeString(item.Location) + "</span>")
		}
		b.WriteString("</figcaption>\n")
	}
	b.WriteString("  </figure>\n")
}

const lightboxMarkup = `<div class="lightbox" id="lightbox" hidden>
  <button class="lightbox-close" type="button" aria-label="Close">&times;</button>
  <button class="lightbox-prev" type="button" aria-label="Previous">&larr;</button>
  <img class="lightbox-image" alt="">
  <button class="lightbox-next" type="button" aria-label="Next">&rarr;</button>
  <div class="lightbox-loading" hidden></div>
  <aside class="lightbox-info">
    <p class="lightbox-description"></p>
    <p class="lightbox-location"></p>
    <dl class="lightbox-exif"></dl>
    <p class="lightbox-counter"></p>
  </aside>
</div>
`
