package templates

import (
	"context"
	"io"
	"strconv"
	"strings"

	"github.com/a-h/templ"
	"github.com/aouyang1/photoportfolio/api/models"
)

// AdminPage lists every photo with a form for its description and location.
func AdminPage(data models.AdminPhotosData) templ.Component {
	return Layout("Manage photos", []string{"/static/js/admin.js"}, adminBody(data))
}

func adminBody(data models.AdminPhotosData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString("<main class=\"admin\">\n")
		b.WriteString("  <h1>Manage photos</h1>\n")
		b.WriteString("  <p class=\"admin-stats\">" + strconv.Itoa(data.Total) + " photos, " +
			strconv.Itoa(data.Configured) + " configured</p>\n")
		b.WriteString("  <p class=\"admin-status\" id=\"admin-status\" role=\"status\"></p>\n")
		b.WriteString("  <div class=\"admin-grid\">\n")
		for _, item := range data.Items {
			writeAdminItem(&b, item)
		}
		b.WriteString("  </div>\n</main>\n")
		_, err := io.WriteString(w, b.String())
		return err
	})
}

func writeAdminItem(b *strings.Builder, item models.ManagementItem) {
	var description, location string
	if item.Config != nil {
		description = item.Config.Description
		location = item.Config.Location
	}
	name := templ.EscapeString(item.Filename)

	class := "admin-item"
	if item.Configured {
		class += " configured"
	}
	b.WriteString("    <form class=\"" + class + "\" data-filename=\"" + name + "\">\n")
	b.WriteString("      <img src=\"" + templ.EscapeString(VariantURL("", item.Filename, 0)) + "\" alt=\"" + name + "\" loading=\"lazy\">\n")
	b.WriteString("      <p class=\"admin-filename\">" + name + "</p>\n")
	b.WriteString("      <label>Description <textarea name=\"description\" rows=\"2\">" +
		templ.EscapeString(description) + "</textarea></label>\n")
	b.WriteString("      <label>Location <input type=\"text\" name=\"location\" value=\"" +
		templ.EscapeString(location) + "\"></label>\n")
	b.WriteString("      <button type=\"submit\">Save</button>\n")
	b.WriteString("    </form>\n")
}
