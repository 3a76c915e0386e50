package gallerysync

import (
	"fmt"
	"net/url"
	"strings"
)

var fallbackLabels = []struct {
	alt   string
	label string
}{
	{"Oak panel door fitted", "Oak panel door fitted"},
	{"Flush door rehung", "Flush door rehung"},
	{"Latch and hinges replaced", "Latch & hinges replaced"},
	{"Glazed internal door aligned", "Glazed door aligned"},
	{"Trimming to clear new carpet", "Trimmed to clear carpet"},
	{"Even gaps and smooth close", "Even gaps, smooth close"},
}

// FallbackItems returns the bundled placeholder set. Each call returns a fresh slice.
func FallbackItems() []Item {
	items := make([]Item, 0, len(fallbackLabels))
	for i, f := range fallbackLabels {
		items = append(items, Item{
			ID:     fmt.Sprintf("g%d", i+1),
			Src:    placeholderSVG(f.label, 800, 600, "#2C5E7A"),
			Alt:    f.alt,
			Width:  800,
			Height: 600,
		})
	}
	return items
}

func placeholderSVG(label string, w, h int, tint string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<svg xmlns='http://www.w3.org/2000/svg' width='%d' height='%d'>", w, h)
	b.WriteString("<rect width='100%' height='100%' fill='#F5F3EF'/>")
	fmt.Fprintf(&b, "<rect x='40' y='40' width='%d' height='%d' rx='16' fill='%s' fill-opacity='0.15'/>", w-80, h-80, tint)
	fmt.Fprintf(&b, "<circle cx='%d' cy='%d' r='10' fill='%s' fill-opacity='0.6'/>", w*65/100, h/2, tint)
	fmt.Fprintf(&b, "<text x='50%%' y='92%%' dominant-baseline='middle' text-anchor='middle' font-family='Inter, system-ui' font-size='22' fill='#6B7280'>%s</text>", escapeXML(label))
	b.WriteString("</svg>")
	return "data:image/svg+xml;charset=utf-8," + url.PathEscape(b.String())
}

func escapeXML(s string) string {
	return strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", "'", "&apos;").Replace(s)
}
