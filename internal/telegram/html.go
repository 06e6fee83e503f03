package telegram

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// flattenHTML reduces an HTML fragment to plain text suitable for a chat
// message. Plain text passes through unchanged; unparseable input is
// returned as-is rather than dropped.
func flattenHTML(s string) string {
	if !strings.Contains(s, "<") {
		return strings.TrimSpace(s)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.TrimSpace(s)
	}
	doc.Find("script, style").Remove()

	var parts []string
	doc.Find("p, li, h1, h2, h3, h4").Each(func(_ int, sel *goquery.Selection) {
		if text := strings.TrimSpace(sel.Text()); text != "" {
			parts = append(parts, text)
		}
	})
	if len(parts) == 0 {
		// No block elements; fall back to the document text.
		return strings.Join(strings.Fields(doc.Text()), " ")
	}
	return strings.Join(parts, "\n")
}
