// Package htmlutil strips markup from text fields of the municipal
// feeds, which embed HTML in zone titles and status names.
package htmlutil

import (
	"strings"

	"github.com/k3a/html2text"
)

// ToText converts HTML to plain text using a proper HTML parser.
// Handles entities, strips tags, and trims the surrounding whitespace
// the municipal feeds tend to leave behind.
func ToText(s string) string {
	return strings.TrimSpace(html2text.HTML2Text(s))
}
