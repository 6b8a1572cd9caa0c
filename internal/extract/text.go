// internal/extract/text.go
package extract

import "strings"

var lineBreakRemover = strings.NewReplacer("\r", "", "\n", "")

// Normalize optionally flattens text onto a single line. Line breaks are
// dropped, remaining whitespace runs become one space and the edges are
// trimmed. With collapse unset the text is returned untouched.
func Normalize(text string, collapse bool) string {
	if !collapse {
		return text
	}
	return strings.Join(strings.Fields(lineBreakRemover.Replace(text)), " ")
}
