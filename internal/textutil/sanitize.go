package textutil

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// fileNameReplacer replaces filesystem-unsafe characters with safe alternatives.
var fileNameReplacer = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	":", "-",
	"*", "-",
	"?", "",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
)

// SanitizeFileName replaces filesystem-unsafe characters in a path component.
// Slashes, backslashes, colons, and asterisks become dashes; other unsafe
// characters are removed. The result is NFC-normalized and trimmed of
// leading/trailing whitespace and dots.
func SanitizeFileName(name string) string {
	name = norm.NFC.String(strings.TrimSpace(name))
	if name == "" {
		return ""
	}
	name = fileNameReplacer.Replace(name)
	return strings.Trim(name, " .")
}
