package util

import (
	"net/http"
	"regexp"
	"strings"
	"unicode"

	"go-file-organizer/pkg/apierror"
)

const maxSegmentRunes = 255

var invalidSegmentChars = regexp.MustCompile(`[<>:"/\\|?*]`)

var windowsReservedNames = map[string]struct{}{
	"CON": {}, "PRN": {}, "AUX": {}, "NUL": {},
	"COM1": {}, "COM2": {}, "COM3": {}, "COM4": {}, "COM5": {}, "COM6": {}, "COM7": {}, "COM8": {}, "COM9": {},
	"LPT1": {}, "LPT2": {}, "LPT3": {}, "LPT4": {}, "LPT5": {}, "LPT6": {}, "LPT7": {}, "LPT8": {}, "LPT9": {},
}

// FolderSegment turns a category or subcategory label into a single safe
// directory name. Separators become underscores so a label can never
// introduce extra path levels, and reserved device names get a leading
// underscore instead of being rejected.
func FolderSegment(label string) (string, error) {
	var builder strings.Builder
	builder.Grow(len(label))
	for _, char := range strings.TrimSpace(label) {
		if unicode.IsControl(char) || isInvisibleUnicode(char) {
			continue
		}
		builder.WriteRune(char)
	}

	cleaned := invalidSegmentChars.ReplaceAllString(builder.String(), "_")
	cleaned = strings.Trim(strings.TrimSpace(cleaned), ".")
	if cleaned == "" {
		return "", apierror.New("INVALID_SEGMENT", "folder name is empty after sanitization", label, http.StatusBadRequest)
	}

	runes := []rune(cleaned)
	if len(runes) > maxSegmentRunes {
		cleaned = string(runes[:maxSegmentRunes])
	}

	if _, reserved := windowsReservedNames[strings.ToUpper(cleaned)]; reserved {
		cleaned = "_" + cleaned
	}

	return cleaned, nil
}

// isInvisibleUnicode reports zero-width and other format characters.
func isInvisibleUnicode(r rune) bool {
	switch r {
	case '\u200B', '\u200C', '\u200D', '\u200E', '\u200F', '\u2060', '\uFEFF':
		return true
	}
	return unicode.Is(unicode.Cf, r)
}
