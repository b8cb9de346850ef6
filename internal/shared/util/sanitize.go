package util

import (
	"errors"
	"path"
	"strings"
	"unicode"
	"unicode/utf8"
)

// maxFileNameBytes keeps download names under common filesystem limits.
const maxFileNameBytes = 150

var errInvalidFileName = errors.New("invalid file name")

// SanitizeFileName makes a user-derived name safe for a Content-Disposition
// header and for saving on any desktop OS. Separators and characters Windows
// reserves become "_", control characters and quotes are dropped, runs of
// whitespace collapse, and long names are cut while keeping the extension.
func SanitizeFileName(name string) (string, error) {
	if strings.Contains(name, "..") {
		return "", errInvalidFileName
	}

	var b strings.Builder
	lastSpace := false
	for _, r := range strings.TrimSpace(name) {
		switch {
		case r == '/' || r == '\\' || r == ':' || r == '*' || r == '?' || r == '<' || r == '>' || r == '|':
			b.WriteRune('_')
		case r == '"' || unicode.IsControl(r):
			continue
		case unicode.IsSpace(r):
			if !lastSpace {
				b.WriteRune(' ')
			}
			lastSpace = true
			continue
		default:
			b.WriteRune(r)
		}
		lastSpace = false
	}

	s := strings.Trim(b.String(), " .")
	if s == "" || strings.Trim(s, "_") == "" {
		return "", errInvalidFileName
	}
	return truncateKeepingExt(s, maxFileNameBytes), nil
}

func truncateKeepingExt(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	ext := path.Ext(s)
	if len(ext) >= limit {
		ext = ""
	}
	stem := s[:limit-len(ext)]
	for !utf8.ValidString(stem) {
		stem = stem[:len(stem)-1]
	}
	return strings.TrimRight(stem, " ") + ext
}
