package utils

import (
	"regexp"
	"strings"
)

var (
	// Characters invalid in filenames on most filesystems
	invalidFilenameChars = regexp.MustCompile(`[<>:"/\\|?*]`)
	// Whitespace characters to normalize
	whitespaceChars = regexp.MustCompile(`[\r\n\t]`)
	// Multiple spaces to collapse
	multipleSpaces = regexp.MustCompile(`\s+`)
)

const maxFilenameRunes = 200

// SanitizeFilename turns a book title or genre into a safe file or folder
// name. It drops characters that are invalid on common filesystems or that
// break wiki-style links (slashes, colons, quotes, hashtags, brackets).
func SanitizeFilename(filename string) string {
	filename = invalidFilenameChars.ReplaceAllString(filename, "")
	filename = whitespaceChars.ReplaceAllString(filename, " ")
	filename = multipleSpaces.ReplaceAllString(filename, " ")
	filename = strings.TrimSpace(filename)

	filename = strings.ReplaceAll(filename, "#", "")
	filename = strings.ReplaceAll(filename, "[", "(")
	filename = strings.ReplaceAll(filename, "]", ")")
	filename = strings.TrimSpace(strings.TrimLeft(filename, "."))

	// Cut on runes so Cyrillic titles are never split mid-character
	if runes := []rune(filename); len(runes) > maxFilenameRunes {
		filename = strings.TrimSpace(string(runes[:maxFilenameRunes]))
	}

	if filename == "" {
		filename = "Untitled"
	}

	return filename
}
