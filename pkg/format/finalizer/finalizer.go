/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package finalizer

import (
	"bytes"
	"strings"
	"unicode/utf8"
)

type bom struct {
	encoding string
	mark     []byte
}

// Longer marks first: the UTF-32LE mark starts with the UTF-16LE one.
var boms = []bom{
	{"UTF-32BE", []byte{0x00, 0x00, 0xFE, 0xFF}},
	{"UTF-32LE", []byte{0xFF, 0xFE, 0x00, 0x00}},
	{"UTF-8", []byte{0xEF, 0xBB, 0xBF}},
	{"UTF-16BE", []byte{0xFE, 0xFF}},
	{"UTF-16LE", []byte{0xFF, 0xFE}},
}

// GetBOMInfo returns information about a detected Byte Order Mark
func GetBOMInfo(input []byte) (encoding string, bomSize int, found bool) {
	for _, b := range boms {
		if bytes.HasPrefix(input, b.mark) {
			return b.encoding, len(b.mark), true
		}
	}
	return "", 0, false
}

// RemoveBOM removes a Byte Order Mark of any supported encoding if present
func RemoveBOM(input []byte) (out []byte, changed bool) {
	if _, n, found := GetBOMInfo(input); found {
		return input[n:], true
	}
	return input, false
}

// DetectLineEnding returns the line ending used by most lines of content,
// defaulting to LF.
func DetectLineEnding(content string) string {
	crlf := strings.Count(content, "\r\n")
	lf := strings.Count(content, "\n") - crlf
	if crlf > lf {
		return "\r\n"
	}
	return "\n"
}

// EnsureTrailingNewline terminates content with lineEnding unless it is empty
// or already terminated.
func EnsureTrailingNewline(content, lineEnding string) string {
	if content == "" || strings.HasSuffix(content, "\n") {
		return content
	}
	return content + lineEnding
}

// IsProcessableText reports whether content can be edited line by line.
// Files carrying a BOM are accepted; otherwise content must be valid UTF-8
// with few NUL bytes.
func IsProcessableText(content []byte) bool {
	if len(content) == 0 {
		return true
	}
	if _, _, found := GetBOMInfo(content); found {
		return true
	}
	if bytes.Count(content, []byte{0}) > len(content)/10 {
		return false
	}
	return utf8.Valid(content)
}
