package recipe

import (
	"strings"
	"unicode"

	"github.com/mattn/go-runewidth"
)

// DefaultWrapWidth is the line width wrapped assignments are fitted to.
const DefaultWrapWidth = 70

// wrapText fills text into lines of at most width display columns. Words are
// split at hyphens when needed and words longer than width are broken.
// Whitespace at line boundaries is dropped; whitespace between words is kept.
func wrapText(text string, width int) []string {
	if width <= 0 {
		width = DefaultWrapWidth
	}
	chunks := splitChunks(text)
	// consume from the front
	var lines []string
	for len(chunks) > 0 {
		var cur []string
		curLen := 0
		if isBlank(chunks[0]) && len(lines) > 0 {
			chunks = chunks[1:]
		}
		for len(chunks) > 0 {
			l := runewidth.StringWidth(chunks[0])
			if curLen+l > width {
				break
			}
			cur = append(cur, chunks[0])
			curLen += l
			chunks = chunks[1:]
		}
		if len(chunks) > 0 && runewidth.StringWidth(chunks[0]) > width {
			spaceLeft := width - curLen
			if spaceLeft < 1 {
				spaceLeft = 1
			}
			head := runewidth.Truncate(chunks[0], spaceLeft, "")
			if head == "" {
				head = string([]rune(chunks[0])[:1])
			}
			cur = append(cur, head)
			chunks[0] = chunks[0][len(head):]
		}
		if n := len(cur); n > 0 && isBlank(cur[n-1]) {
			cur = cur[:n-1]
		}
		if len(cur) > 0 {
			lines = append(lines, strings.Join(cur, ""))
		}
	}
	return lines
}

// splitChunks splits text into alternating runs of words and blanks, with
// every whitespace character turned into a space. Hyphenated words are split
// after each inner hyphen.
func splitChunks(text string) []string {
	var chunks []string
	var b strings.Builder
	blank := false
	flush := func() {
		if b.Len() == 0 {
			return
		}
		if blank {
			chunks = append(chunks, b.String())
		} else {
			chunks = append(chunks, splitHyphens(b.String())...)
		}
		b.Reset()
	}
	for _, r := range text {
		ws := unicode.IsSpace(r)
		if ws != blank {
			flush()
			blank = ws
		}
		if ws {
			b.WriteByte(' ')
		} else {
			b.WriteRune(r)
		}
	}
	flush()
	return chunks
}

// splitHyphens breaks a word after hyphens that sit between a letter or
// digit and a letter, e.g. "build-essential" -> "build-", "essential".
func splitHyphens(word string) []string {
	runes := []rune(word)
	var parts []string
	start := 0
	for i := 1; i < len(runes)-1; i++ {
		if runes[i] != '-' {
			continue
		}
		prev, next := runes[i-1], runes[i+1]
		if (unicode.IsLetter(prev) || unicode.IsDigit(prev)) && unicode.IsLetter(next) {
			parts = append(parts, string(runes[start:i+1]))
			start = i + 1
		}
	}
	return append(parts, string(runes[start:]))
}

func isBlank(s string) bool { return strings.TrimSpace(s) == "" }
