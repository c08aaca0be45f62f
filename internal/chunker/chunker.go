// Package chunker splits long Japanese (or mixed) text into pieces small
// enough for a sentence-level translation model, preferring paragraph, line
// and sentence boundaries over hard cuts.
package chunker

import (
	"strings"
	"unicode"
)

// DefaultMaxRunes is the chunk size used when the caller passes zero.
const DefaultMaxRunes = 400

// Chunk splits text into trimmed pieces each no longer than maxRunes code
// points. Splits are attempted, in order of preference, at:
//  1. Paragraph boundaries (blank line)
//  2. Line breaks
//  3. Sentence terminators: 。！？ always, and . ! ? when followed by space
//  4. Whitespace
//  5. A hard cut at maxRunes
//
// Closing quotes and brackets right after a terminator stay with their
// sentence. Empty or whitespace-only text yields no chunks. maxRunes <= 0
// means DefaultMaxRunes.
func Chunk(text string, maxRunes int) []string {
	if maxRunes <= 0 {
		maxRunes = DefaultMaxRunes
	}

	var chunks []string
	remaining := []rune(strings.TrimSpace(text))

	for len(remaining) > maxRunes {
		split := findSplit(remaining, maxRunes)
		if chunk := strings.TrimSpace(string(remaining[:split])); chunk != "" {
			chunks = append(chunks, chunk)
		}
		remaining = []rune(strings.TrimSpace(string(remaining[split:])))
	}

	if chunk := strings.TrimSpace(string(remaining)); chunk != "" {
		chunks = append(chunks, chunk)
	}
	return chunks
}

// findSplit returns the rune index at which to split text so that the head
// holds at most maxRunes runes. The result is always in [1, maxRunes].
func findSplit(text []rune, maxRunes int) int {
	candidate := text[:maxRunes]

	// 1. Paragraph boundary.
	for i := len(candidate) - 1; i > 0; i-- {
		if candidate[i] == '\n' && isBlankLineBefore(candidate, i) {
			return i + 1
		}
	}

	// 2. Line break.
	for i := len(candidate) - 1; i > 0; i-- {
		if candidate[i] == '\n' {
			return i + 1
		}
	}

	// 3. Sentence terminator, measured against the full text so that a
	// terminator at the very end of the candidate can see what follows.
	for i := len(candidate) - 1; i > 0; i-- {
		if !isSentenceEnd(text, i) {
			continue
		}
		end := i + 1
		for end < len(candidate) && isClosing(candidate[end]) {
			end++
		}
		return end
	}

	// 4. Whitespace.
	for i := len(candidate) - 1; i > 0; i-- {
		if unicode.IsSpace(candidate[i]) {
			return i
		}
	}

	// 5. Hard cut.
	return maxRunes
}

func isBlankLineBefore(text []rune, i int) bool {
	for j := i - 1; j >= 0; j-- {
		switch text[j] {
		case '\n':
			return true
		case ' ', '\t', '\r', '　':
			continue
		default:
			return false
		}
	}
	return false
}

func isSentenceEnd(text []rune, i int) bool {
	switch text[i] {
	case '。', '！', '？', '｡':
		return true
	case '.', '!', '?':
		return i+1 < len(text) && unicode.IsSpace(text[i+1])
	}
	return false
}

func isClosing(r rune) bool {
	switch r {
	case '」', '』', '）', ')', '】', '〉', '》', '"', '\'', '”', '’':
		return true
	}
	return false
}
