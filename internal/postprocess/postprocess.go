// Package postprocess turns raw model output into the generated continuation
// that is returned to callers as the translation.
package postprocess

import (
	"regexp"
	"strings"
)

// Continuation returns the assistant turn in raw with reasoning blocks
// (<think>…</think> and friends) removed and surrounding whitespace trimmed.
// Text that repeats the source, such as names or numbers left untranslated,
// is kept as is.
func Continuation(raw string) string {
	return strings.TrimSpace(removeThinkingBlocks(raw))
}

// thinkingBlockRe matches complete reasoning blocks. RE2 has no
// backreferences, so each tag pair is listed.
var thinkingBlockRe = regexp.MustCompile(
	`(?is)<thinking>.*?</thinking>|<think>.*?</think>|<reasoning>.*?</reasoning>|<reflection>.*?</reflection>`,
)

// truncatedThinkingRe matches an opened reasoning tag that was never closed.
var truncatedThinkingRe = regexp.MustCompile(
	`(?is)(?:<thinking>|<think>|<reasoning>|<reflection>).*$`,
)

func removeThinkingBlocks(text string) string {
	text = thinkingBlockRe.ReplaceAllString(text, "")
	text = truncatedThinkingRe.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}
