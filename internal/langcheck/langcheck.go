// Package langcheck flags translations that came back in the wrong language,
// typically Japanese echoed by the model instead of English.
package langcheck

import (
	"fmt"
	"strings"
	"unicode/utf8"

	lingua "github.com/pemistahl/lingua-go"
)

// minRunes is the shortest output worth detecting. Below it lingua guesses.
const minRunes = 20

// candidates bounds the models lingua loads into memory.
var candidates = []lingua.Language{
	lingua.English,
	lingua.Japanese,
	lingua.Chinese,
	lingua.Korean,
	lingua.German,
	lingua.French,
	lingua.Spanish,
	lingua.Portuguese,
	lingua.Italian,
	lingua.Russian,
}

// Checker compares translations against one target language. Building it
// loads the lingua models, so one instance is shared for the process.
type Checker struct {
	target   string
	detector lingua.LanguageDetector
}

// New returns a Checker for the ISO 639-1 code target, e.g. "en".
func New(target string) (*Checker, error) {
	target = strings.ToLower(strings.TrimSpace(target))

	supported := false
	for _, lang := range candidates {
		if strings.ToLower(lang.IsoCode639_1().String()) == target {
			supported = true
			break
		}
	}
	if !supported {
		return nil, fmt.Errorf("unsupported target language %q", target)
	}

	return &Checker{
		target: target,
		detector: lingua.NewLanguageDetectorBuilder().
			FromLanguages(candidates...).
			Build(),
	}, nil
}

func (c *Checker) Target() string {
	return c.target
}

// Check returns the lowercase ISO 639-1 code detected for translation and
// whether it is the target. Short or undetectable text is reported as
// matching with an empty code.
func (c *Checker) Check(translation string) (string, bool) {
	text := strings.TrimSpace(translation)
	if utf8.RuneCountInString(text) < minRunes {
		return "", true
	}

	lang, ok := c.detector.DetectLanguageOf(text)
	if !ok {
		return "", true
	}

	detected := strings.ToLower(lang.IsoCode639_1().String())
	return detected, detected == c.target
}
