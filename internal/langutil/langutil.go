// Package langutil normalizes the language codes flowing between the UI,
// the dubbing core and the platform backend.
package langutil

import (
	"fmt"
	"strings"

	"github.com/abadojack/whatlanggo"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Normalize parses a BCP-47 / ISO-639 code and returns its canonical base
// form ("hi", "ta", "en"). Region and script subtags are dropped: the
// backend keys dubbed artifacts by base language only.
func Normalize(code string) (string, error) {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return "", fmt.Errorf("language code is empty")
	}
	tag, err := language.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("invalid language code %q: %w", trimmed, err)
	}
	base, conf := tag.Base()
	if conf == language.No {
		return "", fmt.Errorf("language code %q has no base language", trimmed)
	}
	return base.String(), nil
}

// DisplayName returns the English name for a normalized code, for
// user-facing notices ("Hindi dub ready"). Falls back to the code itself.
func DisplayName(code string) string {
	tag, err := language.Parse(code)
	if err != nil {
		return code
	}
	if name := display.English.Tags().Name(tag); name != "" {
		return name
	}
	return code
}

// minDetectionConfidence filters whatlanggo's guesses on very short samples.
const minDetectionConfidence = 0.6

// DetectFromText infers the language of a free-text sample (lecture
// description or transcript excerpt). Returns the ISO-639-1 code, or ""
// when the sample is too ambiguous to trust.
func DetectFromText(sample string) string {
	sample = strings.TrimSpace(sample)
	if sample == "" {
		return ""
	}
	info := whatlanggo.Detect(sample)
	if info.Confidence < minDetectionConfidence {
		return ""
	}
	return info.Lang.Iso6391()
}
