// Package langguess gives an offline best-effort language guess. The bot
// uses it when the AI language detector is unavailable and to recognise
// reminders already in the customer's language.
package langguess

import (
	"strings"

	"github.com/abadojack/whatlanggo"
)

const minConfidence = 0.3

// Guesser wraps whatlanggo detection.
type Guesser struct {
	minConfidence float64
}

func New() *Guesser {
	return &Guesser{minConfidence: minConfidence}
}

// Guess returns the ISO 639-1 code of text, or ok=false when the detection
// is unreliable or the language has no two-letter code.
func (g *Guesser) Guess(text string) (string, bool) {
	code, _, ok := g.Describe(text)
	return code, ok
}

// Describe returns both the ISO 639-1 code and the English name of the
// language of text, e.g. ("en", "English").
func (g *Guesser) Describe(text string) (code, name string, ok bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", "", false
	}
	info := whatlanggo.Detect(text)
	if !info.IsReliable() || info.Confidence < g.minConfidence {
		return "", "", false
	}
	code = info.Lang.Iso6391()
	if code == "" {
		return "", "", false
	}
	return code, info.Lang.String(), true
}
