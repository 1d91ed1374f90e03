package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// LanguageDetector names the language of a text using the model.
type LanguageDetector struct {
	gen Generator
}

func NewLanguageDetector(gen Generator) (*LanguageDetector, error) {
	if gen == nil {
		return nil, errors.New("usecase: generator must not be nil")
	}
	return &LanguageDetector{gen: gen}, nil
}

// Detect returns the model's trimmed answer. Errors are returned unchanged
// in meaning; the detector never retries.
func (d *LanguageDetector) Detect(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", newError(ErrorInvalidInput, "empty_text", nil)
	}
	raw, err := d.gen.Generate(ctx, detectLanguagePrompt(text))
	if err != nil {
		return "", fmt.Errorf("usecase: detect language: %w", err)
	}
	lang := strings.TrimSpace(raw)
	if lang == "" {
		return "", fmt.Errorf("usecase: detect language: %w", ErrEmptyGeneration)
	}
	return lang, nil
}

// Translation is the result of Translator.Translate. DetectedLanguage is
// always set, including when no translation was needed.
type Translation struct {
	DetectedLanguage string
	Text             string
}

// Translator converts text into a target language.
type Translator struct {
	detector *LanguageDetector
	gen      Generator
}

func NewTranslator(gen Generator) (*Translator, error) {
	detector, err := NewLanguageDetector(gen)
	if err != nil {
		return nil, err
	}
	return &Translator{detector: detector, gen: gen}, nil
}

// Translate detects the language of text and translates it to target.
// When both match (case-insensitively) text is returned as-is without a
// translation call.
func (t *Translator) Translate(ctx context.Context, text, target string) (Translation, error) {
	detected, err := t.detector.Detect(ctx, text)
	if err != nil {
		return Translation{}, err
	}
	if strings.EqualFold(detected, strings.TrimSpace(target)) {
		return Translation{DetectedLanguage: detected, Text: text}, nil
	}

	raw, err := t.gen.Generate(ctx, translatePrompt(text, detected, target))
	if err != nil {
		return Translation{}, fmt.Errorf("usecase: translate to %s: %w", target, err)
	}
	translated := strings.TrimSpace(raw)
	if translated == "" {
		return Translation{}, fmt.Errorf("usecase: translate to %s: %w", target, ErrEmptyGeneration)
	}
	return Translation{DetectedLanguage: detected, Text: translated}, nil
}
