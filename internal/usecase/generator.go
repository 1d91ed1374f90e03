package usecase

import (
	"context"
	"time"
)

// Generator is the single generative-text operation every AI-backed step
// uses. Both the Gemini and the OpenAI clients satisfy it.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type boundedGenerator struct {
	next    Generator
	timeout time.Duration
}

// WithCallTimeout bounds every Generate call of g by d. A non-positive d
// returns g unchanged.
func WithCallTimeout(g Generator, d time.Duration) Generator {
	if d <= 0 || g == nil {
		return g
	}
	return &boundedGenerator{next: g, timeout: d}
}

func (b *boundedGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()
	return b.next.Generate(ctx, prompt)
}
