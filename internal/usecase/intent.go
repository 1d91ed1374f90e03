package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// IntentClassifier decides whether a message asks to place an order.
type IntentClassifier struct {
	gen Generator
}

func NewIntentClassifier(gen Generator) (*IntentClassifier, error) {
	if gen == nil {
		return nil, errors.New("usecase: generator must not be nil")
	}
	return &IntentClassifier{gen: gen}, nil
}

// IsOrderIntent returns true only when the model answers "true". Callers
// treat an error as false.
func (c *IntentClassifier) IsOrderIntent(ctx context.Context, text string) (bool, error) {
	raw, err := c.gen.Generate(ctx, orderIntentPrompt(text))
	if err != nil {
		return false, fmt.Errorf("usecase: classify intent: %w", err)
	}
	return parseIntent(raw), nil
}

// parseIntent is the only place that interprets the classifier's free text.
// Anything but a case-insensitive "true" means no order intent.
func parseIntent(raw string) bool {
	return strings.EqualFold(strings.TrimSpace(raw), "true")
}
