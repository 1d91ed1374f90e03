package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"orderbot/internal/domain"
)

// maxItemQuantity caps the quantity of one order line. Larger values are
// treated as malformed model output.
const maxItemQuantity = 10000

// OrderExtractor turns order text into structured items.
type OrderExtractor struct {
	gen Generator
}

func NewOrderExtractor(gen Generator) (*OrderExtractor, error) {
	if gen == nil {
		return nil, errors.New("usecase: generator must not be nil")
	}
	return &OrderExtractor{gen: gen}, nil
}

// Extract asks the model for the items of an order. Output that is not a
// valid items object yields an error wrapping ErrMalformedExtraction.
func (e *OrderExtractor) Extract(ctx context.Context, text string) (domain.ExtractedOrder, error) {
	raw, err := e.gen.Generate(ctx, extractOrderPrompt(text))
	if err != nil {
		return domain.ExtractedOrder{}, fmt.Errorf("usecase: extract order: %w", err)
	}
	return parseExtractedOrder(raw)
}

func parseExtractedOrder(raw string) (domain.ExtractedOrder, error) {
	var out domain.ExtractedOrder
	dec := json.NewDecoder(bytes.NewBufferString(stripCodeFence(raw)))
	if err := dec.Decode(&out); err != nil {
		return domain.ExtractedOrder{}, fmt.Errorf("%w: decode: %v", ErrMalformedExtraction, err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return domain.ExtractedOrder{}, fmt.Errorf("%w: trailing data after JSON object", ErrMalformedExtraction)
	}
	if len(out.Items) == 0 {
		return domain.ExtractedOrder{}, fmt.Errorf("%w: no items", ErrMalformedExtraction)
	}
	for i := range out.Items {
		item := &out.Items[i]
		item.Name = strings.TrimSpace(item.Name)
		if item.Name == "" {
			return domain.ExtractedOrder{}, fmt.Errorf("%w: item %d has no name", ErrMalformedExtraction, i)
		}
		if item.Quantity < 1 || item.Quantity > maxItemQuantity {
			return domain.ExtractedOrder{}, fmt.Errorf("%w: item %q has quantity %d", ErrMalformedExtraction, item.Name, item.Quantity)
		}
	}
	return out, nil
}

// stripCodeFence removes a ```json ... ``` wrapper models like to add.
func stripCodeFence(text string) string {
	s := strings.TrimSpace(text)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if idx := strings.IndexByte(s, '\n'); idx >= 0 && !strings.HasPrefix(strings.TrimSpace(s[:idx]), "{") {
		s = s[idx+1:]
	}
	if idx := strings.LastIndex(s, "```"); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}
