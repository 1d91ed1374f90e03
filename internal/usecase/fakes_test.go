package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"orderbot/internal/domain"
	"orderbot/internal/repository"
)

type step string

const (
	stepDetect    step = "detect"
	stepTranslate step = "translate"
	stepIntent    step = "intent"
	stepExtract   step = "extract"
	stepChat      step = "chat"
)

func stepOf(prompt string) step {
	switch {
	case strings.HasPrefix(prompt, "Detect the language"):
		return stepDetect
	case strings.HasPrefix(prompt, "Translate this text"):
		return stepTranslate
	case strings.HasPrefix(prompt, "Analyze if this message"):
		return stepIntent
	case strings.HasPrefix(prompt, "Extract order details"):
		return stepExtract
	case strings.HasPrefix(prompt, "You are a helpful AI assistant"):
		return stepChat
	}
	return step("unknown")
}

type reply struct {
	text string
	err  error
}

func says(text string) reply { return reply{text: text} }
func fails(msg string) reply { return reply{err: errors.New(msg)} }

// scriptedGenerator answers each kind of prompt from its own queue. The last
// reply of a queue is repeated once the queue is drained.
type scriptedGenerator struct {
	mu      sync.Mutex
	script  map[step][]reply
	panicOn step
	calls   []step
	prompts []string
}

func newScript(script map[step][]reply) *scriptedGenerator {
	return &scriptedGenerator{script: script}
}

func (g *scriptedGenerator) Generate(_ context.Context, prompt string) (string, error) {
	s := stepOf(prompt)
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, s)
	g.prompts = append(g.prompts, prompt)
	if g.panicOn != "" && g.panicOn == s {
		panic(fmt.Sprintf("scripted panic on %s", s))
	}
	queue := g.script[s]
	if len(queue) == 0 {
		return "", fmt.Errorf("no reply scripted for %s", s)
	}
	r := queue[0]
	if len(queue) > 1 {
		g.script[s] = queue[1:]
	}
	return r.text, r.err
}

func (g *scriptedGenerator) count(s step) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := 0
	for _, c := range g.calls {
		if c == s {
			n++
		}
	}
	return n
}

func (g *scriptedGenerator) lastPrompt(s step) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	for i := len(g.calls) - 1; i >= 0; i-- {
		if g.calls[i] == s {
			return g.prompts[i]
		}
	}
	return ""
}

type fakeOrderCreator struct {
	mu       sync.Mutex
	order    domain.Order
	err      error
	requests []OrderRequest
}

func (f *fakeOrderCreator) CreateOrder(_ context.Context, req OrderRequest) (domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	return f.order, f.err
}

func (f *fakeOrderCreator) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

type fakeGuesser struct {
	lang string
	ok   bool
}

func (f fakeGuesser) Guess(string) (string, bool) { return f.lang, f.ok }

type fakeTranscript struct {
	mu    sync.Mutex
	turns []domain.Turn
	err   error
}

func (f *fakeTranscript) SaveTurn(_ context.Context, turn domain.Turn) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.turns = append(f.turns, turn)
	return f.err
}

type fakeStore struct {
	products map[string]domain.Product
	getErr   error
	writeErr error
	created  []domain.Order
}

func (f *fakeStore) GetProduct(_ context.Context, businessID, name string) (domain.Product, error) {
	if f.getErr != nil {
		return domain.Product{}, f.getErr
	}
	p, ok := f.products[repository.ProductKey(name)]
	if !ok || p.BusinessID != businessID {
		return domain.Product{}, repository.ErrNotFound
	}
	return p, nil
}

func (f *fakeStore) CreateOrder(_ context.Context, order domain.Order) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	f.created = append(f.created, order)
	return nil
}

type fakeOrderReader struct {
	order domain.Order
	err   error
}

func (f *fakeOrderReader) GetOrder(_ context.Context, businessID, orderID string) (domain.Order, error) {
	if f.err != nil {
		return domain.Order{}, f.err
	}
	if f.order.BusinessID != businessID || f.order.ID != orderID {
		return domain.Order{}, repository.ErrNotFound
	}
	return f.order, nil
}

func expectError(t *testing.T, err error, code ErrorCode, reason string) {
	t.Helper()
	var usecaseErr *Error
	require.ErrorAs(t, err, &usecaseErr)
	require.Equal(t, code, usecaseErr.Code)
	require.Equal(t, reason, usecaseErr.Reason)
}
