package usecase

import (
	"fmt"
	"regexp"
	"strings"

	"orderbot/internal/domain"
)

var defaultTemplates = map[domain.TemplateID]string{
	domain.TemplateWelcome:           "Hello! Welcome to our store. How can I help you today?",
	domain.TemplateOrderConfirmation: "Thank you for your order! Your order #{{order_id}} has been confirmed. Total: ₹{{amount}}.",
	domain.TemplatePaymentReminder:   "Reminder: Your order #{{order_id}} is waiting for payment. Click here to pay: {{payment_link}}",
	domain.TemplateOutOfStock:        "We apologize, but the item {{item_name}} is currently out of stock. We'll notify you when it's available.",
}

// TemplateCatalog holds the reply templates. It is built once at startup
// and never modified, so it is safe for concurrent use.
type TemplateCatalog struct {
	templates map[domain.TemplateID]string
}

// NewTemplateCatalog returns the built-in templates with overrides applied.
// Override keys must name a known template.
func NewTemplateCatalog(overrides map[string]string) (*TemplateCatalog, error) {
	templates := make(map[domain.TemplateID]string, len(defaultTemplates))
	for id, text := range defaultTemplates {
		templates[id] = text
	}
	for key, text := range overrides {
		id := domain.TemplateID(strings.TrimSpace(key))
		if _, ok := defaultTemplates[id]; !ok {
			return nil, fmt.Errorf("usecase: unknown template %q", key)
		}
		if strings.TrimSpace(text) == "" {
			return nil, fmt.Errorf("usecase: template %q is empty", key)
		}
		templates[id] = text
	}
	return &TemplateCatalog{templates: templates}, nil
}

// DefaultCatalog returns the catalog with built-in templates only.
func DefaultCatalog() *TemplateCatalog {
	c, _ := NewTemplateCatalog(nil)
	return c
}

// Get returns the raw template text.
func (c *TemplateCatalog) Get(id domain.TemplateID) (string, bool) {
	text, ok := c.templates[id]
	return text, ok
}

var placeholderPattern = regexp.MustCompile(`\{\{([A-Za-z0-9_]+)\}\}`)

// Render substitutes every {{name}} marker with placeholders[name] in one
// pass. Markers without a value are left in place.
func Render(template string, placeholders map[string]string) string {
	return placeholderPattern.ReplaceAllStringFunc(template, func(marker string) string {
		name := marker[2 : len(marker)-2]
		if v, ok := placeholders[name]; ok {
			return v
		}
		return marker
	})
}
