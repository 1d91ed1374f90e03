package usecase

import (
	"errors"
	"strconv"

	"orderbot/internal/domain"
)

// Composer builds BotResponses from the template catalog.
type Composer struct {
	catalog *TemplateCatalog
}

func NewComposer(catalog *TemplateCatalog) (*Composer, error) {
	if catalog == nil {
		return nil, errors.New("usecase: template catalog must not be nil")
	}
	return &Composer{catalog: catalog}, nil
}

// Template fills the named template. Text carries the rendered result.
func (c *Composer) Template(id domain.TemplateID, placeholders map[string]string) domain.BotResponse {
	tpl, _ := c.catalog.Get(id)
	return domain.BotResponse{
		Kind:         domain.ResponseTemplate,
		Text:         Render(tpl, placeholders),
		Template:     id,
		Placeholders: placeholders,
	}
}

func (c *Composer) OrderConfirmation(order domain.Order) domain.BotResponse {
	return c.Template(domain.TemplateOrderConfirmation, map[string]string{
		"order_id": order.ID,
		"amount":   formatAmount(order.TotalAmount),
	})
}

func (c *Composer) OutOfStock(item string) domain.BotResponse {
	return c.Template(domain.TemplateOutOfStock, map[string]string{
		"item_name": item,
	})
}

func (c *Composer) PaymentReminder(order domain.Order, paymentLink string) domain.BotResponse {
	return c.Template(domain.TemplatePaymentReminder, map[string]string{
		"order_id":     order.ID,
		"amount":       formatAmount(order.TotalAmount),
		"payment_link": paymentLink,
	})
}

// Chat wraps a generated reply as plain text.
func (c *Composer) Chat(reply string) domain.BotResponse {
	return domain.TextResponse(reply)
}

// Welcome is the static reply used whenever nothing better is available.
func (c *Composer) Welcome() domain.BotResponse {
	tpl, _ := c.catalog.Get(domain.TemplateWelcome)
	return domain.TextResponse(Render(tpl, nil))
}

// formatAmount prints whole amounts without decimals (1500, not 1500.00).
func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
