package usecase

import (
	"testing"

	"github.com/stretchr/testify/require"

	"orderbot/internal/domain"
)

func TestComposer(t *testing.T) {
	_, err := NewComposer(nil)
	require.Error(t, err)

	c, err := NewComposer(DefaultCatalog())
	require.NoError(t, err)

	resp := c.OrderConfirmation(domain.Order{ID: "ORD123", TotalAmount: 1500})
	require.Equal(t, domain.BotResponse{
		Kind:         domain.ResponseTemplate,
		Text:         "Thank you for your order! Your order #ORD123 has been confirmed. Total: ₹1500.",
		Template:     domain.TemplateOrderConfirmation,
		Placeholders: map[string]string{"order_id": "ORD123", "amount": "1500"},
	}, resp)

	resp = c.PaymentReminder(domain.Order{ID: "ORD7", TotalAmount: 99.99}, "https://pay.example.com/order/ORD7")
	require.Equal(t, domain.TemplatePaymentReminder, resp.Template)
	require.Equal(t, "Reminder: Your order #ORD7 is waiting for payment. Click here to pay: https://pay.example.com/order/ORD7", resp.Text)
	require.Equal(t, "99.99", resp.Placeholders["amount"])

	resp = c.Chat("hi")
	require.Equal(t, domain.TextResponse("hi"), resp)

	resp = c.Welcome()
	require.Equal(t, domain.ResponseText, resp.Kind)
	require.Equal(t, "Hello! Welcome to our store. How can I help you today?", resp.Text)
}

func TestComposer_UsesOverriddenTemplates(t *testing.T) {
	catalog, err := NewTemplateCatalog(map[string]string{"out_of_stock": "Sorry, {{item_name}} is sold out."})
	require.NoError(t, err)
	c, _ := NewComposer(catalog)

	resp := c.OutOfStock("Kurta")
	require.Equal(t, "Sorry, Kurta is sold out.", resp.Text)
	require.Equal(t, map[string]string{"item_name": "Kurta"}, resp.Placeholders)
}

func TestFormatAmount(t *testing.T) {
	require.Equal(t, "1500", formatAmount(1500))
	require.Equal(t, "10.5", formatAmount(10.5))
	require.Equal(t, "0", formatAmount(0))
}
