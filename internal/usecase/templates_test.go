package usecase

import (
	"testing"

	"github.com/stretchr/testify/require"

	"orderbot/internal/domain"
)

func TestRender(t *testing.T) {
	tpl := "Order #{{order_id}} total {{amount}}"

	require.Equal(t, "Order #ORD1 total 100", Render(tpl, map[string]string{"order_id": "ORD1", "amount": "100"}))
	require.Equal(t, "Order #ORD1 total {{amount}}", Render(tpl, map[string]string{"order_id": "ORD1"}))
	require.Equal(t, tpl, Render(tpl, nil))
}

func TestRender_SinglePass(t *testing.T) {
	out := Render("{{a}} {{b}}", map[string]string{"a": "{{b}}", "b": "x"})
	require.Equal(t, "{{b}} x", out)
}

func TestRender_RepeatedAndUnusedPlaceholders(t *testing.T) {
	out := Render("{{x}}-{{x}}-{{ y }}", map[string]string{"x": "1", "unused": "2"})
	require.Equal(t, "1-1-{{ y }}", out)
}

func TestNewTemplateCatalog(t *testing.T) {
	c, err := NewTemplateCatalog(map[string]string{"welcome": "Namaste! How can we help?"})
	require.NoError(t, err)

	welcome, ok := c.Get(domain.TemplateWelcome)
	require.True(t, ok)
	require.Equal(t, "Namaste! How can we help?", welcome)

	confirmation, ok := c.Get(domain.TemplateOrderConfirmation)
	require.True(t, ok)
	require.Contains(t, confirmation, "{{order_id}}")
	require.Contains(t, confirmation, "{{amount}}")

	_, err = NewTemplateCatalog(map[string]string{"goodbye": "bye"})
	require.Error(t, err)

	_, err = NewTemplateCatalog(map[string]string{"welcome": "  "})
	require.Error(t, err)
}

func TestDefaultCatalog_HasEveryTemplate(t *testing.T) {
	c := DefaultCatalog()
	for _, id := range []domain.TemplateID{
		domain.TemplateWelcome,
		domain.TemplateOrderConfirmation,
		domain.TemplatePaymentReminder,
		domain.TemplateOutOfStock,
	} {
		text, ok := c.Get(id)
		require.True(t, ok, id)
		require.NotEmpty(t, text, id)
	}
}
