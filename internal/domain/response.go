package domain

// ResponseKind discriminates the BotResponse union.
type ResponseKind string

const (
	ResponseText     ResponseKind = "text"
	ResponseTemplate ResponseKind = "template"
)

// TemplateID names an entry of the template catalog.
type TemplateID string

const (
	TemplateWelcome           TemplateID = "welcome"
	TemplateOrderConfirmation TemplateID = "order_confirmation"
	TemplatePaymentReminder   TemplateID = "payment_reminder"
	TemplateOutOfStock        TemplateID = "out_of_stock"
)

// BotResponse is the single reply produced for an inbound message.
// For template responses Text holds the rendered template so transports
// without template support can send it as-is.
type BotResponse struct {
	Kind         ResponseKind
	Text         string
	Template     TemplateID
	Placeholders map[string]string
}

// TextResponse builds a plain text reply.
func TextResponse(text string) BotResponse {
	return BotResponse{Kind: ResponseText, Text: text}
}
