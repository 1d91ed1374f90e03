package domain

// Turn is one recorded exchange between a customer and the bot.
type Turn struct {
	PK         string
	SK         string
	BusinessID string
	CustomerID string
	Text       string
	Reply      string
	Language   string
	Intent     string
	TTL        int64
}
