package usecase

import (
	"fmt"
	"strings"
)

// The four instruction prompts below are the only contract the bot has with
// the generative model. Each sends the customer text verbatim after a fixed
// instruction prefix.

func detectLanguagePrompt(text string) string {
	return "Detect the language of this text and return only the language name: " + text
}

func translatePrompt(text, from, to string) string {
	return fmt.Sprintf("Translate this text from %s to %s: %s", from, to, text)
}

func orderIntentPrompt(text string) string {
	return "Analyze if this message contains an order intent. Respond with only 'true' or 'false': " + text
}

func extractOrderPrompt(text string) string {
	return strings.Join([]string{
		"Extract order details from this message.",
		`Return JSON only, in the form {"items":[{"name":"<product name>","quantity":<positive integer>}]}.`,
		"Use the singular product name and do not add any other text.",
		"Message: " + text,
	}, "\n")
}

func chatReplyPrompt(text, language string) string {
	return fmt.Sprintf(
		"You are a helpful AI assistant for a business. Respond professionally and concisely.\n\nUser message: %s\n\nGenerate a response in %s.",
		text,
		language,
	)
}
