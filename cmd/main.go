package main

import (
	"context"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"

	"orderbot/handler"
	"orderbot/internal/app"
	"orderbot/internal/logging"
)

func main() {
	ctx := context.Background()

	// ---- Configuration (read only here) ----
	logger, err := logging.New(logging.Config{
		Format: os.Getenv("LOG_FORMAT"),
		Level:  os.Getenv("LOG_LEVEL"),
	})
	if err != nil {
		slog.Error("invalid logging configuration", "err", err)
		os.Exit(1)
	}
	slog.SetDefault(logger)

	ordersTable := mustEnv("ORDERS_TABLE")
	paramPrefix := mustEnv("PARAM_PREFIX")
	provider := envString("LLM_PROVIDER", "gemini")
	model := os.Getenv("LLM_MODEL")
	baseURL := os.Getenv("LLM_BASE_URL")
	temperature := envFloat("LLM_TEMPERATURE")
	maxOutputTokens := envInt("LLM_MAX_OUTPUT_TOKENS", 0)
	llmTimeout := time.Duration(envInt("LLM_TIMEOUT_SECONDS", 10)) * time.Second
	defaultLanguage := envString("DEFAULT_LANGUAGE", "en")
	paymentLinkBase := os.Getenv("PAYMENT_LINK_BASE")
	maxMessageLen := envInt("MAX_MESSAGE_LENGTH", 1000)

	// ---- AWS SDK config ----
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		slog.Error("failed to load AWS config", "err", err)
		os.Exit(1)
	}

	// ---- Services ----
	bot, err := app.Build(ctx, cfg, app.Config{
		OrdersTable:     ordersTable,
		ParamPrefix:     paramPrefix,
		Provider:        provider,
		Model:           model,
		BaseURL:         baseURL,
		Temperature:     temperature,
		MaxOutputTokens: maxOutputTokens,
		LLMTimeout:      llmTimeout,
		DefaultLanguage: defaultLanguage,
		PaymentLinkBase: paymentLinkBase,
	}, logger)
	if err != nil {
		slog.Error("failed to build bot", "err", err)
		os.Exit(1)
	}

	// ---- Handler ----
	h, err := handler.NewHandler(bot.Dispatcher, bot.Reminders, handler.Options{
		MaxMessageLength: maxMessageLen,
		Logger:           logger,
	})
	if err != nil {
		slog.Error("failed to create handler", "err", err)
		os.Exit(1)
	}

	slog.Info("orderbot ready", "provider", provider, "default_language", defaultLanguage)
	lambda.Start(h.Handle)
}

func mustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		slog.Error("required environment variable is not set", "key", key)
		os.Exit(1)
	}
	return v
}

func envString(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// envFloat returns nil when key is unset or not a number, leaving the
// provider default in place.
func envFloat(key string) *float64 {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		slog.Warn("ignoring invalid float environment variable", "key", key, "value", v)
		return nil
	}
	return &f
}
