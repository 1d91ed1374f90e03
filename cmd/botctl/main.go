// Command botctl drives the order bot from a terminal: dispatch a message,
// render templates, compose payment reminders and seed the product catalog.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/spf13/cobra"

	"orderbot/internal/app"
	"orderbot/internal/logging"
)

type options struct {
	table           string
	paramPrefix     string
	provider        string
	model           string
	baseURL         string
	temperature     float64
	maxOutputTokens int
	timeout         time.Duration
	defaultLanguage string
	paymentLinkBase string
	logLevel        string
	logFormat       string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "botctl",
		Short:         "Operate the WhatsApp order bot locally",
		SilenceUsage: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.table, "table", os.Getenv("ORDERS_TABLE"), "DynamoDB table holding products, orders and transcripts")
	flags.StringVar(&opts.paramPrefix, "param-prefix", os.Getenv("PARAM_PREFIX"), "SSM parameter prefix for API tokens and templates")
	flags.StringVar(&opts.provider, "provider", envOr("LLM_PROVIDER", app.ProviderGemini), "LLM provider: gemini or openai")
	flags.StringVar(&opts.model, "model", os.Getenv("LLM_MODEL"), "LLM model name (provider default when empty)")
	flags.StringVar(&opts.baseURL, "base-url", os.Getenv("LLM_BASE_URL"), "LLM endpoint override")
	flags.Float64Var(&opts.temperature, "temperature", 0, "sampling temperature (provider default when unset)")
	flags.IntVar(&opts.maxOutputTokens, "max-output-tokens", 0, "cap on generated tokens (provider default when 0)")
	flags.DurationVar(&opts.timeout, "timeout", 10*time.Second, "timeout of each LLM call")
	flags.StringVar(&opts.defaultLanguage, "default-language", envOr("DEFAULT_LANGUAGE", "en"), "language used when detection fails")
	flags.StringVar(&opts.paymentLinkBase, "payment-link-base", os.Getenv("PAYMENT_LINK_BASE"), "payment gateway base URL")
	flags.StringVar(&opts.logLevel, "log-level", "info", "debug, info, warn or error")
	flags.StringVar(&opts.logFormat, "log-format", logging.FormatText, "text or json")

	root.AddCommand(
		newDispatchCmd(opts),
		newRenderCmd(),
		newRemindCmd(opts),
		newProductsCmd(opts),
	)
	return root
}

func (o *options) logger() (*slog.Logger, error) {
	return logging.New(logging.Config{Format: o.logFormat, Level: o.logLevel})
}

// build wires the full bot against AWS.
func (o *options) build(cmd *cobra.Command) (*app.App, error) {
	ctx := cmd.Context()
	log, err := o.logger()
	if err != nil {
		return nil, err
	}
	awsCfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	cfg := app.Config{
		OrdersTable:     o.table,
		ParamPrefix:     o.paramPrefix,
		Provider:        o.provider,
		Model:           o.model,
		BaseURL:         o.baseURL,
		MaxOutputTokens: o.maxOutputTokens,
		LLMTimeout:      o.timeout,
		DefaultLanguage: o.defaultLanguage,
		PaymentLinkBase: o.paymentLinkBase,
	}
	if cmd.Flags().Changed("temperature") {
		cfg.Temperature = &o.temperature
	}
	return app.Build(ctx, awsCfg, cfg, log)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
