// Package app wires the bot from configuration. Both the Lambda entry point
// and botctl build through it.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"

	"orderbot/internal/integrations/gemini"
	"orderbot/internal/integrations/langguess"
	"orderbot/internal/integrations/openai"
	"orderbot/internal/integrations/paramstore"
	"orderbot/internal/repository"
	"orderbot/internal/usecase"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

type Config struct {
	OrdersTable     string
	ParamPrefix     string
	Provider        string
	Model           string
	// BaseURL overrides the provider endpoint, e.g. an OpenAI-compatible gateway.
	BaseURL         string
	// Temperature is left to the provider default when nil.
	Temperature     *float64
	MaxOutputTokens int
	LLMTimeout      time.Duration
	DefaultLanguage string
	PaymentLinkBase string
}

// App holds the wired services. Store is nil when built by wire alone.
type App struct {
	Store      *repository.Client
	Catalog    *usecase.TemplateCatalog
	Dispatcher *usecase.Dispatcher
	Reminders  *usecase.ReminderService
}

// Build creates AWS clients from awsCfg and wires every service.
func Build(ctx context.Context, awsCfg aws.Config, cfg Config, log *slog.Logger) (*App, error) {
	if strings.TrimSpace(cfg.OrdersTable) == "" {
		return nil, errors.New("app: orders table must not be empty")
	}
	if strings.TrimSpace(cfg.ParamPrefix) == "" {
		return nil, errors.New("app: param prefix must not be empty")
	}

	params, err := paramstore.New(awsssm.NewFromConfig(awsCfg))
	if err != nil {
		return nil, fmt.Errorf("app: SSM client: %w", err)
	}
	store, err := repository.New(awsdynamodb.NewFromConfig(awsCfg), cfg.OrdersTable)
	if err != nil {
		return nil, fmt.Errorf("app: orders store: %w", err)
	}
	gen, err := NewGenerator(params, cfg)
	if err != nil {
		return nil, err
	}
	catalog, err := LoadCatalog(ctx, params, cfg.ParamPrefix)
	if err != nil {
		return nil, err
	}
	a, err := wire(store, gen, catalog, cfg, log)
	if err != nil {
		return nil, err
	}
	a.Store = store
	return a, nil
}

type appStore interface {
	usecase.OrderStore
	usecase.OrderReader
	usecase.TranscriptWriter
}

func wire(store appStore, gen usecase.Generator, catalog *usecase.TemplateCatalog, cfg Config, log *slog.Logger) (*App, error) {
	orders, err := usecase.NewOrderService(store)
	if err != nil {
		return nil, err
	}
	guesser := langguess.New()
	dispatcher, err := usecase.NewDispatcher(gen, orders, catalog, usecase.DispatcherConfig{
		DefaultLanguage: cfg.DefaultLanguage,
		Guesser:         guesser,
		Transcript:      store,
		Logger:          log,
	})
	if err != nil {
		return nil, fmt.Errorf("app: dispatcher: %w", err)
	}
	composer, err := usecase.NewComposer(catalog)
	if err != nil {
		return nil, err
	}
	translator, err := usecase.NewTranslator(gen)
	if err != nil {
		return nil, err
	}
	reminders, err := usecase.NewReminderService(store, composer, translator, usecase.ReminderConfig{
		DefaultLanguage: cfg.DefaultLanguage,
		PaymentLinkBase: cfg.PaymentLinkBase,
		Languages:       guesser,
		Logger:          log,
	})
	if err != nil {
		return nil, fmt.Errorf("app: reminders: %w", err)
	}

	return &App{Catalog: catalog, Dispatcher: dispatcher, Reminders: reminders}, nil
}

// NewGenerator returns the configured provider client bounded by
// cfg.LLMTimeout per call.
func NewGenerator(params paramstore.Getter, cfg Config) (usecase.Generator, error) {
	var (
		gen usecase.Generator
		err error
	)
	switch provider := strings.ToLower(strings.TrimSpace(cfg.Provider)); provider {
	case "", ProviderGemini:
		opts := []gemini.Option{gemini.WithTimeout(cfg.LLMTimeout), gemini.WithModel(cfg.Model)}
		if cfg.BaseURL != "" {
			opts = append(opts, gemini.WithBaseURL(cfg.BaseURL))
		}
		if cfg.Temperature != nil {
			opts = append(opts, gemini.WithTemperature(*cfg.Temperature))
		}
		if cfg.MaxOutputTokens > 0 {
			opts = append(opts, gemini.WithMaxOutputTokens(int32(min(cfg.MaxOutputTokens, math.MaxInt32))))
		}
		gen, err = gemini.NewClient(params, cfg.ParamPrefix, opts...)
	case ProviderOpenAI:
		opts := []openai.Option{openai.WithTimeout(cfg.LLMTimeout), openai.WithModel(cfg.Model), openai.WithMaxTokens(cfg.MaxOutputTokens)}
		if cfg.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
		}
		if cfg.Temperature != nil {
			opts = append(opts, openai.WithTemperature(*cfg.Temperature))
		}
		gen, err = openai.NewClient(params, cfg.ParamPrefix, opts...)
	default:
		return nil, fmt.Errorf("app: unsupported LLM provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("app: %s client: %w", cfg.Provider, err)
	}
	return usecase.WithCallTimeout(gen, cfg.LLMTimeout), nil
}

type pathGetter interface {
	GetParametersByPath(ctx context.Context, path string) (map[string]string, error)
}

// LoadCatalog applies template overrides stored under <prefix>/templates.
func LoadCatalog(ctx context.Context, params pathGetter, prefix string) (*usecase.TemplateCatalog, error) {
	overrides, err := params.GetParametersByPath(ctx, strings.TrimRight(prefix, "/")+"/templates")
	if err != nil {
		return nil, fmt.Errorf("app: load template overrides: %w", err)
	}
	catalog, err := usecase.NewTemplateCatalog(overrides)
	if err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}
	return catalog, nil
}
