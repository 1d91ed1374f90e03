package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"orderbot/internal/domain"
)

const (
	defaultLanguage = "en"

	orderApology = "Sorry, I couldn't process your order. Please try again or contact support."

	intentOrder = "order"
	intentChat  = "chat"
)

// OrderCreator creates an order from extracted items.
type OrderCreator interface {
	CreateOrder(ctx context.Context, req OrderRequest) (domain.Order, error)
}

// LanguageGuesser is an offline fallback used when AI detection fails.
type LanguageGuesser interface {
	Guess(text string) (string, bool)
}

// TranscriptWriter records exchanges. Failures never affect the reply.
type TranscriptWriter interface {
	SaveTurn(ctx context.Context, turn domain.Turn) error
}

type DispatcherConfig struct {
	// DefaultLanguage is used when the language cannot be detected.
	DefaultLanguage string
	Guesser         LanguageGuesser
	Transcript      TranscriptWriter
	Logger          *slog.Logger
}

// Dispatcher turns one inbound message into exactly one BotResponse. It only
// holds read-only state and may be shared by concurrent invocations.
type Dispatcher struct {
	gen        Generator
	detector   *LanguageDetector
	translator *Translator
	classifier *IntentClassifier
	extractor  *OrderExtractor
	orders     OrderCreator
	composer   *Composer

	defaultLanguage string
	guesser         LanguageGuesser
	transcript      TranscriptWriter
	log             *slog.Logger
}

func NewDispatcher(gen Generator, orders OrderCreator, catalog *TemplateCatalog, cfg DispatcherConfig) (*Dispatcher, error) {
	if gen == nil {
		return nil, errors.New("usecase: generator must not be nil")
	}
	if orders == nil {
		return nil, errors.New("usecase: order creator must not be nil")
	}
	composer, err := NewComposer(catalog)
	if err != nil {
		return nil, err
	}
	detector, _ := NewLanguageDetector(gen)
	translator, _ := NewTranslator(gen)
	classifier, _ := NewIntentClassifier(gen)
	extractor, _ := NewOrderExtractor(gen)

	lang := strings.TrimSpace(cfg.DefaultLanguage)
	if lang == "" {
		lang = defaultLanguage
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Dispatcher{
		gen:             gen,
		detector:        detector,
		translator:      translator,
		classifier:      classifier,
		extractor:       extractor,
		orders:          orders,
		composer:        composer,
		defaultLanguage: lang,
		guesser:         cfg.Guesser,
		transcript:      cfg.Transcript,
		log:             log.With("component", "dispatcher"),
	}, nil
}

// HandleIncomingMessage never fails: every path ends in a reply, falling back
// to the apology or the welcome message when a step errors.
func (d *Dispatcher) HandleIncomingMessage(ctx context.Context, msg domain.InboundMessage) (resp domain.BotResponse) {
	log := d.log.With("business_id", msg.BusinessID, "kind", string(msg.Kind))
	defer func() {
		if r := recover(); r != nil {
			log.Error("dispatch panicked", "panic", r)
			resp = d.composer.Welcome()
		}
	}()

	text := strings.TrimSpace(msg.Text)
	if text == "" {
		log.Info("message without text, sending welcome")
		return d.composer.Welcome()
	}

	lang := d.detectLanguage(ctx, text, log)
	intent := intentChat
	if d.isOrderIntent(ctx, text, log) {
		intent = intentOrder
		resp = d.orderFlow(ctx, msg, text, lang, log)
	} else {
		resp = d.chatFlow(ctx, text, lang, log)
	}

	log.Info("message dispatched", "language", lang, "intent", intent, "response_kind", string(resp.Kind), "template", string(resp.Template))
	d.record(ctx, msg, resp, lang, intent, log)
	return resp
}

func (d *Dispatcher) detectLanguage(ctx context.Context, text string, log *slog.Logger) string {
	lang, err := d.detector.Detect(ctx, text)
	if err == nil {
		return lang
	}
	if d.guesser != nil {
		if guess, ok := d.guesser.Guess(text); ok {
			log.Warn("language detection failed, using local guess", "language", guess, "err", err)
			return guess
		}
	}
	log.Warn("language detection failed, using default", "language", d.defaultLanguage, "err", err)
	return d.defaultLanguage
}

func (d *Dispatcher) isOrderIntent(ctx context.Context, text string, log *slog.Logger) bool {
	ok, err := d.classifier.IsOrderIntent(ctx, text)
	if err != nil {
		log.Warn("intent classification failed, assuming chat", "err", err)
		return false
	}
	return ok
}

func (d *Dispatcher) orderFlow(ctx context.Context, msg domain.InboundMessage, text, lang string, log *slog.Logger) domain.BotResponse {
	extracted, err := d.extractor.Extract(ctx, text)
	if err != nil {
		log.Warn("order extraction failed", "err", err)
		return d.apology(ctx, lang, log)
	}

	order, err := d.orders.CreateOrder(ctx, OrderRequest{
		BusinessID: msg.BusinessID,
		CustomerID: msg.From,
		Items:      extracted.Items,
		Language:   lang,
	})
	if err != nil {
		var oos *OutOfStockError
		if errors.As(err, &oos) {
			log.Info("order rejected, item out of stock", "item", oos.Item, "requested", oos.Requested, "available", oos.Available)
			return d.localize(ctx, d.composer.OutOfStock(oos.Item), lang, log)
		}
		log.Warn("order creation failed", "err", err)
		return d.apology(ctx, lang, log)
	}

	log.Info("order created", "order_id", order.ID, "items", len(order.Items), "total", order.TotalAmount)
	return d.composer.OrderConfirmation(order)
}

func (d *Dispatcher) chatFlow(ctx context.Context, text, lang string, log *slog.Logger) domain.BotResponse {
	raw, err := d.gen.Generate(ctx, chatReplyPrompt(text, lang))
	if err != nil {
		log.Warn("reply generation failed, sending welcome", "err", err)
		return d.composer.Welcome()
	}
	reply := strings.TrimSpace(raw)
	if reply == "" {
		log.Warn("reply generation returned no text, sending welcome")
		return d.composer.Welcome()
	}
	return d.composer.Chat(reply)
}

// localize translates the rendered text of resp into lang, keeping the
// template and placeholders. The untranslated text is kept when translation
// fails.
func (d *Dispatcher) localize(ctx context.Context, resp domain.BotResponse, lang string, log *slog.Logger) domain.BotResponse {
	translated, err := d.translator.Translate(ctx, resp.Text, lang)
	if err != nil {
		log.Warn("reply translation failed, sending English", "language", lang, "template", string(resp.Template), "err", err)
		return resp
	}
	resp.Text = translated.Text
	return resp
}

// apology returns the order-failure message in lang, or in English when the
// translation itself fails.
func (d *Dispatcher) apology(ctx context.Context, lang string, log *slog.Logger) domain.BotResponse {
	translated, err := d.translator.Translate(ctx, orderApology, lang)
	if err != nil {
		log.Warn("apology translation failed, sending English", "language", lang, "err", err)
		return domain.TextResponse(orderApology)
	}
	return domain.TextResponse(translated.Text)
}

func (d *Dispatcher) record(ctx context.Context, msg domain.InboundMessage, resp domain.BotResponse, lang, intent string, log *slog.Logger) {
	if d.transcript == nil || msg.BusinessID == "" || msg.From == "" {
		return
	}
	err := d.transcript.SaveTurn(ctx, domain.Turn{
		BusinessID: msg.BusinessID,
		CustomerID: msg.From,
		Text:       msg.Text,
		Reply:      resp.Text,
		Language:   lang,
		Intent:     intent,
	})
	if err != nil {
		log.Warn("transcript write failed", "err", err)
	}
}
