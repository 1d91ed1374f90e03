package usecase

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strings"

	"orderbot/internal/domain"
	"orderbot/internal/repository"
)

const defaultPaymentLinkBase = "https://pay.example.com"

// OrderReader loads stored orders.
type OrderReader interface {
	GetOrder(ctx context.Context, businessID, orderID string) (domain.Order, error)
}

type PaymentReminderInput struct {
	BusinessID string
	OrderID    string
}

// PaymentReminder is a reminder ready to be sent to the order's customer.
type PaymentReminder struct {
	To       string
	Language string
	Response domain.BotResponse
}

// LanguageDescriber names the language of a text locally, as an ISO 639-1
// code and an English name.
type LanguageDescriber interface {
	Describe(text string) (code, name string, ok bool)
}

// ReminderService composes payment reminders for unpaid orders.
type ReminderService struct {
	orders          OrderReader
	composer        *Composer
	translator      *Translator
	defaultLanguage string
	paymentLinkBase string
	languages       LanguageDescriber
	log             *slog.Logger
}

type ReminderConfig struct {
	// DefaultLanguage is the language the templates are written in.
	DefaultLanguage string
	// PaymentLinkBase is the payment gateway URL; links are <base>/order/<id>.
	PaymentLinkBase string
	// Languages, when set, recognises reminders already in the customer's
	// language without a model call.
	Languages LanguageDescriber
	Logger    *slog.Logger
}

func NewReminderService(orders OrderReader, composer *Composer, translator *Translator, cfg ReminderConfig) (*ReminderService, error) {
	if orders == nil {
		return nil, errors.New("usecase: order reader must not be nil")
	}
	if composer == nil {
		return nil, errors.New("usecase: composer must not be nil")
	}
	base := strings.TrimRight(strings.TrimSpace(cfg.PaymentLinkBase), "/")
	if base == "" {
		base = defaultPaymentLinkBase
	}
	lang := strings.TrimSpace(cfg.DefaultLanguage)
	if lang == "" {
		lang = defaultLanguage
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return &ReminderService{
		orders:          orders,
		composer:        composer,
		translator:      translator,
		defaultLanguage: lang,
		paymentLinkBase: base,
		languages:       cfg.Languages,
		log:             log.With("component", "reminders"),
	}, nil
}

// PaymentReminder builds the payment_reminder template for an unpaid order,
// translated into the order's language when that differs from the default.
// A failed translation keeps the untranslated text.
func (s *ReminderService) PaymentReminder(ctx context.Context, in PaymentReminderInput) (PaymentReminder, error) {
	businessID := strings.TrimSpace(in.BusinessID)
	orderID := strings.TrimSpace(in.OrderID)
	if businessID == "" || orderID == "" {
		return PaymentReminder{}, newError(ErrorInvalidInput, "missing_business_or_order", nil)
	}

	order, err := s.orders.GetOrder(ctx, businessID, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return PaymentReminder{}, newError(ErrorNotFound, "order_not_found", err)
		}
		return PaymentReminder{}, newError(ErrorInternal, "order_read_error", err)
	}
	if order.Payment.Status == domain.PaymentCompleted {
		return PaymentReminder{}, newError(ErrorInvalidInput, "order_already_paid", nil)
	}
	if order.Status == domain.OrderCancelled {
		return PaymentReminder{}, newError(ErrorInvalidInput, "order_cancelled", nil)
	}

	resp := s.composer.PaymentReminder(order, s.paymentLink(order.ID))
	lang := strings.TrimSpace(order.Language)
	if lang == "" {
		lang = s.defaultLanguage
	}
	if s.translator != nil && !s.alreadyIn(lang, resp.Text) {
		translated, err := s.translator.Translate(ctx, resp.Text, lang)
		if err != nil {
			s.log.Warn("payment reminder translation failed", "order_id", order.ID, "language", lang, "err", err)
		} else {
			resp.Text = translated.Text
		}
	}

	s.log.Info("payment reminder composed", "order_id", order.ID, "business_id", businessID, "language", lang)
	return PaymentReminder{To: order.CustomerID, Language: lang, Response: resp}, nil
}

// alreadyIn reports whether text is in lang. Order languages are whatever the
// detector answered, so both codes ("en") and names ("English") must match.
func (s *ReminderService) alreadyIn(lang, text string) bool {
	if strings.EqualFold(lang, s.defaultLanguage) {
		return true
	}
	if s.languages == nil {
		return false
	}
	code, name, ok := s.languages.Describe(text)
	return ok && (strings.EqualFold(lang, code) || strings.EqualFold(lang, name))
}

func (s *ReminderService) paymentLink(orderID string) string {
	return s.paymentLinkBase + "/order/" + url.PathEscape(orderID)
}
