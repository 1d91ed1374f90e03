package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"

	"orderbot/internal/domain"
	"orderbot/internal/usecase"
)

const (
	correlationHeader       = "X-Correlation-Id"
	defaultMaxMessageLength = 1000

	routeWebhook   = "/webhook"
	routeReminders = "/reminders"
)

// Dispatcher answers one inbound message. It never fails.
type Dispatcher interface {
	HandleIncomingMessage(ctx context.Context, msg domain.InboundMessage) domain.BotResponse
}

type Reminders interface {
	PaymentReminder(ctx context.Context, in usecase.PaymentReminderInput) (usecase.PaymentReminder, error)
}

type Options struct {
	// MaxMessageLength caps inbound text, in characters. Zero means 1000.
	MaxMessageLength int
	Logger           *slog.Logger
}

type Handler struct {
	dispatcher       Dispatcher
	reminders        Reminders
	maxMessageLength int
	log              *slog.Logger
	now              func() time.Time
}

type webhookRequest struct {
	From       string `json:"from"`
	Text       string `json:"text"`
	Timestamp  string `json:"timestamp"`
	Type       string `json:"type"`
	BusinessID string `json:"businessId"`
}

type botResponse struct {
	Kind         string            `json:"kind"`
	Text         string            `json:"text"`
	Template     string            `json:"template,omitempty"`
	Placeholders map[string]string `json:"placeholders,omitempty"`
}

type reminderRequest struct {
	BusinessID string `json:"businessId"`
	OrderID    string `json:"orderId"`
}

type reminderResponse struct {
	To       string      `json:"to"`
	Language string      `json:"language"`
	Message  botResponse `json:"message"`
}

type errorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}

func NewHandler(dispatcher Dispatcher, reminders Reminders, opts Options) (*Handler, error) {
	if dispatcher == nil {
		return nil, errors.New("handler: dispatcher must not be nil")
	}
	if reminders == nil {
		return nil, errors.New("handler: reminders must not be nil")
	}
	maxLen := opts.MaxMessageLength
	if maxLen <= 0 {
		maxLen = defaultMaxMessageLength
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Handler{
		dispatcher:       dispatcher,
		reminders:        reminders,
		maxMessageLength: maxLen,
		log:              log.With("component", "handler"),
		now:              time.Now,
	}, nil
}

// Handle routes API Gateway proxy events. It only returns an error to the
// Lambda runtime for failures the runtime itself should see; every request
// problem is reported through the status code.
func (h *Handler) Handle(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	correlationID := headerValue(event.Headers, correlationHeader)
	if correlationID == "" {
		correlationID = uuid.NewString()
	}
	log := h.log.With("correlation_id", correlationID, "path", event.Path)

	if event.HTTPMethod != "" && event.HTTPMethod != http.MethodPost {
		return jsonResponse(http.StatusMethodNotAllowed, correlationID, errorResponse{Error: string(usecase.ErrorInvalidInput), Reason: "method_not_allowed"}), nil
	}

	switch strings.TrimRight(event.Path, "/") {
	case routeWebhook, "":
		return h.webhook(ctx, event, correlationID, log), nil
	case routeReminders:
		return h.reminder(ctx, event, correlationID, log), nil
	default:
		return jsonResponse(http.StatusNotFound, correlationID, errorResponse{Error: string(usecase.ErrorNotFound), Reason: "unknown_route"}), nil
	}
}

func (h *Handler) webhook(ctx context.Context, event events.APIGatewayProxyRequest, correlationID string, log *slog.Logger) events.APIGatewayProxyResponse {
	var req webhookRequest
	if err := json.Unmarshal([]byte(event.Body), &req); err != nil {
		log.Warn("invalid webhook body", "err", err)
		return invalidInput(correlationID, "invalid_json")
	}
	msg, reason := h.inboundMessage(req)
	if reason != "" {
		log.Warn("rejected webhook message", "reason", reason)
		return invalidInput(correlationID, reason)
	}

	resp := h.dispatcher.HandleIncomingMessage(ctx, msg)
	return jsonResponse(http.StatusOK, correlationID, toBotResponse(resp))
}

func (h *Handler) inboundMessage(req webhookRequest) (domain.InboundMessage, string) {
	msg := domain.InboundMessage{
		From:       strings.TrimSpace(req.From),
		Text:       req.Text,
		Kind:       domain.MessageKind(strings.ToLower(strings.TrimSpace(req.Type))),
		BusinessID: strings.TrimSpace(req.BusinessID),
	}
	if msg.From == "" {
		return msg, "missing_from"
	}
	if msg.BusinessID == "" {
		return msg, "missing_business_id"
	}
	if msg.Kind == "" {
		msg.Kind = domain.KindText
	}
	if !msg.Kind.Valid() {
		return msg, "unsupported_type"
	}
	if utf8.RuneCountInString(msg.Text) > h.maxMessageLength {
		return msg, "message_too_long"
	}
	ts, ok := parseTimestamp(req.Timestamp, h.now)
	if !ok {
		return msg, "invalid_timestamp"
	}
	msg.Timestamp = ts
	return msg, ""
}

func (h *Handler) reminder(ctx context.Context, event events.APIGatewayProxyRequest, correlationID string, log *slog.Logger) events.APIGatewayProxyResponse {
	var req reminderRequest
	if err := json.Unmarshal([]byte(event.Body), &req); err != nil {
		log.Warn("invalid reminder body", "err", err)
		return invalidInput(correlationID, "invalid_json")
	}
	out, err := h.reminders.PaymentReminder(ctx, usecase.PaymentReminderInput{
		BusinessID: req.BusinessID,
		OrderID:    req.OrderID,
	})
	if err != nil {
		status, body := mapError(err)
		log.Warn("payment reminder failed", "status", status, "err", err)
		return jsonResponse(status, correlationID, body)
	}
	return jsonResponse(http.StatusOK, correlationID, reminderResponse{
		To:       out.To,
		Language: out.Language,
		Message:  toBotResponse(out.Response),
	})
}

func toBotResponse(resp domain.BotResponse) botResponse {
	return botResponse{
		Kind:         string(resp.Kind),
		Text:         resp.Text,
		Template:     string(resp.Template),
		Placeholders: resp.Placeholders,
	}
}

// parseTimestamp accepts WhatsApp unix seconds or RFC 3339. A missing
// timestamp means the message arrived now.
func parseTimestamp(raw string, now func() time.Time) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return now().UTC(), true
	}
	if secs, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return time.Unix(secs, 0).UTC(), true
	}
	if ts, err := time.Parse(time.RFC3339, raw); err == nil {
		return ts.UTC(), true
	}
	return time.Time{}, false
}

func mapError(err error) (int, errorResponse) {
	var ucErr *usecase.Error
	if !errors.As(err, &ucErr) {
		return http.StatusInternalServerError, errorResponse{Error: string(usecase.ErrorInternal)}
	}
	body := errorResponse{Error: string(ucErr.Code), Reason: ucErr.Reason}
	switch ucErr.Code {
	case usecase.ErrorInvalidInput:
		return http.StatusBadRequest, body
	case usecase.ErrorNotFound:
		return http.StatusNotFound, body
	case usecase.ErrorUpstream:
		return http.StatusBadGateway, body
	default:
		return http.StatusInternalServerError, body
	}
}

func invalidInput(correlationID, reason string) events.APIGatewayProxyResponse {
	return jsonResponse(http.StatusBadRequest, correlationID, errorResponse{Error: string(usecase.ErrorInvalidInput), Reason: reason})
}

func jsonResponse(status int, correlationID string, body any) events.APIGatewayProxyResponse {
	payload, err := json.Marshal(body)
	if err != nil {
		status = http.StatusInternalServerError
		payload = []byte(`{"error":"INTERNAL_ERROR"}`)
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers: map[string]string{
			"Content-Type":    "application/json",
			correlationHeader: correlationID,
		},
		Body: string(payload),
	}
}

func headerValue(headers map[string]string, name string) string {
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
