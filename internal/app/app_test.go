package app

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/stretchr/testify/require"

	"orderbot/internal/domain"
	"orderbot/internal/integrations/gemini"
	"orderbot/internal/integrations/openai"
	"orderbot/internal/logging"
	"orderbot/internal/repository"
)

type fakeParams struct {
	values map[string]string
	byPath map[string]map[string]string
	err    error
}

func (f *fakeParams) GetParameter(_ context.Context, name string) (string, error) {
	v, ok := f.values[name]
	if !ok {
		return "", errors.New("not configured: " + name)
	}
	return v, nil
}

func (f *fakeParams) GetParametersByPath(_ context.Context, path string) (map[string]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.byPath[path], nil
}

type fakeStore struct{}

func (fakeStore) GetProduct(context.Context, string, string) (domain.Product, error) {
	return domain.Product{}, repository.ErrNotFound
}
func (fakeStore) CreateOrder(context.Context, domain.Order) error { return nil }
func (fakeStore) GetOrder(context.Context, string, string) (domain.Order, error) {
	return domain.Order{}, repository.ErrNotFound
}
func (fakeStore) SaveTurn(context.Context, domain.Turn) error { return nil }

type echoGenerator struct{}

func (echoGenerator) Generate(context.Context, string) (string, error) { return "false", nil }

func TestNewGenerator_SelectsProvider(t *testing.T) {
	params := &fakeParams{}

	gen, err := NewGenerator(params, Config{ParamPrefix: "/bot", LLMTimeout: time.Second})
	require.NoError(t, err)
	require.NotNil(t, gen)

	gen, err = NewGenerator(params, Config{ParamPrefix: "/bot", Provider: "OpenAI", Model: "gpt-4o"})
	require.NoError(t, err)
	require.IsType(t, &openai.Client{}, gen)

	gen, err = NewGenerator(params, Config{ParamPrefix: "/bot", Provider: "gemini"})
	require.NoError(t, err)
	require.IsType(t, &gemini.Client{}, gen)

	_, err = NewGenerator(params, Config{ParamPrefix: "/bot", Provider: "claude"})
	require.ErrorContains(t, err, "unsupported LLM provider")

	_, err = NewGenerator(params, Config{Provider: "gemini"})
	require.Error(t, err)
}

func TestNewGenerator_AppliesGenerationOptions(t *testing.T) {
	params := &fakeParams{values: map[string]string{
		"/bot/gemini-token":  `{"token":"g-key"}`,
		"/bot/open-ai-token": `{"token":"o-key"}`,
	}}
	temperature := 0.2

	cases := []struct {
		provider string
		reply    string
		check    func(t *testing.T, body map[string]any)
	}{
		{
			provider: ProviderGemini,
			reply:    `{"candidates":[{"content":{"parts":[{"text":"ok"}]}}]}`,
			check: func(t *testing.T, body map[string]any) {
				cfg, ok := body["generationConfig"].(map[string]any)
				require.True(t, ok)
				require.InDelta(t, 0.2, cfg["temperature"], 1e-9)
				require.InDelta(t, 256, cfg["maxOutputTokens"], 1e-9)
			},
		},
		{
			provider: ProviderOpenAI,
			reply:    `{"choices":[{"index":0,"message":{"role":"assistant","content":"ok"}}]}`,
			check: func(t *testing.T, body map[string]any) {
				require.Equal(t, "custom-model", body["model"])
				require.InDelta(t, 0.2, body["temperature"], 1e-9)
				require.InDelta(t, 256, body["max_tokens"], 1e-9)
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.provider, func(t *testing.T) {
			var body map[string]any
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(tc.reply))
			}))
			defer srv.Close()

			gen, err := NewGenerator(params, Config{
				ParamPrefix:     "/bot",
				Provider:        tc.provider,
				Model:           "custom-model",
				BaseURL:         srv.URL,
				Temperature:     &temperature,
				MaxOutputTokens: 256,
				LLMTimeout:      5 * time.Second,
			})
			require.NoError(t, err)

			out, err := gen.Generate(context.Background(), "hello")
			require.NoError(t, err)
			require.Equal(t, "ok", out)
			tc.check(t, body)
		})
	}
}

func TestLoadCatalog(t *testing.T) {
	params := &fakeParams{byPath: map[string]map[string]string{
		"/bot/templates": {"welcome": "Namaste!"},
	}}
	catalog, err := LoadCatalog(context.Background(), params, "/bot/")
	require.NoError(t, err)
	welcome, _ := catalog.Get(domain.TemplateWelcome)
	require.Equal(t, "Namaste!", welcome)

	params.byPath["/bot/templates"]["farewell"] = "bye"
	_, err = LoadCatalog(context.Background(), params, "/bot")
	require.ErrorContains(t, err, "unknown template")

	_, err = LoadCatalog(context.Background(), &fakeParams{err: errors.New("throttled")}, "/bot")
	require.ErrorContains(t, err, "throttled")
}

func TestWire(t *testing.T) {
	params := &fakeParams{}
	catalog, err := LoadCatalog(context.Background(), params, "/bot")
	require.NoError(t, err)

	a, err := wire(fakeStore{}, echoGenerator{}, catalog, Config{DefaultLanguage: "en"}, logging.Discard())
	require.NoError(t, err)
	require.NotNil(t, a.Dispatcher)
	require.NotNil(t, a.Reminders)
	require.Nil(t, a.Store)

	resp := a.Dispatcher.HandleIncomingMessage(context.Background(), domain.InboundMessage{
		From: "c-1", BusinessID: "biz-1", Kind: domain.KindText,
	})
	require.Equal(t, domain.ResponseText, resp.Kind)
}

func TestBuild_ValidatesConfig(t *testing.T) {
	_, err := Build(context.Background(), awsConfigForTest(), Config{ParamPrefix: "/bot"}, logging.Discard())
	require.Error(t, err)

	_, err = Build(context.Background(), awsConfigForTest(), Config{OrdersTable: "orders"}, logging.Discard())
	require.Error(t, err)
}

func awsConfigForTest() aws.Config {
	return aws.Config{Region: "ap-south-1"}
}
