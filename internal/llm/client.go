// AngelaMos | 2026
// client.go

package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/carterperez-dev/socialai/internal/config"
)

const defaultTimeout = 60 * time.Second

var ErrEmptyResponse = errors.New("generation backend returned no choices")

// Generator turns a prompt into raw model text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type Options struct {
	APIKey     string
	BaseURL    string
	Model      string
	System     string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client talks to any OpenAI-compatible chat completions endpoint. Retries
// are disabled: a failed call is reported once and never consumes quota.
type Client struct {
	client  openai.Client
	model   string
	system  string
	timeout time.Duration
}

func NewClient(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("llm api key is required")
	}
	if strings.TrimSpace(opts.Model) == "" {
		return nil, errors.New("llm model is required")
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(0),
	}
	if opts.BaseURL != "" {
		base := opts.BaseURL
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		reqOpts = append(reqOpts, option.WithBaseURL(base))
	}

	return &Client{
		client:  openai.NewClient(reqOpts...),
		model:   opts.Model,
		system:  opts.System,
		timeout: timeout,
	}, nil
}

// New builds the configured generator. The mock provider never leaves the
// process and is rejected by config validation in production.
func New(cfg config.LLMConfig, system string) (Generator, error) {
	switch cfg.Provider {
	case config.LLMProviderMock:
		return MockGenerator{}, nil
	case config.LLMProviderOpenAI, "":
		c, err := NewClient(Options{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
			System:  system,
			Timeout: cfg.Timeout,
		})
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}

func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if c.system != "" {
		msgs = append(msgs, openai.SystemMessage(c.system))
	}
	msgs = append(msgs, openai.UserMessage(prompt))

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(c.model),
		Messages: msgs,
	})
	if err != nil {
		return "", Classify(err)
	}

	if len(resp.Choices) == 0 {
		return "", &UpstreamError{Kind: KindUnknown, Cause: ErrEmptyResponse}
	}

	return resp.Choices[0].Message.Content, nil
}
