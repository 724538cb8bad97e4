package textgen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/hardingCheng/waoowaoo/internal/infra"
	"github.com/hardingCheng/waoowaoo/internal/metrics"
	"github.com/hardingCheng/waoowaoo/internal/providerconf"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultModel   = "gpt-4o-mini"
	defaultTimeout = 120 * time.Second
)

// Options configures the chat completion client.
type Options struct {
	Provider       string
	APIKey         string
	BaseURL        string
	Model          string
	HTTPClient     *http.Client
	Logger         *infra.Logger
	RequestTimeout time.Duration
}

// Client performs HTTP calls to an OpenAI-compatible chat completion API.
type Client struct {
	provider   string
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	logger     *infra.Logger
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
	TopP        float64       `json:"top_p,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content          string `json:"content"`
			ReasoningContent string `json:"reasoning_content"`
			Reasoning        string `json:"reasoning"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     float64  `json:"prompt_tokens"`
		CompletionTokens float64  `json:"completion_tokens"`
		TotalTokens      *float64 `json:"total_tokens"`
	} `json:"usage"`
}

type chatErrorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// NewClient constructs a client with sane defaults and injected dependencies.
func NewClient(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("textgen: api key is required")
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = defaultModel
	}
	provider := strings.TrimSpace(opts.Provider)
	if provider == "" {
		provider = providerconf.ProviderOpenAI
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.RequestTimeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	var logger *infra.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	} else {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}
	return &Client{
		provider:   provider,
		apiKey:     strings.TrimSpace(opts.APIKey),
		baseURL:    baseURL,
		model:      model,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// Model returns the configured default model identifier.
func (c *Client) Model() string {
	return c.model
}

// Complete invokes the chat completion endpoint once.
func (c *Client) Complete(ctx context.Context, req ChatRequest) (*ChatResult, error) {
	if len(req.Messages) == 0 {
		return nil, errors.New("textgen: messages are required")
	}
	model := strings.TrimSpace(req.Model)
	if model == "" {
		model = c.model
	}
	payload := chatRequest{
		Model:       model,
		Messages:    req.Messages,
		Temperature: req.Temperature,
		TopP:        req.TopP,
		MaxTokens:   req.MaxTokens,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("textgen: encode request: %w", err)
	}
	endpoint := c.baseURL + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("textgen: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	setStepHeaders(httpReq, req.Step)

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		metrics.RecordProviderRequest(c.provider, "chat.completions", "error", time.Since(start))
		return nil, fmt.Errorf("textgen: http request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.RecordProviderRequest(c.provider, "chat.completions", "error", time.Since(start))
		return nil, fmt.Errorf("textgen: read response: %w", err)
	}

	if resp.StatusCode >= 300 {
		metrics.RecordProviderRequest(c.provider, "chat.completions", "error", time.Since(start))
		var detail chatErrorResponse
		if err := json.Unmarshal(raw, &detail); err == nil && detail.Error.Message != "" {
			return nil, fmt.Errorf("textgen: %s (%s)", detail.Error.Message, firstNonEmptyString(detail.Error.Code, detail.Error.Type, "unknown"))
		}
		return nil, fmt.Errorf("textgen: status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	metrics.RecordProviderRequest(c.provider, "chat.completions", "success", time.Since(start))

	var decoded chatResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("textgen: decode response: %w", err)
	}
	if len(decoded.Choices) == 0 {
		return nil, errors.New("textgen: no choices in response")
	}
	message := decoded.Choices[0].Message

	c.logger.Debug().
		Str("model", model).
		Str("step_id", req.Step.ID).
		Int("attempt", req.Step.Attempt).
		Msg("textgen: chat completion finished")

	return &ChatResult{
		Model:     model,
		Content:   message.Content,
		Reasoning: firstNonEmptyString(message.ReasoningContent, message.Reasoning),
		Usage: ChatUsage{
			PromptTokens:     decoded.Usage.PromptTokens,
			CompletionTokens: decoded.Usage.CompletionTokens,
			TotalTokens:      decoded.Usage.TotalTokens,
		},
	}, nil
}

func setStepHeaders(req *http.Request, step StepMeta) {
	if step.ID != "" {
		req.Header.Set("X-Relay-Step-Id", step.ID)
	}
	if step.Attempt > 0 {
		req.Header.Set("X-Relay-Step-Attempt", strconv.Itoa(step.Attempt))
	}
	if step.Title != "" {
		req.Header.Set("X-Relay-Step-Title", step.Title)
	}
	if step.Total > 0 {
		req.Header.Set("X-Relay-Step-Index", strconv.Itoa(step.Index))
		req.Header.Set("X-Relay-Step-Total", strconv.Itoa(step.Total))
	}
}

func firstNonEmptyString(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
