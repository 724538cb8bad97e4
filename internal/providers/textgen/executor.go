package textgen

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"

	"github.com/hardingCheng/waoowaoo/internal/domain"
	"github.com/hardingCheng/waoowaoo/internal/infra"
	"github.com/hardingCheng/waoowaoo/internal/metrics"
	"github.com/hardingCheng/waoowaoo/internal/providerconf"
)

// StepRequest describes one text step execution.
type StepRequest struct {
	Model       string
	Messages    []ChatMessage
	Temperature float64
	TopP        float64
	MaxTokens   int
	Step        StepMeta
}

// StepUsage is the normalized token accounting reported for a finished step.
type StepUsage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// StepResult carries the completion parts and usage for a finished step.
type StepResult struct {
	Text      string
	Reasoning string
	Usage     StepUsage
}

// ExecutorOptions configures a step executor.
type ExecutorOptions struct {
	Completer Completer
	Provider  string
	Logger    *infra.Logger
}

// Executor runs text steps through a chat completion backend, normalizing
// results and failures into the relay's uniform shapes.
type Executor struct {
	completer Completer
	provider  string
	logger    *infra.Logger
}

// NewExecutor wires an executor around the given completion backend.
func NewExecutor(opts ExecutorOptions) (*Executor, error) {
	if opts.Completer == nil {
		return nil, errors.New("textgen: completer is required")
	}
	provider := strings.TrimSpace(opts.Provider)
	if provider == "" {
		provider = providerconf.ProviderOpenAI
	}
	var logger *infra.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	} else {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}
	return &Executor{completer: opts.Completer, provider: provider, logger: logger}, nil
}

// Run executes one step. Every failure funnels through normalizeStepError so
// the caller always observes the coded error shape.
func (e *Executor) Run(ctx context.Context, req StepRequest) (*StepResult, error) {
	if req.Step.Attempt <= 0 {
		req.Step.Attempt = 1
	}
	e.logger.Debug().
		Str("step_id", req.Step.ID).
		Int("attempt", req.Step.Attempt).
		Str("title", req.Step.Title).
		Int("index", req.Step.Index).
		Int("total", req.Step.Total).
		Msg("textgen: executing step")

	res, err := e.completer.Complete(ctx, ChatRequest{
		Model:       req.Model,
		Messages:    req.Messages,
		Temperature: req.Temperature,
		TopP:        req.TopP,
		MaxTokens:   req.MaxTokens,
		Step:        req.Step,
	})
	if err != nil {
		return nil, normalizeStepError(req.Step, err)
	}

	usage := normalizeUsage(res.Usage)
	metrics.RecordTokens(e.provider, res.Model, usage.PromptTokens, usage.CompletionTokens)

	parts := ExtractParts(res.Content, res.Reasoning)
	return &StepResult{Text: parts.Text, Reasoning: parts.Reasoning, Usage: usage}, nil
}

// normalizeStepError is the single funnel for step failures. Coded errors
// pass through; anything else is tagged RELAY_STEP_FAILED with step context.
func normalizeStepError(step StepMeta, err error) *domain.Error {
	if err == nil {
		return nil
	}
	var coded *domain.Error
	if errors.As(err, &coded) {
		return coded
	}
	return domain.WrapError(domain.CodeStepFailed, err, fmt.Sprintf("step %q attempt %d: %v", step.ID, step.Attempt, err))
}

// normalizeUsage clamps provider token counts to non-negative integers and
// derives the total when the provider omits it.
func normalizeUsage(raw ChatUsage) StepUsage {
	usage := StepUsage{
		PromptTokens:     nonNegativeInt(raw.PromptTokens),
		CompletionTokens: nonNegativeInt(raw.CompletionTokens),
	}
	if raw.TotalTokens != nil {
		usage.TotalTokens = nonNegativeInt(*raw.TotalTokens)
	} else {
		usage.TotalTokens = usage.PromptTokens + usage.CompletionTokens
	}
	return usage
}

func nonNegativeInt(v float64) int {
	if v < 0 {
		return 0
	}
	return int(v)
}
