// Package openaivideo adapts the web app's video generation requests to an
// OpenAI-compatible asynchronous video API. Tasks are submitted once, handed
// back as opaque external ids, and checked later through single status polls.
package openaivideo

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hardingCheng/waoowaoo/internal/domain"
	"github.com/hardingCheng/waoowaoo/internal/imageref"
	"github.com/hardingCheng/waoowaoo/internal/infra"
	"github.com/hardingCheng/waoowaoo/internal/providerconf"
	"github.com/hardingCheng/waoowaoo/internal/taskid"
)

// Options configures the video generation adapter.
type Options struct {
	ProviderID     string
	Model          string
	Resolver       providerconf.Resolver
	Fetcher        imageref.Fetcher
	HTTPClient     *http.Client
	Logger         *infra.Logger
	RequestTimeout time.Duration
}

// Adapter submits video generation tasks to one configured provider and maps
// their asynchronous status back into the relay's uniform shape.
type Adapter struct {
	providerID string
	model      string
	resolver   providerconf.Resolver
	fetcher    imageref.Fetcher
	httpClient *http.Client
	logger     *infra.Logger
}

// GenerateRequest captures one video generation submission.
type GenerateRequest struct {
	UserID    string
	RequestID string
	Prompt    string
	ImageURL  string
	Options   map[string]any
}

// New constructs an adapter with sane defaults and injected dependencies.
func New(opts Options) (*Adapter, error) {
	if opts.Resolver == nil {
		return nil, errors.New("openaivideo: resolver is required")
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.RequestTimeout
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	providerID := strings.TrimSpace(opts.ProviderID)
	if providerID == "" {
		providerID = providerconf.ProviderOpenAI
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = DefaultModel
	}
	fetcher := opts.Fetcher
	if fetcher == nil {
		fetcher = imageref.NewHTTPFetcher(httpClient)
	}
	var logger *infra.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	} else {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}
	return &Adapter{
		providerID: providerID,
		model:      model,
		resolver:   opts.Resolver,
		fetcher:    fetcher,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// Generate resolves provider credentials, validates the request and issues
// exactly one creation call. Every failure surfaces to the caller; nothing
// is retried here.
func (a *Adapter) Generate(ctx context.Context, req GenerateRequest) (*domain.GenerationResult, error) {
	cfg, err := a.resolver.Resolve(ctx, req.UserID, a.providerID)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	params, err := validateRequest(req, a.model)
	if err != nil {
		return nil, err
	}

	var upload *imageref.Upload
	if strings.TrimSpace(req.ImageURL) != "" {
		upload, err = imageref.Resolve(ctx, req.ImageURL, a.fetcher)
		if err != nil {
			return nil, err
		}
	}

	task, err := a.createVideo(ctx, cfg, params, upload)
	if err != nil {
		return nil, err
	}
	providerTaskID, ok := task.taskID()
	if !ok {
		return nil, domain.NewError(domain.CodeVideoCreateInvalidResponse, "provider response carries no task id")
	}

	external, err := taskid.Encode(taskid.ProviderOpenAI, domain.TaskKindVideo, cfg.ID, providerTaskID)
	if err != nil {
		return nil, domain.WrapError(domain.CodeVideoCreateInvalidResponse, err, "provider task id is not encodable")
	}

	requestID := strings.TrimSpace(req.RequestID)
	if requestID == "" {
		requestID = uuid.NewString()
	}

	a.logger.Debug().
		Str("model", params.Model).
		Str("task_id", providerTaskID).
		Str("external_id", external).
		Msg("openaivideo: submitted video task")

	return &domain.GenerationResult{Success: true, Async: true, RequestID: requestID, ExternalID: external}, nil
}
