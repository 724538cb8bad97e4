package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/hardingCheng/waoowaoo/internal/domain"
	"github.com/hardingCheng/waoowaoo/internal/infra"
	"github.com/hardingCheng/waoowaoo/internal/poll"
	"github.com/hardingCheng/waoowaoo/internal/providers/openaivideo"
	"github.com/hardingCheng/waoowaoo/internal/providers/textgen"
)

// App bundles the relay's request-serving dependencies.
type App struct {
	Video  *openaivideo.Adapter
	Steps  *textgen.Executor
	Poller *poll.Dispatcher
	Logger infra.Logger
}

// NewApp wires the handler container.
func NewApp(video *openaivideo.Adapter, steps *textgen.Executor, poller *poll.Dispatcher, logger infra.Logger) *App {
	return &App{Video: video, Steps: steps, Poller: poller, Logger: logger}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, status int, code, message string) {
	a.json(w, status, map[string]any{"error": map[string]string{"code": code, "message": message}})
}

// codedError maps a relay failure onto its HTTP representation, normalizing
// uncoded errors on the way out. Gateway-side failures are logged; client
// mistakes are not.
func (a *App) codedError(w http.ResponseWriter, err error) {
	coded := domain.Normalize(err)
	status := statusForCode(coded.Code)
	if status >= http.StatusInternalServerError {
		a.Logger.Error().Err(err).Str("code", string(coded.Code)).Msg("provider call failed")
	}
	a.error(w, status, string(coded.Code), coded.Message)
}

// statusForCode treats contract violations as client errors and everything
// the provider side broke as a bad gateway.
func statusForCode(code domain.Code) int {
	switch code {
	case domain.CodeProviderBaseURLMissing, domain.CodeUpstreamError, domain.CodeStepFailed:
		return http.StatusBadGateway
	default:
		return http.StatusBadRequest
	}
}
