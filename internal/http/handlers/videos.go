package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hardingCheng/waoowaoo/internal/middleware"
	"github.com/hardingCheng/waoowaoo/internal/providers/openaivideo"
)

type videoGenerateRequest struct {
	UserID   string         `json:"user_id"`
	Prompt   string         `json:"prompt"`
	ImageURL string         `json:"image_url"`
	Options  map[string]any `json:"options"`
}

type videoGenerateResponse struct {
	Success    bool   `json:"success"`
	Async      bool   `json:"async"`
	RequestID  string `json:"request_id"`
	ExternalID string `json:"external_id"`
}

type pollResponse struct {
	Status          string            `json:"status"`
	ResultURL       string            `json:"result_url,omitempty"`
	VideoURL        string            `json:"video_url,omitempty"`
	DownloadHeaders map[string]string `json:"download_headers,omitempty"`
	Error           string            `json:"error,omitempty"`
}

// VideosGenerate accepts a video generation request, submits it to the
// provider and acknowledges with the opaque external id to poll later.
func (a *App) VideosGenerate(w http.ResponseWriter, r *http.Request) {
	var req videoGenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}

	result, err := a.Video.Generate(r.Context(), openaivideo.GenerateRequest{
		UserID:    req.UserID,
		RequestID: middleware.RequestIDFromContext(r.Context()),
		Prompt:    req.Prompt,
		ImageURL:  req.ImageURL,
		Options:   req.Options,
	})
	if err != nil {
		a.codedError(w, err)
		return
	}

	a.json(w, http.StatusAccepted, videoGenerateResponse{
		Success:    result.Success,
		Async:      result.Async,
		RequestID:  result.RequestID,
		ExternalID: result.ExternalID,
	})
}

// VideoStatus performs one status poll for an external task id.
func (a *App) VideoStatus(w http.ResponseWriter, r *http.Request) {
	externalID := chi.URLParam(r, "external_id")
	if externalID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "external_id required")
		return
	}

	result, err := a.Poller.Check(r.Context(), r.URL.Query().Get("user_id"), externalID)
	if err != nil {
		a.codedError(w, err)
		return
	}

	a.json(w, http.StatusOK, pollResponse{
		Status:          string(result.Status),
		ResultURL:       result.ResultURL,
		VideoURL:        result.VideoURL,
		DownloadHeaders: result.DownloadHeaders,
		Error:           result.Error,
	})
}
