package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/hardingCheng/waoowaoo/internal/providers/textgen"
)

type stepExecuteRequest struct {
	Model       string                `json:"model"`
	Messages    []textgen.ChatMessage `json:"messages"`
	Temperature float64               `json:"temperature"`
	TopP        float64               `json:"top_p"`
	MaxTokens   int                   `json:"max_tokens"`
	Step        stepMetaPayload       `json:"step"`
}

type stepMetaPayload struct {
	ID      string `json:"id"`
	Attempt int    `json:"attempt"`
	Title   string `json:"title"`
	Index   int    `json:"index"`
	Total   int    `json:"total"`
}

type stepExecuteResponse struct {
	Text      string           `json:"text"`
	Reasoning string           `json:"reasoning,omitempty"`
	Usage     stepUsagePayload `json:"usage"`
}

type stepUsagePayload struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// StepsExecute runs one workflow text step through the chat backend.
func (a *App) StepsExecute(w http.ResponseWriter, r *http.Request) {
	var req stepExecuteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if len(req.Messages) == 0 {
		a.error(w, http.StatusBadRequest, "bad_request", "messages required")
		return
	}

	result, err := a.Steps.Run(r.Context(), textgen.StepRequest{
		Model:       req.Model,
		Messages:    req.Messages,
		Temperature: req.Temperature,
		TopP:        req.TopP,
		MaxTokens:   req.MaxTokens,
		Step: textgen.StepMeta{
			ID:      req.Step.ID,
			Attempt: req.Step.Attempt,
			Title:   req.Step.Title,
			Index:   req.Step.Index,
			Total:   req.Step.Total,
		},
	})
	if err != nil {
		a.codedError(w, err)
		return
	}

	a.json(w, http.StatusOK, stepExecuteResponse{
		Text:      result.Text,
		Reasoning: result.Reasoning,
		Usage: stepUsagePayload{
			PromptTokens:     result.Usage.PromptTokens,
			CompletionTokens: result.Usage.CompletionTokens,
			TotalTokens:      result.Usage.TotalTokens,
		},
	})
}
