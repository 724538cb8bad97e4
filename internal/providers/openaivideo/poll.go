package openaivideo

import (
	"context"
	"strings"

	"github.com/hardingCheng/waoowaoo/internal/domain"
	"github.com/hardingCheng/waoowaoo/internal/metrics"
	"github.com/hardingCheng/waoowaoo/internal/providerconf"
	"github.com/hardingCheng/waoowaoo/internal/taskid"
)

// Provider status vocabulary for asynchronous video tasks.
const (
	statusQueued     = "queued"
	statusInProgress = "in_progress"
	statusCompleted  = "completed"
	statusFailed     = "failed"
)

const failedFallbackMessage = "video generation failed"

// Poll performs a single status check for the referenced task. Credentials
// are re-resolved from the provider id recovered out of the external id, so
// the poll works without any stored state.
func (a *Adapter) Poll(ctx context.Context, userID string, ref taskid.Ref) (*domain.PollResult, error) {
	cfg, err := a.resolver.Resolve(ctx, userID, ref.ProviderID)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	task, err := a.getVideo(ctx, cfg, ref.TaskID)
	if err != nil {
		return nil, err
	}

	result := mapPollResult(cfg, ref.TaskID, task)
	metrics.RecordPollResult(a.providerID, string(result.Status))
	a.logger.Debug().
		Str("task_id", ref.TaskID).
		Str("provider_status", task.Status).
		Int("progress", task.Progress).
		Str("status", string(result.Status)).
		Msg("openaivideo: polled video task")
	return result, nil
}

// mapPollResult folds the provider vocabulary into the relay's uniform
// states. A completed task yields the provider's content URL plus the bearer
// header the caller must send to download it.
func mapPollResult(cfg providerconf.Config, taskID string, task *videoTask) *domain.PollResult {
	switch task.Status {
	case statusQueued, statusInProgress:
		return &domain.PollResult{Status: domain.PollStatusPending}
	case statusCompleted:
		contentURL := strings.TrimRight(cfg.BaseURL, "/") + "/videos/" + taskID + "/content"
		return &domain.PollResult{
			Status:    domain.PollStatusCompleted,
			ResultURL: contentURL,
			VideoURL:  contentURL,
			DownloadHeaders: map[string]string{
				"Authorization": "Bearer " + cfg.APIKey,
			},
		}
	case statusFailed:
		message := failedFallbackMessage
		if task.Error != nil && strings.TrimSpace(task.Error.Message) != "" {
			message = task.Error.Message
		}
		return &domain.PollResult{Status: domain.PollStatusFailed, Error: message}
	default:
		// Unknown vocabulary keeps the task pollable.
		return &domain.PollResult{Status: domain.PollStatusPending}
	}
}
