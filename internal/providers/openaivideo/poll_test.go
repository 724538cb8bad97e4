package openaivideo

import (
	"context"
	"net/http"
	"testing"

	"github.com/hardingCheng/waoowaoo/internal/domain"
	"github.com/hardingCheng/waoowaoo/internal/providerconf"
	"github.com/hardingCheng/waoowaoo/internal/taskid"
)

func TestMapPollResult(t *testing.T) {
	t.Parallel()
	cfg := providerconf.Config{ID: "openai", APIKey: "sk-live", BaseURL: "https://api.example.com/v1"}
	contentURL := "https://api.example.com/v1/videos/video_abc/content"

	cases := []struct {
		name       string
		task       *videoTask
		wantStatus domain.PollStatus
		wantURL    string
		wantError  string
	}{
		{name: "queued", task: &videoTask{Status: "queued"}, wantStatus: domain.PollStatusPending},
		{name: "in_progress", task: &videoTask{Status: "in_progress", Progress: 40}, wantStatus: domain.PollStatusPending},
		{name: "completed", task: &videoTask{Status: "completed"}, wantStatus: domain.PollStatusCompleted, wantURL: contentURL},
		{
			name:       "failed_with_message",
			task:       &videoTask{Status: "failed", Error: &videoTaskError{Code: "moderation_blocked", Message: "prompt was rejected"}},
			wantStatus: domain.PollStatusFailed,
			wantError:  "prompt was rejected",
		},
		{
			name:       "failed_without_message",
			task:       &videoTask{Status: "failed"},
			wantStatus: domain.PollStatusFailed,
			wantError:  "video generation failed",
		},
		{
			name:       "failed_with_blank_message",
			task:       &videoTask{Status: "failed", Error: &videoTaskError{Message: "   "}},
			wantStatus: domain.PollStatusFailed,
			wantError:  "video generation failed",
		},
		{name: "unknown_status_stays_pending", task: &videoTask{Status: "cancelling"}, wantStatus: domain.PollStatusPending},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			result := mapPollResult(cfg, "video_abc", tc.task)
			if result.Status != tc.wantStatus {
				t.Fatalf("status = %q, want %q", result.Status, tc.wantStatus)
			}
			if result.ResultURL != tc.wantURL {
				t.Fatalf("result url = %q, want %q", result.ResultURL, tc.wantURL)
			}
			if result.VideoURL != result.ResultURL {
				t.Fatalf("video url = %q, want it to equal result url %q", result.VideoURL, result.ResultURL)
			}
			if result.Error != tc.wantError {
				t.Fatalf("error = %q, want %q", result.Error, tc.wantError)
			}
			if tc.wantStatus == domain.PollStatusCompleted {
				if len(result.DownloadHeaders) != 1 {
					t.Fatalf("download headers = %#v, want exactly one", result.DownloadHeaders)
				}
				if got := result.DownloadHeaders["Authorization"]; got != "Bearer sk-live" {
					t.Fatalf("authorization header = %q, want bearer key", got)
				}
			} else if len(result.DownloadHeaders) != 0 {
				t.Fatalf("download headers = %#v, want none", result.DownloadHeaders)
			}
		})
	}
}

func TestPollResolvesCredentialsFromRef(t *testing.T) {
	transport := &captureTransport{payload: map[string]any{"id": "video_abc", "status": "completed"}}
	// The poll uses the provider id recovered from the external id, not the
	// adapter default.
	resolver := providerconf.StaticResolver{
		"cfg-eu-1": {APIKey: "sk-eu", BaseURL: "https://eu.example.com/v1"},
	}
	adapter := newTestAdapter(t, transport, resolver)

	result, err := adapter.Poll(context.Background(), "user-1", taskid.Ref{
		Provider:   taskid.ProviderOpenAI,
		Kind:       domain.TaskKindVideo,
		ProviderID: "cfg-eu-1",
		TaskID:     "video_abc",
	})
	if err != nil {
		t.Fatalf("Poll returned error: %v", err)
	}

	if transport.calls != 1 {
		t.Fatalf("provider calls = %d, want 1", transport.calls)
	}
	if transport.lastReq.Method != http.MethodGet {
		t.Fatalf("method = %q, want GET", transport.lastReq.Method)
	}
	if got := transport.lastReq.URL.String(); got != "https://eu.example.com/v1/videos/video_abc" {
		t.Fatalf("url = %q, want eu retrieve endpoint", got)
	}
	if got := transport.lastReq.Header.Get("Authorization"); got != "Bearer sk-eu" {
		t.Fatalf("authorization = %q, want eu key", got)
	}
	if result.Status != domain.PollStatusCompleted {
		t.Fatalf("status = %q, want completed", result.Status)
	}
	if result.ResultURL != "https://eu.example.com/v1/videos/video_abc/content" {
		t.Fatalf("result url = %q, want eu content URL", result.ResultURL)
	}
	if result.DownloadHeaders["Authorization"] != "Bearer sk-eu" {
		t.Fatalf("download header = %q, want eu bearer", result.DownloadHeaders["Authorization"])
	}
}

func TestPollRequiresBaseURL(t *testing.T) {
	transport := &captureTransport{payload: map[string]any{}}
	resolver := providerconf.StaticResolver{"cfg-1": {APIKey: "sk"}}
	adapter := newTestAdapter(t, transport, resolver)

	_, err := adapter.Poll(context.Background(), "user-1", taskid.Ref{
		Provider:   taskid.ProviderOpenAI,
		Kind:       domain.TaskKindVideo,
		ProviderID: "cfg-1",
		TaskID:     "video_abc",
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if code := domain.CodeOf(err); code != domain.CodeProviderBaseURLMissing {
		t.Fatalf("code = %q, want %q", code, domain.CodeProviderBaseURLMissing)
	}
	if transport.calls != 0 {
		t.Fatalf("provider calls = %d, want 0", transport.calls)
	}
}
