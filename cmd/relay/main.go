package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/hardingCheng/waoowaoo/internal/domain"
	"github.com/hardingCheng/waoowaoo/internal/infra"
	"github.com/hardingCheng/waoowaoo/internal/poll"
	"github.com/hardingCheng/waoowaoo/internal/providerconf"
	"github.com/hardingCheng/waoowaoo/internal/providers/openaivideo"
	"github.com/hardingCheng/waoowaoo/internal/storage"
	"github.com/hardingCheng/waoowaoo/internal/taskid"
)

func main() {
	var (
		promptFlag   string
		imageFlag    string
		modelFlag    string
		durationFlag string
		sizeFlag     string
		aspectFlag   string
		userFlag     string
		outFlag      string
	)
	flag.StringVar(&promptFlag, "prompt", "", "video prompt (required)")
	flag.StringVar(&imageFlag, "image", "", "seed image URL or data URL")
	flag.StringVar(&modelFlag, "model", "", "video model id (defaults to VIDEO_MODEL)")
	flag.StringVar(&durationFlag, "duration", "", "clip length in seconds (4, 8 or 12)")
	flag.StringVar(&sizeFlag, "size", "", "output size or resolution label (e.g. 1280x720 or 720p)")
	flag.StringVar(&aspectFlag, "aspect", "", "aspect ratio hint for resolution labels (16:9 or 9:16)")
	flag.StringVar(&userFlag, "user", "cli", "user id attached to the request")
	flag.StringVar(&outFlag, "out", "", "download directory (defaults to STORAGE_DIR)")
	flag.Parse()

	prompt := strings.TrimSpace(promptFlag)
	if prompt == "" {
		exitWithError(errors.New("-prompt is required"))
	}

	_ = godotenv.Load()
	cfg, err := infra.LoadConfig()
	if err != nil {
		exitWithError(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	resolver := providerconf.NewEnvResolver()
	if cfg.OpenAIBaseURL != "" {
		resolver.SetFallback(providerconf.ProviderOpenAI, providerconf.Config{
			ID:      providerconf.ProviderOpenAI,
			APIKey:  cfg.OpenAIAPIKey,
			BaseURL: cfg.OpenAIBaseURL,
		})
	}

	adapter, err := openaivideo.New(openaivideo.Options{
		ProviderID: cfg.VideoProvider,
		Model:      cfg.VideoModel,
		Resolver:   resolver,
		Logger:     &logger,
	})
	if err != nil {
		exitWithError(err)
	}

	options := map[string]any{}
	if v := strings.TrimSpace(modelFlag); v != "" {
		options["modelId"] = v
	}
	if v := strings.TrimSpace(durationFlag); v != "" {
		options["duration"] = v
	}
	if v := strings.TrimSpace(sizeFlag); v != "" {
		options["size"] = v
	}
	if v := strings.TrimSpace(aspectFlag); v != "" {
		options["aspectRatio"] = v
	}

	result, err := adapter.Generate(ctx, openaivideo.GenerateRequest{
		UserID:   strings.TrimSpace(userFlag),
		Prompt:   prompt,
		ImageURL: strings.TrimSpace(imageFlag),
		Options:  options,
	})
	if err != nil {
		exitWithError(err)
	}
	logger.Info().
		Str("external_id", result.ExternalID).
		Str("request_id", result.RequestID).
		Msg("relay: task submitted")

	dispatcher := poll.NewDispatcher(map[string]poll.Poller{
		taskid.ProviderOpenAI: adapter,
	})

	final, err := waitForCompletion(ctx, dispatcher, strings.TrimSpace(userFlag), result.ExternalID, cfg.PollInterval, cfg.PollTimeout, logger)
	if err != nil {
		exitWithError(err)
	}
	if final.Status == domain.PollStatusFailed {
		exitWithError(fmt.Errorf("generation failed: %s", final.Error))
	}

	storageDir := strings.TrimSpace(outFlag)
	if storageDir == "" {
		storageDir = cfg.StorageDir
	}
	if !filepath.IsAbs(storageDir) {
		if abs, err := filepath.Abs(storageDir); err == nil {
			storageDir = abs
		}
	}
	store, err := storage.NewFileStore(storageDir)
	if err != nil {
		exitWithError(err)
	}

	key := fmt.Sprintf("videos/%s/video.mp4", result.RequestID)
	savedKey, err := downloadResult(ctx, store, key, final)
	if err != nil {
		exitWithError(err)
	}
	path, err := store.Path(savedKey)
	if err != nil {
		path = savedKey
	}
	logger.Info().Str("path", path).Msg("relay: video saved")
	fmt.Println(path)
}

// waitForCompletion polls the task until it reaches a terminal status or the
// timeout elapses.
func waitForCompletion(ctx context.Context, dispatcher *poll.Dispatcher, userID, externalID string, interval, timeout time.Duration, logger infra.Logger) (*domain.PollResult, error) {
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		result, err := dispatcher.Check(ctx, userID, externalID)
		if err != nil {
			return nil, err
		}
		if result.Status.Terminal() {
			return result, nil
		}
		logger.Debug().Str("external_id", externalID).Msg("relay: still pending")

		if time.Now().After(deadline) {
			return nil, fmt.Errorf("timed out after %s waiting for task %s", timeout, externalID)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// downloadResult fetches the finished video with the headers the poll result
// prescribes and streams it into the store.
func downloadResult(ctx context.Context, store *storage.FileStore, key string, result *domain.PollResult) (string, error) {
	if result.ResultURL == "" {
		return "", errors.New("poll result carries no download URL")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, result.ResultURL, nil)
	if err != nil {
		return "", fmt.Errorf("build download request: %w", err)
	}
	for name, value := range result.DownloadHeaders {
		req.Header.Set(name, value)
	}

	client := &http.Client{Timeout: 10 * time.Minute}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("download video: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("download video: status %d", resp.StatusCode)
	}
	return store.WriteFrom(ctx, key, resp.Body)
}

func exitWithError(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
