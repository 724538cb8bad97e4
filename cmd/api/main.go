package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/hardingCheng/waoowaoo/internal/http/handlers"
	httpapi "github.com/hardingCheng/waoowaoo/internal/http/httpapi"
	"github.com/hardingCheng/waoowaoo/internal/infra"
	"github.com/hardingCheng/waoowaoo/internal/poll"
	"github.com/hardingCheng/waoowaoo/internal/providerconf"
	"github.com/hardingCheng/waoowaoo/internal/providers/openaivideo"
	"github.com/hardingCheng/waoowaoo/internal/providers/textgen"
	"github.com/hardingCheng/waoowaoo/internal/taskid"
)

func main() {
	// Load .env (optional)
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	// Provider credentials come from the environment; PROVIDER_OPENAI_* wins,
	// with the flat OPENAI_* variables as fallback.
	resolver := providerconf.NewEnvResolver()
	if cfg.OpenAIBaseURL != "" {
		resolver.SetFallback(providerconf.ProviderOpenAI, providerconf.Config{
			ID:      providerconf.ProviderOpenAI,
			APIKey:  cfg.OpenAIAPIKey,
			BaseURL: cfg.OpenAIBaseURL,
		})
	}

	videoLogger := infra.WithComponent(logger, "openaivideo")
	video, err := openaivideo.New(openaivideo.Options{
		ProviderID: cfg.VideoProvider,
		Model:      cfg.VideoModel,
		Resolver:   resolver,
		Logger:     &videoLogger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build video adapter")
	}

	chatKey := strings.TrimSpace(cfg.OpenAIAPIKey)
	if chatKey == "" {
		if pc, err := resolver.Resolve(context.Background(), "", providerconf.ProviderOpenAI); err == nil {
			chatKey = pc.APIKey
		}
	}

	textLogger := infra.WithComponent(logger, "textgen")
	chat, err := textgen.NewClient(textgen.Options{
		APIKey:  chatKey,
		BaseURL: cfg.OpenAIBaseURL,
		Model:   cfg.OpenAIModel,
		Logger:  &textLogger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build chat client")
	}
	steps, err := textgen.NewExecutor(textgen.ExecutorOptions{
		Completer: chat,
		Logger:    &textLogger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build step executor")
	}
	logger.Info().
		Str("chat_model", chat.Model()).
		Str("video_model", cfg.VideoModel).
		Msg("providers configured")

	dispatcher := poll.NewDispatcher(map[string]poll.Poller{
		taskid.ProviderOpenAI: video,
	})

	app := handlers.NewApp(video, steps, dispatcher, logger)

	router := httpapi.NewRouter(app, cfg, logger)

	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on %s", server.Addr())
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
