package providerconf

import (
	"context"
	"os"
	"strings"

	"github.com/hardingCheng/waoowaoo/internal/domain"
)

const (
	ProviderOpenAI = "openai"
)

// Config carries the credentials needed to reach one provider deployment.
// IDs are opaque configuration identifiers, never user input.
type Config struct {
	ID      string
	APIKey  string
	BaseURL string
}

// Validate rejects configs with no base URL before any provider call is
// attempted.
func (c Config) Validate() error {
	if strings.TrimSpace(c.BaseURL) == "" {
		return domain.NewError(domain.CodeProviderBaseURLMissing, "provider %q has no base URL configured", c.ID)
	}
	return nil
}

// Resolver looks up provider credentials for a user. The relay resolves
// lazily per request so a misconfigured provider only fails the requests
// that need it.
type Resolver interface {
	Resolve(ctx context.Context, userID, providerID string) (Config, error)
}

// EnvResolver reads provider credentials from process environment variables
// using the PROVIDER_<ID>_API_KEY / PROVIDER_<ID>_BASE_URL scheme. The
// environment is deployment-wide, so the user id is ignored.
type EnvResolver struct {
	fallbacks map[string]Config
}

func NewEnvResolver() *EnvResolver {
	return &EnvResolver{fallbacks: make(map[string]Config)}
}

// SetFallback registers a config used when the environment carries no value
// for the corresponding field. Environment variables always win.
func (r *EnvResolver) SetFallback(providerID string, cfg Config) {
	if r.fallbacks == nil {
		r.fallbacks = make(map[string]Config)
	}
	cfg.ID = providerID
	r.fallbacks[providerID] = cfg
}

func (r *EnvResolver) Resolve(_ context.Context, _, providerID string) (Config, error) {
	key := envKey(providerID)
	cfg := Config{
		ID:      providerID,
		APIKey:  strings.TrimSpace(os.Getenv("PROVIDER_" + key + "_API_KEY")),
		BaseURL: strings.TrimSpace(strings.TrimRight(os.Getenv("PROVIDER_"+key+"_BASE_URL"), "/")),
	}
	if fb, ok := r.fallbacks[providerID]; ok {
		if cfg.APIKey == "" {
			cfg.APIKey = fb.APIKey
		}
		if cfg.BaseURL == "" {
			cfg.BaseURL = strings.TrimRight(fb.BaseURL, "/")
		}
	}
	return cfg, nil
}

// StaticResolver serves a fixed set of provider configs, keyed by provider
// id. Tests and the relay CLI use it as the single source of credentials.
type StaticResolver map[string]Config

func (r StaticResolver) Resolve(_ context.Context, _, providerID string) (Config, error) {
	cfg, ok := r[providerID]
	if !ok {
		return Config{}, domain.NewError(domain.CodeProviderBaseURLMissing, "no configuration for provider %q", providerID)
	}
	cfg.ID = providerID
	return cfg, nil
}

func envKey(providerID string) string {
	key := strings.ToUpper(providerID)
	return strings.Map(func(r rune) rune {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			return r
		}
		return '_'
	}, key)
}
