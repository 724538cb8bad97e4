package providerconf

import (
	"context"
	"testing"

	"github.com/hardingCheng/waoowaoo/internal/domain"
)

func TestEnvResolverReadsProviderVariables(t *testing.T) {
	t.Setenv("PROVIDER_OPENAI_API_KEY", " sk-test ")
	t.Setenv("PROVIDER_OPENAI_BASE_URL", "https://gateway.example.com/v1/")

	cfg, err := NewEnvResolver().Resolve(context.Background(), "user-1", ProviderOpenAI)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if cfg.ID != ProviderOpenAI {
		t.Fatalf("ID = %q, want %q", cfg.ID, ProviderOpenAI)
	}
	if cfg.APIKey != "sk-test" {
		t.Fatalf("APIKey = %q, want trimmed key", cfg.APIKey)
	}
	if cfg.BaseURL != "https://gateway.example.com/v1" {
		t.Fatalf("BaseURL = %q, want trailing slash stripped", cfg.BaseURL)
	}
}

func TestEnvResolverMapsProviderIDToEnvKey(t *testing.T) {
	t.Setenv("PROVIDER_AZURE_OPENAI_BASE_URL", "https://azure.example.com")

	cfg, err := NewEnvResolver().Resolve(context.Background(), "user-1", "azure-openai")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if cfg.BaseURL != "https://azure.example.com" {
		t.Fatalf("BaseURL = %q, want azure URL", cfg.BaseURL)
	}
}

func TestEnvResolverFallback(t *testing.T) {
	t.Setenv("PROVIDER_OPENAI_API_KEY", "")
	t.Setenv("PROVIDER_OPENAI_BASE_URL", "")

	resolver := NewEnvResolver()
	resolver.SetFallback(ProviderOpenAI, Config{APIKey: "fallback-key", BaseURL: "https://api.openai.com/v1/"})

	cfg, err := resolver.Resolve(context.Background(), "user-1", ProviderOpenAI)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if cfg.APIKey != "fallback-key" {
		t.Fatalf("APIKey = %q, want fallback", cfg.APIKey)
	}
	if cfg.BaseURL != "https://api.openai.com/v1" {
		t.Fatalf("BaseURL = %q, want fallback with slash stripped", cfg.BaseURL)
	}
}

func TestEnvResolverEnvironmentWinsOverFallback(t *testing.T) {
	t.Setenv("PROVIDER_OPENAI_API_KEY", "env-key")
	t.Setenv("PROVIDER_OPENAI_BASE_URL", "https://gateway.example.com/v1")

	resolver := NewEnvResolver()
	resolver.SetFallback(ProviderOpenAI, Config{APIKey: "fallback-key", BaseURL: "https://api.openai.com/v1"})

	cfg, err := resolver.Resolve(context.Background(), "user-1", ProviderOpenAI)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if cfg.APIKey != "env-key" {
		t.Fatalf("APIKey = %q, want env value", cfg.APIKey)
	}
	if cfg.BaseURL != "https://gateway.example.com/v1" {
		t.Fatalf("BaseURL = %q, want env value", cfg.BaseURL)
	}
}

func TestStaticResolver(t *testing.T) {
	resolver := StaticResolver{
		ProviderOpenAI: {APIKey: "sk-static", BaseURL: "https://api.openai.com/v1"},
	}

	cfg, err := resolver.Resolve(context.Background(), "user-1", ProviderOpenAI)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if cfg.ID != ProviderOpenAI {
		t.Fatalf("ID = %q, want %q", cfg.ID, ProviderOpenAI)
	}
	if cfg.APIKey != "sk-static" {
		t.Fatalf("APIKey = %q, want sk-static", cfg.APIKey)
	}

	_, err = resolver.Resolve(context.Background(), "user-1", "unknown")
	if err == nil {
		t.Fatal("expected missing provider to fail")
	}
	if got := domain.CodeOf(err); got != domain.CodeProviderBaseURLMissing {
		t.Fatalf("code = %q, want %q", got, domain.CodeProviderBaseURLMissing)
	}
}

func TestConfigValidateRequiresBaseURL(t *testing.T) {
	err := Config{ID: ProviderOpenAI, APIKey: "sk"}.Validate()
	if err == nil {
		t.Fatal("expected Validate to fail without base URL")
	}
	if got := domain.CodeOf(err); got != domain.CodeProviderBaseURLMissing {
		t.Fatalf("code = %q, want %q", got, domain.CodeProviderBaseURLMissing)
	}

	if err := (Config{ID: ProviderOpenAI, BaseURL: "https://api.openai.com/v1"}).Validate(); err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
}
