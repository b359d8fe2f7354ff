package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("ENV", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("BRIDGE_LANGUAGE", "")
	t.Setenv("GLOBAL_LANGUAGE", "")
	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("expected default port, got %s", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Fatalf("expected default env, got %s", cfg.Env)
	}
	if cfg.BridgeLanguage != "wo" {
		t.Fatalf("expected wolof bridge language by default, got %s", cfg.BridgeLanguage)
	}
	if cfg.ProcessingLanguage != "fr" {
		t.Fatalf("expected french processing language by default, got %s", cfg.ProcessingLanguage)
	}
	if cfg.GlobalLanguage != "auto" {
		t.Fatalf("expected auto global language by default, got %s", cfg.GlobalLanguage)
	}
	if cfg.ProviderTimeout != 60*time.Second {
		t.Fatalf("expected default provider timeout, got %s", cfg.ProviderTimeout)
	}
	if cfg.ProviderRetries != 2 {
		t.Fatalf("expected default retry budget, got %d", cfg.ProviderRetries)
	}
	if cfg.RAGTopK != 3 {
		t.Fatalf("expected default top k, got %d", cfg.RAGTopK)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ENV", "production")
	t.Setenv("DATABASE_URL", "postgres://user@host/db")
	t.Setenv("GLOBAL_LANGUAGE", " FR ")
	t.Setenv("GEMINI_MODEL_ID", "gemini-2.5-pro")
	t.Setenv("PROVIDER_TIMEOUT", "15s")
	t.Setenv("PROVIDER_RETRIES", "3")
	t.Setenv("ARTIFACT_S3_BUCKET", "tontouma-audio")
	cfg := Load()
	if cfg.Port != "9090" {
		t.Fatalf("expected override port, got %s", cfg.Port)
	}
	if cfg.DatabaseURL != "postgres://user@host/db" {
		t.Fatalf("expected db override, got %s", cfg.DatabaseURL)
	}
	if cfg.GlobalLanguage != "fr" {
		t.Fatalf("expected trimmed lowered global language, got %q", cfg.GlobalLanguage)
	}
	if cfg.GeminiModelID != "gemini-2.5-pro" {
		t.Fatalf("expected model override, got %s", cfg.GeminiModelID)
	}
	if cfg.ProviderTimeout != 15*time.Second {
		t.Fatalf("expected timeout override, got %s", cfg.ProviderTimeout)
	}
	if cfg.ProviderRetries != 3 {
		t.Fatalf("expected retry override, got %d", cfg.ProviderRetries)
	}
	if cfg.ArtifactS3Bucket != "tontouma-audio" {
		t.Fatalf("expected bucket override, got %s", cfg.ArtifactS3Bucket)
	}
}
