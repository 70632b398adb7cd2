package config

import (
	"log/slog"
	"testing"
	"time"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"DEBUG", slog.LevelDebug},
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"WARN", slog.LevelWarn},
		{"WARNING", slog.LevelWarn},
		{"ERROR", slog.LevelError},
		{"nonsense", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := parseLogLevel(tt.in); got != tt.want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.MaxUploadBytes != 50*1024*1024 {
		t.Errorf("MaxUploadBytes = %d, want 50MB", cfg.MaxUploadBytes)
	}
	if cfg.ExtractTimeout != 2*time.Minute {
		t.Errorf("ExtractTimeout = %v, want 2m", cfg.ExtractTimeout)
	}
	if cfg.LLMProvider != ProviderOllama {
		t.Errorf("LLMProvider = %q, want %q", cfg.LLMProvider, ProviderOllama)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("STUDYROT_PORT", "9999")
	t.Setenv("STUDYROT_MAX_UPLOAD_MB", "10")
	t.Setenv("STUDYROT_EXTRACT_TIMEOUT", "30s")
	t.Setenv("STUDYROT_LLM_PROVIDER", ProviderBedrock)

	cfg := Load()

	if cfg.Port != "9999" {
		t.Errorf("Port = %q, want 9999", cfg.Port)
	}
	if cfg.MaxUploadBytes != 10*1024*1024 {
		t.Errorf("MaxUploadBytes = %d, want 10MB", cfg.MaxUploadBytes)
	}
	if cfg.ExtractTimeout != 30*time.Second {
		t.Errorf("ExtractTimeout = %v, want 30s", cfg.ExtractTimeout)
	}
	if cfg.LLMProvider != ProviderBedrock {
		t.Errorf("LLMProvider = %q, want bedrock", cfg.LLMProvider)
	}
}

func TestLoadBadNumericFallsBack(t *testing.T) {
	t.Setenv("STUDYROT_MAX_UPLOAD_MB", "not-a-number")
	t.Setenv("STUDYROT_EXTRACT_TIMEOUT", "not-a-duration")

	cfg := Load()

	if cfg.MaxUploadBytes != 50*1024*1024 {
		t.Errorf("MaxUploadBytes = %d, want default 50MB", cfg.MaxUploadBytes)
	}
	if cfg.ExtractTimeout != 2*time.Minute {
		t.Errorf("ExtractTimeout = %v, want default 2m", cfg.ExtractTimeout)
	}
}
