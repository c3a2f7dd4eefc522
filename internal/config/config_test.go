package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{
		"ORACLE_KIND", "ORACLE_MODEL", "ORACLE_TIMEOUT", "ORACLE_ENFORCE_DETECTION",
		"FACES_DIR", "GALLERY_EXTENSIONS", "JWT_TTL", "WEB_PORT", "DATABASE_NAME",
		"MAX_CONCURRENT_SCANS",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()

	if cfg.Oracle.Kind != "deepface" {
		t.Errorf("expected oracle kind 'deepface', got '%s'", cfg.Oracle.Kind)
	}
	if cfg.Oracle.Model != "VGG-Face" {
		t.Errorf("expected oracle model 'VGG-Face', got '%s'", cfg.Oracle.Model)
	}
	if cfg.Oracle.EnforceDetection {
		t.Error("expected enforce_detection to default to false")
	}
	if cfg.Oracle.Timeout != 60*time.Second {
		t.Errorf("expected oracle timeout 60s, got %v", cfg.Oracle.Timeout)
	}
	if cfg.Auth.TokenTTL != 24*time.Hour {
		t.Errorf("expected token TTL 24h, got %v", cfg.Auth.TokenTTL)
	}
	if cfg.Web.Port != 5000 {
		t.Errorf("expected port 5000, got %d", cfg.Web.Port)
	}
	if cfg.Web.MaxScans != 4 {
		t.Errorf("expected 4 concurrent scans, got %d", cfg.Web.MaxScans)
	}
	if cfg.Database.Name != "crimai" {
		t.Errorf("expected database name 'crimai', got '%s'", cfg.Database.Name)
	}

	want := []string{".jpg", ".jpeg", ".png"}
	if len(cfg.Gallery.Extensions) != len(want) {
		t.Fatalf("expected %d extensions, got %v", len(want), cfg.Gallery.Extensions)
	}
	for i, ext := range want {
		if cfg.Gallery.Extensions[i] != ext {
			t.Errorf("extension %d: expected '%s', got '%s'", i, ext, cfg.Gallery.Extensions[i])
		}
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("ORACLE_KIND", "goface")
	t.Setenv("ORACLE_TIMEOUT", "5s")
	t.Setenv("ORACLE_ENFORCE_DETECTION", "true")
	t.Setenv("GALLERY_EXTENSIONS", "JPG, webp ,,")
	t.Setenv("NOTIFY_URLS", "generic://example.com/hook, telegram://token@telegram?chats=1")
	t.Setenv("WEB_PORT", "8081")

	cfg := Load()

	if cfg.Oracle.Kind != "goface" {
		t.Errorf("expected oracle kind 'goface', got '%s'", cfg.Oracle.Kind)
	}
	if cfg.Oracle.Timeout != 5*time.Second {
		t.Errorf("expected timeout 5s, got %v", cfg.Oracle.Timeout)
	}
	if !cfg.Oracle.EnforceDetection {
		t.Error("expected enforce_detection true")
	}
	if len(cfg.Gallery.Extensions) != 2 || cfg.Gallery.Extensions[0] != ".jpg" || cfg.Gallery.Extensions[1] != ".webp" {
		t.Errorf("unexpected extensions: %v", cfg.Gallery.Extensions)
	}
	if len(cfg.Notify.URLs) != 2 {
		t.Errorf("expected 2 notify URLs, got %v", cfg.Notify.URLs)
	}
	if !cfg.Notify.Enabled() {
		t.Error("expected notifications to be enabled")
	}
	if cfg.Web.Port != 8081 {
		t.Errorf("expected port 8081, got %d", cfg.Web.Port)
	}
}

func TestEnvInt_InvalidFallsBack(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  int
	}{
		{"empty", "", 7},
		{"not a number", "abc", 7},
		{"negative", "-3", 7},
		{"zero", "0", 7},
		{"valid", "12", 12},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("TEST_ENV_INT", tc.value)
			if got := envInt("TEST_ENV_INT", 7); got != tc.want {
				t.Errorf("envInt(%q) = %d; want %d", tc.value, got, tc.want)
			}
		})
	}
}

func TestEnvDuration_InvalidFallsBack(t *testing.T) {
	t.Setenv("TEST_ENV_DURATION", "soon")
	if got := envDuration("TEST_ENV_DURATION", time.Minute); got != time.Minute {
		t.Errorf("expected fallback 1m, got %v", got)
	}
}

func TestNotifyConfig_Disabled(t *testing.T) {
	cfg := NotifyConfig{}
	if cfg.Enabled() {
		t.Error("expected notifications disabled without URLs or broker")
	}
}
