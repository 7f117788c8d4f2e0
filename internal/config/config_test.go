package config

import (
	"os"
	"testing"

	"github.com/spf13/viper"
)

func TestLoadConfig_Defaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	unsetEnvWithCleanup(t, "SERVER_PORT")
	unsetEnvWithCleanup(t, "JWT_SECRET")
	unsetEnvWithCleanup(t, "ADMIN_USERNAME")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.ServerPort != "8080" {
		t.Fatalf("expected default port 8080, got %q", cfg.ServerPort)
	}
	if cfg.JWTSecret == "" {
		t.Fatalf("expected a default JWT secret")
	}
	if cfg.AdminUsername != "admin" {
		t.Fatalf("expected default admin username, got %q", cfg.AdminUsername)
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	setEnvWithCleanup(t, "SERVER_PORT", "9191")
	setEnvWithCleanup(t, "JWT_SECRET", "from-env")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.ServerPort != "9191" {
		t.Fatalf("expected port from env, got %q", cfg.ServerPort)
	}
	if cfg.JWTSecret != "from-env" {
		t.Fatalf("expected JWT secret from env, got %q", cfg.JWTSecret)
	}
}

func TestOrigins(t *testing.T) {
	cfg := &Config{}
	origins := cfg.Origins()
	if len(origins) != 1 || origins[0] != "*" {
		t.Fatalf("expected wildcard origins by default, got %v", origins)
	}

	cfg.AllowedOrigins = "https://bank.example.com, https://admin.example.com"
	origins = cfg.Origins()
	if len(origins) != 2 || origins[1] != "https://admin.example.com" {
		t.Fatalf("unexpected origins: %v", origins)
	}
}

func TestSMTPConfigured(t *testing.T) {
	cfg := &Config{}
	if cfg.SMTPConfigured() {
		t.Fatalf("expected SMTP unconfigured without credentials")
	}
	cfg.SMTPUser = "mailer"
	cfg.SMTPPass = "secret"
	if !cfg.SMTPConfigured() {
		t.Fatalf("expected SMTP configured with credentials")
	}
}

func setEnvWithCleanup(t *testing.T, key string, value string) {
	t.Helper()
	prev, hadPrev := os.LookupEnv(key)
	if err := os.Setenv(key, value); err != nil {
		t.Fatalf("failed to set env %s: %v", key, err)
	}
	t.Cleanup(func() {
		if hadPrev {
			_ = os.Setenv(key, prev)
			return
		}
		_ = os.Unsetenv(key)
	})
}

func unsetEnvWithCleanup(t *testing.T, key string) {
	t.Helper()
	prev, hadPrev := os.LookupEnv(key)
	if err := os.Unsetenv(key); err != nil {
		t.Fatalf("failed to unset env %s: %v", key, err)
	}
	t.Cleanup(func() {
		if hadPrev {
			_ = os.Setenv(key, prev)
			return
		}
		_ = os.Unsetenv(key)
	})
}
