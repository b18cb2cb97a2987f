package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"household-app-go/pkg/logger"
)

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("HTTP_PORT", "")
	t.Setenv("HOUSEHOLD_DEFAULT_TIMEZONE", "")
	t.Setenv("RECURRING_RUN_INTERVAL", "")
	t.Setenv("REDIS_ADDR", "")

	cfg, err := Load(logger.Nop())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.HTTPPort != "8080" {
		t.Fatalf("expected default port, got %q", cfg.HTTPPort)
	}
	if cfg.Household.DefaultTimezone != "UTC" {
		t.Fatalf("expected UTC default timezone, got %q", cfg.Household.DefaultTimezone)
	}
	if cfg.Recurring.RunInterval != 0 {
		t.Fatalf("expected in-process loop disabled, got %v", cfg.Recurring.RunInterval)
	}
	if cfg.Redis.Enabled() {
		t.Fatalf("expected redis disabled without address")
	}
}

func TestLoadRejectsUnknownTimezone(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("HOUSEHOLD_DEFAULT_TIMEZONE", "Mars/Olympus")

	if _, err := Load(logger.Nop()); err == nil {
		t.Fatalf("expected error for unknown timezone")
	}
}

func TestLoadReadsDotEnvWithoutOverridingEnv(t *testing.T) {
	dir := t.TempDir()
	contents := "WEBHOOK_SECRET=from-file\nRECURRING_RUN_INTERVAL=15m\n"
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(contents), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	nested := filepath.Join(dir, "nested")
	if err := os.Mkdir(nested, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	chdir(t, nested)
	t.Setenv("WEBHOOK_SECRET", "from-env")
	t.Setenv("RECURRING_RUN_INTERVAL", "")
	os.Unsetenv("RECURRING_RUN_INTERVAL")

	cfg, err := Load(logger.Nop())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.Webhook.Secret != "from-env" {
		t.Fatalf("expected env to win, got %q", cfg.Webhook.Secret)
	}
	if cfg.Recurring.RunInterval != 15*time.Minute {
		t.Fatalf("expected interval from .env, got %v", cfg.Recurring.RunInterval)
	}
}

func TestGetEnvList(t *testing.T) {
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.example , ,https://b.example")
	got := getEnvList("CORS_ALLOWED_ORIGINS", nil)
	if len(got) != 2 || got[0] != "https://a.example" || got[1] != "https://b.example" {
		t.Fatalf("unexpected origins %v", got)
	}
}

func TestGetDSNPrefersExplicitDSN(t *testing.T) {
	cfg := DBConfig{DSN: "postgres://x"}
	if cfg.GetDSN() != "postgres://x" {
		t.Fatalf("expected explicit dsn")
	}
	cfg = DBConfig{Host: "db", User: "u", Password: "p", Name: "n", Port: "5432", SSLMode: "disable", TimeZone: "UTC"}
	want := "host=db user=u password=p dbname=n port=5432 sslmode=disable TimeZone=UTC"
	if cfg.GetDSN() != want {
		t.Fatalf("expected %q, got %q", want, cfg.GetDSN())
	}
}

// chdir changes the working directory for the duration of the test,
// restoring the previous one on cleanup (equivalent of t.Chdir).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatalf("restore working directory: %v", err)
		}
	})
}
