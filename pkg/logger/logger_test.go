package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
)

func TestParseLevelDevelopmentDefaultsToDebug(t *testing.T) {
	if got := parseLevel("", "development"); got != slog.LevelDebug {
		t.Fatalf("expected debug, got %v", got)
	}
	if got := parseLevel("", "production"); got != slog.LevelInfo {
		t.Fatalf("expected info, got %v", got)
	}
	if got := parseLevel("fatal", "production"); got != LevelCritical {
		t.Fatalf("expected critical, got %v", got)
	}
}

func TestParseFormatFallsBackToJSON(t *testing.T) {
	if got := parseFormat("PRETTY"); got != "pretty" {
		t.Fatalf("expected pretty, got %q", got)
	}
	if got := parseFormat("yaml"); got != "json" {
		t.Fatalf("expected json, got %q", got)
	}
}

func TestCriticalLevelIsRenamed(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, slog.LevelInfo, "json")
	log.Critical("app: boom", "household_id", "h-1")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if entry["level"] != "CRITICAL" {
		t.Fatalf("expected CRITICAL level, got %v", entry["level"])
	}
	if entry["household_id"] != "h-1" {
		t.Fatalf("expected household_id attr, got %v", entry["household_id"])
	}
}

func TestBusinessErrorSkipsNilError(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, slog.LevelDebug, "json")
	log.BusinessError("balances.settle: ignored", nil)
	if buf.Len() != 0 {
		t.Fatalf("expected no output, got %q", buf.String())
	}

	log.BusinessError("balances.settle: rejected", errors.New("amount exceeds balance"))
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if entry["level"] != "WARN" || entry["err"] != "amount exceeds balance" {
		t.Fatalf("unexpected entry %v", entry)
	}
}
