package telemetry

import (
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestInfoAndErrorCarryFields(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	restore := SetLogger(zap.New(core))
	defer restore()

	Info("generation.started", map[string]any{"application_id": "app-1", "attempt": 1})
	Error("generation.failed", map[string]any{"application_id": "app-1", "err": errors.New("boom")})

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Message != "generation.started" || entries[0].Level != zapcore.InfoLevel {
		t.Fatalf("unexpected first entry: %+v", entries[0].Entry)
	}
	ctx := entries[0].ContextMap()
	if ctx["application_id"] != "app-1" {
		t.Fatalf("unexpected application_id: %v", ctx["application_id"])
	}
	if entries[1].Level != zapcore.ErrorLevel {
		t.Fatalf("expected error level, got %s", entries[1].Level)
	}
	if got := entries[1].ContextMap()["err"]; got != "boom" {
		t.Fatalf("expected err string, got %v", got)
	}
}

func TestSetLoggerRestores(t *testing.T) {
	orig := Logger()
	restore := SetLogger(nil)
	if Logger() == orig {
		t.Fatal("expected logger swap")
	}
	restore()
	if Logger() != orig {
		t.Fatal("expected original logger restored")
	}
}
