package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func captureLogger(buf *bytes.Buffer) *Logger {
	return New(Options{ServiceName: "test", Level: zerolog.InfoLevel, Output: buf})
}

func lastLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	var entry map[string]any
	if err := json.Unmarshal(lines[len(lines)-1], &entry); err != nil {
		t.Fatalf("parse log line: %v", err)
	}
	return entry
}

func TestInfoCarriesServiceName(t *testing.T) {
	var buf bytes.Buffer
	logg := captureLogger(&buf)

	logg.Info(context.Background(), "hello")

	entry := lastLine(t, &buf)
	if entry["service"] != "test" {
		t.Fatalf("expected service field, got %v", entry["service"])
	}
	if entry["message"] != "hello" {
		t.Fatalf("expected message, got %v", entry["message"])
	}
}

func TestContextFieldsPropagate(t *testing.T) {
	var buf bytes.Buffer
	logg := captureLogger(&buf)

	ctx := logg.WithRequestID(context.Background(), "req-1")
	ctx = logg.WithOwnerID(ctx, "u1")
	ctx = logg.WithTerminalID(ctx, "POS1")
	logg.Info(ctx, "redeem")

	entry := lastLine(t, &buf)
	if entry["request_id"] != "req-1" || entry["owner_id"] != "u1" || entry["terminal_id"] != "POS1" {
		t.Fatalf("expected context fields, got %v", entry)
	}
}

func TestErrorIncludesStack(t *testing.T) {
	var buf bytes.Buffer
	logg := captureLogger(&buf)

	logg.Error(context.Background(), "boom", context.DeadlineExceeded)

	entry := lastLine(t, &buf)
	if entry["stack"] == nil || entry["stack"] == "" {
		t.Fatal("expected stack trace on error logs")
	}
}

func TestParseLevel(t *testing.T) {
	if ParseLevel("debug") != zerolog.DebugLevel {
		t.Fatal("expected debug level")
	}
	if ParseLevel("") != zerolog.InfoLevel {
		t.Fatal("expected info fallback for empty input")
	}
	if ParseLevel("bogus") != zerolog.InfoLevel {
		t.Fatal("expected info fallback for unknown input")
	}
}
