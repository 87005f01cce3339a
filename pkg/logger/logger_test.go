package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestLoggerInit(t *testing.T) {
	err := Init()
	if err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() {
		if err := Sync(); err != nil {
			t.Errorf("failed to sync logger: %v", err)
		}
	}()

	logger := Get()
	if logger == nil {
		t.Fatal("logger is nil after initialization")
	}

	if err := Init(WithFormat("xml")); err == nil {
		t.Fatal("expected an error for an unknown format")
	}
}

func TestLoggerJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	if err := Init(WithOutput(&buf), WithFormat(FormatJSON)); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	ctx := context.Background()
	Named("saver").Info(ctx, "saved period",
		String("period", "2026q4"),
		Int("attempt", 2),
		Bool("coalesced", true),
		Error(errors.New("boom")),
	)

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if record["msg"] != "saved period" {
		t.Errorf("msg = %v", record["msg"])
	}
	if record["logger"] != "saver" {
		t.Errorf("logger = %v", record["logger"])
	}
	if record["period"] != "2026q4" {
		t.Errorf("period = %v", record["period"])
	}
	if _, ok := record["source"]; !ok {
		t.Error("expected a source field")
	}
}

func TestSetLevelString(t *testing.T) {
	var buf bytes.Buffer
	if err := Init(WithOutput(&buf)); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	tests := []struct {
		level   string
		wantErr bool
	}{
		{"debug", false},
		{"INFO", false},
		{" warning ", false},
		{"error", false},
		{"", false},
		{"verbose", true},
	}
	for _, tt := range tests {
		err := SetLevelString(tt.level)
		if (err != nil) != tt.wantErr {
			t.Errorf("SetLevelString(%q) error = %v, wantErr %v", tt.level, err, tt.wantErr)
		}
	}

	if err := SetLevelString("warn"); err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	Get().Info(ctx, "hidden")
	Get().Warn(ctx, "shown")
	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, "shown") {
		t.Errorf("unexpected output for warn level: %q", out)
	}
}
