package log

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
		{"warn", slog.LevelWarn, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"verbose", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestLogger_TagsComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelInfo, Component: ComponentApp, Output: &buf})

	logger.WithComponent(ComponentCloser).Info("Month ensured", FieldPeriod, "2024-03")
	logger.Debug("hidden")

	out := buf.String()
	if !strings.Contains(out, "component=month_closer") {
		t.Errorf("output %q lacks component", out)
	}
	if !strings.Contains(out, "period=2024-03") {
		t.Errorf("output %q lacks period", out)
	}
	if strings.Contains(out, "hidden") {
		t.Errorf("debug line written at info level: %q", out)
	}
	if strings.Count(out, "component=") != 1 {
		t.Errorf("component tagged more than once: %q", out)
	}
}

func TestLogFields(t *testing.T) {
	f := NewFields().
		WithComponent(ComponentWorker).
		WithOperation(OpExport).
		WithMonth(7, "2024-03", true).
		WithAmount(1250).
		WithError(errors.New("boom")).
		WithError(nil)

	if f[FieldMonthID] != int64(7) || f[FieldPeriod] != "2024-03" || f[FieldLocked] != true {
		t.Errorf("month fields = %v", f)
	}
	if f[FieldError] != "boom" {
		t.Errorf("error field = %v, want boom", f[FieldError])
	}
	if got := len(f.ToSlice()); got != 2*len(f) {
		t.Errorf("ToSlice length = %d, want %d", got, 2*len(f))
	}
}
