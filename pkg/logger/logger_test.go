package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestNew_JSONIncludesService(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: INFO, Format: JSON, Output: &buf, Service: "bookings"})

	log.Info("hello", "booking_id", "abc")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("expected JSON record, got %q: %v", buf.String(), err)
	}
	if record[SERVICE] != "bookings" {
		t.Errorf("expected service attribute 'bookings', got %v", record[SERVICE])
	}
	if record["booking_id"] != "abc" {
		t.Errorf("expected booking_id attribute, got %v", record["booking_id"])
	}
}

func TestNew_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: WARN, Output: &buf})

	log.Info("dropped")
	if buf.Len() != 0 {
		t.Fatalf("expected info record to be filtered, got %q", buf.String())
	}

	log.Warn("kept")
	if !strings.Contains(buf.String(), "kept") {
		t.Errorf("expected warn record, got %q", buf.String())
	}
}

func TestNew_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Format: TEXT, Output: &buf})

	log.Info("plain")
	if strings.HasPrefix(buf.String(), "{") {
		t.Errorf("expected text output, got %q", buf.String())
	}
}

func TestWith(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Output: &buf}).With("component", "sweeper")

	log.Info("tick")
	if !strings.Contains(buf.String(), `"component":"sweeper"`) {
		t.Errorf("expected component attribute, got %q", buf.String())
	}
}
