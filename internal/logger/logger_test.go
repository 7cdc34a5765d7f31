package logger

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestLevels(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "warn")
	log.Info("hidden")
	log.Warn("shown", "url", "https://x.test")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("want exactly one JSON record, got %q: %v", buf.String(), err)
	}
	if rec["msg"] != "shown" || rec["url"] != "https://x.test" {
		t.Errorf("record: %v", rec)
	}
}

func TestParseLevelDefault(t *testing.T) {
	if got := parseLevel("verbose"); got.String() != "INFO" {
		t.Errorf("got %s", got)
	}
}
