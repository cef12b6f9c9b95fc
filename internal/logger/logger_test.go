package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestTextFormat_IncludesFields(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "DEBUG", "text", false)

	Info("asset cached", KeyAsset, "mesh/rig-01", KeySize, 4096)

	out := buf.String()
	if !strings.Contains(out, "asset cached") {
		t.Errorf("expected message in output, got %q", out)
	}
	if !strings.Contains(out, "asset=mesh/rig-01") {
		t.Errorf("expected asset field in output, got %q", out)
	}
	if !strings.Contains(out, "size=4096") {
		t.Errorf("expected size field in output, got %q", out)
	}
}

func TestJSONFormat_Parseable(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "DEBUG", "json", false)

	Warn("work budget exceeded", KeyJob, "evict", KeyOverrun, "1.2ms")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("output is not valid JSON: %v (%q)", err, buf.String())
	}
	if record["msg"] != "work budget exceeded" {
		t.Errorf("expected msg field, got %v", record["msg"])
	}
	if record["job"] != "evict" {
		t.Errorf("expected job field, got %v", record["job"])
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "WARN", "text", false)

	Debug("should not appear")
	Info("should not appear either")
	Warn("visible")

	out := buf.String()
	if strings.Contains(out, "should not appear") {
		t.Errorf("low-level records leaked through filter: %q", out)
	}
	if !strings.Contains(out, "visible") {
		t.Errorf("expected warn record in output, got %q", out)
	}
}

func TestSetLevel_IgnoresInvalid(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "INFO", "text", false)

	SetLevel("NOISY") // invalid, must be ignored

	Info("still info")
	if !strings.Contains(buf.String(), "still info") {
		t.Errorf("invalid level changed filtering: %q", buf.String())
	}
}
