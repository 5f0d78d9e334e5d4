package logger

import (
	"bytes"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestInitWriterLevels(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf, false, true)
	log.Debug("hidden")
	log.Warn("shown", "slot", 3)
	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("expected debug output to be filtered, got %q", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "slot=3") {
		t.Fatalf("expected warning with key/value pair, got %q", out)
	}
	if !strings.Contains(out, "SNAPRUN") {
		t.Fatalf("expected prefix in output, got %q", out)
	}

	buf.Reset()
	InitWriter(&buf, true, true)
	log.Debug("visible")
	if !strings.Contains(buf.String(), "visible") {
		t.Fatalf("expected debug output with debug enabled, got %q", buf.String())
	}
}
