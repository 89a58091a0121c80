package metrics

import (
	"bytes"
	"strings"
	"testing"
)

func TestIncAndDump(t *testing.T) {
	Reset()
	Inc("test_events_total", map[string]string{"result": "ok"})
	Inc("test_events_total", map[string]string{"result": "ok"})
	Inc("test_events_total", map[string]string{"result": "error"})
	SetGauge("test_size", nil, 42)
	ObserveSummary("test_latency_ms", map[string]string{"op": "read"}, 3.5)

	var buf bytes.Buffer
	if err := DumpProm(&buf); err != nil {
		t.Fatalf("dump: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, `test_events_total{result="ok"} 2`) {
		t.Fatalf("counter missing from dump:\n%s", out)
	}
	if !strings.Contains(out, "test_size 42") {
		t.Fatalf("gauge missing from dump:\n%s", out)
	}
	if !strings.Contains(out, "test_latency_ms") {
		t.Fatalf("summary missing from dump:\n%s", out)
	}
}

func TestResetDropsFamilies(t *testing.T) {
	Reset()
	Inc("test_gone_total", nil)
	Reset()
	var buf bytes.Buffer
	if err := DumpProm(&buf); err != nil {
		t.Fatalf("dump: %v", err)
	}
	if strings.Contains(buf.String(), "test_gone_total") {
		t.Fatalf("reset must drop families")
	}
}

func TestLabelArityStaysFixed(t *testing.T) {
	Reset()
	Inc("test_arity_total", map[string]string{"a": "1", "b": "2"})
	// A later caller omitting a label must not panic; missing keys become "".
	Inc("test_arity_total", map[string]string{"a": "1"})
}
