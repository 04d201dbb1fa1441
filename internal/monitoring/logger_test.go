package monitoring

import (
	"bytes"
	"strings"
	"testing"
)

func TestComponentStreams(t *testing.T) {
	defer SetLogWriters(nil, nil, nil)

	var ops, diag, trace bytes.Buffer
	SetLogWriters(&ops, &diag, &trace)

	c := NewComponent("engine")
	c.Opsf("detector failed: %v", "boom")
	c.Diagf("track %s created", "abc")
	c.Tracef("tick %d", 7)

	if !strings.Contains(ops.String(), "[engine] detector failed: boom") {
		t.Errorf("ops stream missing line, got %q", ops.String())
	}
	if !strings.Contains(diag.String(), "[engine] track abc created") {
		t.Errorf("diag stream missing line, got %q", diag.String())
	}
	if !strings.Contains(trace.String(), "[engine] tick 7") {
		t.Errorf("trace stream missing line, got %q", trace.String())
	}
}

func TestDisabledStreamsAreSilent(t *testing.T) {
	defer SetLogWriters(nil, nil, nil)

	var ops bytes.Buffer
	SetLogWriters(&ops, nil, nil)

	c := NewComponent("x")
	c.Diagf("hidden")
	c.Tracef("hidden")
	if c.TraceEnabled() {
		t.Error("TraceEnabled() = true with no trace writer")
	}
	if ops.Len() != 0 {
		t.Errorf("ops stream should be empty, got %q", ops.String())
	}
}

func TestSetLevel(t *testing.T) {
	defer SetLogWriters(nil, nil, nil)

	tests := []struct {
		level     Level
		wantDiag  bool
		wantTrace bool
	}{
		{LevelOps, false, false},
		{LevelDiag, true, false},
		{LevelTrace, true, true},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		SetLevel(&buf, tt.level)
		c := NewComponent("lvl")
		c.Diagf("diag-line")
		c.Tracef("trace-line")
		if got := strings.Contains(buf.String(), "diag-line"); got != tt.wantDiag {
			t.Errorf("level %d: diag emitted = %v, want %v", tt.level, got, tt.wantDiag)
		}
		if got := strings.Contains(buf.String(), "trace-line"); got != tt.wantTrace {
			t.Errorf("level %d: trace emitted = %v, want %v", tt.level, got, tt.wantTrace)
		}
	}
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]Level{"": LevelOps, "ops": LevelOps, "DIAG": LevelDiag, " trace ": LevelTrace} {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Errorf("ParseLevel(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseLevel("verbose"); err == nil {
		t.Error("ParseLevel(verbose) should fail")
	}
}
