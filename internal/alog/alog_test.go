package alog

import (
	"io"
	"os"
	"strings"
	"testing"
)

func TestDebugSuppressedWhenNotVerbose(t *testing.T) {
	l := New(false)
	// Capture stderr, where the logger writes, to check the gate: Debug
	// prints nothing when not verbose, while Warn still prints.
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	orig := os.Stderr
	os.Stderr = w
	l.Debug("should not print")
	l.Warn("should print")
	os.Stderr = orig
	w.Close()
	out, _ := io.ReadAll(r)
	if strings.Contains(string(out), "should not print") {
		t.Errorf("Debug printed while not verbose: %q", out)
	}
	if !strings.Contains(string(out), "should print") {
		t.Errorf("Warn did not print: %q", out)
	}
}
