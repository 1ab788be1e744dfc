package selector

import (
	"io"
	"strings"
	"testing"

	"github.com/texerai/alf/internal/model"
)

func twoCandidates() []*model.SelectedSignal {
	return []*model.SelectedSignal{
		{InstancePath: "top.core", Name: "valid", Certainty: 5},
		{InstancePath: "top.core", Name: "ready", Certainty: 7},
	}
}

func TestSignalPickerAndGateThenContinue(t *testing.T) {
	// Sorted label order puts "ready" (index 0) before "valid" (index 1).
	picker := NewSignalPicker(strings.NewReader("1\x0e"), io.Discard)
	got, rc, err := picker.Pick(twoCandidates())
	if err != nil {
		t.Fatalf("Pick: %v", err)
	}
	if rc != model.Success {
		t.Fatalf("ReturnCode = %v, want Success", rc)
	}
	sig, ok := got["top.core.ready"]
	if !ok {
		t.Fatalf("expected top.core.ready selected, got %v", got)
	}
	if sig.GateType != model.GateAnd {
		t.Errorf("GateType = %v, want AND", sig.GateType)
	}
	if len(got) != 1 {
		t.Errorf("len(got) = %d, want 1", len(got))
	}
}

func TestSignalPickerOrThenAndIsExclusive(t *testing.T) {
	// Highlight row 0 ("ready"): OR it, then AND it; AND should win and
	// remove it from the OR set.
	picker := NewSignalPicker(strings.NewReader("21\x0e"), io.Discard)
	got, rc, err := picker.Pick(twoCandidates())
	if err != nil {
		t.Fatalf("Pick: %v", err)
	}
	if rc != model.Success {
		t.Fatalf("ReturnCode = %v, want Success", rc)
	}
	sig, ok := got["top.core.ready"]
	if !ok {
		t.Fatalf("expected top.core.ready selected, got %v", got)
	}
	if sig.GateType != model.GateAnd {
		t.Errorf("GateType = %v, want AND (later selection should override OR)", sig.GateType)
	}
}

func TestSignalPickerContinueWithNoneSelectedKeepsRunning(t *testing.T) {
	// Ctrl+N with nothing selected is a no-op per process_command; the
	// loop then hits EOF and terminates.
	picker := NewSignalPicker(strings.NewReader("\x0e"), io.Discard)
	_, rc, err := picker.Pick(twoCandidates())
	if err != nil {
		t.Fatalf("Pick: %v", err)
	}
	if rc != model.Terminate {
		t.Errorf("ReturnCode = %v, want Terminate (EOF after no-op continue)", rc)
	}
}

func TestSignalPickerTerminate(t *testing.T) {
	picker := NewSignalPicker(strings.NewReader("\x03"), io.Discard)
	_, rc, err := picker.Pick(twoCandidates())
	if err != nil {
		t.Fatalf("Pick: %v", err)
	}
	if rc != model.Terminate {
		t.Errorf("ReturnCode = %v, want Terminate", rc)
	}
}
