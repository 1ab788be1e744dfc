package selector

import (
	"io"
	"strings"
	"testing"

	"github.com/texerai/alf/internal/model"
)

func TestModulePickerSelectAfterFilter(t *testing.T) {
	modules := []string{"top.core.valid", "top.core.ready", "top.mem.addr"}
	keys := "core\r\x0e" // filter to "core", tag highlighted, continue
	picker := NewModulePicker(strings.NewReader(keys), io.Discard)

	got, rc, err := picker.Pick(modules)
	if err != nil {
		t.Fatalf("Pick: %v", err)
	}
	if rc != model.Success {
		t.Fatalf("ReturnCode = %v, want Success", rc)
	}
	if len(got) != 1 || got[0] != "top.core.ready" {
		t.Errorf("Pick() = %v, want [top.core.ready]", got)
	}
}

func TestModulePickerTerminate(t *testing.T) {
	picker := NewModulePicker(strings.NewReader("\x03"), io.Discard)
	_, rc, err := picker.Pick([]string{"a", "b"})
	if err != nil {
		t.Fatalf("Pick: %v", err)
	}
	if rc != model.Terminate {
		t.Errorf("ReturnCode = %v, want Terminate", rc)
	}
}

func TestModulePickerDownThenSelect(t *testing.T) {
	modules := []string{"a", "b", "c"}
	keys := "\x1b[B\r\x0e" // down, tag, continue
	picker := NewModulePicker(strings.NewReader(keys), io.Discard)

	got, rc, err := picker.Pick(modules)
	if err != nil {
		t.Fatalf("Pick: %v", err)
	}
	if rc != model.Success || len(got) != 1 || got[0] != "b" {
		t.Errorf("Pick() = (%v, %v), want ([b], Success)", got, rc)
	}
}

func TestModulePickerTogglingTwiceUntags(t *testing.T) {
	modules := []string{"a", "b"}
	keys := "\r\r\x0e" // tag "a", untag "a" (nothing selected), then continue is a no-op, then EOF
	picker := NewModulePicker(strings.NewReader(keys), io.Discard)

	_, rc, err := picker.Pick(modules)
	if err != nil {
		t.Fatalf("Pick: %v", err)
	}
	if rc != model.Terminate {
		t.Errorf("ReturnCode = %v, want Terminate (continue with nothing tagged is a no-op, then EOF)", rc)
	}
}

func TestModulePickerMultipleSelections(t *testing.T) {
	modules := []string{"a", "b", "c"}
	keys := "\r\x1b[B\r\x0e" // tag "a", down, tag "b", continue
	picker := NewModulePicker(strings.NewReader(keys), io.Discard)

	got, rc, err := picker.Pick(modules)
	if err != nil {
		t.Fatalf("Pick: %v", err)
	}
	if rc != model.Success {
		t.Fatalf("ReturnCode = %v, want Success", rc)
	}
	if len(got) != 2 || !containsString(got, "a") || !containsString(got, "b") {
		t.Errorf("Pick() = %v, want [a b] (in any order)", got)
	}
}

func TestModulePickerEOFTerminates(t *testing.T) {
	picker := NewModulePicker(strings.NewReader(""), io.Discard)
	_, rc, err := picker.Pick([]string{"a"})
	if err != nil {
		t.Fatalf("Pick: %v", err)
	}
	if rc != model.Terminate {
		t.Errorf("ReturnCode = %v, want Terminate", rc)
	}
}
