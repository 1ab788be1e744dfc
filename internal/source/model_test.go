package source

import (
	"strings"
	"testing"
)

const sampleModule = `// header comment
` + "`timescale 1ns/1ps" + `

module m (
  input  wire clk,
  input  wire a,
  input  wire b,
  output wire y
);

  assign y = a & b;

endmodule
`

func TestFindDeclarationSpans(t *testing.T) {
	spans, ok := FindDeclarationSpans(sampleModule, "m")
	if !ok {
		t.Fatal("expected module m to be found")
	}
	if spans.HeaderContent == "" {
		t.Error("expected non-empty header content")
	}
	if !containsAll(spans.ModuleDefinition, "module m", "input  wire clk") {
		t.Errorf("module definition missing expected content: %q", spans.ModuleDefinition)
	}
	if !containsAll(spans.ModuleBody, "assign y = a & b;") {
		t.Errorf("module body missing expected content: %q", spans.ModuleBody)
	}
}

func TestFindDeclarationSpansMissingModule(t *testing.T) {
	if _, ok := FindDeclarationSpans(sampleModule, "nope"); ok {
		t.Error("expected missing module to report ok=false")
	}
}

func TestIsPort(t *testing.T) {
	spans, _ := FindDeclarationSpans(sampleModule, "m")
	if got := IsPort(spans.ModuleDefinition, "y"); got != OutputPort {
		t.Errorf("IsPort(y) = %v, want OutputPort", got)
	}
	if got := IsPort(spans.ModuleDefinition, "a"); got != InputPort {
		t.Errorf("IsPort(a) = %v, want InputPort", got)
	}
	if got := IsPort(spans.ModuleDefinition, "nosuch"); got != NotAPort {
		t.Errorf("IsPort(nosuch) = %v, want NotAPort", got)
	}
}

func TestFindSubmoduleUsagesOf(t *testing.T) {
	body := `
  sub u_sub (
    .clk(clk),
    .data_i(a),
    .data_o(y)
  );
`
	usages := FindSubmoduleUsagesOf(body, "a")
	if len(usages) != 1 {
		t.Fatalf("expected 1 usage of a, got %d: %v", len(usages), usages)
	}
	if usages[0].InstanceName != "u_sub" || usages[0].PortName != "data_i" {
		t.Errorf("unexpected usage: %+v", usages[0])
	}
}

func containsAll(s string, substrs ...string) bool {
	for _, sub := range substrs {
		if !strings.Contains(s, sub) {
			return false
		}
	}
	return true
}
