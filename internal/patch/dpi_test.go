package patch

import (
	"strings"
	"testing"

	"github.com/texerai/alf/internal/model"
)

func TestInjectDPITwoSignals(t *testing.T) {
	content := `module root (input clk);
endmodule
`
	control := model.ControlSignals{Clock: "clk", Reset: "rst", Edge: "posedge"}
	got, err := InjectDPI(content, "root", []string{"p1", "p2"}, control)
	if err != nil {
		t.Fatalf("InjectDPI: %v", err)
	}
	if !strings.Contains(got, `import "DPI-C" function void fuzz_root(output p1, output p2);`) {
		t.Errorf("missing fuzz import, got:\n%s", got)
	}
	if !strings.Contains(got, "always_ff @(posedge clk) begin fuzz_root(p1, p2); end") {
		t.Errorf("missing always_ff block, got:\n%s", got)
	}
	if !strings.Contains(got, `import "DPI-C" function void init_root();`) {
		t.Errorf("missing init import, got:\n%s", got)
	}
}

func TestInjectDPIMissingEndmoduleFails(t *testing.T) {
	_, err := InjectDPI("module root();", "root", []string{"p1"}, model.ControlSignals{})
	if err == nil {
		t.Fatal("expected error for missing endmodule")
	}
}

func TestEmitCPPStubExportsBothFunctions(t *testing.T) {
	got := EmitCPPStub("root", []string{"p1", "p2"}, 42)
	if !strings.Contains(got, "extern \"C\" void init_root()") {
		t.Errorf("missing init export, got:\n%s", got)
	}
	if !strings.Contains(got, "extern \"C\" void fuzz_root(") {
		t.Errorf("missing fuzz export, got:\n%s", got)
	}
}

func TestCPPStubFilename(t *testing.T) {
	if got := CPPStubFilename("root"); got != "root_dpi.cpp" {
		t.Errorf("CPPStubFilename() = %q, want root_dpi.cpp", got)
	}
}

func TestDeclareLocalWire(t *testing.T) {
	content := "module root (input clk);\nendmodule"
	got, err := DeclareLocalWire(content, "root", "punch_out_x_0")
	if err != nil {
		t.Fatalf("DeclareLocalWire: %v", err)
	}
	if !strings.Contains(got, "wire punch_out_x_0;") {
		t.Errorf("missing wire declaration, got:\n%s", got)
	}
}

func TestDeclareLocalWireMissingModuleFails(t *testing.T) {
	_, err := DeclareLocalWire("module other(); endmodule", "root", "p")
	if err == nil {
		t.Fatal("expected error for missing module")
	}
}
