package patch

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/texerai/alf/internal/model"
	"github.com/texerai/alf/internal/source"
)

// dpiSVData holds the template data for the DPI import/block snippet
// prepended/injected into the top instance's declaring file.
type dpiSVData struct {
	Top     string
	Punches []string
	Clock   string
	Edge    string
}

var dpiImportTmpl = template.Must(template.New("dpi_import").Parse(
	`import "DPI-C" function void init_{{.Top}}();
import "DPI-C" function void fuzz_{{.Top}}({{range $i, $p := .Punches}}{{if $i}}, {{end}}output {{$p}}{{end}});
`))

var dpiBlockTmpl = template.Must(template.New("dpi_block").Parse(
	`initial begin init_{{.Top}}(); end
always_ff @({{.Edge}} {{.Clock}}) begin fuzz_{{.Top}}({{range $i, $p := .Punches}}{{if $i}}, {{end}}{{$p}}{{end}}); end
`))

// cppStubTmpl is a fixed template for the companion C++ stub. Byte-exactness
// beyond this shape is not required by §4.6; the fuzz-method naming is
// supplemented from llm_communicator.py's fuzz_method/safe_value prompt
// fields even though the core never round-trips them.
var cppStubTmpl = template.Must(template.New("dpi_cpp").Parse(
`// Auto-generated DPI-C stub for top instance "{{.Top}}". Do not edit.
#include <cstdint>
#include <random>

namespace {
std::mt19937_64 rng{ {{.Seed}}ULL };
{{range .Punches}}
struct Fuzzer_{{.}} {
  // toggles the associated bit using a uniform coin flip (fuzz_method=toggle)
  static uint8_t next() { return static_cast<uint8_t>(rng() & 1); }
};
{{end}}
}  // namespace

extern "C" void init_{{.Top}}() {
  rng.seed({{.Seed}}ULL);
}

extern "C" void fuzz_{{.Top}}({{range $i, $p := .Punches}}{{if $i}}, {{end}}uint8_t* {{$p}}{{end}}) {
{{range .Punches}}  *{{.}} = Fuzzer_{{.}}::next();
{{end}}}
`))

type cppStubData struct {
	Top     string
	Punches []string
	Seed    int64
}

// EmitDPIDeclarations renders the "import DPI-C ..." lines prepended to
// the top instance's declaring source.
func EmitDPIDeclarations(top string, punches []string) string {
	var buf bytes.Buffer
	if err := dpiImportTmpl.Execute(&buf, dpiSVData{Top: top, Punches: punches}); err != nil {
		panic(fmt.Sprintf("dpi import template error: %v", err))
	}
	return buf.String()
}

// EmitDPIBlocks renders the initial/always_ff pair injected before the top
// instance's endmodule.
func EmitDPIBlocks(top string, punches []string, control model.ControlSignals) string {
	var buf bytes.Buffer
	data := dpiSVData{Top: top, Punches: punches, Clock: control.Clock, Edge: control.Edge}
	if err := dpiBlockTmpl.Execute(&buf, data); err != nil {
		panic(fmt.Sprintf("dpi block template error: %v", err))
	}
	return buf.String()
}

// InjectDPI prepends the import declarations and injects the initial/
// always_ff blocks just before content's final "endmodule", per §4.6.
func InjectDPI(content, top string, punches []string, control model.ControlSignals) (string, error) {
	idx := strings.LastIndex(content, "endmodule")
	if idx < 0 {
		return "", fmt.Errorf("no endmodule found in declaring file for top %q", top)
	}
	decls := EmitDPIDeclarations(top, punches)
	blocks := EmitDPIBlocks(top, punches, control)
	return decls + content[:idx] + blocks + content[idx:], nil
}

// EmitCPPStub renders the <top>_dpi.cpp companion file for one top
// instance, grounded on PCILeechGen's text/template codegen pattern
// (internal/firmware/tcl_generator.go).
func EmitCPPStub(top string, punches []string, seed int64) string {
	var buf bytes.Buffer
	data := cppStubData{Top: top, Punches: punches, Seed: seed}
	if err := cppStubTmpl.Execute(&buf, data); err != nil {
		panic(fmt.Sprintf("cpp stub template error: %v", err))
	}
	return buf.String()
}

// CPPStubFilename returns the generated stub's filename, "<top>_dpi.cpp".
func CPPStubFilename(top string) string {
	return top + "_dpi.cpp"
}

// DeclareLocalWire adds "wire <punch>;" to moduleName's body in content.
// The top instance never receives a module edit from the punch router
// (routing stops "up to but not through" the top, per §4.5), so its
// punch wires need a plain local declaration instead of an input port
// before the DPI import's "output <punch>" formal can bind to anything.
func DeclareLocalWire(content, moduleName, punch string) (string, error) {
	spans, ok := source.FindDeclarationSpans(content, moduleName)
	if !ok {
		return "", fmt.Errorf("module %q not found for local wire declaration", moduleName)
	}
	newBody := fmt.Sprintf("    wire %s;\n", punch) + spans.ModuleBody
	return spans.HeaderContent + spans.ModuleDefinition + "\n" + newBody + "\nendmodule", nil
}
