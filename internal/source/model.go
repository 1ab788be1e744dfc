// Package source exposes span-based locate/edit primitives over a Verilog
// source string (§4.3, §3's Module-source descriptor), grounded on
// original_source/source/rtl_patcher.py's module/port-detection regexes and
// PCILeechGen's applyRegexPatches compile-once-match-repeatedly convention
// (internal/firmware/sv_patcher.go).
package source

import (
	"regexp"
	"strings"
)

// moduleDefPattern locates "module <name> ... ;" through the end of the
// port list, tolerating an optional "import ...;" clause and an optional
// parameter block, exactly as rtl_patcher.py's module_pattern does.
func moduleDefPattern(moduleName string) *regexp.Regexp {
	return regexp.MustCompile(`module\s+` + regexp.QuoteMeta(moduleName) + `\s*(?:import\s+[\w:]+(?:\*|[\w,]*)\s*;\s*)?#?\s*\([^;]*?\)\s*;`)
}

// moduleBodyPattern additionally captures the body up to the matching
// endmodule.
func moduleBodyPattern(moduleName string) *regexp.Regexp {
	return regexp.MustCompile(`(module\s+` + regexp.QuoteMeta(moduleName) + `\s*(?:import\s+[\w:]+(?:\*|[\w,]*)\s*;\s*)?#?\s*\([^;]*?\)\s*;)\s*([\s\S]*?)\s*endmodule`)
}

// Spans holds the three regions of a Module-source descriptor (§3).
// HeaderContent + ModuleDefinition + ModuleBody + "endmodule" reproduce the
// file verbatim modulo whitespace normalization.
type Spans struct {
	HeaderContent   string
	ModuleDefinition string
	ModuleBody      string
}

// FindDeclarationSpans locates module <name>'s three spans within content.
// Returns ok=false if the module is absent.
func FindDeclarationSpans(content, moduleName string) (spans Spans, ok bool) {
	re := moduleBodyPattern(moduleName)
	loc := re.FindStringSubmatchIndex(content)
	if loc == nil {
		return Spans{}, false
	}
	defStart, defEnd := loc[2], loc[3]
	bodyStart, bodyEnd := loc[4], loc[5]

	return Spans{
		HeaderContent:    content[:defStart],
		ModuleDefinition: content[defStart:defEnd],
		ModuleBody:       content[bodyStart:bodyEnd],
	}, true
}

// portKindPattern matches "<kind>(\s+wire|logic|reg)?\s*(\[...\]\s*)?(<other>\s*,\s*)*<name>\b"
// within a port-list declaration, so a name preceded by other names of the
// same direction ("input a, b") is matched too. Generalized from
// rtl_patcher.py's is_signal_output input_pattern to also cover input/inout.
func portKindPattern(kind, signalName string) *regexp.Regexp {
	return regexp.MustCompile(`\b` + kind + `\b(?:\s+(?:wire|logic|reg))?\s*(?:\[[^\]]*?\]\s*)?(?:[A-Za-z_]\w*\s*,\s*)*\b` + regexp.QuoteMeta(signalName) + `\b`)
}

// PortKind identifies how a signal is declared in a module's port list.
type PortKind int

const (
	NotAPort PortKind = iota
	InputPort
	OutputPort
	InoutPort
)

// IsPort reports how signalName appears in moduleDefinition's port list.
// Multi-line port declarations are joined first so that multiple signals
// sharing one "input" line are all recognized, per §4.3.
func IsPort(moduleDefinition, signalName string) PortKind {
	joined := joinPortLines(moduleDefinition)

	if portKindPattern("output", signalName).MatchString(joined) {
		return OutputPort
	}
	if portKindPattern("inout", signalName).MatchString(joined) {
		return InoutPort
	}
	if portKindPattern("input", signalName).MatchString(joined) {
		return InputPort
	}
	return NotAPort
}

// joinPortLines collapses a multi-line port list into single-line runs
// joined at trailing commas, so "input a,\n  b," reads as "input a, b,".
func joinPortLines(s string) string {
	lines := strings.Split(s, "\n")
	var sb strings.Builder
	for _, line := range lines {
		trimmed := strings.TrimRight(strings.TrimSpace(stripLineComment(line)), ",")
		if trimmed == "" {
			continue
		}
		sb.WriteString(trimmed)
		sb.WriteString(", ")
	}
	return sb.String()
}

// stripLineComment removes a trailing "// ..." comment. Block comments
// (/* ... */) are a known, documented limitation (§4.3, §9) and are left
// untouched.
func stripLineComment(line string) string {
	if idx := strings.Index(line, "//"); idx >= 0 {
		return line[:idx]
	}
	return line
}

// SubmoduleUsage is one named-port connection to signalName found inside a
// submodule instantiation.
type SubmoduleUsage struct {
	InstanceName string
	PortName     string
	OriginalLine string
}

var namedPortConnPattern = regexp.MustCompile(`\.(\w+)\s*\(\s*([A-Za-z_]\w*)\s*\)`)
var instantiationStartPattern = regexp.MustCompile(`\b([A-Za-z_]\w*)\s+(?:#\s*\([^;]*?\)\s*)?([A-Za-z_]\w*)\s*\(`)

// FindSubmoduleUsagesOf scans body for submodule instantiations that
// connect signalName to a named port, returning (instance, port, line)
// triples, grounded on rtl_patcher.py's submodule-scan shape generalized
// to the named-port-connection form described in §4.3.
func FindSubmoduleUsagesOf(body, signalName string) []SubmoduleUsage {
	var usages []SubmoduleUsage

	for _, inst := range instantiationStartPattern.FindAllStringSubmatchIndex(body, -1) {
		instanceName := body[inst[4]:inst[5]]
		// The instance's connection list runs from the opening "(" to its
		// matching ")"; approximate it by scanning to the next ");" since
		// full parenthesis balancing would require a parser.
		closeIdx := strings.Index(body[inst[1]:], ");")
		if closeIdx < 0 {
			continue
		}
		connList := body[inst[1] : inst[1]+closeIdx]

		for _, m := range namedPortConnPattern.FindAllStringSubmatchIndex(connList, -1) {
			portName, connected := connList[m[2]:m[3]], connList[m[4]:m[5]]
			if connected == signalName {
				// OriginalLine is the source line holding this connection.
				pos := inst[1] + m[0]
				lineStart := strings.LastIndexByte(body[:pos], '\n') + 1
				originalLine := body[lineStart:]
				if lineEnd := strings.IndexByte(body[pos:], '\n'); lineEnd >= 0 {
					originalLine = body[lineStart : pos+lineEnd]
				}
				usages = append(usages, SubmoduleUsage{
					InstanceName: instanceName,
					PortName:     portName,
					OriginalLine: strings.TrimSpace(originalLine),
				})
			}
		}
	}

	return usages
}
