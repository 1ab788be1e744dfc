package patch

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/texerai/alf/internal/model"
	"github.com/texerai/alf/internal/source"
)

// InsertGate rewrites the module declaring sig so that every subsequent
// read of sig.Name observes modified_<name> instead, gated by the signal's
// assigned punch wire (§4.4). It returns the rewritten content and true,
// or the original content, false, and a human-readable warning if the
// module or signal could not be located (a non-fatal per-signal failure,
// per §7's Pattern-not-found-during-gate-insertion policy).
//
// h and instancePath let the internal-signal case (3c) resolve whether a
// submodule's connected port is itself an input, which requires reading
// that submodule's own declaring file.
func InsertGate(h model.DesignHierarchy, instancePath, content string, sig *model.SelectedSignal) (string, bool, string) {
	spans, ok := source.FindDeclarationSpans(content, sig.ModuleName)
	if !ok {
		return content, false, fmt.Sprintf("module %q not found", sig.ModuleName)
	}

	if !wordPresent(spans.ModuleBody, sig.Name) {
		return content, false, fmt.Sprintf("signal %q not found in module %q", sig.Name, sig.ModuleName)
	}

	kind := source.IsPort(spans.ModuleDefinition, sig.Name)
	op := string(sig.GateType)
	modified := "modified_" + sig.Name

	var gateLogic, newBody string
	switch kind {
	case source.OutputPort:
		gateLogic = fmt.Sprintf("    assign %s = %s %s %s;\n", sig.Name, modified, op, sig.PunchName)
		newBody = renameOutsideDot(spans.ModuleBody, sig.Name, modified)

	case source.InputPort, source.InoutPort:
		gateLogic = fmt.Sprintf("    wire %s;\n    assign %s = %s %s %s;\n", modified, modified, sig.Name, op, sig.PunchName)
		newBody = renameOutsideDot(spans.ModuleBody, sig.Name, modified)

	default: // internal signal, case 3
		gateLogic = fmt.Sprintf("    wire %s;\n    assign %s = %s %s %s;\n", modified, modified, sig.Name, op, sig.PunchName)
		newBody = renameInternalSignal(h, instancePath, spans.ModuleBody, sig.Name, modified)
	}

	newBody = gateLogic + newBody
	rewritten := spans.HeaderContent + spans.ModuleDefinition + "\n" + newBody + "\nendmodule"
	return rewritten, true, ""
}

func wordPresent(body, name string) bool {
	return regexp.MustCompile(`\b`+regexp.QuoteMeta(name)+`\b`).MatchString(body)
}

// renameOutsideDot renames every occurrence of name to replacement, except
// occurrences immediately preceded by '.', preserving hierarchical
// identifiers like a.<signal> untouched (§4.4's word-boundary rule).
func renameOutsideDot(body, name, replacement string) string {
	return renameAt(body, identifierMatches(body, name), replacement, nil)
}

// renameInternalSignal implements §4.4 case 3's three guards: preserve the
// signal's own declaration, preserve assignment left-hand-sides, and only
// rewrite submodule port connections whose submodule-side port is an
// input.
func renameInternalSignal(h model.DesignHierarchy, instancePath, body, name, replacement string) string {
	matches := identifierMatches(body, name)
	exclude := map[int]bool{}

	for _, start := range matches {
		end := start + len(name)
		if isDeclarationSite(body, start) {
			exclude[start] = true
			continue
		}
		if isAssignmentLHS(body, end) {
			exclude[start] = true
		}
	}

	for _, usage := range source.FindSubmoduleUsagesOf(body, name) {
		if !submodulePortIsInput(h, instancePath, usage.InstanceName, usage.PortName) {
			// Exclude every match on this usage's connection so the
			// original name is preserved for output/unknown submodules.
			for _, start := range matches {
				if strings.Contains(usage.OriginalLine, body[start:start+len(name)]) && lineOf(body, start) == usage.OriginalLine {
					exclude[start] = true
				}
			}
		}
	}

	return renameAt(body, matches, replacement, exclude)
}

func lineOf(body string, pos int) string {
	start := strings.LastIndexByte(body[:pos], '\n') + 1
	end := strings.IndexByte(body[pos:], '\n')
	if end < 0 {
		return strings.TrimSpace(body[start:])
	}
	return strings.TrimSpace(body[start : pos+end])
}

// submodulePortIsInput resolves instanceName's module type via the
// hierarchy map rooted at instancePath and checks whether portName is an
// input on that module's declaration. Unknown submodules return false
// (the caller treats that the same as "not an input": leave unchanged).
func submodulePortIsInput(h model.DesignHierarchy, instancePath, instanceName, portName string) bool {
	if h == nil {
		return false
	}
	childPath := instanceName
	if instancePath != "" {
		childPath = instancePath + "." + instanceName
	}
	entry, ok := h[childPath]
	if !ok {
		return false
	}
	content, err := os.ReadFile(entry.DeclarationPath)
	if err != nil {
		return false
	}
	spans, ok := source.FindDeclarationSpans(string(content), entry.ModuleName)
	if !ok {
		return false
	}
	return source.IsPort(spans.ModuleDefinition, portName) == source.InputPort
}

// identifierMatches returns the start offsets of every non-hierarchical
// occurrence of name in body.
func identifierMatches(body, name string) []int {
	re := regexp.MustCompile(`\b` + regexp.QuoteMeta(name) + `\b`)
	var out []int
	for _, m := range re.FindAllStringIndex(body, -1) {
		if m[0] > 0 && body[m[0]-1] == '.' {
			continue
		}
		out = append(out, m[0])
	}
	return out
}

// renameAt replaces body's occurrences at the given starts (each len(name)
// bytes, name implied by the caller having located them) with replacement,
// skipping any start present in exclude.
func renameAt(body string, starts []int, replacement string, exclude map[int]bool) string {
	if len(starts) == 0 {
		return body
	}
	nameLen := 0
	if len(starts) > 0 {
		// All matches share the same matched length; recover it from the
		// first occurrence's surrounding word boundary.
		nameLen = wordLenAt(body, starts[0])
	}
	var sb strings.Builder
	last := 0
	for _, start := range starts {
		if exclude[start] {
			continue
		}
		sb.WriteString(body[last:start])
		sb.WriteString(replacement)
		last = start + nameLen
	}
	sb.WriteString(body[last:])
	return sb.String()
}

func wordLenAt(body string, start int) int {
	i := start
	for i < len(body) && isWordChar(body[i]) {
		i++
	}
	return i - start
}

func isWordChar(b byte) bool {
	return b == '_' || (b >= '0' && b <= '9') || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\r' || b == '\n'
}

// isDeclarationSite reports whether the identifier at start is itself the
// target of a "wire|reg|logic [range] <name>" declaration.
func isDeclarationSite(body string, start int) bool {
	j := start
	for j > 0 && isSpace(body[j-1]) {
		j--
	}
	if j > 0 && body[j-1] == ']' {
		depth := 0
		k := j - 1
		for k >= 0 {
			if body[k] == ']' {
				depth++
			}
			if body[k] == '[' {
				depth--
				if depth == 0 {
					break
				}
			}
			k--
		}
		if k >= 0 {
			j = k
			for j > 0 && isSpace(body[j-1]) {
				j--
			}
		}
	}
	wordEnd := j
	wordStart := wordEnd
	for wordStart > 0 && isWordChar(body[wordStart-1]) {
		wordStart--
	}
	word := body[wordStart:wordEnd]
	return word == "wire" || word == "reg" || word == "logic"
}

// isAssignmentLHS reports whether the identifier ending at end is
// immediately followed (ignoring whitespace) by "=" or "<=" (but not the
// "==" comparison operator) — i.e. it is being assigned to, not read.
func isAssignmentLHS(body string, end int) bool {
	i := end
	for i < len(body) && isSpace(body[i]) {
		i++
	}
	if i < len(body) && body[i] == '<' && i+1 < len(body) && body[i+1] == '=' {
		return true
	}
	if i < len(body) && body[i] == '=' {
		if i+1 < len(body) && body[i+1] == '=' {
			return false
		}
		return true
	}
	return false
}
