// Package hierarchy builds the design hierarchy map (§3, §4.2 Phases B/C)
// by correlating a VCD scope tree with a source scan, grounded on
// original_source/source/vcd_parser.py's VcdParser.parse (module_declarations/
// entity_to_path/entity_to_class + process_node flattening).
package hierarchy

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/texerai/alf/internal/alferr"
	"github.com/texerai/alf/internal/model"
	"github.com/texerai/alf/internal/vcdscope"
)

var (
	moduleDeclPattern = regexp.MustCompile(`\bmodule\s+([A-Za-z_]\w*)`)
	instancePattern   = regexp.MustCompile(`\b([A-Za-z_]\w*)\s+(?:#\s*\(([^;]*?)\)\s*)?([A-Za-z_]\w*)\s*\(`)
)

// svKeywords are identifiers that can precede "(" the way a module type
// precedes an instance name, but aren't instantiations.
var svKeywords = map[string]bool{
	"module": true, "endmodule": true, "input": true, "output": true,
	"inout": true, "wire": true, "reg": true, "logic": true, "assign": true,
	"parameter": true, "localparam": true, "function": true, "task": true,
	"initial": true, "always": true, "always_ff": true, "always_comb": true,
	"if": true, "else": true, "begin": true, "end": true, "generate": true,
	"endgenerate": true, "case": true, "endcase": true, "for": true,
	"typedef": true, "import": true, "package": true, "interface": true,
	"struct": true, "union": true, "enum": true, "return": true,
}

// sourceIndex is the result of Phase B's source scan.
type sourceIndex struct {
	moduleDeclarations map[string]string // module name -> declaring file
	entityToPath       map[string]string // instance name -> declaring file of its instance site
	entityToClass      map[string]string // instance name -> module type
}

// scanSources reads every path in sourcePaths (newline-joined) and builds
// the module-declaration and instantiation maps. Unreadable files warn and
// are skipped, per §4.2's failure-mode table.
func scanSources(sourcePaths string) *sourceIndex {
	idx := &sourceIndex{
		moduleDeclarations: map[string]string{},
		entityToPath:       map[string]string{},
		entityToClass:      map[string]string{},
	}

	for _, path := range strings.Split(sourcePaths, "\n") {
		path = strings.TrimSpace(path)
		if path == "" {
			continue
		}
		content, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: unreadable source file %s: %v\n", path, err)
			continue
		}
		text := string(content)

		for _, m := range moduleDeclPattern.FindAllStringSubmatch(text, -1) {
			idx.moduleDeclarations[m[1]] = path
		}

		for _, m := range instancePattern.FindAllStringSubmatch(text, -1) {
			moduleType, instanceName := m[1], m[3]
			if svKeywords[moduleType] || svKeywords[instanceName] {
				continue
			}
			idx.entityToPath[instanceName] = path
			idx.entityToClass[instanceName] = moduleType
		}
	}

	return idx
}

// Build performs Phases A-C: walks the VCD, scans the sources, flattens
// the tree into a DesignHierarchy, and validates Invariant H1.
func Build(vcdPath, sourcePaths string) (model.DesignHierarchy, error) {
	vf, err := os.Open(vcdPath)
	if err != nil {
		return nil, alferr.Wrap(alferr.Configuration, true, "opening vcd "+vcdPath, err)
	}
	defer vf.Close()

	root := vcdscope.Walk(vf)
	idx := scanSources(sourcePaths)

	h := model.DesignHierarchy{}
	for _, child := range root.Children {
		flatten(child, "", idx, h)
	}

	if err := h.Validate(); err != nil {
		return nil, alferr.Wrap(alferr.HierarchyIntegrity, true, "validating hierarchy", err)
	}

	return h, nil
}

// flatten mirrors vcd_parser.py's process_node: a node whose identifier is
// neither a known module declaration nor a known instantiation is
// collapsed into its parent's path, with its signal widths merged into
// the nearest surviving ancestor entry.
func flatten(n *vcdscope.Node, parentPath string, idx *sourceIndex, h model.DesignHierarchy) {
	_, isDecl := idx.moduleDeclarations[n.ID]
	_, isEntity := idx.entityToPath[n.ID]

	fullPath := parentPath
	surviving := fullPath != "" || isDecl || isEntity
	if isDecl || isEntity {
		if parentPath == "" {
			fullPath = n.ID
		} else {
			fullPath = parentPath + "." + n.ID
		}
	}

	if isDecl || isEntity {
		entry := resolveEntry(n.ID, idx)
		if entry != nil {
			if existing, ok := h[fullPath]; ok {
				entry.SignalWidths = mergeWidths(existing.SignalWidths, n.SignalWidths)
			} else {
				entry.SignalWidths = mergeWidths(entry.SignalWidths, n.SignalWidths)
			}
			h[fullPath] = entry
		}
	} else if surviving {
		// Collapsed node: merge its widths into the nearest kept ancestor.
		if existing, ok := h[fullPath]; ok {
			existing.SignalWidths = mergeWidths(existing.SignalWidths, n.SignalWidths)
		}
	}

	for _, child := range n.Children {
		flatten(child, fullPath, idx, h)
	}
}

// resolveEntry decides declaration_path/module_name for a surviving tail
// identifier: a direct module declaration wins; otherwise fall back to the
// instantiation's class, if that class itself has a declaration. Neither
// match means the entry is dropped (return nil), per §4.2 Phase C.
func resolveEntry(id string, idx *sourceIndex) *model.HierarchyEntry {
	if path, ok := idx.moduleDeclarations[id]; ok {
		return &model.HierarchyEntry{DeclarationPath: path, ModuleName: id, SignalWidths: map[string]int{}}
	}
	if class, ok := idx.entityToClass[id]; ok {
		if path, ok := idx.moduleDeclarations[class]; ok {
			return &model.HierarchyEntry{DeclarationPath: path, ModuleName: class, SignalWidths: map[string]int{}}
		}
	}
	return nil
}

func mergeWidths(dst, src map[string]int) map[string]int {
	if dst == nil {
		dst = map[string]int{}
	}
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

// hierarchyJSON mirrors ailof.py's vcd_parser.export_json("design.json")
// feature, dropped by the distillation but supplemented here.
type hierarchyJSON struct {
	DeclarationPath string         `json:"declaration_path"`
	ModuleName      string         `json:"module_name"`
	SignalWidths    map[string]int `json:"signal_width_data"`
}

// WriteJSON persists the hierarchy map for debugging/resumability between
// runs, grounded on internal/donor/context.go's MarshalJSON shadow-struct
// pattern.
func WriteJSON(h model.DesignHierarchy, path string) error {
	shadow := make(map[string]hierarchyJSON, len(h))
	for k, v := range h {
		shadow[k] = hierarchyJSON{DeclarationPath: v.DeclarationPath, ModuleName: v.ModuleName, SignalWidths: v.SignalWidths}
	}
	data, err := json.MarshalIndent(shadow, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling hierarchy: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// ReadJSON reconstructs a hierarchy map previously written by WriteJSON.
func ReadJSON(path string) (model.DesignHierarchy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading hierarchy json %s: %w", path, err)
	}
	var shadow map[string]hierarchyJSON
	if err := json.Unmarshal(data, &shadow); err != nil {
		return nil, fmt.Errorf("parsing hierarchy json %s: %w", path, err)
	}
	h := make(model.DesignHierarchy, len(shadow))
	for k, v := range shadow {
		h[k] = &model.HierarchyEntry{DeclarationPath: v.DeclarationPath, ModuleName: v.ModuleName, SignalWidths: v.SignalWidths}
	}
	return h, nil
}
