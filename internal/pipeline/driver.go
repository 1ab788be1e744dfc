// Package pipeline sequences the RTL transformation pipeline (§4.8):
// flist resolution, hierarchy recovery, module/signal selection,
// classification, punch-name assignment, grouping, backup, and the
// per-group gate/punch/DPI edit passes. Grounded on
// original_source/source/ailof.py's main() phase order and PCILeechGen's
// staged, single-driver orchestration style (cmd/pcileechgen/build.go).
package pipeline

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/texerai/alf/internal/alferr"
	"github.com/texerai/alf/internal/classify"
	"github.com/texerai/alf/internal/flist"
	"github.com/texerai/alf/internal/hierarchy"
	"github.com/texerai/alf/internal/logging"
	"github.com/texerai/alf/internal/model"
	"github.com/texerai/alf/internal/patch"
)

// ModulePicker is the §4.8 step 3 external collaborator: it returns the
// instance paths the user tagged to fuzz.
type ModulePicker interface {
	Pick(modules []string) ([]string, model.ReturnCode, error)
}

// SignalPicker is the §4.8 step 5 external collaborator: it returns the
// candidate signals the user tagged, each stamped with its chosen
// GateType, keyed by "<instance path>.<name>".
type SignalPicker interface {
	Pick(candidates []*model.SelectedSignal) (map[string]*model.SelectedSignal, model.ReturnCode, error)
}

// Driver holds the collaborators and session state needed to run one
// patch session end to end (§4.8).
type Driver struct {
	Classifier classify.Classifier
	Modules    ModulePicker
	Signals    SignalPicker
	Session    *patch.Session
	BackupPath string

	// HierarchyJSONPath is where the recovered hierarchy map is exported
	// after phase C, for inspection between runs. Defaults to
	// "design.json" when empty.
	HierarchyJSONPath string
}

// NewDriver builds a Driver from its collaborators.
func NewDriver(classifier classify.Classifier, modules ModulePicker, signals SignalPicker, session *patch.Session, backupPath string) *Driver {
	return &Driver{
		Classifier: classifier,
		Modules:    modules,
		Signals:    signals,
		Session:    session,
		BackupPath: backupPath,
	}
}

// Run executes §4.8 steps 1-10 and returns the session's ReturnCode.
func (d *Driver) Run(ctx context.Context, vcdPath, flistPath string) (model.ReturnCode, error) {
	sourcePaths, err := flist.Resolve(flistPath)
	if err != nil {
		return model.Failure, err
	}

	h, err := hierarchy.Build(vcdPath, sourcePaths)
	if err != nil {
		return model.Failure, err
	}

	jsonPath := d.HierarchyJSONPath
	if jsonPath == "" {
		jsonPath = "design.json"
	}
	if err := hierarchy.WriteJSON(h, jsonPath); err != nil {
		return model.Failure, alferr.Wrap(alferr.IO, true, "exporting hierarchy map", err)
	}

	instancePaths := make([]string, 0, len(h))
	for p := range h {
		instancePaths = append(instancePaths, p)
	}
	sort.Strings(instancePaths)

	selectedModules, rc, err := d.Modules.Pick(instancePaths)
	if err != nil {
		return model.Failure, err
	}
	if rc != model.Success {
		return rc, nil
	}

	candidates, err := d.classifySelectedModules(ctx, h, selectedModules)
	if err != nil {
		return model.Failure, err
	}
	if len(candidates) == 0 {
		return model.Failure, fmt.Errorf("no fuzz candidates remained after classification")
	}

	selectedMap, rc, err := d.Signals.Pick(candidates)
	if err != nil {
		return model.Failure, err
	}
	if rc != model.Success {
		return rc, nil
	}

	signals := flattenSelection(selectedMap)
	d.Session.AssignPunchNames(signals)

	groups := patch.GroupByDeclarationPath(signals)

	touched := collectTouchedFiles(h, signals)
	backupSet, err := patch.SnapshotFiles(touched)
	if err != nil {
		return model.Failure, alferr.Wrap(alferr.IO, true, "snapshotting session files", err)
	}
	if err := patch.WriteBackup(backupSet, d.BackupPath); err != nil {
		return model.Failure, alferr.Wrap(alferr.IO, true, "writing backup set", err)
	}

	cache := newFileCache(backupSet)
	skipped := map[*model.SelectedSignal]bool{}

	for _, g := range groups {
		content := cache.load(g.DeclarationPath)
		for _, sig := range g.Signals {
			newContent, ok, warn := patch.InsertGate(h, g.ModuleHierarchy, content, sig)
			if !ok {
				logging.Warnf("gate insertion skipped for %s.%s: %s", sig.InstancePath, sig.Name, warn)
				fmt.Fprintf(os.Stderr, "warning: %s.%s: %s\n", sig.InstancePath, sig.Name, warn)
				skipped[sig] = true
				continue
			}
			content = newContent
		}
		if err := cache.store(g.DeclarationPath, content); err != nil {
			return model.Failure, alferr.Wrap(alferr.IO, true, "writing "+g.DeclarationPath, err)
		}
	}

	if rc, err := d.routePunches(h, signals, skipped, cache); err != nil {
		return rc, err
	}

	if rc, err := d.emitDPI(h, signals, skipped, cache); err != nil {
		return rc, err
	}

	return model.Success, nil
}

// classifySelectedModules runs §4.8 step 4 over every module the user
// tagged, validating each oracle response against the module's known
// signal widths (§9).
func (d *Driver) classifySelectedModules(ctx context.Context, h model.DesignHierarchy, selectedModules []string) ([]*model.SelectedSignal, error) {
	var candidates []*model.SelectedSignal
	for _, path := range selectedModules {
		entry, ok := h[path]
		if !ok {
			continue
		}
		content, err := os.ReadFile(entry.DeclarationPath)
		if err != nil {
			return nil, alferr.Wrap(alferr.IO, true, "reading "+entry.DeclarationPath, err)
		}

		result, err := d.Classifier.Classify(ctx, entry.ModuleName, string(content))
		if err != nil {
			return nil, fmt.Errorf("classifying module %q: %w", entry.ModuleName, err)
		}

		valid, dropped := classify.ValidateCandidates(result, entry.SignalWidths)
		for _, name := range dropped {
			logging.Warnf("dropping unknown classifier signal %q for module %q", name, entry.ModuleName)
		}

		for _, c := range valid {
			candidates = append(candidates, &model.SelectedSignal{
				InstancePath:    path,
				Name:            c.Name,
				ModuleName:      entry.ModuleName,
				DeclarationPath: entry.DeclarationPath,
				Width:           entry.SignalWidths[c.Name],
				Certainty:       c.Certainty,
				Control:         result.Control,
			})
		}
	}
	return candidates, nil
}

// flattenSelection turns the signal picker's map into a deterministically
// ordered slice (sorted by its "<instance path>.<name>" key).
func flattenSelection(selected map[string]*model.SelectedSignal) []*model.SelectedSignal {
	keys := make([]string, 0, len(selected))
	for k := range selected {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]*model.SelectedSignal, 0, len(keys))
	for _, k := range keys {
		out = append(out, selected[k])
	}
	return out
}

// routePunches implements §4.5 for every non-skipped signal: for each
// ancestor level along the signal's instance path (excluding the top
// instance itself), add an instance binding in the parent's file and an
// input port in the child's file.
func (d *Driver) routePunches(h model.DesignHierarchy, signals []*model.SelectedSignal, skipped map[*model.SelectedSignal]bool, cache *fileCache) (model.ReturnCode, error) {
	for _, sig := range signals {
		if skipped[sig] {
			continue
		}
		components := patch.InstancePathComponents(sig.InstancePath)
		for i := 1; i < len(components); i++ {
			parentPath := strings.Join(components[:i], ".")
			childPath := strings.Join(components[:i+1], ".")

			parentEntry, ok := h[parentPath]
			if !ok {
				return model.Failure, alferr.New(alferr.HierarchyIntegrity, true, "missing hierarchy entry for "+parentPath)
			}
			childEntry, ok := h[childPath]
			if !ok {
				return model.Failure, alferr.New(alferr.HierarchyIntegrity, true, "missing hierarchy entry for "+childPath)
			}

			parentContent := cache.load(parentEntry.DeclarationPath)
			newParent, err := patch.RouteInstanceEdit(parentContent, childEntry.ModuleName, components[i], sig.PunchName)
			if err != nil {
				return model.Failure, alferr.Wrap(alferr.PatternNotFound, true, "routing instance edit for "+sig.PunchName, err)
			}
			if err := cache.store(parentEntry.DeclarationPath, newParent); err != nil {
				return model.Failure, alferr.Wrap(alferr.IO, true, "writing "+parentEntry.DeclarationPath, err)
			}

			childContent := cache.load(childEntry.DeclarationPath)
			newChild, err := patch.RouteModuleEdit(childContent, childEntry.ModuleName, sig.PunchName)
			if err != nil {
				return model.Failure, alferr.Wrap(alferr.PatternNotFound, true, "routing module edit for "+sig.PunchName, err)
			}
			if err := cache.store(childEntry.DeclarationPath, newChild); err != nil {
				return model.Failure, alferr.Wrap(alferr.IO, true, "writing "+childEntry.DeclarationPath, err)
			}
		}
	}
	return model.Success, nil
}

// emitDPI implements §4.6: group the non-skipped signals by their top
// instance and, per group, declare each punch as a local wire, inject the
// import/initial/always_ff block, and write the companion C++ stub.
func (d *Driver) emitDPI(h model.DesignHierarchy, signals []*model.SelectedSignal, skipped map[*model.SelectedSignal]bool, cache *fileCache) (model.ReturnCode, error) {
	var topOrder []string
	topGroups := map[string][]*model.SelectedSignal{}
	for _, sig := range signals {
		if skipped[sig] {
			continue
		}
		top := patch.InstancePathComponents(sig.InstancePath)[0]
		if _, ok := topGroups[top]; !ok {
			topOrder = append(topOrder, top)
		}
		topGroups[top] = append(topGroups[top], sig)
	}

	for _, top := range topOrder {
		groupSignals := topGroups[top]
		topEntry, ok := h[top]
		if !ok {
			return model.Failure, alferr.New(alferr.HierarchyIntegrity, true, "missing top instance "+top)
		}

		content := cache.load(topEntry.DeclarationPath)
		punches := make([]string, len(groupSignals))
		for i, sig := range groupSignals {
			punches[i] = sig.PunchName
		}

		for _, p := range punches {
			newContent, err := patch.DeclareLocalWire(content, topEntry.ModuleName, p)
			if err != nil {
				return model.Failure, alferr.Wrap(alferr.PatternNotFound, true, "declaring local wire for "+p, err)
			}
			content = newContent
		}

		newContent, err := patch.InjectDPI(content, top, punches, groupSignals[0].Control)
		if err != nil {
			return model.Failure, alferr.Wrap(alferr.PatternNotFound, true, "injecting dpi for top "+top, err)
		}
		if err := cache.store(topEntry.DeclarationPath, newContent); err != nil {
			return model.Failure, alferr.Wrap(alferr.IO, true, "writing "+topEntry.DeclarationPath, err)
		}

		stub := patch.EmitCPPStub(top, punches, d.Session.Seed())
		if err := os.WriteFile(patch.CPPStubFilename(top), []byte(stub), 0644); err != nil {
			return model.Failure, alferr.Wrap(alferr.IO, true, "writing dpi stub for "+top, err)
		}
	}
	return model.Success, nil
}

// collectTouchedFiles computes the union of declaring-file paths the
// session's gate/punch/DPI passes may write, ahead of time, so the
// backup set (§4.7) covers them before any edit begins. Including a path
// that ultimately goes unwritten (e.g. because gate insertion skipped
// that signal) is harmless: §8 property 2 requires every *written* file
// to appear in the backup, not the reverse.
func collectTouchedFiles(h model.DesignHierarchy, signals []*model.SelectedSignal) []string {
	seen := map[string]bool{}
	var out []string
	add := func(p string) {
		if p == "" || seen[p] {
			return
		}
		seen[p] = true
		out = append(out, p)
	}

	for _, sig := range signals {
		add(sig.DeclarationPath)
		components := patch.InstancePathComponents(sig.InstancePath)
		for i := 1; i < len(components); i++ {
			parentPath := strings.Join(components[:i], ".")
			childPath := strings.Join(components[:i+1], ".")
			if e, ok := h[parentPath]; ok {
				add(e.DeclarationPath)
			}
			if e, ok := h[childPath]; ok {
				add(e.DeclarationPath)
			}
		}
	}
	return out
}

// fileCache is a write-through in-memory buffer over the session's edited
// files: load returns the latest in-memory content (falling back to the
// pre-session backup payload, then to disk), and store both updates the
// buffer and performs §5's single full-content write for that file. This
// is what makes §7's "partially-edited tree is left on disk" guarantee
// true for a fatal mid-session error: every store before the failure has
// already landed on disk.
type fileCache struct {
	content map[string]string
	backup  patch.BackupSet
}

func newFileCache(backup patch.BackupSet) *fileCache {
	return &fileCache{content: map[string]string{}, backup: backup}
}

func (c *fileCache) load(path string) string {
	if v, ok := c.content[path]; ok {
		return v
	}
	if raw, ok := c.backup[path]; ok {
		return string(raw)
	}
	data, _ := os.ReadFile(path)
	return string(data)
}

func (c *fileCache) store(path, content string) error {
	c.content[path] = content
	return os.WriteFile(path, []byte(content), 0644)
}
