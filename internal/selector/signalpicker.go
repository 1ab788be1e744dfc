package selector

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/texerai/alf/internal/model"
)

// DecodeSignalKey extends DecodeModuleKey's vocabulary with the gate-type
// and continue keys, grounded on SignalExplorerController.process_key.
func DecodeSignalKey(key, keyword string) (model.Command, string) {
	switch key {
	case "1":
		return model.CmdSelectAndGate, keyword
	case "2":
		return model.CmdSelectOrGate, keyword
	case "\x0e":
		return model.CmdContinue, keyword
	}
	return DecodeModuleKey(key, keyword)
}

type signalEntry struct {
	id     int
	label  string // "<instance>.<name> | Fuzzing safety confidence: <certainty>"
	signal *model.SelectedSignal
}

func (e signalEntry) fullName() string {
	return e.signal.InstancePath + "." + e.signal.Name
}

// SignalPicker lets the user tag a subset of candidate signals with an AND
// or OR gate, grounded on SignalExplorerController/SignalExplorerTerminalView.
type SignalPicker struct {
	Input  io.Reader
	Output io.Writer

	// Rows overrides the default page height (DisplayWidth) when
	// positive, typically set from selector.TerminalRows so the picker
	// fills the caller's actual terminal.
	Rows int
}

// NewSignalPicker builds a picker reading keys from in and writing the
// rendered list to out.
func NewSignalPicker(in io.Reader, out io.Writer) *SignalPicker {
	return &SignalPicker{Input: in, Output: out}
}

// Pick runs the select loop over candidates and returns the signals the
// user tagged, each stamped with the GateType they chose, keyed by
// "<instance path>.<name>" as flatten_data does.
func (p *SignalPicker) Pick(candidates []*model.SelectedSignal) (map[string]*model.SelectedSignal, model.ReturnCode, error) {
	entries := buildEntries(candidates)

	r := bufio.NewReader(p.Input)
	keyword := ""
	workingIDs := FilterIndexed(entries, keyword)
	pager := NewPagerWithWidth(p.Rows)
	var selectedAnd, selectedOr []int

	for {
		p.render(entries, workingIDs, pager, keyword, selectedAnd, selectedOr)

		key, err := ReadKey(r)
		if err != nil {
			if err == io.EOF {
				return nil, model.Terminate, nil
			}
			return nil, model.Failure, fmt.Errorf("reading key: %w", err)
		}

		cmd, newKeyword := DecodeSignalKey(key, keyword)
		switch cmd {
		case model.CmdSearch:
			keyword = newKeyword
			workingIDs = FilterIndexed(entries, keyword)
			pager.ResyncAfterFilter(keyword, len(workingIDs))
		case model.CmdUp:
			pager.Up()
		case model.CmdDown:
			pager.Down(len(workingIDs))
		case model.CmdSelectAndGate, model.CmdSelect:
			if id, ok := highlightedID(workingIDs, pager); ok {
				if !containsInt(selectedAnd, id) {
					selectedOr = removeInt(selectedOr, id)
					selectedAnd = append(selectedAnd, id)
				} else {
					selectedAnd = removeInt(selectedAnd, id)
				}
			}
		case model.CmdSelectOrGate:
			if id, ok := highlightedID(workingIDs, pager); ok {
				if !containsInt(selectedOr, id) {
					selectedAnd = removeInt(selectedAnd, id)
					selectedOr = append(selectedOr, id)
				} else {
					selectedOr = removeInt(selectedOr, id)
				}
			}
		case model.CmdContinue:
			if len(selectedAnd)+len(selectedOr) > 0 {
				return finalize(entries, selectedAnd, selectedOr), model.Success, nil
			}
		case model.CmdTerminate:
			return nil, model.Terminate, nil
		}
	}
}

func buildEntries(candidates []*model.SelectedSignal) []signalEntry {
	entries := make([]signalEntry, len(candidates))
	for i, sig := range candidates {
		entries[i] = signalEntry{
			id:     i,
			signal: sig,
		}
		entries[i].label = fmt.Sprintf("%s.%s | Fuzzing safety confidence: %d", sig.InstancePath, sig.Name, sig.Certainty)
	}
	sort.Slice(entries, func(a, b int) bool { return entries[a].label < entries[b].label })
	for i := range entries {
		entries[i].id = i
	}
	return entries
}

// FilterIndexed returns the ids of entries whose label contains keyword,
// case-insensitively, grounded on SignalExplorerModel.filter.
func FilterIndexed(entries []signalEntry, keyword string) []int {
	keyword = strings.ToLower(keyword)
	var ids []int
	for _, e := range entries {
		if strings.Contains(strings.ToLower(e.label), keyword) {
			ids = append(ids, e.id)
		}
	}
	return ids
}

func highlightedID(workingIDs []int, pager *Pager) (int, bool) {
	start, end := pager.VisibleRange(len(workingIDs))
	idx := start + pager.HighlightedIndex
	if idx < start || idx >= end {
		return 0, false
	}
	return workingIDs[idx], true
}

func finalize(entries []signalEntry, selectedAnd, selectedOr []int) map[string]*model.SelectedSignal {
	out := make(map[string]*model.SelectedSignal, len(selectedAnd)+len(selectedOr))
	byID := make(map[int]signalEntry, len(entries))
	for _, e := range entries {
		byID[e.id] = e
	}
	for _, id := range selectedAnd {
		e := byID[id]
		e.signal.GateType = model.GateAnd
		out[e.fullName()] = e.signal
	}
	for _, id := range selectedOr {
		e := byID[id]
		e.signal.GateType = model.GateOr
		out[e.fullName()] = e.signal
	}
	return out
}

func (p *SignalPicker) render(entries []signalEntry, workingIDs []int, pager *Pager, keyword string, selectedAnd, selectedOr []int) {
	if p.Output == nil {
		return
	}
	byID := make(map[int]signalEntry, len(entries))
	for _, e := range entries {
		byID[e.id] = e
	}
	var b strings.Builder
	fmt.Fprintf(&b, "\nSearch: %s\n===================\n", keyword)
	start, end := pager.VisibleRange(len(workingIDs))
	for i := start; i < end; i++ {
		id := workingIDs[i]
		mark := "[ ]"
		if containsInt(selectedAnd, id) {
			mark = "[&]"
		} else if containsInt(selectedOr, id) {
			mark = "[|]"
		}
		marker := "    "
		if i-start == pager.HighlightedIndex {
			marker = "--> "
		}
		fmt.Fprintf(&b, "%s%d. %s %s\n", marker, id, mark, byID[id].label)
	}
	fmt.Fprintf(&b, "=================== Page %d\n", pager.PageNumber)
	fmt.Fprint(&b, "Commands: 1 AND-gate | 2 OR-gate | Ctrl+N continue | Ctrl+C exit\n")
	io.WriteString(p.Output, b.String())
}
