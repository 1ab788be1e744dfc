package selector

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/texerai/alf/internal/model"
)

// DecodeModuleKey turns one ReadKey result into a Command, the same
// vocabulary as DesignExplorerController.process_key plus the
// CONTINUE key borrowed from SignalExplorerController: the original's
// module picker toggles a selection into DesignExplorerTerminalView's
// selected_ids (register_command's SELECT branch) but never defines a key
// to finalize a multi-selection, so Ctrl+N is reused here for that purpose.
// keyword is the accumulated search buffer and is threaded through rather
// than held as hidden state, so decoding stays a pure function.
func DecodeModuleKey(key, keyword string) (model.Command, string) {
	switch key {
	case "\x1b[A":
		return model.CmdUp, keyword
	case "\x1b[B":
		return model.CmdDown, keyword
	case "\x03":
		return model.CmdTerminate, keyword
	case "\n", "\r", " ":
		return model.CmdSelect, keyword
	case "\x0e":
		return model.CmdContinue, keyword
	case "\x7f":
		if len(keyword) > 0 {
			keyword = keyword[:len(keyword)-1]
		}
		return model.CmdSearch, keyword
	}
	if len(key) == 1 && isPrintable(key[0]) {
		return model.CmdSearch, keyword + key
	}
	return model.CmdUndefined, keyword
}

func isPrintable(b byte) bool {
	return b >= 0x20 && b < 0x7f
}

// ModulePicker walks the design hierarchy's instance paths and lets the
// user tag a subset to fuzz, grounded on DesignExplorerController/
// DesignExplorerTerminalView's toggle-select (register_command's SELECT
// branch appending/removing from selected_ids).
type ModulePicker struct {
	Input  io.Reader
	Output io.Writer

	// Rows overrides the default page height (DisplayWidth) when
	// positive, typically set from selector.TerminalRows so the picker
	// fills the caller's actual terminal.
	Rows int
}

// NewModulePicker builds a picker reading keys from in and writing the
// rendered list to out.
func NewModulePicker(in io.Reader, out io.Writer) *ModulePicker {
	return &ModulePicker{Input: in, Output: out}
}

// Pick runs the select loop over modules (sorted here for determinism) and
// returns every instance path the user tagged before pressing Ctrl+N, or
// model.Terminate if the user pressed Ctrl+C or the input ended first.
func (p *ModulePicker) Pick(modules []string) ([]string, model.ReturnCode, error) {
	all := append([]string(nil), modules...)
	sort.Strings(all)

	r := bufio.NewReader(p.Input)
	working := all
	keyword := ""
	pager := NewPagerWithWidth(p.Rows)
	var selected []string

	for {
		p.render(working, pager, keyword, selected)

		key, err := ReadKey(r)
		if err != nil {
			if err == io.EOF {
				return nil, model.Terminate, nil
			}
			return nil, model.Failure, fmt.Errorf("reading key: %w", err)
		}

		cmd, newKeyword := DecodeModuleKey(key, keyword)
		switch cmd {
		case model.CmdSearch:
			keyword = newKeyword
			working = Filter(all, keyword)
			pager.ResyncAfterFilter(keyword, len(working))
		case model.CmdUp:
			pager.Up()
		case model.CmdDown:
			pager.Down(len(working))
		case model.CmdSelect:
			if pager.ActualIndex >= 0 && pager.ActualIndex < len(working) {
				selected = toggleString(selected, working[pager.ActualIndex])
			}
		case model.CmdContinue:
			if len(selected) > 0 {
				return selected, model.Success, nil
			}
		case model.CmdTerminate:
			return nil, model.Terminate, nil
		}
	}
}

func toggleString(set []string, v string) []string {
	for i, s := range set {
		if s == v {
			return append(set[:i], set[i+1:]...)
		}
	}
	return append(set, v)
}

func containsString(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

func (p *ModulePicker) render(working []string, pager *Pager, keyword string, selected []string) {
	if p.Output == nil {
		return
	}
	var b strings.Builder
	fmt.Fprintf(&b, "\nSearch: %s\n===================\n", keyword)
	start, end := pager.VisibleRange(len(working))
	for i := start; i < end; i++ {
		mark := "[ ]"
		if containsString(selected, working[i]) {
			mark = "[x]"
		}
		marker := "    "
		if i-start == pager.HighlightedIndex {
			marker = "--> "
		}
		fmt.Fprintf(&b, "%s%d. %s %s\n", marker, i, mark, working[i])
	}
	fmt.Fprint(&b, "===================\nCommands: Enter to tag | Ctrl+N continue | Ctrl+C to exit\n")
	io.WriteString(p.Output, b.String())
}

// Filter returns the items of all whose text contains keyword, grounded on
// DesignExplorerModel.filter.
func Filter(all []string, keyword string) []string {
	if keyword == "" {
		return all
	}
	out := make([]string, 0, len(all))
	for _, item := range all {
		if strings.Contains(item, keyword) {
			out = append(out, item)
		}
	}
	return out
}
