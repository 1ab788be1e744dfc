// Package selector implements the interactive terminal pickers used to
// choose which module to fuzz and which of its signals to gate (§4.8 steps
// 3 and 5). Grounded on original_source/source/controllers/{terminal,signal}_controller.py
// and the matching views, generalized so the key-decoding and pagination
// logic is plain, testable Go over an io.Reader and only the helpers in
// terminal.go touch a real terminal.
package selector

import (
	"bufio"
	"io"
)

// DisplayWidth is the number of rows shown per page, carried over from
// SignalExplorerTerminalView.display_width / DesignExplorerTerminalView.display_width.
const DisplayWidth = 10

// ReadKey reads one logical keypress from r: a single byte, or an escape
// sequence (ESC followed by two more bytes for arrow keys), grounded on
// read_key()'s raw termios read.
func ReadKey(r *bufio.Reader) (string, error) {
	b, err := r.ReadByte()
	if err != nil {
		return "", err
	}
	if b != 0x1b {
		return string(b), nil
	}
	rest := make([]byte, 2)
	if _, err := io.ReadFull(r, rest); err != nil {
		return "", err
	}
	return string(b) + string(rest), nil
}

// Pager tracks the highlighted row, current page, and the index into the
// full working list, mirroring SignalExplorerTerminalView's start_index /
// end_index / page_number / highlighted_index / actual_index bookkeeping.
type Pager struct {
	DisplayWidth     int
	PageNumber       int
	StartIndex       int
	EndIndex         int
	HighlightedIndex int
	ActualIndex      int
}

// NewPager builds a Pager showing the first page at the default
// DisplayWidth.
func NewPager() *Pager {
	return NewPagerWithWidth(DisplayWidth)
}

// NewPagerWithWidth builds a Pager showing the first page, width rows at a
// time (falling back to DisplayWidth if width isn't positive), so a
// picker can size itself to the real terminal height (see TerminalRows)
// instead of always assuming DisplayWidth rows are available.
func NewPagerWithWidth(width int) *Pager {
	if width <= 0 {
		width = DisplayWidth
	}
	return &Pager{
		DisplayWidth: width,
		EndIndex:     width,
	}
}

// Up moves the highlight up one row, turning back a page when it scrolls
// past the top of the current page.
func (p *Pager) Up() {
	if p.ActualIndex <= 0 {
		return
	}
	p.HighlightedIndex--
	p.ActualIndex--
	if p.HighlightedIndex < 0 {
		p.PageNumber--
		p.StartIndex = p.PageNumber * p.DisplayWidth
		p.EndIndex = (p.PageNumber + 1) * p.DisplayWidth
		p.HighlightedIndex = p.DisplayWidth - 1
	}
}

// Down moves the highlight down one row, turning forward a page when it
// scrolls past the bottom of the current page. total is the size of the
// (filtered) working list.
func (p *Pager) Down(total int) {
	if p.ActualIndex >= total-1 {
		return
	}
	p.HighlightedIndex++
	p.ActualIndex++
	if p.HighlightedIndex >= p.DisplayWidth {
		p.PageNumber++
		p.StartIndex = p.PageNumber * p.DisplayWidth
		p.EndIndex = (p.PageNumber + 1) * p.DisplayWidth
		p.HighlightedIndex = 0
	}
}

// ResyncAfterFilter recomputes page bookkeeping after the keyword changes
// and the working list has shrunk or grown, grounded on
// SignalExplorerController.process_command's SEARCH branch: when the
// keyword is cleared, it tries to keep roughly the same row highlighted.
func (p *Pager) ResyncAfterFilter(keyword string, total int) {
	if keyword != "" {
		p.PageNumber, p.StartIndex, p.EndIndex = 0, 0, p.DisplayWidth
		p.HighlightedIndex, p.ActualIndex = 0, 0
		return
	}
	target := p.ActualIndex
	if total == 0 {
		target = 0
	} else if target > total-1 {
		target = total - 1
	}
	p.PageNumber = target / p.DisplayWidth
	p.StartIndex = p.PageNumber * p.DisplayWidth
	p.EndIndex = (p.PageNumber + 1) * p.DisplayWidth
	p.HighlightedIndex = target % p.DisplayWidth
	p.ActualIndex = target
}

// VisibleRange returns the [start, end) slice bounds of total visible on
// the current page.
func (p *Pager) VisibleRange(total int) (start, end int) {
	start = p.StartIndex
	if start > total {
		start = total
	}
	end = p.EndIndex
	if end > total {
		end = total
	}
	if end < start {
		end = start
	}
	return start, end
}

func removeInt(s []int, v int) []int {
	out := s[:0]
	for _, x := range s {
		if x != v {
			out = append(out, x)
		}
	}
	return out
}

func containsInt(s []int, v int) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}
