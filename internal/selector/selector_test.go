package selector

import (
	"bufio"
	"strings"
	"testing"
)

func TestReadKeySingleByte(t *testing.T) {
	r := bufio.NewReader(strings.NewReader("a"))
	key, err := ReadKey(r)
	if err != nil {
		t.Fatalf("ReadKey: %v", err)
	}
	if key != "a" {
		t.Errorf("ReadKey() = %q, want %q", key, "a")
	}
}

func TestReadKeyEscapeSequence(t *testing.T) {
	r := bufio.NewReader(strings.NewReader("\x1b[A"))
	key, err := ReadKey(r)
	if err != nil {
		t.Fatalf("ReadKey: %v", err)
	}
	if key != "\x1b[A" {
		t.Errorf("ReadKey() = %q, want up-arrow sequence", key)
	}
}

func TestPagerDownTurnsPage(t *testing.T) {
	p := NewPager()
	p.DisplayWidth = 2
	p.EndIndex = 2
	total := 5

	for i := 0; i < 3; i++ {
		p.Down(total)
	}
	// After 3 downs from index 0: index 1 (page 0), index 2 (turns to page
	// 1, highlighted 0), index 3 (highlighted 1).
	if p.ActualIndex != 3 {
		t.Fatalf("ActualIndex = %d, want 3", p.ActualIndex)
	}
	if p.PageNumber != 1 {
		t.Errorf("PageNumber = %d, want 1", p.PageNumber)
	}
	if p.HighlightedIndex != 1 {
		t.Errorf("HighlightedIndex = %d, want 1", p.HighlightedIndex)
	}
}

func TestPagerDownStopsAtEnd(t *testing.T) {
	p := NewPager()
	total := 2
	for i := 0; i < 10; i++ {
		p.Down(total)
	}
	if p.ActualIndex != total-1 {
		t.Errorf("ActualIndex = %d, want %d", p.ActualIndex, total-1)
	}
}

func TestPagerUpTurnsPageBack(t *testing.T) {
	p := NewPager()
	p.DisplayWidth = 2
	p.EndIndex = 2
	total := 5
	for i := 0; i < 3; i++ {
		p.Down(total)
	}
	p.Up()
	if p.PageNumber != 1 || p.HighlightedIndex != 0 {
		t.Errorf("after one Up: page=%d highlighted=%d, want page=1 highlighted=0", p.PageNumber, p.HighlightedIndex)
	}
	p.Up()
	if p.PageNumber != 0 || p.HighlightedIndex != 1 {
		t.Errorf("after second Up: page=%d highlighted=%d, want page=0 highlighted=1", p.PageNumber, p.HighlightedIndex)
	}
}

func TestPagerUpStopsAtStart(t *testing.T) {
	p := NewPager()
	p.Up()
	if p.ActualIndex != 0 || p.HighlightedIndex != 0 {
		t.Errorf("Up() at start moved index: actual=%d highlighted=%d", p.ActualIndex, p.HighlightedIndex)
	}
}

func TestFilterContains(t *testing.T) {
	all := []string{"top.core.valid", "top.core.ready", "top.mem.addr"}
	got := Filter(all, "core")
	if len(got) != 2 {
		t.Fatalf("Filter() = %v, want 2 matches", got)
	}
}

func TestFilterEmptyKeywordReturnsAll(t *testing.T) {
	all := []string{"a", "b"}
	got := Filter(all, "")
	if len(got) != 2 {
		t.Errorf("Filter(\"\") = %v, want all items", got)
	}
}
