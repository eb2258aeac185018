package screen

import (
	"fmt"
	"strings"
	"testing"
)

func push(s *Screen, text string) {
	s.Push(PlainLine(text))
}

func visibleTexts(s *Screen) []string {
	var out []string
	for _, row := range s.Visible() {
		runes := row.Line.Content.Runes()
		out = append(out, string(runes[row.Phys.Start:row.Phys.Start+row.Phys.Len]))
	}
	return out
}

func TestPushShortLine(t *testing.T) {
	s := New(80, 24)
	push(s, "hello")
	if s.LineCount() != 1 || s.PhysCount() != 1 {
		t.Errorf("counts = %d/%d", s.LineCount(), s.PhysCount())
	}
}

func TestEmptyLineOccupiesOneRow(t *testing.T) {
	s := New(80, 24)
	push(s, "")
	if s.PhysCount() != 1 {
		t.Errorf("PhysCount = %d, want 1", s.PhysCount())
	}
}

func TestLongLineWraps(t *testing.T) {
	s := New(10, 24)
	push(s, "abcdefghijklmnopqrstuvwxy") // 25 chars → 3 rows at width 10
	if s.PhysCount() != 3 {
		t.Errorf("PhysCount = %d, want 3", s.PhysCount())
	}
	push(s, "0123456789") // exactly the width → 1 row
	if s.PhysCount() != 4 {
		t.Errorf("PhysCount = %d, want 4", s.PhysCount())
	}
}

func TestWideRunesWrapByCells(t *testing.T) {
	s := New(4, 24)
	push(s, "éééé") // width-1 runes: 1 row
	if s.PhysCount() != 1 {
		t.Errorf("narrow PhysCount = %d, want 1", s.PhysCount())
	}
	push(s, "四四四四") // width-2 runes: 8 cells → 2 rows at width 4
	if s.PhysCount() != 3 {
		t.Errorf("wide PhysCount = %d, want 3", s.PhysCount())
	}
}

func TestScrollUpAndDown(t *testing.T) {
	s := New(80, 5)
	for i := 0; i < 10; i++ {
		push(s, fmt.Sprintf("line %d", i))
	}
	if got := s.ScrollUp(3); got != 3 {
		t.Errorf("ScrollUp = %d", got)
	}
	if got := s.ScrollDown(2); got != 2 {
		t.Errorf("ScrollDown = %d", got)
	}
	if s.Scrollback() != 1 {
		t.Errorf("Scrollback = %d, want 1", s.Scrollback())
	}
	if got := s.ScrollUp(100); got != 4 {
		t.Errorf("clamped ScrollUp = %d, want 4", got)
	}
}

func TestScrollbackAnchorsOnPush(t *testing.T) {
	s := New(80, 3)
	for i := 0; i < 6; i++ {
		push(s, fmt.Sprintf("line %d", i))
	}
	s.ScrollUp(2)
	before := visibleTexts(s)

	for i := 0; i < 5; i++ {
		push(s, fmt.Sprintf("new %d", i))
	}
	after := visibleTexts(s)
	if strings.Join(before, "|") != strings.Join(after, "|") {
		t.Errorf("view moved while scrolled back: %v → %v", before, after)
	}
	if s.Scrollback() != 7 {
		t.Errorf("Scrollback = %d, want 7", s.Scrollback())
	}
}

func TestVisibleBounds(t *testing.T) {
	s := New(80, 5)
	for i := 0; i < 20; i++ {
		push(s, fmt.Sprintf("%d", i))
	}
	if got := len(s.Visible()); got != 5 {
		t.Errorf("Visible rows = %d, want 5", got)
	}
	small := New(80, 24)
	push(small, "only one")
	if got := len(small.Visible()); got != 1 {
		t.Errorf("short buffer rows = %d, want 1", got)
	}
}

func TestTrimDropsOldest(t *testing.T) {
	s := New(80, 24)
	s.MaxLines = 5
	for i := 0; i < 10; i++ {
		push(s, fmt.Sprintf("%d", i))
	}
	if s.LineCount() != 5 {
		t.Fatalf("LineCount = %d, want 5", s.LineCount())
	}
	// Oldest surviving line is "5"; physline indexes must be rebased.
	rows := s.Visible()
	first := rows[0]
	if first.Line.Content.String() != "5" {
		t.Errorf("oldest surviving line = %q, want 5", first.Line.Content.String())
	}
	for i, pl := range s.physlines {
		if pl.LogicalIdx != i {
			t.Fatalf("physline %d has LogicalIdx %d after trim", i, pl.LogicalIdx)
		}
	}
}

func TestTrimAdjustsScrollback(t *testing.T) {
	s := New(80, 3)
	s.MaxLines = 10
	for i := 0; i < 10; i++ {
		push(s, fmt.Sprintf("%d", i))
	}
	s.ScrollUp(5)
	push(s, "overflow") // trims one logical line
	// Anchor math: +1 for the pushed line, -1 for the trimmed line.
	if s.Scrollback() != 5 {
		t.Errorf("Scrollback = %d, want 5", s.Scrollback())
	}
}

func TestMorePagination(t *testing.T) {
	s := New(80, 24)
	s.MoreThreshold = 3
	if s.Push(PlainLine("1")) || s.Push(PlainLine("2")) {
		t.Error("pause too early")
	}
	if !s.Push(PlainLine("3")) {
		t.Error("third line should pause")
	}
	if !s.Paused() {
		t.Error("Paused should be true")
	}
	s.Unpause()
	if s.Paused() {
		t.Error("Unpause failed")
	}
	if s.Push(PlainLine("4")) {
		t.Error("should not immediately re-pause")
	}
}

func TestResizeRewraps(t *testing.T) {
	s := New(10, 24)
	push(s, "abcdefghijklmno") // 15 chars → 2 rows
	if s.PhysCount() != 2 {
		t.Fatalf("PhysCount = %d, want 2", s.PhysCount())
	}
	s.Resize(20, 24)
	if s.PhysCount() != 1 {
		t.Errorf("PhysCount after widen = %d, want 1", s.PhysCount())
	}
}

func TestResizeKeepsAnchoredLine(t *testing.T) {
	// 20 logical lines at width 40, scrolled back; shrinking to width 20
	// must keep the anchored logical line in view.
	s := New(40, 5)
	for i := 0; i < 20; i++ {
		push(s, fmt.Sprintf("line %02d %s", i, strings.Repeat("x", 25)))
	}
	s.ScrollUp(8)
	anchor := s.Visible()[0].Phys.LogicalIdx

	s.Resize(20, 5)
	rows := s.Visible()
	if len(rows) == 0 {
		t.Fatal("no visible rows after resize")
	}
	found := false
	for _, row := range rows {
		if row.Phys.LogicalIdx == anchor {
			found = true
			break
		}
	}
	if !found {
		t.Errorf("anchored logical line %d lost after re-wrap; top is %d",
			anchor, rows[0].Phys.LogicalIdx)
	}
}
