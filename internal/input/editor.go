// Package input implements the line editor: the input buffer and cursor,
// the kill ring, the input history, and the named key operations the
// scripting layer drives via /dokey.
package input

import "strings"

// LineEditor is a readline-style editor over a rune buffer. Positions are
// rune indexes; Pos ranges 0..Len(). The scripting layer reads the buffer
// as (head, tail, point) via Head/Tail/Pos, re-synced after every
// keystroke.
type LineEditor struct {
	buf []rune
	// Pos is the cursor position.
	Pos int
	// InsertMode inserts typed characters; when false they overwrite.
	InsertMode bool
	// WordPunct holds extra characters treated as word constituents.
	WordPunct string

	killRing []rune

	// cached holds the buffer's string form; rebuilt only when dirty so
	// repeated reads between edits stay allocation-free.
	cached string
	dirty  bool
}

// NewLineEditor returns an empty editor in insert mode.
func NewLineEditor() *LineEditor {
	return &LineEditor{InsertMode: true}
}

// Len returns the buffer length in runes.
func (e *LineEditor) Len() int { return len(e.buf) }

// IsEmpty reports whether the buffer is empty.
func (e *LineEditor) IsEmpty() bool { return len(e.buf) == 0 }

// Text returns the buffer contents, rebuilding the cache only after a
// mutation.
func (e *LineEditor) Text() string {
	if e.dirty {
		e.cached = string(e.buf)
		e.dirty = false
	}
	return e.cached
}

// Head returns the text before the cursor (the kbhead global).
func (e *LineEditor) Head() string { return string(e.buf[:e.Pos]) }

// Tail returns the text at and after the cursor (the kbtail global).
func (e *LineEditor) Tail() string { return string(e.buf[e.Pos:]) }

// TakeLine consumes and returns the buffer, resetting the editor.
func (e *LineEditor) TakeLine() string {
	line := e.Text()
	e.buf = e.buf[:0]
	e.Pos = 0
	e.cached = ""
	e.dirty = false
	return line
}

// SetText replaces the buffer, placing the cursor at the end.
func (e *LineEditor) SetText(text string) {
	e.buf = []rune(text)
	e.Pos = len(e.buf)
	e.dirty = true
}

// InsertRune inserts (or overwrites) one character at the cursor.
func (e *LineEditor) InsertRune(r rune) {
	if e.InsertMode || e.Pos == len(e.buf) {
		e.buf = append(e.buf, 0)
		copy(e.buf[e.Pos+1:], e.buf[e.Pos:])
		e.buf[e.Pos] = r
	} else {
		e.buf[e.Pos] = r
	}
	e.Pos++
	e.dirty = true
}

// InsertString inserts text at the cursor.
func (e *LineEditor) InsertString(s string) {
	for _, r := range s {
		e.InsertRune(r)
	}
}

// DeleteBefore removes the character before the cursor (backspace).
func (e *LineEditor) DeleteBefore() bool {
	if e.Pos == 0 {
		return false
	}
	e.Pos--
	e.buf = append(e.buf[:e.Pos], e.buf[e.Pos+1:]...)
	e.dirty = true
	return true
}

// DeleteAt removes the character under the cursor.
func (e *LineEditor) DeleteAt() bool {
	if e.Pos >= len(e.buf) {
		return false
	}
	e.buf = append(e.buf[:e.Pos], e.buf[e.Pos+1:]...)
	e.dirty = true
	return true
}

// deleteRange removes [from, to) (normalized), saving the cut text in the
// kill ring and moving the cursor to the start of the cut.
func (e *LineEditor) deleteRange(from, to int) bool {
	if from > to {
		from, to = to, from
	}
	if from < 0 {
		from = 0
	}
	if to > len(e.buf) {
		to = len(e.buf)
	}
	if from == to {
		return false
	}
	e.killRing = append(e.killRing[:0], e.buf[from:to]...)
	e.buf = append(e.buf[:from], e.buf[to:]...)
	e.Pos = from
	e.dirty = true
	return true
}

// KillToEnd cuts from the cursor to the end of the line.
func (e *LineEditor) KillToEnd() bool { return e.deleteRange(e.Pos, len(e.buf)) }

// KillToStart cuts from the start of the line to the cursor.
func (e *LineEditor) KillToStart() bool { return e.deleteRange(0, e.Pos) }

// KillLine cuts the whole line.
func (e *LineEditor) KillLine() bool { return e.deleteRange(0, len(e.buf)) }

// KillWordBack cuts from the start of the previous word to the cursor.
func (e *LineEditor) KillWordBack() bool { return e.deleteRange(e.prevWord(), e.Pos) }

// KillWordForward cuts from the cursor to the end of the next word.
func (e *LineEditor) KillWordForward() bool { return e.deleteRange(e.Pos, e.nextWord()) }

// Yank inserts the last killed text at the cursor.
func (e *LineEditor) Yank() {
	if len(e.killRing) == 0 {
		return
	}
	e.InsertString(string(e.killRing))
}

// Movement.

// MoveLeft moves the cursor one character left.
func (e *LineEditor) MoveLeft() {
	if e.Pos > 0 {
		e.Pos--
	}
}

// MoveRight moves the cursor one character right.
func (e *LineEditor) MoveRight() {
	if e.Pos < len(e.buf) {
		e.Pos++
	}
}

// MoveHome moves to the start of the line.
func (e *LineEditor) MoveHome() { e.Pos = 0 }

// MoveEnd moves past the last character.
func (e *LineEditor) MoveEnd() { e.Pos = len(e.buf) }

// MoveWordLeft moves to the start of the previous word.
func (e *LineEditor) MoveWordLeft() { e.Pos = e.prevWord() }

// MoveWordRight moves past the end of the next word.
func (e *LineEditor) MoveWordRight() { e.Pos = e.nextWord() }

func (e *LineEditor) isWordRune(r rune) bool {
	if r == '_' || strings.ContainsRune(e.WordPunct, r) {
		return true
	}
	return r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' ||
		r > 0x7f
}

func (e *LineEditor) prevWord() int {
	i := e.Pos
	for i > 0 && !e.isWordRune(e.buf[i-1]) {
		i--
	}
	for i > 0 && e.isWordRune(e.buf[i-1]) {
		i--
	}
	return i
}

func (e *LineEditor) nextWord() int {
	i := e.Pos
	for i < len(e.buf) && !e.isWordRune(e.buf[i]) {
		i++
	}
	for i < len(e.buf) && e.isWordRune(e.buf[i]) {
		i++
	}
	return i
}
