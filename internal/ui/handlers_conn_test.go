package ui

import (
	"log/slog"
	"strings"
	"testing"

	"github.com/fogwraith/fugue-mud-client/internal/conn"
	"github.com/fogwraith/fugue-mud-client/internal/script"
)

// testModel builds a model with one established (fake) connection and no
// running program.
func testModel(t *testing.T) *Model {
	t.Helper()
	db := &DebugBuffer{}
	m := NewModel(Options{}, slog.New(slog.NewTextHandler(db, nil)), db)
	m.fgWorld = "w"
	m.conns["w"] = &worldConn{state: conn.StateEstablished}
	return m
}

func def(t *testing.T, m *Model, spec string) {
	t.Helper()
	mac, err := script.ParseDefSpec(spec)
	if err != nil {
		t.Fatalf("ParseDefSpec(%q): %v", spec, err)
	}
	m.macros.Add(mac)
}

func feedLine(m *Model, text string) {
	m.handleConnLine(conn.LineMsg{World: "w", Raw: []byte(text)})
}

func screenTexts(m *Model) []string {
	var out []string
	for i := 0; i < m.out.LineCount(); i++ {
		out = append(out, m.out.Line(i).Content.String())
	}
	return out
}

func TestTriggerWithRegexCaptures(t *testing.T) {
	m := testModel(t)
	def(t, m, `-p10 -mregexp -t'hello (\w+)' = /echo caught %{P1}`)

	feedLine(m, "hello world")
	texts := screenTexts(m)
	foundCaught := false
	for _, s := range texts {
		if s == "caught world" {
			foundCaught = true
		}
	}
	if !foundCaught {
		t.Errorf("trigger body output missing; screen = %q", texts)
	}

	before := m.out.LineCount()
	feedLine(m, "hellox world")
	after := screenTexts(m)[before:]
	for _, s := range after {
		if strings.HasPrefix(s, "caught") {
			t.Errorf("trigger fired on non-matching line: %q", after)
		}
	}
}

func TestGagSuppressesDisplay(t *testing.T) {
	m := testModel(t)
	def(t, m, `-ag -mregexp -t'^spam'`)

	feedLine(m, "spam line")
	for _, s := range screenTexts(m) {
		if strings.Contains(s, "spam line") {
			t.Errorf("gagged line reached the screen: %q", s)
		}
	}

	feedLine(m, "not spam line")
	found := false
	for _, s := range screenTexts(m) {
		if s == "not spam line" {
			found = true
		}
	}
	if !found {
		t.Error("non-matching line should display unchanged")
	}
}

func TestFallThroughBothBodiesRun(t *testing.T) {
	m := testModel(t)
	def(t, m, `-F -msubstr -t'X' = /echo first`)
	def(t, m, `-msubstr -t'X' = /echo second`)

	feedLine(m, "X")
	texts := screenTexts(m)
	firstIdx, secondIdx := -1, -1
	for i, s := range texts {
		switch s {
		case "first":
			firstIdx = i
		case "second":
			secondIdx = i
		}
	}
	if firstIdx < 0 || secondIdx < 0 {
		t.Fatalf("both bodies should run; screen = %q", texts)
	}
	if firstIdx > secondIdx {
		t.Error("fall-through body should run before the non-fall-through body")
	}
}

func TestGlobalGagVariable(t *testing.T) {
	m := testModel(t)
	m.interp.SetGlobalVar("gag", script.IntValue(1))
	feedLine(m, "anything at all")
	for _, s := range screenTexts(m) {
		if s == "anything at all" {
			t.Error(`global "gag" should suppress display`)
		}
	}
}

func TestPromptLineDoesNotPush(t *testing.T) {
	m := testModel(t)
	m.handleConnLine(conn.LineMsg{World: "w", Raw: []byte("Password: "), Prompt: true})
	for _, s := range screenTexts(m) {
		if strings.Contains(s, "Password:") {
			t.Error("prompt candidate should not join the scrollback")
		}
	}
	if m.prompt == nil || m.prompt.String() != "Password: " {
		t.Error("prompt should be retained for display")
	}
}

func TestExpireAfterTriggerRemoved(t *testing.T) {
	m := testModel(t)
	def(t, m, `-n3 -msubstr -t'boom' = /echo bang`)

	for i := 0; i < 3; i++ {
		feedLine(m, "boom")
	}
	bangs := 0
	for _, s := range screenTexts(m) {
		if s == "bang" {
			bangs++
		}
	}
	if bangs != 3 {
		t.Errorf("bang count = %d, want 3", bangs)
	}
	if m.macros.Len() != 0 {
		t.Error("macro should self-destruct after three fires")
	}
	feedLine(m, "boom")
	bangs = 0
	for _, s := range screenTexts(m) {
		if s == "bang" {
			bangs++
		}
	}
	if bangs != 3 {
		t.Error("expired macro fired again")
	}
}

func TestTriggerCapturesHelpers(t *testing.T) {
	m := testModel(t)
	def(t, m, `-mregexp -t'(\d+) gold' = /echo loot %{P1} pre[%{PL}]`)
	feedLine(m, "you find 42 gold here")
	found := false
	for _, s := range screenTexts(m) {
		if s == "loot 42 pre[you find ]" {
			found = true
		}
	}
	if !found {
		t.Errorf("captures wrong; screen = %q", screenTexts(m))
	}
}
