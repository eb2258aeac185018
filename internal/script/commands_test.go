package script

import (
	"testing"
	"time"

	"github.com/fogwraith/fugue-mud-client/internal/attr"
	"github.com/fogwraith/fugue-mud-client/internal/pattern"
)

func TestParseDefSpecTrigger(t *testing.T) {
	m, err := ParseDefSpec(`-p10 -t'hello (\w+)' -mregexp = /echo caught %{P1}`)
	if err != nil {
		t.Fatalf("ParseDefSpec: %v", err)
	}
	if m.Priority != 10 {
		t.Errorf("Priority = %d", m.Priority)
	}
	if m.Trig == nil || m.Trig.Mode() != pattern.Regexp {
		t.Fatal("trigger pattern missing or wrong mode")
	}
	if !m.Trig.Matches("hello world") {
		t.Error("pattern should match")
	}
	if m.Body != "/echo caught %{P1}" {
		t.Errorf("Body = %q", m.Body)
	}
}

func TestParseDefSpecFlags(t *testing.T) {
	m, err := ParseDefSpec(`-i -F -q -c50 -n3 -ag -wAvalon -b'f1' greet = /echo hi`)
	if err != nil {
		t.Fatalf("ParseDefSpec: %v", err)
	}
	if !m.Invisible || !m.Fallthru || !m.Quiet {
		t.Error("boolean flags lost")
	}
	if m.Probability != 50 || m.Shots != 3 {
		t.Errorf("prob/shots = %d/%d", m.Probability, m.Shots)
	}
	if !m.Attr.Has(attr.Gag) {
		t.Error("gag attribute lost")
	}
	if m.World != "Avalon" || m.Key != "f1" || m.Name != "greet" {
		t.Errorf("world/key/name = %q/%q/%q", m.World, m.Key, m.Name)
	}
}

func TestParseDefSpecHooks(t *testing.T) {
	m, err := ParseDefSpec(`-h'CONNECT|DISCONNECT Avalon*' onconn = /echo conn`)
	if err != nil {
		t.Fatalf("ParseDefSpec: %v", err)
	}
	if m.Hooks.IsEmpty() {
		t.Fatal("hooks empty")
	}
	if m.HookArgs == nil || !m.HookArgs.Matches("Avalon 23") {
		t.Error("hook args pattern wrong")
	}
}

func TestParseDefSpecRejectsBadPattern(t *testing.T) {
	if _, err := ParseDefSpec(`-mregexp -t'(unclosed' x = /echo hi`); err == nil {
		t.Error("bad pattern should reject the definition")
	}
	if _, err := ParseDefSpec(``); err == nil {
		t.Error("empty definition should be rejected")
	}
}

func TestCmdDefRejectsBadBodyAtDefinitionTime(t *testing.T) {
	in := New()
	err := cmdDef(in, `broken = /for`)
	if err == nil {
		t.Fatal("definition-time parse failure should reject the /def")
	}
	if len(in.TakeActions()) != 0 {
		t.Error("rejected definition must not queue an action")
	}
}

func TestCmdDefQueuesCompiledMacro(t *testing.T) {
	in := New()
	if err := cmdDef(in, `hi = /echo hello`); err != nil {
		t.Fatalf("cmdDef: %v", err)
	}
	acts := in.TakeActions()
	if len(acts) != 1 {
		t.Fatalf("actions = %d", len(acts))
	}
	def := acts[0].(DefMacro)
	if def.Macro.Name != "hi" {
		t.Errorf("Name = %q", def.Macro.Name)
	}
	if def.Macro.Compiled() == nil {
		t.Error("body should be pre-compiled at definition time")
	}
}

func TestCmdConnectForms(t *testing.T) {
	in := New()
	if err := cmdConnect(in, "Avalon"); err != nil {
		t.Fatal(err)
	}
	a := in.TakeActions()[0].(ConnectWorld)
	if a.Name != "Avalon" || a.Host != "" {
		t.Errorf("got %#v", a)
	}

	if err := cmdConnect(in, "-b -q mud.example 4000"); err != nil {
		t.Fatal(err)
	}
	a = in.TakeActions()[0].(ConnectWorld)
	if !a.Background || !a.Quiet || a.Host != "mud.example" || a.Port != "4000" {
		t.Errorf("got %#v", a)
	}
}

func TestCmdRepeat(t *testing.T) {
	in := New()
	if err := cmdRepeat(in, "-3 2.5 look"); err != nil {
		t.Fatal(err)
	}
	a := in.TakeActions()[0].(StartRepeat)
	if a.Count != 3 || a.Interval != 2500*time.Millisecond || a.Body != "look" {
		t.Errorf("got %#v", a)
	}

	if err := cmdRepeat(in, "-0 1 look"); err != nil {
		t.Fatal(err)
	}
	a = in.TakeActions()[0].(StartRepeat)
	if a.Count != -1 {
		t.Errorf("-0 should mean infinite, got %d", a.Count)
	}

	if err := cmdRepeat(in, "nonsense"); err == nil {
		t.Error("missing body should error")
	}
}

func TestCmdQuote(t *testing.T) {
	in := New()
	if err := cmdQuote(in, "1 'notes.txt"); err != nil {
		t.Fatal(err)
	}
	a := in.TakeActions()[0].(StartQuote)
	if a.Shell || a.Source != "notes.txt" {
		t.Errorf("got %#v", a)
	}
	if err := cmdQuote(in, "0.5 !ls"); err != nil {
		t.Fatal(err)
	}
	a = in.TakeActions()[0].(StartQuote)
	if !a.Shell || a.Source != "ls" {
		t.Errorf("got %#v", a)
	}
}

func TestCmdSetenv(t *testing.T) {
	in := New()
	if err := cmdSetenv(in, "TERM=xterm"); err != nil {
		t.Fatal(err)
	}
	a := in.TakeActions()[0].(SetEnvVar)
	if a.Key != "TERM" || a.Val != "xterm" {
		t.Errorf("got %#v", a)
	}
}

func TestCmdLogForms(t *testing.T) {
	in := New()
	if err := cmdLog(in, "session.log"); err != nil {
		t.Fatal(err)
	}
	if a := in.TakeActions()[0].(LogFile); a.Off || a.Path != "session.log" {
		t.Errorf("got %#v", a)
	}
	if err := cmdLog(in, "OFF"); err != nil {
		t.Fatal(err)
	}
	if a := in.TakeActions()[0].(LogFile); !a.Off {
		t.Errorf("got %#v", a)
	}
}

func TestCmdAddWorld(t *testing.T) {
	in := New()
	err := cmdAddWorld(in, "-Ttiny -x avalon=char,pw avalon.example 4201 avalon.tf")
	if err != nil {
		t.Fatal(err)
	}
	a := in.TakeActions()[0].(AddWorld)
	w := a.World
	if w.Name != "avalon" || w.Type != "tiny" || !w.TLS {
		t.Errorf("got %#v", w)
	}
	if w.Character != "char" || w.Pass != "pw" {
		t.Errorf("credentials = %q/%q", w.Character, w.Pass)
	}
	if w.Host != "avalon.example" || w.Port != "4201" || w.Mfile != "avalon.tf" {
		t.Errorf("endpoint = %#v", w)
	}
}
