package world

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestUpsertAndGet(t *testing.T) {
	s := NewStore()
	s.Upsert(&World{Name: "Avalon", Host: "avalon.example", Port: "23"})
	w, ok := s.Get("avalon")
	if !ok {
		t.Fatal("lookup is case-insensitive")
	}
	if w.Address() != "avalon.example:23" {
		t.Errorf("Address = %q", w.Address())
	}
}

func TestUpsertReplaces(t *testing.T) {
	s := NewStore()
	s.Upsert(&World{Name: "w", Host: "old.example", Port: "23"})
	s.Upsert(&World{Name: "W", Host: "new.example", Port: "4000"})
	if s.Len() != 1 {
		t.Fatalf("Len = %d, want 1", s.Len())
	}
	w, _ := s.Get("w")
	if w.Host != "new.example" {
		t.Errorf("Host = %q, want replacement", w.Host)
	}
}

func TestFirstSkipsTemp(t *testing.T) {
	s := NewStore()
	s.AddTemp("h.example", "23")
	s.Upsert(&World{Name: "real", Host: "r.example", Port: "23"})
	w, ok := s.First()
	if !ok || w.Name != "real" {
		t.Fatal("First should skip temp worlds")
	}
}

func TestTempWorldGC(t *testing.T) {
	s := NewStore()
	w := s.AddTemp("h.example", "4000")
	if !w.Temp {
		t.Fatal("AddTemp should mark the world temporary")
	}
	if _, ok := s.Get("h.example:4000"); !ok {
		t.Fatal("temp world should be registered under host:port")
	}
	s.DropTempsFor("h.example:4000")
	if _, ok := s.Get("h.example:4000"); ok {
		t.Error("temp world should be collected on disconnect")
	}

	// A named world is never collected by the temp GC.
	s.Upsert(&World{Name: "keep", Host: "k.example", Port: "23"})
	s.DropTempsFor("keep")
	if _, ok := s.Get("keep"); !ok {
		t.Error("non-temp world must survive DropTempsFor")
	}
}

func TestToAddworld(t *testing.T) {
	tests := []struct {
		w    World
		want string
	}{
		{
			World{Name: "plain", Host: "h.example", Port: "23"},
			"/addworld plain h.example 23",
		},
		{
			World{Name: "full", Type: "tiny", Host: "h.example", Port: "4201",
				Character: "char", Pass: "pw", TLS: true, Mfile: "full.tf"},
			"/addworld -Ttiny -x full=char,pw h.example 4201 full.tf",
		},
		{
			World{Name: "echoing", Host: "h.example", Port: "23", Echo: true, NoProxy: true},
			"/addworld -e -p echoing h.example 23",
		},
	}
	for _, tt := range tests {
		if got := tt.w.ToAddworld(); got != tt.want {
			t.Errorf("ToAddworld = %q, want %q", got, tt.want)
		}
	}
}

func TestYAMLRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "worlds.yaml")

	s := NewStore()
	s.Upsert(&World{Name: "alpha", Host: "a.example", Port: "23", Character: "me", TLS: true})
	s.Upsert(&World{Name: "beta", Host: "b.example", Port: "4000"})
	s.AddTemp("t.example", "23") // must not be persisted

	if err := s.SaveFile(path); err != nil {
		t.Fatalf("SaveFile: %v", err)
	}

	loaded := NewStore()
	if err := loaded.LoadFile(path); err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if loaded.Len() != 2 {
		t.Fatalf("Len = %d, want 2 (temp excluded)", loaded.Len())
	}
	a, ok := loaded.Get("alpha")
	if !ok || !a.TLS || a.Character != "me" {
		t.Error("alpha did not round-trip")
	}
}

func TestSaveScript(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "worlds.tf")

	s := NewStore()
	s.Upsert(&World{Name: "zeta", Host: "z.example", Port: "23"})
	s.Upsert(&World{Name: "alpha", Host: "a.example", Port: "23"})
	if err := s.SaveScript(path); err != nil {
		t.Fatalf("SaveScript: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("lines = %d, want 2", len(lines))
	}
	if !strings.HasPrefix(lines[0], "/addworld alpha") {
		t.Errorf("worlds should be sorted; first line %q", lines[0])
	}
}
