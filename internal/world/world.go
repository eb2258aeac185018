// Package world manages MUD connection profiles: named host/port/login
// definitions, their YAML persistence, and the /addworld serialization
// used by /saveworld.
package world

import (
	"fmt"
	"strings"
)

// World is one server connection profile.
type World struct {
	Name      string `yaml:"Name"`
	Type      string `yaml:"Type,omitempty"`
	Host      string `yaml:"Host,omitempty"`
	Port      string `yaml:"Port,omitempty"`
	Character string `yaml:"Character,omitempty"`
	Pass      string `yaml:"Password,omitempty"`
	// Mfile is a macro file sourced when the world connects.
	Mfile string `yaml:"Mfile,omitempty"`
	TLS   bool   `yaml:"TLS,omitempty"`
	// Echo locally echoes lines sent to this world.
	Echo    bool `yaml:"Echo,omitempty"`
	NoProxy bool `yaml:"NoProxy,omitempty"`
	// Temp worlds are created by host/port /connect and forgotten when
	// their connection closes. They are never persisted.
	Temp bool `yaml:"-"`
}

// IsConnectable reports whether host and port are both set.
func (w *World) IsConnectable() bool { return w.Host != "" && w.Port != "" }

// Address returns the host:port dial target.
func (w *World) Address() string { return w.Host + ":" + w.Port }

// ToAddworld serializes the world as an /addworld command:
// /addworld [-Ttype] [-e] [-x] [-p] name[=char[,pass]] host port [mfile]
func (w *World) ToAddworld() string {
	var sb strings.Builder
	sb.WriteString("/addworld")
	if w.Type != "" {
		fmt.Fprintf(&sb, " -T%s", w.Type)
	}
	if w.Echo {
		sb.WriteString(" -e")
	}
	if w.TLS {
		sb.WriteString(" -x")
	}
	if w.NoProxy {
		sb.WriteString(" -p")
	}
	sb.WriteByte(' ')
	sb.WriteString(w.Name)
	if w.Character != "" {
		sb.WriteByte('=')
		sb.WriteString(w.Character)
		if w.Pass != "" {
			sb.WriteByte(',')
			sb.WriteString(w.Pass)
		}
	}
	if w.Host != "" {
		sb.WriteByte(' ')
		sb.WriteString(w.Host)
		sb.WriteByte(' ')
		sb.WriteString(w.Port)
	}
	if w.Mfile != "" {
		sb.WriteByte(' ')
		sb.WriteString(w.Mfile)
	}
	return sb.String()
}
