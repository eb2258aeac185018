package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/fogwraith/fugue-mud-client/internal/style"
	"github.com/fogwraith/fugue-mud-client/internal/world"
)

// WorldsScreen lists the defined worlds and edits them with a form.
type WorldsScreen struct {
	model  *Model
	width  int
	height int

	cursor int
	form   *huh.Form
	// draft is the world being edited by the open form.
	draft *world.World
	tls   bool
}

// NewWorldsScreen builds the worlds manager.
func NewWorldsScreen(m *Model, width, height int) *WorldsScreen {
	return &WorldsScreen{model: m, width: width, height: height}
}

func (s *WorldsScreen) SetSize(w, h int) {
	s.width = w
	s.height = h
}

// newWorldForm builds the add/edit form over the draft world.
func (s *WorldsScreen) newWorldForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Name").Value(&s.draft.Name),
			huh.NewInput().Title("Host").Value(&s.draft.Host),
			huh.NewInput().Title("Port").Value(&s.draft.Port),
			huh.NewInput().Title("Character").Value(&s.draft.Character),
			huh.NewInput().Title("Password").EchoMode(huh.EchoModePassword).Value(&s.draft.Pass),
			huh.NewInput().Title("Macro file").Value(&s.draft.Mfile),
			huh.NewConfirm().Title("TLS").Value(&s.tls),
		),
	)
}

func (s *WorldsScreen) Update(msg tea.Msg) tea.Cmd {
	if s.form != nil {
		form, cmd := s.form.Update(msg)
		if f, ok := form.(*huh.Form); ok {
			s.form = f
		}
		switch s.form.State {
		case huh.StateCompleted:
			s.draft.TLS = s.tls
			if s.draft.Name != "" {
				s.model.worlds.Upsert(s.draft)
			}
			s.form = nil
			s.draft = nil
		case huh.StateAborted:
			s.form = nil
			s.draft = nil
		}
		return cmd
	}

	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil
	}
	worlds := s.model.worlds.All()
	switch key.String() {
	case "up", "k":
		if s.cursor > 0 {
			s.cursor--
		}
	case "down", "j":
		if s.cursor < len(worlds)-1 {
			s.cursor++
		}
	case "a":
		s.draft = &world.World{}
		s.tls = false
		s.form = s.newWorldForm()
		return s.form.Init()
	case "e":
		if s.cursor < len(worlds) {
			copyOf := *worlds[s.cursor]
			s.draft = &copyOf
			s.tls = copyOf.TLS
			s.form = s.newWorldForm()
			return s.form.Init()
		}
	case "d":
		if s.cursor < len(worlds) {
			s.model.worlds.Remove(worlds[s.cursor].Name)
			if s.cursor > 0 {
				s.cursor--
			}
		}
	case "enter":
		if s.cursor < len(worlds) {
			w := worlds[s.cursor]
			s.model.currentScreen = ScreenSession
			s.model.connectWorld(w, false, s.model.opts.NoAutologin, false)
		}
	}
	return nil
}

func (s *WorldsScreen) View() string {
	if s.form != nil {
		return s.form.View()
	}
	var sb strings.Builder
	sb.WriteString(style.TitleStyle.Render("Worlds"))
	sb.WriteString("\n\n")
	worlds := s.model.worlds.All()
	if len(worlds) == 0 {
		sb.WriteString("  (none defined)\n")
	}
	for i, w := range worlds {
		cursor := "  "
		if i == s.cursor {
			cursor = style.HotkeyStyle.Render("> ")
		}
		fmt.Fprintf(&sb, "%s%-16s %-28s %s\n",
			cursor, w.Name, w.Address(), s.model.stateLabel(w.Name))
	}
	sb.WriteString("\n")
	sb.WriteString(style.SystemLineStyle.Render(
		"enter connect · a add · e edit · d delete · esc back"))
	return sb.String()
}
