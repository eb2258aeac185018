package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/fogwraith/fugue-mud-client/internal/macro"
	"github.com/fogwraith/fugue-mud-client/internal/style"
)

var banners = []string{
	`
  __
 / _|_   _  __ _ _   _  ___
| |_| | | |/ _' | | | |/ _ \
|  _| |_| | (_| | |_| |  __/
|_|  \__,_|\__, |\__,_|\___|
           |___/`,
	`
 ::::::::: fugue :::::::::`,
}

// randomBanner picks a startup banner, rendered with the gradient ramp.
func randomBanner() string {
	raw := banners[macro.RandInt(len(banners))]
	return style.ApplyBoldForegroundGrad(raw,
		lipgloss.Color("#F25D94"), lipgloss.Color("#EDFF82"))
}
