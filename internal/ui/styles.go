// Package ui provides terminal styling for reqsync CLI output.
// Uses the Ayu color theme with adaptive light/dark mode support.
package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// Ayu theme color palette
var (
	ColorCreate = lipgloss.AdaptiveColor{
		Light: "#86b300", // ayu light bright green
		Dark:  "#c2d94c", // ayu dark bright green
	}
	ColorModify = lipgloss.AdaptiveColor{
		Light: "#f2ae49", // ayu light bright yellow
		Dark:  "#ffb454", // ayu dark bright yellow
	}
	ColorDelete = lipgloss.AdaptiveColor{
		Light: "#f07171", // ayu light bright red
		Dark:  "#f07178", // ayu dark bright red
	}
	ColorMuted = lipgloss.AdaptiveColor{
		Light: "#828c99", // ayu light muted
		Dark:  "#6c7680", // ayu dark muted
	}
	ColorAccent = lipgloss.AdaptiveColor{
		Light: "#399ee6", // ayu light bright blue
		Dark:  "#59c2ff", // ayu dark bright blue
	}
)

var (
	CreateStyle = lipgloss.NewStyle().Foreground(ColorCreate)
	ModifyStyle = lipgloss.NewStyle().Foreground(ColorModify)
	DeleteStyle = lipgloss.NewStyle().Foreground(ColorDelete)
	MutedStyle  = lipgloss.NewStyle().Foreground(ColorMuted)
	AccentStyle = lipgloss.NewStyle().Foreground(ColorAccent)
)

// HeaderStyle for per-module section headers.
var HeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorAccent)

const (
	IconCreate = "+"
	IconModify = "~"
	IconDelete = "-"
	IconClean  = "✓"
	IconWarn   = "⚠"
)

// CountLine renders one "<icon> <n> <noun>" summary line in the style
// matching the change kind.
func CountLine(style lipgloss.Style, icon string, n int, noun string) string {
	if n == 1 {
		return style.Render(fmt.Sprintf("%s 1 %s", icon, noun))
	}
	return style.Render(fmt.Sprintf("%s %d %ss", icon, n, noun))
}
