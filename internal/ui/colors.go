package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/reelx/internal/models"
)

// TikTok pink and cyan for headings and success, the rest for notices and help text.
var styles = newPalette(paletteColors{
	title: "#FE2C55",
	ok:    "#25F4EE",
	err:   "#FF5F5F",
	warn:  "#FFA500",
	help:  "#626262",
})

type paletteColors struct {
	title, ok, err, warn, help string
}

// palette holds the styles shared by every view.
type palette struct {
	title lipgloss.Style
	ok    lipgloss.Style
	err   lipgloss.Style
	warn  lipgloss.Style
	help  lipgloss.Style
}

func newPalette(c paletteColors) *palette {
	fg := func(color string) lipgloss.Style {
		return lipgloss.NewStyle().Foreground(lipgloss.Color(color))
	}
	return &palette{
		title: fg(c.title).Bold(true).MarginBottom(1),
		ok:    fg(c.ok).Bold(true),
		err:   fg(c.err).Bold(true),
		warn:  fg(c.warn),
		help:  fg(c.help).Italic(true),
	}
}

// status renders a job status in the color of its outcome.
func (p *palette) status(s models.JobStatus) string {
	switch s {
	case models.StatusCompleted:
		return p.ok.Render(string(s))
	case models.StatusFailed:
		return p.err.Render(string(s))
	default:
		return p.warn.Render(string(s))
	}
}
