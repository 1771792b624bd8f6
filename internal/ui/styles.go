package ui

import "github.com/charmbracelet/lipgloss"

var (
	// Colors
	colorGreen  = lipgloss.Color("#22c55e")
	colorRed    = lipgloss.Color("#ef4444")
	colorYellow = lipgloss.Color("#eab308")
	colorBlue   = lipgloss.Color("#3b82f6")
	colorDim    = lipgloss.Color("#6b7280")
	colorWhite  = lipgloss.Color("#f9fafb")

	// Styles
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorWhite)

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorBlue)

	createStyle = lipgloss.NewStyle().
			Foreground(colorGreen)

	deleteStyle = lipgloss.NewStyle().
			Foreground(colorRed)

	warningStyle = lipgloss.NewStyle().
			Foreground(colorYellow)

	dimStyle = lipgloss.NewStyle().
			Foreground(colorDim)
)

const (
	createMark   = "+"
	updateMark   = "~"
	deleteMark   = "-"
	driftMark    = "!="
	deferredMark = ".."
	deniedMark   = "!!"
)

// styleFunc is a single-string styling function.
type styleFunc func(string) string

// sf wraps a lipgloss.Style into a styleFunc.
func sf(s lipgloss.Style) styleFunc {
	return func(str string) string { return s.Render(str) }
}

func plain(str string) string { return str }

// palette holds the styling functions of one renderer.
type palette struct {
	title, section, create, update, remove, warning, dim styleFunc
}

func newPalette(color bool) palette {
	if !color {
		return palette{plain, plain, plain, plain, plain, plain, plain}
	}
	return palette{
		title:   sf(titleStyle),
		section: sf(sectionStyle),
		create:  sf(createStyle),
		update:  sf(warningStyle),
		remove:  sf(deleteStyle),
		warning: sf(warningStyle),
		dim:     sf(dimStyle),
	}
}
