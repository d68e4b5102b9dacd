package styles

import (
	"github.com/charmbracelet/lipgloss"
)

var (
	Black       = lipgloss.Color("#111111")
	Gray        = lipgloss.Color("#3e3e3e")
	GrayDark    = lipgloss.Color("#2f3030")
	GrayDarkAlt = lipgloss.Color("#0f0f0f")
	White       = lipgloss.Color("#cccccc")
	Whiter      = lipgloss.Color("#aaaaaa")

	Red = lipgloss.Color("#B8383B")
	Blu = lipgloss.Color("#5885A2")

	ColourStrange = lipgloss.Color("#cf6a32")
	ColourLimited = lipgloss.Color("#ffd700")
	ColourGenuine = lipgloss.Color("#4d7455")
	ColourVintage = lipgloss.Color("#476291")

	// Teams alternate between these, team 1 is red like the in game scoreboard.
	HeaderStyleRed = lipgloss.NewStyle().Foreground(Red).Bold(true).Align(lipgloss.Left).PaddingLeft(0)
	HeaderStyleBlu = lipgloss.NewStyle().Foreground(Blu).Bold(true).Align(lipgloss.Left).PaddingLeft(0)

	TableRowValuesEven = lipgloss.NewStyle().Background(GrayDark).PaddingRight(2)
	TableRowValuesOdd  = lipgloss.NewStyle().Background(GrayDarkAlt).PaddingRight(2)
	TableRowFlagged    = lipgloss.NewStyle().Background(Red).Foreground(Black).Bold(true).PaddingRight(2)

	StatusHostname = lipgloss.NewStyle().Foreground(ColourStrange).PaddingRight(2).Bold(true)
	StatusMap      = lipgloss.NewStyle().Foreground(ColourGenuine).PaddingRight(2).Bold(true)
	StatusRegion   = lipgloss.NewStyle().Foreground(ColourVintage).PaddingRight(2)
	StatusWarning  = lipgloss.NewStyle().Foreground(ColourLimited).Bold(true)
	StatusUpdated  = lipgloss.NewStyle().Foreground(Whiter)
)
