package tui

import "github.com/charmbracelet/lipgloss"

var (
	// Adaptive colors for dark/light terminals
	colorPrimary   = lipgloss.AdaptiveColor{Light: "#5A56E0", Dark: "#7571F9"}
	colorSecondary = lipgloss.AdaptiveColor{Light: "#3D3D3D", Dark: "#ABABAB"}
	colorDim       = lipgloss.AdaptiveColor{Light: "#9B9B9B", Dark: "#626262"}
	colorAccent    = lipgloss.AdaptiveColor{Light: "#F25D94", Dark: "#F25D94"}
	colorBorder    = lipgloss.AdaptiveColor{Light: "#DBDBDB", Dark: "#383838"}
	colorStatusBg  = lipgloss.AdaptiveColor{Light: "#E8E8E8", Dark: "#16213E"}
	colorStatusFg  = lipgloss.AdaptiveColor{Light: "#3D3D3D", Dark: "#ABABAB"}
	colorGreen     = lipgloss.AdaptiveColor{Light: "#04B575", Dark: "#25D366"}

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary).
			PaddingLeft(1)

	headerDateStyle = lipgloss.NewStyle().
			Foreground(colorDim).
			Align(lipgloss.Right)

	summaryStyle = lipgloss.NewStyle().
			Foreground(colorSecondary).
			PaddingLeft(1).
			MarginBottom(1)

	themeTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary)

	themeBodyStyle = lipgloss.NewStyle().
			Foreground(colorSecondary)

	highlightTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(colorSecondary)

	highlightSelectedStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(colorAccent)

	highlightSourceStyle = lipgloss.NewStyle().
				Foreground(colorGreen)

	highlightWhyStyle = lipgloss.NewStyle().
				Foreground(colorDim)

	sectionCardStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(colorBorder).
				Padding(0, 1)

	stageDoneStyle = lipgloss.NewStyle().
			Foreground(colorGreen)

	stagePendingStyle = lipgloss.NewStyle().
				Foreground(colorDim)

	closingStyle = lipgloss.NewStyle().
			Italic(true).
			Foreground(colorDim).
			PaddingLeft(1).
			MarginTop(1)

	statusBarStyle = lipgloss.NewStyle().
			Background(colorStatusBg).
			Foreground(colorStatusFg).
			PaddingLeft(1).
			PaddingRight(1)

	spinnerStyle = lipgloss.NewStyle().
			Foreground(colorAccent)

	errorStyle = lipgloss.NewStyle().
			Foreground(colorAccent)
)
