package ui

import "github.com/gdamore/tcell/v2"

// Theme holds color constants for the TUI.
type Theme struct {
	BgColor          tcell.Color
	FgColor          tcell.Color
	BorderColor      tcell.Color
	BorderFocusColor tcell.Color
	TitleColor       tcell.Color
	OnlineColor      tcell.Color
	UnreadColor      tcell.Color
	OwnMessageColor  tcell.Color
	ErrorColor       tcell.Color
}

// DefaultTheme returns the storm-blue dark theme.
func DefaultTheme() *Theme {
	return &Theme{
		BgColor:          tcell.ColorBlack,
		FgColor:          tcell.ColorLightGray,
		BorderColor:      tcell.ColorSteelBlue,
		BorderFocusColor: tcell.ColorLightSkyBlue,
		TitleColor:       tcell.ColorLightSkyBlue,
		OnlineColor:      tcell.ColorGreen,
		UnreadColor:      tcell.ColorOrange,
		OwnMessageColor:  tcell.ColorAqua,
		ErrorColor:       tcell.ColorOrangeRed,
	}
}
