package ui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"
)

// Padding around each demo button.
const Padding float32 = 12

// CustomTheme widens the default padding so the lone button in each window
// has a margin on every side.
type CustomTheme struct {
	fyne.Theme
}

// NewCustomTheme creates a new instance of the custom theme.
func NewCustomTheme() fyne.Theme {
	return &CustomTheme{Theme: theme.DefaultTheme()}
}

// Size returns the size for the given name.
func (t *CustomTheme) Size(name fyne.ThemeSizeName) float32 {
	if name == theme.SizeNamePadding {
		return Padding
	}
	return t.Theme.Size(name)
}
