package view

import "financetrack/internal/core"

// AppTitle is shown in the header and the page title.
const AppTitle = "Personal Finance Tracker"

// HeaderView is the top bar of every page.
type HeaderView struct {
	Title string
	// BellDot marks the notification bell while notifications are enabled.
	BellDot      bool
	Theme        core.Theme
	NextTheme    core.Theme
	SettingsPath string
}

// NewHeader builds the header for the given preferences and theme.
func NewHeader(p core.Preferences, theme core.Theme) HeaderView {
	if theme == "" {
		theme = core.DefaultTheme
	}
	return HeaderView{
		Title:        AppTitle,
		BellDot:      p.Notifications,
		Theme:        theme,
		NextTheme:    theme.Next(),
		SettingsPath: "/settings",
	}
}
