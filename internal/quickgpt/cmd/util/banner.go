package util

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/kiosk404/quickgpt/pkg/version"
)

const bannerText = `
   ___        _      _     ____ ____ _____
  / _ \ _   _(_) ___| | __/ ___|  _ \_   _|
 | | | | | | | |/ __| |/ / |  _| |_) || |
 | |_| | |_| | | (__|   <| |_| |  __/ | |
  \__\_\\__,_|_|\___|_|\_\\____|_|    |_|
`

var bannerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("208")).Bold(true)

// Banner returns the CLI banner string.
func Banner() string {
	return fmt.Sprintf("%s\n  Version: %s\n", bannerText, version.Get().String())
}

// StyledBanner is Banner colored for a terminal.
func StyledBanner() string {
	return bannerStyle.Render(bannerText) + fmt.Sprintf("\n  Version: %s\n", version.Get().String())
}
