package banner

import (
	"github.com/charmbracelet/lipgloss"

	"surge/internal/tui/styles"
)

const ascii = `
   _____ __  ______  ____________
  / ___// / / / __ \/ ____/ ____/
  \__ \/ / / / /_/ / / __/ __/   
 ___/ / /_/ / _, _/ /_/ / /___   
/____/\____/_/ |_|\____/_____/   `

// GetString renders the surge banner for help output and the TUI header.
func GetString() string {
	style := lipgloss.DefaultRenderer().NewStyle().
		Foreground(styles.ColorBanner).
		Bold(true)
	return "\n" + style.Render(ascii) + "\n"
}
