package cli

import "github.com/charmbracelet/lipgloss"

// Tide colour palette 🌊
// Shared theme colours for consistent branding across the CLI
var (
	// Core tide colours (deep to bright)
	TideTeal = lipgloss.Color("#00CED1") // Bright teal
	TideBlue = lipgloss.Color("#1E90FF") // Dodger blue
	TideDeep = lipgloss.Color("#104E8B") // Deep sea blue
	TideFoam = lipgloss.Color("#AFEEEE") // Pale foam

	// Accent colours
	CoolGray = lipgloss.Color("#708090") // Slate gray for subtle text
)
