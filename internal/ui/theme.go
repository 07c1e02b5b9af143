package ui

import "github.com/charmbracelet/lipgloss"

var (
	// Core palette
	Violet     = lipgloss.Color("#B48EAD")
	BrightBlue = lipgloss.Color("#61AFEF")
	Cyan       = lipgloss.Color("#56B6C2")
	Green      = lipgloss.Color("#98C379")
	Yellow     = lipgloss.Color("#E5C07B")
	Red        = lipgloss.Color("#E06C75")
	MidGray    = lipgloss.Color("#5C6370")
	LightGray  = lipgloss.Color("#ABB2BF")
	White      = lipgloss.Color("#E6E6E6")

	// User messages
	UserLabelStyle = lipgloss.NewStyle().
			Foreground(BrightBlue).
			Bold(true)

	UserMsgStyle = lipgloss.NewStyle().
			Foreground(LightGray)

	// Assistant messages
	AssistantLabelStyle = lipgloss.NewStyle().
				Foreground(Violet).
				Bold(true)

	AssistantMsgStyle = lipgloss.NewStyle().
				Foreground(White)

	// Commands and their output
	CommandStyle = lipgloss.NewStyle().
			Foreground(Green).
			Bold(true)

	CommandOutputStyle = lipgloss.NewStyle().
				Foreground(MidGray)

	RiskLowStyle = lipgloss.NewStyle().
			Foreground(Green)

	RiskMediumStyle = lipgloss.NewStyle().
			Foreground(Yellow).
			Bold(true)

	RiskHighStyle = lipgloss.NewStyle().
			Foreground(Red).
			Bold(true)

	// Confirmation prompt
	ConfirmStyle = lipgloss.NewStyle().
			Foreground(Yellow).
			Bold(true)

	// Panels
	PanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Violet).
			Padding(0, 1)

	// Banner
	BannerStyle = lipgloss.NewStyle().
			Foreground(Violet).
			Bold(true)

	// Separator
	SeparatorStyle = lipgloss.NewStyle().
			Foreground(MidGray)

	// Error
	ErrorStyle = lipgloss.NewStyle().
			Foreground(Red).
			Bold(true)

	// System notices
	SystemStyle = lipgloss.NewStyle().
			Foreground(Cyan).
			Italic(true)

	// Help text
	HelpStyle = lipgloss.NewStyle().
			Foreground(MidGray)
)

const Banner = `
  ███████╗██╗   ██╗     ██╗██╗███╗   ██╗
  ██╔════╝██║   ██║     ██║██║████╗  ██║
  ███████╗██║   ██║     ██║██║██╔██╗ ██║
  ╚════██║██║   ██║██   ██║██║██║╚██╗██║
  ███████║╚██████╔╝╚█████╔╝██║██║ ╚████║
  ╚══════╝ ╚═════╝  ╚════╝ ╚═╝╚═╝  ╚═══╝
`
