package tui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7d56f4"))
	userStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#c7d8ff"))
	activeTabStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("#7d56f4")).Padding(0, 1)
	tabStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Padding(0, 1)
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	labelStyle     = lipgloss.NewStyle().Bold(true)
	focusStyle     = lipgloss.NewStyle().Bold(true).Underline(true).Foreground(lipgloss.Color("#a3b3ff"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	noticeStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("11")).Padding(0, 1)
	codeStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	cursorStyle    = lipgloss.NewStyle().Reverse(true)
)

func coinStyle(name string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(colorOf(name)))
}
