package ui

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
)

// Styles defines all lipgloss styles used in the CLI
var Styles = struct {
	Bold      lipgloss.Style
	Muted     lipgloss.Style
	Assistant lipgloss.Style
	Price     lipgloss.Style
	Card      lipgloss.Style
	ErrorBox  lipgloss.Style
}{
	Bold:      lipgloss.NewStyle().Bold(true),
	Muted:     lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
	Assistant: lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true),
	Price:     lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true),

	Card: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("63")).
		Padding(0, 1).
		Width(34),

	ErrorBox: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("196")).
		Padding(0, 1).
		Width(60),
}

func PrintError(format string, args ...any) {
	fmt.Fprintln(os.Stderr, Styles.ErrorBox.Render(fmt.Sprintf(format, args...)))
}
