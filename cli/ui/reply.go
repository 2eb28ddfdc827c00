package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	renderx "github.com/tanpawarit/Chative-Commerce-Relay/agent/render"
)

const cardsPerRow = 2

// RenderReply draws product cards as boxes and everything else as plain
// assistant text.
func RenderReply(reply string) string {
	cards := renderx.ParseProductCards(reply)
	if len(cards) == 0 {
		return Styles.Assistant.Render("assistant") + "  " + strings.TrimSpace(reply)
	}

	var b strings.Builder
	b.WriteString(Styles.Assistant.Render("assistant"))
	if intro := leadingText(reply); intro != "" {
		b.WriteString("  " + intro)
	}
	b.WriteString("\n")
	b.WriteString(RenderCards(cards))
	if outro := trailingText(reply); outro != "" {
		b.WriteString("\n" + outro)
	}
	return b.String()
}

// RenderCards lays cards out in rows.
func RenderCards(cards []renderx.Card) string {
	var rows []string
	for i := 0; i < len(cards); i += cardsPerRow {
		end := min(i+cardsPerRow, len(cards))
		boxes := make([]string, 0, end-i)
		for _, c := range cards[i:end] {
			boxes = append(boxes, renderCard(c))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, boxes...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func renderCard(c renderx.Card) string {
	lines := []string{Styles.Bold.Render(fmt.Sprintf("%d. %s", c.Index, c.Title))}
	if c.Price != "" {
		lines = append(lines, Styles.Price.Render(c.Price))
	}
	if c.ImageURL != "" {
		lines = append(lines, Styles.Muted.Render(c.ImageURL))
	}
	return Styles.Card.Render(strings.Join(lines, "\n"))
}

// leadingText is the prose before the first numbered entry.
func leadingText(reply string) string {
	var out []string
	for _, line := range strings.Split(reply, "\n") {
		if isEntry(line) {
			break
		}
		if s := strings.TrimSpace(line); s != "" {
			out = append(out, s)
		}
	}
	return strings.Join(out, " ")
}

// trailingText is the prose after the last card's closing blank line.
func trailingText(reply string) string {
	blocks := strings.Split(strings.TrimSpace(reply), "\n\n")
	if len(blocks) < 2 {
		return ""
	}
	last := strings.TrimSpace(blocks[len(blocks)-1])
	if last == "" || isEntry(last) || len(renderx.ParseProductCards(last)) > 0 {
		return ""
	}
	return last
}

func isEntry(line string) bool {
	s := strings.TrimSpace(line)
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	return i > 0 && i < len(s) && s[i] == '.'
}
