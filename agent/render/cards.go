// Package render owns the product-card text convention shared by the
// summarizer prompt and chat clients:
//
//	1. ![Red Runner](https://cdn/red.png)
//	Red Runner
//	$49.00
//
// Clients turn numbered entries back into cards with ParseProductCards, so the
// formatter and the parser must stay in lockstep.
package render

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	contractx "github.com/tanpawarit/Chative-Commerce-Relay/agent/contract"
)

type Card struct {
	Index    int
	Title    string
	ImageURL string
	Price    string
}

var currencySymbols = map[string]string{
	"USD": "$",
	"CAD": "$",
	"AUD": "$",
	"EUR": "€",
	"GBP": "£",
	"JPY": "¥",
	"THB": "฿",
}

// FormatPrice renders an amount as "$49.00", or "49.00 CHF" for currencies
// without a known symbol.
func FormatPrice(m contractx.Money) string {
	amount := strings.TrimSpace(m.Amount)
	if f, err := strconv.ParseFloat(amount, 64); err == nil {
		amount = strconv.FormatFloat(f, 'f', 2, 64)
	}
	code := strings.ToUpper(strings.TrimSpace(m.CurrencyCode))
	if sym, ok := currencySymbols[code]; ok {
		return sym + amount
	}
	if code == "" {
		return amount
	}
	return amount + " " + code
}

// FormatProductCards renders products in the card convention.
func FormatProductCards(products []contractx.Product) string {
	var b strings.Builder
	for i, p := range products {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "%d. ", i+1)
		if p.ImageURL != "" {
			fmt.Fprintf(&b, "![%s](%s)\n", p.Title, p.ImageURL)
		} else {
			b.WriteString(p.Title + "\n")
		}
		b.WriteString(p.Title)
		if v, ok := p.FirstVariant(); ok {
			b.WriteString("\n" + FormatPrice(v.Price))
		}
	}
	return b.String()
}

var (
	entryPattern = regexp.MustCompile(`^\s*(\d+)\.\s*(.*)$`)
	imagePattern = regexp.MustCompile(`^!\[([^\]]*)\]\(([^)\s]+)\)\s*$`)
	pricePattern = regexp.MustCompile(`^(?:[$€£¥฿]\s?\d[\d,]*(?:\.\d+)?|\d[\d,]*(?:\.\d+)?\s?[A-Z]{3})$`)
)

// ParseProductCards recovers cards from a reply. Text outside numbered
// entries is ignored; an entry needs at least a title to count.
func ParseProductCards(text string) []Card {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")

	var (
		cards   []Card
		current *Card
	)
	flush := func() {
		if current != nil && current.Title != "" {
			cards = append(cards, *current)
		}
		current = nil
	}

	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if m := entryPattern.FindStringSubmatch(line); m != nil {
			flush()
			idx, _ := strconv.Atoi(m[1])
			current = &Card{Index: idx}
			rest := strings.TrimSpace(m[2])
			if im := imagePattern.FindStringSubmatch(rest); im != nil {
				current.ImageURL = im[2]
				current.Title = strings.TrimSpace(im[1])
			} else if rest != "" {
				current.Title = strings.Trim(rest, "* ")
			}
			continue
		}
		if current == nil {
			continue
		}
		switch {
		case imagePattern.MatchString(line):
			im := imagePattern.FindStringSubmatch(line)
			current.ImageURL = im[2]
		case pricePattern.MatchString(line):
			current.Price = line
			flush()
		default:
			current.Title = strings.Trim(line, "* ")
		}
	}
	flush()
	return cards
}
