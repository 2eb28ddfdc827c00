package dispatch

import (
	"strings"
	"unicode"

	contractx "github.com/tanpawarit/Chative-Commerce-Relay/agent/contract"
)

const (
	defaultVariantTitle = "default title"
	minWordLen          = 3
)

// Words that say what to do, not which item.
var commandWords = map[string]struct{}{
	"remove": {}, "delete": {}, "take": {}, "out": {}, "from": {}, "cart": {},
	"the": {}, "please": {}, "my": {}, "and": {}, "drop": {}, "get": {}, "rid": {},
}

// MatchProduct finds the first product whose title contains name, ignoring case.
func MatchProduct(products []contractx.Product, name string) (contractx.Product, bool) {
	needle := normalize(name)
	if needle == "" {
		return contractx.Product{}, false
	}
	for _, p := range products {
		if strings.Contains(normalize(p.Title), needle) {
			return p, true
		}
	}
	return contractx.Product{}, false
}

type matchTier func(title, utterance string) bool

var removalTiers = []matchTier{
	func(title, u string) bool { return title == u },
	func(title, u string) bool { return containsPhrase(u, title) || containsPhrase(title, u) },
	func(title, u string) bool {
		for _, w := range strings.Fields(u) {
			if len([]rune(w)) < minWordLen {
				continue
			}
			if _, skip := commandWords[w]; skip {
				continue
			}
			if strings.Contains(title, w) {
				return true
			}
		}
		return false
	},
}

// MatchCartLine grounds a spoken item against cart lines. Tiers run from
// strict to loose and product titles are tried before variant titles within
// each tier; the first hit wins.
func MatchCartLine(lines []contractx.CartLine, utterance string) (contractx.CartLine, bool) {
	u := normalize(utterance)
	if u == "" {
		return contractx.CartLine{}, false
	}
	for _, tier := range removalTiers {
		for _, field := range []func(contractx.CartLine) string{productTitle, variantTitle} {
			for _, line := range lines {
				title := field(line)
				if title == "" {
					continue
				}
				if tier(title, u) {
					return line, true
				}
			}
		}
	}
	return contractx.CartLine{}, false
}

func productTitle(l contractx.CartLine) string {
	return normalize(l.Merchandise.ProductTitle)
}

func variantTitle(l contractx.CartLine) string {
	t := normalize(l.Merchandise.VariantTitle)
	if t == defaultVariantTitle {
		return ""
	}
	return t
}

// containsPhrase reports whether phrase occurs in s on word boundaries, so a
// variant title like "m" or "10" only matches as a whole word.
func containsPhrase(s, phrase string) bool {
	return strings.Contains(" "+s+" ", " "+phrase+" ")
}

// normalize lowercases s, drops punctuation and collapses whitespace.
func normalize(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return ' '
	}, s)
	return strings.Join(strings.Fields(s), " ")
}
