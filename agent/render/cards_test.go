package render

import (
	"testing"

	contractx "github.com/tanpawarit/Chative-Commerce-Relay/agent/contract"
)

func TestFormatProductCards(t *testing.T) {
	t.Parallel()

	products := []contractx.Product{
		{
			Title:    "Red Runner",
			ImageURL: "https://cdn/red.png",
			Variants: []contractx.Variant{{Price: contractx.Money{Amount: "49.0", CurrencyCode: "USD"}}},
		},
		{
			Title:    "Blue Loafer",
			Variants: []contractx.Variant{{Price: contractx.Money{Amount: "80", CurrencyCode: "CHF"}}},
		},
	}

	want := "1. ![Red Runner](https://cdn/red.png)\nRed Runner\n$49.00\n\n2. Blue Loafer\nBlue Loafer\n80.00 CHF"
	if got := FormatProductCards(products); got != want {
		t.Fatalf("FormatProductCards() =\n%s\nwant\n%s", got, want)
	}
}

func TestParseProductCardsRoundTrip(t *testing.T) {
	t.Parallel()

	text := "Here are some options:\n\n" +
		"1. ![Red Runner](https://cdn/red.png)\nRed Runner\n$49.00\n\n" +
		"2. ![Trail Boot](https://cdn/boot.png)\n**Trail Boot**\n€120.50\n\n" +
		"Let me know if you want one."

	cards := ParseProductCards(text)
	if len(cards) != 2 {
		t.Fatalf("expected 2 cards, got %d: %#v", len(cards), cards)
	}
	if cards[0].Title != "Red Runner" || cards[0].ImageURL != "https://cdn/red.png" || cards[0].Price != "$49.00" {
		t.Fatalf("unexpected first card: %#v", cards[0])
	}
	if cards[1].Index != 2 || cards[1].Title != "Trail Boot" || cards[1].Price != "€120.50" {
		t.Fatalf("unexpected second card: %#v", cards[1])
	}
}

func TestParseProductCardsIgnoresPlainText(t *testing.T) {
	t.Parallel()

	if cards := ParseProductCards("Your cart is empty."); len(cards) != 0 {
		t.Fatalf("expected no cards, got %#v", cards)
	}
}

func TestFormatPrice(t *testing.T) {
	t.Parallel()

	cases := map[contractx.Money]string{
		{Amount: "49", CurrencyCode: "USD"}:   "$49.00",
		{Amount: "9.5", CurrencyCode: "GBP"}:  "£9.50",
		{Amount: "abc", CurrencyCode: "EUR"}:  "€abc",
		{Amount: "12.5", CurrencyCode: ""}:    "12.50",
		{Amount: "1000", CurrencyCode: "SEK"}: "1000.00 SEK",
	}
	for in, want := range cases {
		if got := FormatPrice(in); got != want {
			t.Fatalf("FormatPrice(%v) = %q, want %q", in, got, want)
		}
	}
}
