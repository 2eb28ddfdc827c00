package dispatch

import (
	"testing"

	contractx "github.com/tanpawarit/Chative-Commerce-Relay/agent/contract"
)

func TestMatchProduct(t *testing.T) {
	t.Parallel()

	products := []contractx.Product{{Title: "Red Runner"}, {Title: "Trail Runner Pro"}}

	cases := []struct {
		name string
		want string
		ok   bool
	}{
		{"RED RUNNER", "Red Runner", true},
		{"runner", "Red Runner", true},
		{"trail", "Trail Runner Pro", true},
		{"loafer", "", false},
		{"  ", "", false},
	}
	for _, tc := range cases {
		got, ok := MatchProduct(products, tc.name)
		if ok != tc.ok || got.Title != tc.want {
			t.Fatalf("MatchProduct(%q) = %q, %v; want %q, %v", tc.name, got.Title, ok, tc.want, tc.ok)
		}
	}
}

func TestMatchCartLineTiers(t *testing.T) {
	t.Parallel()

	lines := []contractx.CartLine{
		{ID: "L1", Merchandise: contractx.Merchandise{ProductTitle: "Red Runner Deluxe", VariantTitle: "Default Title"}},
		{ID: "L2", Merchandise: contractx.Merchandise{ProductTitle: "Red Runner", VariantTitle: "Size 9"}},
		{ID: "L3", Merchandise: contractx.Merchandise{ProductTitle: "Wool Socks", VariantTitle: "Grey"}},
	}

	cases := []struct {
		utterance string
		want      string
	}{
		// Exact beats containment even when a looser match comes first.
		{"Red Runner", "L2"},
		{"please remove the red runner deluxe!", "L1"},
		{"socks", "L3"},
		{"the grey ones", "L3"},
		{"remove it", ""},
		{"default title", ""},
	}
	for _, tc := range cases {
		got, ok := MatchCartLine(lines, tc.utterance)
		if tc.want == "" {
			if ok {
				t.Fatalf("MatchCartLine(%q) = %s, want no match", tc.utterance, got.ID)
			}
			continue
		}
		if !ok || got.ID != tc.want {
			t.Fatalf("MatchCartLine(%q) = %q, %v; want %s", tc.utterance, got.ID, ok, tc.want)
		}
	}
}

func TestMatchCartLineShortVariantTitles(t *testing.T) {
	t.Parallel()

	lines := []contractx.CartLine{
		{ID: "L1", Merchandise: contractx.Merchandise{ProductTitle: "Blue Hat", VariantTitle: "M"}},
		{ID: "L2", Merchandise: contractx.Merchandise{ProductTitle: "Red Runner", VariantTitle: "10"}},
	}

	cases := []struct {
		utterance string
		want      string
	}{
		{"remove the runner", "L2"},
		{"take out the hat", "L1"},
		{"remove the size 10", "L2"},
		{"drop the m one", "L1"},
		{"remove item 100", ""},
	}
	for _, tc := range cases {
		got, ok := MatchCartLine(lines, tc.utterance)
		if tc.want == "" {
			if ok {
				t.Fatalf("MatchCartLine(%q) = %s, want no match", tc.utterance, got.ID)
			}
			continue
		}
		if !ok || got.ID != tc.want {
			t.Fatalf("MatchCartLine(%q) = %q, %v; want %s", tc.utterance, got.ID, ok, tc.want)
		}
	}
}
