package prompt

import (
	_ "embed"
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/Chative-Commerce-Relay/agent/contract"
)

var (
	//go:embed template/intent.txt
	intentRaw string

	//go:embed template/summary.txt
	summaryRaw string
)

// PromptSet holds the system prompts. Both are text/template sources:
// Intent expects {{.tools}} and Summary expects {{.card_example}}.
type PromptSet struct {
	Intent  string
	Summary string
}

// LoadPromptSet returns a PromptSet with trimmed prompt strings.
func LoadPromptSet() PromptSet {
	return PromptSet{
		Intent:  strings.TrimSpace(intentRaw),
		Summary: strings.TrimSpace(summaryRaw),
	}
}

func (p PromptSet) Validate() error {
	if strings.TrimSpace(p.Intent) == "" {
		return fmt.Errorf("%w: intent", contractx.ErrPromptMissing)
	}
	if strings.TrimSpace(p.Summary) == "" {
		return fmt.Errorf("%w: summary", contractx.ErrPromptMissing)
	}
	return nil
}
