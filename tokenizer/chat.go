package tokenizer

import (
	"fmt"
	"sort"

	"github.com/nikolalohinski/gonja/v2"
	"github.com/nikolalohinski/gonja/v2/exec"
	"golang.org/x/exp/maps"
)

// chatTemplate renders a loaded Jinja2 chat_template string through a real
// Jinja2-for-Go engine, so arbitrary templates line up byte-for-byte with
// the reference library's output rather than being matched against a small
// bundled set of hand-translated templates.
type chatTemplate struct {
	tpl *exec.Template
}

func newChatTemplate(src string) (*chatTemplate, error) {
	tpl, err := gonja.FromString(src)
	if err != nil {
		return nil, fmt.Errorf("tokenizer: parsing chat template: %w", err)
	}
	return &chatTemplate{tpl: tpl}, nil
}

func (c *chatTemplate) render(messages []Message, addGenerationPrompt bool, bosToken, eosToken string) (string, error) {
	msgs := make([]map[string]any, len(messages))
	for i, m := range messages {
		msgs[i] = map[string]any{"role": m.Role, "content": m.Content}
	}

	vars := map[string]any{
		"messages":              msgs,
		"add_generation_prompt": addGenerationPrompt,
		"bos_token":             bosToken,
		"eos_token":             eosToken,
	}
	ctx := exec.NewContext(vars)

	out, err := c.tpl.ExecuteToString(ctx)
	if err != nil {
		return "", fmt.Errorf("tokenizer: rendering chat template: %w", err)
	}
	return out, nil
}

// contextVariableNames returns the top-level variable names a rendering
// pass makes available to a chat template, sorted for a stable diagnostic
// order regardless of map iteration order.
func contextVariableNames(addGenerationPrompt bool, bosToken, eosToken string) []string {
	vars := map[string]any{
		"messages":              nil,
		"add_generation_prompt": addGenerationPrompt,
		"bos_token":             bosToken,
		"eos_token":             eosToken,
	}
	names := maps.Keys(vars)
	sort.Strings(names)
	return names
}
