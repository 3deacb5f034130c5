package tokenizer

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestAddedTokenTableSplit(t *testing.T) {
	cases := []struct {
		name     string
		input    string
		tokens   []AddedToken
		expected []unit
	}{
		{
			name:     "no special tokens in text",
			input:    "hello world",
			tokens:   []AddedToken{{ID: 0, Content: "<special>"}},
			expected: []unit{{text: "hello world"}},
		},
		{
			name:   "single special token at start",
			input:  "<bos>hello",
			tokens: []AddedToken{{ID: 0, Content: "<bos>"}},
			expected: []unit{
				{text: "<bos>", added: &AddedToken{ID: 0, Content: "<bos>"}},
				{text: "hello"},
			},
		},
		{
			name:   "single special token at end",
			input:  "hello<eos>",
			tokens: []AddedToken{{ID: 0, Content: "<eos>"}},
			expected: []unit{
				{text: "hello"},
				{text: "<eos>", added: &AddedToken{ID: 0, Content: "<eos>"}},
			},
		},
		{
			name:   "single special token in middle",
			input:  "hello<sep>world",
			tokens: []AddedToken{{ID: 0, Content: "<sep>"}},
			expected: []unit{
				{text: "hello"},
				{text: "<sep>", added: &AddedToken{ID: 0, Content: "<sep>"}},
				{text: "world"},
			},
		},
		{
			name:   "multiple occurrences of same token",
			input:  "<s>hello<s>world<s>",
			tokens: []AddedToken{{ID: 0, Content: "<s>"}},
			expected: []unit{
				{text: "<s>", added: &AddedToken{ID: 0, Content: "<s>"}},
				{text: "hello"},
				{text: "<s>", added: &AddedToken{ID: 0, Content: "<s>"}},
				{text: "world"},
				{text: "<s>", added: &AddedToken{ID: 0, Content: "<s>"}},
			},
		},
		{
			name:  "longest match wins over a shared-prefix shorter token",
			input: "x<end_of_turn>y",
			tokens: []AddedToken{
				{ID: 0, Content: "<end>"},
				{ID: 1, Content: "<end_of_turn>"},
			},
			expected: []unit{
				{text: "x"},
				{text: "<end_of_turn>", added: &AddedToken{ID: 1, Content: "<end_of_turn>"}},
				{text: "y"},
			},
		},
		{
			name:  "true-substring added token still matches its exact content",
			input: "xABCy",
			tokens: []AddedToken{
				{ID: 0, Content: "AB"},
				{ID: 1, Content: "ABC"},
			},
			expected: []unit{
				{text: "x"},
				{text: "ABC", added: &AddedToken{ID: 1, Content: "ABC"}},
				{text: "y"},
			},
		},
		{
			name:   "input is exactly an added token",
			input:  "<special>",
			tokens: []AddedToken{{ID: 0, Content: "<special>"}},
			expected: []unit{
				{text: "<special>", added: &AddedToken{ID: 0, Content: "<special>"}},
			},
		},
		{
			name:     "empty input",
			input:    "",
			tokens:   []AddedToken{{ID: 0, Content: "<special>"}},
			expected: nil,
		},
		{
			name:     "empty table",
			input:    "hello world",
			tokens:   nil,
			expected: []unit{{text: "hello world"}},
		},
		{
			name:  "tokens absent from text are skipped",
			input: "hello<a>world",
			tokens: []AddedToken{
				{ID: 0, Content: "<a>"},
				{ID: 1, Content: "<b>"},
			},
			expected: []unit{
				{text: "hello"},
				{text: "<a>", added: &AddedToken{ID: 0, Content: "<a>"}},
				{text: "world"},
			},
		},
		{
			name:   "lstrip absorbs one preceding space",
			input:  "hello <tool>world",
			tokens: []AddedToken{{ID: 0, Content: "<tool>", LStrip: true}},
			expected: []unit{
				{text: "hello"},
				{text: "<tool>", added: &AddedToken{ID: 0, Content: "<tool>", LStrip: true}},
				{text: "world"},
			},
		},
		{
			name:   "rstrip absorbs one following space",
			input:  "hello<tool> world",
			tokens: []AddedToken{{ID: 0, Content: "<tool>", RStrip: true}},
			expected: []unit{
				{text: "hello"},
				{text: "<tool>", added: &AddedToken{ID: 0, Content: "<tool>", RStrip: true}},
				{text: "world"},
			},
		},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			table := newAddedTokenTable(tt.tokens)
			got := table.split(tt.input)
			if diff := cmp.Diff(tt.expected, got, cmp.AllowUnexported(unit{}, AddedToken{})); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
