package tokenizer

import "strings"

// AddedToken is a literal string that is spliced into the id sequence
// whenever it appears in the input, bypassing normalization and
// pre-tokenization entirely.
type AddedToken struct {
	ID         int32
	Content    string
	Special    bool
	LStrip     bool
	RStrip     bool
	Normalized bool
}

// addedTokenTable indexes a tokenizer's added tokens by content, using a
// byte trie over their contents so scanning the input for the longest match
// starting at each position is a single forward walk rather than one
// strings.Index call per declared token.
type addedTokenTable struct {
	byContent map[string]AddedToken
	trie      naiveTrieStr
}

// naiveTrieStr maps byte-string keys to added tokens; kept distinct from the
// id-valued naiveTrie the Unigram model uses.
type naiveTrieStr struct {
	children map[byte]*naiveTrieStr
	token    *AddedToken
}

func (n *naiveTrieStr) insert(key string, tok AddedToken) {
	node := n
	for i := 0; i < len(key); i++ {
		if node.children == nil {
			node.children = make(map[byte]*naiveTrieStr)
		}
		child, ok := node.children[key[i]]
		if !ok {
			child = &naiveTrieStr{}
			node.children[key[i]] = child
		}
		node = child
	}
	t := tok
	node.token = &t
}

func newAddedTokenTable(tokens []AddedToken) *addedTokenTable {
	t := &addedTokenTable{byContent: make(map[string]AddedToken, len(tokens))}
	for _, tok := range tokens {
		t.byContent[tok.Content] = tok
		t.trie.insert(tok.Content, tok)
	}
	return t
}

func (t *addedTokenTable) empty() bool {
	return t == nil || len(t.byContent) == 0
}

// longestMatchAt returns the longest added token whose content starts at s[pos:],
// or nil if none matches there.
func (t *addedTokenTable) longestMatchAt(s string, pos int) *AddedToken {
	node := &t.trie
	var longest *AddedToken

	for i := pos; i < len(s); i++ {
		child, ok := node.children[s[i]]
		if !ok {
			break
		}
		node = child
		if node.token != nil {
			longest = node.token
		}
	}

	return longest
}

// unit is either a literal added-token match or a plain-text span still
// awaiting normalization, pre-tokenization, and model tokenization.
type unit struct {
	text  string
	added *AddedToken
}

// split scans s left to right, splitting out added tokens by maximal munch
// (longest match wins at each position) and applying their lstrip/rstrip
// flags to the surrounding plain-text units.
func (t *addedTokenTable) split(s string) []unit {
	if t.empty() {
		return []unit{{text: s}}
	}

	var units []unit
	var plain strings.Builder

	flushPlain := func() {
		if plain.Len() > 0 {
			units = append(units, unit{text: plain.String()})
			plain.Reset()
		}
	}

	i := 0
	for i < len(s) {
		tok := t.longestMatchAt(s, i)
		if tok == nil {
			plain.WriteByte(s[i])
			i++
			continue
		}

		if tok.LStrip {
			cur := plain.String()
			trimmed := strings.TrimRight(cur, " \t\n\r")
			plain.Reset()
			plain.WriteString(trimmed)
		}
		flushPlain()

		units = append(units, unit{text: tok.Content, added: tok})
		i += len(tok.Content)

		if tok.RStrip {
			for i < len(s) && isASCIISpace(s[i]) {
				i++
			}
		}
	}
	flushPlain()

	return units
}

func isASCIISpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}
