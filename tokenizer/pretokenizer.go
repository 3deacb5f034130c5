package tokenizer

import (
	"strings"
	"unicode"

	"github.com/dlclark/regexp2"

	"github.com/tokenlattice/tokenizers/model"
)

// PreTokenizer splits an ordered sequence of text fragments into a new
// ordered sequence, ready for per-fragment model tokenization.
type PreTokenizer interface {
	PreTokenize(fragments []string) []string
}

// gpt2SplitPattern is the fixed pattern ByteLevel pre-tokenizers split on
// before remapping bytes; its trailing negative lookahead requires a
// PCRE-capable engine, which is why every Split-family stage here compiles
// through regexp2 rather than the standard library's regexp.
const gpt2SplitPattern = `'s|'t|'re|'ve|'m|'ll|'d| ?\p{L}+| ?\p{N}+| ?[^\s\p{L}\p{N}]+|\s+(?!\S)|\s+`

type splitBehavior int

const (
	SplitIsolated splitBehavior = iota
	SplitRemoved
)

type splitPreTokenizer struct {
	re       *regexp2.Regexp
	invert   bool
	behavior splitBehavior
}

func NewSplit(pattern string, invert bool, behavior splitBehavior) (PreTokenizer, error) {
	re, err := regexp2.Compile(pattern, regexp2.RE2)
	if err != nil {
		return nil, err
	}
	return &splitPreTokenizer{re: re, invert: invert, behavior: behavior}, nil
}

func MustSplit(pattern string, invert bool, behavior splitBehavior) PreTokenizer {
	p, err := NewSplit(pattern, invert, behavior)
	if err != nil {
		panic(err)
	}
	return p
}

func (p *splitPreTokenizer) PreTokenize(fragments []string) []string {
	var out []string
	for _, frag := range fragments {
		out = append(out, p.splitOne(frag)...)
	}
	return out
}

func (p *splitPreTokenizer) splitOne(s string) []string {
	runes := []rune(s)
	var out []string

	offset := 0
	m, _ := p.re.FindRunesMatch(runes)
	for m != nil {
		start, length := m.Index, m.Length
		if length == 0 {
			// Zero-width matches cannot be allowed to stall the scan.
			m, _ = p.re.FindNextMatch(m)
			continue
		}

		switch {
		case p.invert:
			// gaps between matches are dropped in invert mode
			out = appendNonEmpty(out, string(runes[start:start+length]))
		case p.behavior == SplitIsolated:
			out = appendNonEmpty(out, string(runes[offset:start]))
			out = appendNonEmpty(out, string(runes[start:start+length]))
		case p.behavior == SplitRemoved:
			out = appendNonEmpty(out, string(runes[offset:start]))
		}

		offset = start + length
		m, _ = p.re.FindNextMatch(m)
	}

	if offset < len(runes) && !p.invert {
		out = appendNonEmpty(out, string(runes[offset:]))
	}

	if len(out) == 0 && s != "" && p.invert {
		// invert mode with no matches at all yields nothing, matching the
		// "push only matched slices" rule literally.
		return out
	}

	return out
}

func appendNonEmpty(out []string, s string) []string {
	if s == "" {
		return out
	}
	return append(out, s)
}

// WhitespaceSplit is a Split on \s+ with Removed behavior.
func WhitespaceSplit() PreTokenizer {
	return MustSplit(`\s+`, false, SplitRemoved)
}

type byteLevelPreTokenizer struct {
	useRegex bool
	split    PreTokenizer
}

func NewByteLevel(useRegex bool) PreTokenizer {
	b := &byteLevelPreTokenizer{useRegex: useRegex}
	if useRegex {
		b.split = MustSplit(gpt2SplitPattern, true, SplitIsolated)
	}
	return b
}

func (b *byteLevelPreTokenizer) PreTokenize(fragments []string) []string {
	if b.useRegex {
		fragments = b.split.PreTokenize(fragments)
	}

	out := make([]string, len(fragments))
	for i, f := range fragments {
		out[i] = model.EncodeBytes(f)
	}
	return out
}

type digitsPreTokenizer struct{ individual bool }

func NewDigits(individual bool) PreTokenizer {
	return digitsPreTokenizer{individual: individual}
}

func (d digitsPreTokenizer) PreTokenize(fragments []string) []string {
	if !d.individual {
		return fragments
	}

	var out []string
	for _, frag := range fragments {
		var sb strings.Builder
		for _, r := range frag {
			if r >= '0' && r <= '9' {
				if sb.Len() > 0 {
					out = append(out, sb.String())
					sb.Reset()
				}
				out = append(out, string(r))
			} else {
				sb.WriteRune(r)
			}
		}
		if sb.Len() > 0 {
			out = append(out, sb.String())
		}
	}
	return out
}

type metaspacePreTokenizer struct {
	replacement    string
	addPrefixSpace bool
}

func NewMetaspace(replacement string, addPrefixSpace bool) PreTokenizer {
	if replacement == "" {
		replacement = "▁"
	}
	return metaspacePreTokenizer{replacement: replacement, addPrefixSpace: addPrefixSpace}
}

func (m metaspacePreTokenizer) PreTokenize(fragments []string) []string {
	out := make([]string, len(fragments))
	for i, f := range fragments {
		if i == 0 && m.addPrefixSpace && !strings.HasPrefix(f, " ") {
			f = " " + f
		}
		out[i] = strings.ReplaceAll(f, " ", m.replacement)
	}
	return out
}

type bertPreTokenizer struct{}

func NewBertPreTokenizer() PreTokenizer { return bertPreTokenizer{} }

func (bertPreTokenizer) PreTokenize(fragments []string) []string {
	var out []string
	for _, frag := range fragments {
		var sb strings.Builder
		flush := func() {
			if sb.Len() > 0 {
				out = append(out, sb.String())
				sb.Reset()
			}
		}
		for _, r := range frag {
			switch {
			case unicode.IsSpace(r):
				flush()
			case isCJK(r):
				flush()
				out = append(out, string(r))
			case isBertPunct(r):
				flush()
				out = append(out, string(r))
			default:
				sb.WriteRune(r)
			}
		}
		flush()
	}
	return out
}

func isBertPunct(r rune) bool {
	switch {
	case r >= 33 && r <= 47, r >= 58 && r <= 64, r >= 91 && r <= 96, r >= 123 && r <= 126:
		return true
	default:
		return unicode.IsPunct(r)
	}
}

type sequencePreTokenizer struct{ stages []PreTokenizer }

func SequencePreTokenizer(stages ...PreTokenizer) PreTokenizer {
	return sequencePreTokenizer{stages: stages}
}

func (seq sequencePreTokenizer) PreTokenize(fragments []string) []string {
	for _, p := range seq.stages {
		fragments = p.PreTokenize(fragments)
	}
	return fragments
}
