package tokenizer

import (
	"strconv"
	"strings"

	"github.com/tokenlattice/tokenizers/model"
)

// Decoder maps a sequence of token strings to a new sequence of strings; the
// final output is their concatenation.
type Decoder interface {
	Decode(tokens []string) []string
}

type replaceDecoder struct{ old, new string }

func ReplaceDecoder(old, new string) Decoder { return replaceDecoder{old: old, new: new} }

func (r replaceDecoder) Decode(tokens []string) []string {
	out := make([]string, len(tokens))
	for i, t := range tokens {
		out[i] = strings.ReplaceAll(t, r.old, r.new)
	}
	return out
}

type byteFallbackDecoder struct{}

func ByteFallbackDecoder() Decoder { return byteFallbackDecoder{} }

func (byteFallbackDecoder) Decode(tokens []string) []string {
	out := make([]string, len(tokens))
	for i, t := range tokens {
		if len(t) == 6 && strings.HasPrefix(t, "<0x") && strings.HasSuffix(t, ">") {
			if n, err := strconv.ParseUint(t[3:5], 16, 8); err == nil {
				out[i] = string([]byte{byte(n)})
				continue
			}
		}
		out[i] = t
	}
	return out
}

type byteLevelDecoder struct{}

func ByteLevelDecoder() Decoder { return byteLevelDecoder{} }

func (byteLevelDecoder) Decode(tokens []string) []string {
	out := make([]string, len(tokens))
	for i, t := range tokens {
		out[i] = string(model.DecodeBytes(t))
	}
	return out
}

type fuseDecoder struct{}

func FuseDecoder() Decoder { return fuseDecoder{} }

func (fuseDecoder) Decode(tokens []string) []string {
	if len(tokens) == 0 {
		return tokens
	}
	return []string{strings.Join(tokens, "")}
}

type stripDecoder struct {
	content    string
	start, end int
}

func StripDecoder(content string, start, end int) Decoder {
	return stripDecoder{content: content, start: start, end: end}
}

func (s stripDecoder) Decode(tokens []string) []string {
	if len(tokens) == 0 {
		return tokens
	}
	out := append([]string(nil), tokens...)
	if s.start > 0 {
		out[0] = strings.TrimPrefix(out[0], s.content)
	}
	if s.end > 0 {
		last := len(out) - 1
		out[last] = strings.TrimSuffix(out[last], s.content)
	}
	return out
}

type wordPieceDecoder struct {
	prefix  string
	cleanup bool
}

func WordPieceDecoder(prefix string, cleanup bool) Decoder {
	if prefix == "" {
		prefix = "##"
	}
	return &wordPieceDecoder{prefix: prefix, cleanup: cleanup}
}

// SetCleanup updates the cleanup flag in place, matching the façade's single
// mutable-after-load decoder setting.
func (w *wordPieceDecoder) SetCleanup(cleanup bool) { w.cleanup = cleanup }

var wordPieceCleanupReplacer = strings.NewReplacer(
	" .", ".",
	" ?", "?",
	" !", "!",
	" ,", ",",
	" ' ", "'",
	" n't", "n't",
	" 'm", "'m",
	" 's", "'s",
	" 've", "'ve",
	" 're", "'re",
)

func (w *wordPieceDecoder) Decode(tokens []string) []string {
	var sb strings.Builder
	for i, t := range tokens {
		if i > 0 {
			if strings.HasPrefix(t, w.prefix) {
				t = strings.TrimPrefix(t, w.prefix)
			} else {
				sb.WriteByte(' ')
			}
		}
		sb.WriteString(t)
	}

	s := sb.String()
	if w.cleanup {
		s = wordPieceCleanupReplacer.Replace(s)
	}
	return []string{s}
}

type metaspaceDecoder struct {
	replacement    string
	addPrefixSpace bool
}

func MetaspaceDecoder(replacement string, addPrefixSpace bool) Decoder {
	if replacement == "" {
		replacement = "▁"
	}
	return metaspaceDecoder{replacement: replacement, addPrefixSpace: addPrefixSpace}
}

func (m metaspaceDecoder) Decode(tokens []string) []string {
	out := make([]string, len(tokens))
	for i, t := range tokens {
		t = strings.ReplaceAll(t, m.replacement, " ")
		if i == 0 && m.addPrefixSpace {
			t = strings.TrimPrefix(t, " ")
		}
		out[i] = t
	}
	return out
}

type sequenceDecoder struct{ stages []Decoder }

func SequenceDecoder(stages ...Decoder) Decoder { return sequenceDecoder{stages: stages} }

func (seq sequenceDecoder) Decode(tokens []string) []string {
	for _, d := range seq.stages {
		tokens = d.Decode(tokens)
	}
	return tokens
}

// setCleanupRecursive propagates the clean_up_tokenization_spaces flag to
// every WordPiece decoder reachable through a Sequence, per the reference
// library's behavior of scoping that flag to WordPiece decoding only.
func setCleanupRecursive(d Decoder, cleanup bool) {
	switch v := d.(type) {
	case *wordPieceDecoder:
		v.SetCleanup(cleanup)
	case sequenceDecoder:
		for _, stage := range v.stages {
			setCleanupRecursive(stage, cleanup)
		}
	}
}
