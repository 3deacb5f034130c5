package tokenizer

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Normalizer maps a string to its normalized form before pre-tokenization.
type Normalizer interface {
	Normalize(s string) string
}

type nfkcNormalizer struct{}

// NFKC applies Unicode NFKC normalization. NFKD configurations are also
// routed here: this implementation treats NFKD as NFKC, matching the
// reference library's behavior for this normalizer family.
func NFKC() Normalizer { return nfkcNormalizer{} }

func (nfkcNormalizer) Normalize(s string) string {
	return norm.NFKC.String(s)
}

type prependNormalizer struct{ prefix string }

func Prepend(prefix string) Normalizer { return prependNormalizer{prefix: prefix} }

func (p prependNormalizer) Normalize(s string) string {
	if s == "" {
		return s
	}
	return p.prefix + s
}

type lowercaseNormalizer struct{}

func Lowercase() Normalizer { return lowercaseNormalizer{} }

func (lowercaseNormalizer) Normalize(s string) string {
	return strings.ToLower(s)
}

type stripAccentsNormalizer struct{}

func StripAccents() Normalizer { return stripAccentsNormalizer{} }

func (stripAccentsNormalizer) Normalize(s string) string {
	return stripMarks(norm.NFD.String(s))
}

func stripMarks(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range s {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

type replaceNormalizer struct{ old, new string }

func Replace(old, new string) Normalizer { return replaceNormalizer{old: old, new: new} }

func (r replaceNormalizer) Normalize(s string) string {
	if r.old == "" {
		return s
	}
	return strings.ReplaceAll(s, r.old, r.new)
}

type precompiledNormalizer struct{}

// Precompiled is treated as NFKC followed by mapping the zero-width-joiner
// (U+200D) to a single space; no general arbitrary-charsmap support is
// implemented.
func Precompiled() Normalizer { return precompiledNormalizer{} }

func (precompiledNormalizer) Normalize(s string) string {
	s = norm.NFKC.String(s)
	return strings.ReplaceAll(s, "‍", " ")
}

type bertNormalizer struct {
	cleanText     bool
	handleChinese bool
	stripAccents  bool
	lowercase     bool
}

// NewBertNormalizer builds the BERT-family normalizer: optional control/Zs
// cleanup, optional CJK character padding, optional accent stripping, and
// optional lowercasing. stripAccents, when unset upstream, follows lowercase.
func NewBertNormalizer(cleanText, handleChinese bool, stripAccents *bool, lowercase bool) Normalizer {
	sa := lowercase
	if stripAccents != nil {
		sa = *stripAccents
	}
	return bertNormalizer{cleanText: cleanText, handleChinese: handleChinese, stripAccents: sa, lowercase: lowercase}
}

func (b bertNormalizer) Normalize(s string) string {
	if b.cleanText {
		s = cleanControlAndWhitespace(s)
	}
	if b.handleChinese {
		s = padCJK(s)
	}
	if b.stripAccents {
		s = stripMarks(norm.NFD.String(s))
	}
	if b.lowercase {
		s = strings.ToLower(s)
	}
	return s
}

func cleanControlAndWhitespace(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range s {
		switch {
		case r == 0, r == 0xFFFD:
			continue
		case r == '\t' || r == '\n' || r == '\r':
			sb.WriteByte(' ')
		case unicode.Is(unicode.Zs, r):
			sb.WriteByte(' ')
		case unicode.Is(unicode.Cc, r):
			continue
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// isCJK reports whether r falls in one of the CJK ranges BertNormalizer pads
// with spaces so the BERT pre-tokenizer splits each character on its own.
func isCJK(r rune) bool {
	switch {
	case r >= 0x4E00 && r <= 0x9FFF,
		r >= 0x3400 && r <= 0x4DBF,
		r >= 0x20000 && r <= 0x2A6DF,
		r >= 0x2A700 && r <= 0x2B73F,
		r >= 0x2B740 && r <= 0x2B81F,
		r >= 0x2B820 && r <= 0x2CEAF,
		r >= 0xF900 && r <= 0xFAFF,
		r >= 0x2F800 && r <= 0x2FA1F:
		return true
	default:
		return false
	}
}

func padCJK(s string) string {
	var sb strings.Builder
	sb.Grow(len(s) + 8)
	for _, r := range s {
		if isCJK(r) {
			sb.WriteByte(' ')
			sb.WriteRune(r)
			sb.WriteByte(' ')
		} else {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

type sequenceNormalizer struct{ stages []Normalizer }

func SequenceNormalizer(stages ...Normalizer) Normalizer {
	return sequenceNormalizer{stages: stages}
}

func (seq sequenceNormalizer) Normalize(s string) string {
	for _, n := range seq.stages {
		s = n.Normalize(s)
	}
	return s
}
