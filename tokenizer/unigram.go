package tokenizer

import (
	"fmt"
	"math"
	"slices"

	"github.com/tokenlattice/tokenizers/model"
)

// naiveTrie indexes vocabulary entries by byte prefix so the Viterbi scan
// below can walk forward from each position without re-slicing and
// re-hashing the input at every candidate length.
type naiveTrie struct {
	children map[byte]*naiveTrie
	hasValue bool
	value    int32
}

func (n *naiveTrie) Insert(key string, value int32) {
	node := n
	for i := 0; i < len(key); i++ {
		if node.children == nil {
			node.children = make(map[byte]*naiveTrie)
		}
		child, ok := node.children[key[i]]
		if !ok {
			child = &naiveTrie{}
			node.children[key[i]] = child
		}
		node = child
	}
	node.hasValue = true
	node.value = value
}

func (n *naiveTrie) Traverse(c byte) *naiveTrie {
	if n.children == nil {
		return nil
	}
	return n.children[c]
}

type bestTokenization struct {
	tokenID     int32
	inputOffset int
	scoreSum    float64
}

// Unigram implements the Viterbi-scored SentencePiece segmentation: the path
// through the input that maximizes the sum of per-token log-scores. It
// operates on an already-normalized, already-pretokenized fragment; the
// upstream pipeline owns whitespace/prefix handling, unlike the SentencePiece
// reference implementation this is grounded on, which folds that
// normalization into the model itself.
type Unigram struct {
	vocab        *model.Vocab
	unkID        int32
	byteFallback bool
	maxTokenLen  int

	matcher naiveTrie

	minScore          float32
	unknownTokenScore float32
}

func NewUnigram(vocab *model.Vocab, unkToken string, byteFallback bool) *Unigram {
	u := &Unigram{
		vocab:        vocab,
		unkID:        vocab.Encode(unkToken),
		byteFallback: byteFallback,
		minScore:     math.MaxFloat32,
	}

	for id, s := range vocab.Values {
		if vocab.Type(int32(id)) == model.TokenTypeUnknown {
			continue
		}
		if score := vocab.Scores[id]; score < u.minScore {
			u.minScore = score
		}
		if len(s) > u.maxTokenLen {
			u.maxTokenLen = len(s)
		}
		u.matcher.Insert(s, int32(id))
	}

	if u.minScore == math.MaxFloat32 {
		u.minScore = 0
	}
	u.unknownTokenScore = u.minScore - 10.0

	return u
}

func (u *Unigram) VocabSize() int { return u.vocab.Len() }

func (u *Unigram) TokenToID(s string) (int32, bool) {
	if id := u.vocab.Encode(s); id >= 0 {
		return id, true
	}
	return -1, false
}

func (u *Unigram) IDToToken(id int32) (string, bool) {
	if id < 0 || int(id) >= u.vocab.Len() {
		return "", false
	}
	return u.vocab.Decode(id), true
}

// Tokenize runs the Viterbi scan over fragment and backtracks the
// highest-scoring segmentation, collapsing consecutive unk tokens into one.
func (u *Unigram) Tokenize(fragment string) []int32 {
	if fragment == "" {
		return nil
	}

	best := make([]bestTokenization, len(fragment)+1)
	for i := range best {
		best[i] = bestTokenization{tokenID: u.unkID, scoreSum: -math.MaxFloat64}
	}
	best[0].scoreSum = 0

	for offset := 0; offset < len(fragment); {
		n := min(utf8CodeUnitLen(fragment[offset]), len(fragment)-offset)
		found := u.matchAt(fragment, offset, n, best)

		if u.byteFallback {
			// Offer every byte spanned by this codepoint as its own
			// one-byte candidate, in order, so a multi-byte OOV codepoint
			// can chain through its raw bytes one at a time rather than
			// only ever starting the chain at its first byte.
			for j := offset; j < offset+n; j++ {
				u.byteFallbackAt(fragment, j, best)
			}
		}

		if !found {
			u.unknownAt(offset, n, best)
		}

		offset += n
	}

	return u.backtrack(fragment, best)
}

// matchAt walks the trie from offset, updating best[end] for every
// end > offset spanned by a known vocabulary entry. It reports whether a
// match exactly spanning the codepoint starting at offset was found, so the
// caller knows whether the unknown-token fallback is still needed there.
func (u *Unigram) matchAt(fragment string, offset, codepointLen int, best []bestTokenization) bool {
	node := u.matcher.Traverse(fragment[offset])
	foundCodepoint := false

	for end := offset + 1; end <= len(fragment) && node != nil; end++ {
		if node.hasValue {
			id := node.value
			if end-offset == codepointLen {
				foundCodepoint = true
			}

			score := best[offset].scoreSum + float64(u.vocab.Scores[id])
			if score > best[end].scoreSum {
				best[end] = bestTokenization{tokenID: id, inputOffset: offset, scoreSum: score}
			}
		}

		if end >= len(fragment) {
			break
		}
		node = node.Traverse(fragment[end])
	}

	return foundCodepoint
}

// byteFallbackAt offers the single raw byte at offset as a one-byte-wide
// candidate via its "<0xHH>" vocabulary entry, independent of codepoint
// boundaries, so a byte in the middle of an unmappable multi-byte codepoint
// can still be represented.
func (u *Unigram) byteFallbackAt(fragment string, offset int, best []bestTokenization) {
	id := u.vocab.Encode(fmt.Sprintf("<0x%02X>", fragment[offset]))
	if id < 0 {
		return
	}

	score := best[offset].scoreSum + float64(u.vocab.Scores[id])
	if score > best[offset+1].scoreSum {
		best[offset+1] = bestTokenization{tokenID: id, inputOffset: offset, scoreSum: score}
	}
}

func (u *Unigram) unknownAt(offset, codepointLen int, best []bestTokenization) {
	end := offset + codepointLen
	score := best[offset].scoreSum + float64(u.unknownTokenScore)
	if score > best[end].scoreSum {
		best[end] = bestTokenization{tokenID: u.unkID, inputOffset: offset, scoreSum: score}
	}
}

func (u *Unigram) backtrack(fragment string, best []bestTokenization) []int32 {
	var output []int32
	prevUnknown := false

	for t := best[len(fragment)]; ; t = best[t.inputOffset] {
		isUnknown := t.tokenID == u.unkID
		if !(isUnknown && prevUnknown) {
			output = append(output, t.tokenID)
		}

		if t.inputOffset == 0 {
			break
		}
		prevUnknown = isUnknown
	}

	slices.Reverse(output)
	return output
}

func utf8CodeUnitLen(c byte) int {
	return []int{1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 2, 2, 3, 4}[c>>4]
}
