package model

import (
	"cmp"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"unicode/utf8"

	heap "github.com/emirpasic/gods/v2/trees/binaryheap"

	"github.com/tokenlattice/tokenizers/logutil"
)

// BPE implements greedy merge-rank byte-pair-encoding tokenization of a
// single pre-tokenized fragment. Merging repeatedly folds the adjacent pair
// with the lowest declared rank into a single unit, using a priority queue
// over a doubly-linked list of merge candidates so only pairs newly made
// adjacent by a merge are ever rescored.
type BPE struct {
	vocab *Vocab

	// byteLevel is true when this fragment is (or must become) a string of
	// GPT-2 byte-level code points. remap is true when this model must
	// perform that mapping itself, because no ByteLevel pre-tokenizer ran
	// upstream; when a ByteLevel pre-tokenizer already ran, the fragment
	// arrives pre-mapped and remap is false.
	byteLevel bool
	remap     bool

	byteFallback bool

	cache sync.Map // string -> []int32
}

func NewBPE(vocab *Vocab, byteLevel, remap, byteFallback bool) *BPE {
	return &BPE{vocab: vocab, byteLevel: byteLevel, remap: remap, byteFallback: byteFallback}
}

func (bpe *BPE) VocabSize() int { return bpe.vocab.Len() }

func (bpe *BPE) TokenToID(s string) (int32, bool) {
	if id := bpe.vocab.Encode(s); id >= 0 {
		return id, true
	}
	return -1, false
}

func (bpe *BPE) IDToToken(id int32) (string, bool) {
	if id < 0 || int(id) >= bpe.vocab.Len() {
		return "", false
	}
	return bpe.vocab.Decode(id), true
}

type bpeMergeNode struct {
	p, n int
	text string
}

type bpePair struct {
	a, b  int
	rank  int
	value string
}

// Tokenize maps a single pre-tokenized fragment to its subword ids.
func (bpe *BPE) Tokenize(fragment string) []int32 {
	if cached, ok := bpe.cache.Load(fragment); ok {
		return cached.([]int32)
	}

	mapped := fragment
	if bpe.remap {
		mapped = EncodeBytes(fragment)
	}

	runes := []rune(mapped)
	if id := bpe.vocab.Encode(mapped); id >= 0 && len(runes) > 0 {
		ids := []int32{id}
		bpe.cache.Store(fragment, ids)
		return ids
	}

	if len(runes) == 0 {
		return nil
	}

	// Seed one node per symbol, expanding any rune missing from the
	// vocabulary into its raw-byte fallback tokens up front, so those bytes
	// are present in the merge-candidate list from the start and can
	// participate in any declared merge like any other symbol.
	symbols := bpe.seedSymbols(mapped)
	if len(symbols) == 0 {
		return nil
	}

	nodes := make([]bpeMergeNode, len(symbols))
	for i, s := range symbols {
		nodes[i] = bpeMergeNode{p: i - 1, n: i + 1, text: s}
	}

	pairwise := func(a, b int) *bpePair {
		if a < 0 || b >= len(nodes) {
			return nil
		}

		left, right := nodes[a].text, nodes[b].text
		rank := bpe.vocab.Merge(left, right)
		if rank < 0 {
			return nil
		}

		return &bpePair{a: a, b: b, rank: rank, value: left + right}
	}

	pairs := heap.NewWith(func(i, j *bpePair) int {
		if c := cmp.Compare(i.rank, j.rank); c != 0 {
			return c
		}
		return cmp.Compare(i.a, j.a)
	})

	for i := 0; i < len(nodes)-1; i++ {
		if p := pairwise(i, i+1); p != nil {
			pairs.Push(p)
		}
	}

	for !pairs.Empty() {
		p, _ := pairs.Pop()

		left, right := nodes[p.a], nodes[p.b]
		if left.text == "" || right.text == "" || left.text+right.text != p.value {
			continue
		}

		if id := bpe.vocab.Encode(p.value); id < 0 {
			continue
		}

		nodes[p.a].text = p.value
		nodes[p.b].text = ""

		nodes[p.a].n = right.n
		if right.n < len(nodes) {
			nodes[right.n].p = p.a
		}

		if np := pairwise(nodes[p.a].p, p.a); np != nil {
			pairs.Push(np)
		}
		if np := pairwise(p.a, nodes[p.a].n); np != nil {
			pairs.Push(np)
		}
	}

	var ids []int32
	for _, node := range nodes {
		if node.text == "" {
			continue
		}
		if id := bpe.vocab.Encode(node.text); id >= 0 {
			ids = append(ids, id)
		}
	}

	logutil.Trace("bpe tokenize", "fragment", fragment, "ids", ids)

	bpe.cache.Store(fragment, ids)
	return ids
}

// seedSymbols expands the code points of s into the initial merge-candidate
// sequence. A code point whose own text form is already a vocabulary entry
// seeds one node as itself; otherwise, when byte fallback is enabled, it is
// split into its raw bytes (each seeded as its own "<0xHH>" node) so the
// merge pass can still fold those bytes into any declared merge that expects
// them. An invalid UTF-8 byte is taken as a one-byte unit of its own.
func (bpe *BPE) seedSymbols(s string) []string {
	symbols := make([]string, 0, len(s))
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		text := s[i : i+size]
		i += size
		if !bpe.byteFallback || bpe.vocab.Encode(text) >= 0 {
			symbols = append(symbols, text)
			continue
		}

		if bpe.byteLevel {
			if b, ok := RuneToByte(r); ok {
				symbols = append(symbols, fmt.Sprintf("<0x%02X>", b))
				continue
			}
		}
		for _, b := range []byte(text) {
			symbols = append(symbols, fmt.Sprintf("<0x%02X>", b))
		}
	}
	return symbols
}

// Decode concatenates the token strings of ids, reversing byte-level
// remapping (or <0xHH> byte-fallback tokens) back to the original bytes.
func (bpe *BPE) Decode(ids []int32) string {
	var sb strings.Builder
	for _, id := range ids {
		token := bpe.vocab.Decode(id)
		if n, err := parseByteFallback(token); err == nil {
			sb.WriteByte(n)
			continue
		}

		if bpe.byteLevel {
			sb.Write(DecodeBytes(token))
			continue
		}

		sb.WriteString(token)
	}
	return sb.String()
}

func parseByteFallback(token string) (byte, error) {
	if len(token) != 6 || !strings.HasPrefix(token, "<0x") || !strings.HasSuffix(token, ">") {
		return 0, errNotByteFallback
	}
	n, err := strconv.ParseUint(token[3:5], 16, 8)
	if err != nil {
		return 0, errNotByteFallback
	}
	return byte(n), nil
}

var errNotByteFallback = fmt.Errorf("not a byte-fallback token")
