package tokenizer

import (
	"testing"

	"github.com/tokenlattice/tokenizers/model"
)

func newTestUnigramVocab() *model.Vocab {
	values := []string{"<unk>", "h", "e", "l", "o", "he", "ll", "hello"}
	scores := []float32{0, -1, -1, -1, -1, -0.5, -0.5, -0.1}
	types := make([]int32, len(values))
	types[0] = model.TokenTypeUnknown
	return &model.Vocab{Values: values, Scores: scores, Types: types}
}

func TestUnigramTokenizePrefersHighestScoringSegmentation(t *testing.T) {
	vocab := newTestUnigramVocab()
	u := NewUnigram(vocab, "<unk>", false)

	ids := u.Tokenize("hello")
	if len(ids) != 1 {
		t.Fatalf("Tokenize(hello) = %v, want a single whole-word id", ids)
	}
	if got, _ := u.IDToToken(ids[0]); got != "hello" {
		t.Errorf("Tokenize(hello) produced token %q, want \"hello\"", got)
	}
}

func TestUnigramTokenizeFallsBackToUnk(t *testing.T) {
	vocab := newTestUnigramVocab()
	u := NewUnigram(vocab, "<unk>", false)

	ids := u.Tokenize("x")
	if len(ids) != 1 {
		t.Fatalf("Tokenize(x) = %v, want a single unk id", ids)
	}
	if got, _ := u.IDToToken(ids[0]); got != "<unk>" {
		t.Errorf("Tokenize(x) produced token %q, want \"<unk>\"", got)
	}
}

func TestUnigramTokenizeCollapsesConsecutiveUnk(t *testing.T) {
	vocab := newTestUnigramVocab()
	u := NewUnigram(vocab, "<unk>", false)

	ids := u.Tokenize("xy")
	if len(ids) != 1 {
		t.Fatalf("Tokenize(xy) = %v, want consecutive unks collapsed into one", ids)
	}
	if got, _ := u.IDToToken(ids[0]); got != "<unk>" {
		t.Errorf("Tokenize(xy) produced token %q, want \"<unk>\"", got)
	}
}

func TestUnigramByteFallback(t *testing.T) {
	values := []string{"<unk>", "<0xC3>", "<0xA9>"}
	scores := []float32{0, -1, -1}
	types := make([]int32, len(values))
	types[0] = model.TokenTypeUnknown
	vocab := &model.Vocab{Values: values, Scores: scores, Types: types}

	u := NewUnigram(vocab, "<unk>", true)
	ids := u.Tokenize("é") // 0xC3 0xA9 in UTF-8
	if len(ids) != 2 {
		t.Fatalf("Tokenize(é) = %v, want 2 byte-fallback ids", ids)
	}
}

func TestUnigramTokenizeEmptyFragment(t *testing.T) {
	vocab := newTestUnigramVocab()
	u := NewUnigram(vocab, "<unk>", false)

	if ids := u.Tokenize(""); ids != nil {
		t.Errorf("Tokenize(\"\") = %v, want nil", ids)
	}
}
