package tokenizer

import (
	"reflect"
	"testing"

	"github.com/tokenlattice/tokenizers/model"
)

func TestReplaceDecoder(t *testing.T) {
	got := ReplaceDecoder("▁", " ").Decode([]string{"▁hello", "▁world"})
	want := []string{" hello", " world"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ReplaceDecoder.Decode = %v, want %v", got, want)
	}
}

func TestByteFallbackDecoder(t *testing.T) {
	got := ByteFallbackDecoder().Decode([]string{"<0x41>", "plain"})
	want := []string{"A", "plain"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ByteFallbackDecoder.Decode = %v, want %v", got, want)
	}
}

func TestByteLevelDecoder(t *testing.T) {
	mapped := model.EncodeBytes("hi")
	got := ByteLevelDecoder().Decode([]string{mapped})
	if got[0] != "hi" {
		t.Errorf("ByteLevelDecoder.Decode(%q) = %q, want \"hi\"", mapped, got[0])
	}
}

func TestFuseDecoder(t *testing.T) {
	got := FuseDecoder().Decode([]string{"a", "b", "c"})
	want := []string{"abc"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("FuseDecoder.Decode = %v, want %v", got, want)
	}
}

func TestStripDecoder(t *testing.T) {
	got := StripDecoder(" ", 1, 1).Decode([]string{" hello", "world "})
	want := []string{"hello", "world"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("StripDecoder.Decode = %v, want %v", got, want)
	}
}

func TestWordPieceDecoder(t *testing.T) {
	d := WordPieceDecoder("##", false)
	got := d.Decode([]string{"un", "##aff", "##able"})
	want := []string{"unaffable"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("WordPieceDecoder.Decode = %v, want %v", got, want)
	}
}

func TestWordPieceDecoderCleanup(t *testing.T) {
	d := WordPieceDecoder("##", true)
	got := d.Decode([]string{"don", "##'t", "go", "!"})
	want := []string{"don't go!"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("WordPieceDecoder(cleanup).Decode = %v, want %v", got, want)
	}
}

func TestMetaspaceDecoder(t *testing.T) {
	d := MetaspaceDecoder("▁", true)
	got := d.Decode([]string{"▁hello", "▁world"})
	want := []string{"hello", " world"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("MetaspaceDecoder.Decode = %v, want %v", got, want)
	}
}

func TestSequenceDecoderChains(t *testing.T) {
	seq := SequenceDecoder(ReplaceDecoder("▁", " "), FuseDecoder())
	got := seq.Decode([]string{"▁hello", "▁world"})
	want := []string{" hello world"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Sequence(Replace, Fuse).Decode = %v, want %v", got, want)
	}
}

func TestSetCleanupRecursivePropagatesThroughSequence(t *testing.T) {
	wp := WordPieceDecoder("##", false)
	seq := SequenceDecoder(wp, FuseDecoder())

	setCleanupRecursive(seq, true)

	got := wp.Decode([]string{"don", "##'t", "!"})
	want := []string{"don't!"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("WordPieceDecoder after SetCleanup via Sequence = %v, want %v", got, want)
	}
}
