package tokenizer

import "testing"

func TestTemplateProcessingFramesSequenceWithSpecialTokens(t *testing.T) {
	tp := &TemplateProcessing{
		Single: []TemplateStep{
			{SpecialID: 1},
			{Sequence: true},
			{SpecialID: 2},
		},
	}

	got := tp.Process([]int32{10, 11, 12})
	want := []int32{1, 10, 11, 12, 2}

	if len(got) != len(want) {
		t.Fatalf("Process = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Process()[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestSequencePostProcessorChains(t *testing.T) {
	bos := &TemplateProcessing{Single: []TemplateStep{{SpecialID: 1}, {Sequence: true}}}
	eos := &TemplateProcessing{Single: []TemplateStep{{Sequence: true}, {SpecialID: 2}}}

	seq := SequencePostProcessor(bos, eos)
	got := seq.Process([]int32{10})

	want := []int32{1, 10, 2}
	if len(got) != len(want) {
		t.Fatalf("Process = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Process()[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}
