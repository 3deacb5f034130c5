package tokenizer

import (
	"testing"

	"github.com/tokenlattice/tokenizers/model"
)

func newTestFacadeTokenizer() *Tokenizer {
	vocab := &model.Vocab{
		Values: []string{"<unk>", "<s>", "</s>", "hello", "world"},
	}
	m := model.NewBPE(vocab, false, false, false)

	tok := newTokenizer(m)
	tok.preTokenizer = WhitespaceSplit()
	tok.bosID = 1
	tok.eosID = 2
	tok.unkID = 0
	tok.specialID = map[int32]bool{1: true, 2: true}

	return tok
}

func TestFacadeEncodeAddsBosEosWhenNoPostProcessor(t *testing.T) {
	tok := newTestFacadeTokenizer()

	ids, err := tok.Encode("hello world", true)
	if err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}

	want := []int32{1, 3, 4, 2}
	if len(ids) != len(want) {
		t.Fatalf("Encode(hello world, true) = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("Encode()[%d] = %d, want %d", i, ids[i], want[i])
		}
	}
}

func TestFacadeEncodeWithoutSpecialTokens(t *testing.T) {
	tok := newTestFacadeTokenizer()

	ids, err := tok.Encode("hello world", false)
	if err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}

	want := []int32{3, 4}
	if len(ids) != len(want) {
		t.Fatalf("Encode(hello world, false) = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("Encode()[%d] = %d, want %d", i, ids[i], want[i])
		}
	}
}

func TestFacadeDecodeSkipsSpecialTokens(t *testing.T) {
	tok := newTestFacadeTokenizer()

	got, err := tok.Decode([]int32{1, 3, 4, 2}, true)
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	if got != "helloworld" {
		t.Errorf("Decode(skip special) = %q, want \"helloworld\" (no decoder installed)", got)
	}
}

func TestFacadeDecodeKeepsSpecialTokensWhenAsked(t *testing.T) {
	tok := newTestFacadeTokenizer()

	got, err := tok.Decode([]int32{1, 3, 4, 2}, false)
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	if got != "<s>helloworld</s>" {
		t.Errorf("Decode(keep special) = %q, want \"<s>helloworld</s>\"", got)
	}
}

func TestFacadeDecodeInvalidID(t *testing.T) {
	tok := newTestFacadeTokenizer()

	if _, err := tok.Decode([]int32{99}, true); err == nil {
		t.Error("Decode(invalid id) returned nil error, want ErrInvalidTokenID")
	}
}

func TestFacadeTokenToIDAndIDToToken(t *testing.T) {
	tok := newTestFacadeTokenizer()

	if id := tok.TokenToID("hello"); id != 3 {
		t.Errorf("TokenToID(hello) = %d, want 3", id)
	}
	if id := tok.TokenToID("missing"); id != -1 {
		t.Errorf("TokenToID(missing) = %d, want -1", id)
	}
	if s := tok.IDToToken(3); s != "hello" {
		t.Errorf("IDToToken(3) = %q, want \"hello\"", s)
	}
}

func TestFacadeSpecialTokenAccessors(t *testing.T) {
	tok := newTestFacadeTokenizer()

	if tok.BOSTokenID() != 1 {
		t.Errorf("BOSTokenID() = %d, want 1", tok.BOSTokenID())
	}
	if tok.EOSTokenID() != 2 {
		t.Errorf("EOSTokenID() = %d, want 2", tok.EOSTokenID())
	}
	if tok.UnkTokenID() != 0 {
		t.Errorf("UnkTokenID() = %d, want 0", tok.UnkTokenID())
	}
	if tok.PadTokenID() != -1 {
		t.Errorf("PadTokenID() = %d, want -1 (unset)", tok.PadTokenID())
	}
}

func TestFacadeAddedTokenSplicing(t *testing.T) {
	tok := newTestFacadeTokenizer()
	tok.added = newAddedTokenTable([]AddedToken{{ID: 5, Content: "<tool>", Special: true}})

	ids, err := tok.Encode("hello <tool> world", false)
	if err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}

	want := []int32{3, 5, 4}
	if len(ids) != len(want) {
		t.Fatalf("Encode(hello <tool> world) = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("Encode()[%d] = %d, want %d", i, ids[i], want[i])
		}
	}
}

func TestFacadeApplyChatTemplateWithoutTemplateErrors(t *testing.T) {
	tok := newTestFacadeTokenizer()

	if _, err := tok.ApplyChatTemplate([]Message{{Role: "user", Content: "hi"}}, false); err != ErrNoChatTemplate {
		t.Errorf("ApplyChatTemplate without a template = %v, want ErrNoChatTemplate", err)
	}
}

func TestFacadeApplyChatTemplateRenders(t *testing.T) {
	tok := newTestFacadeTokenizer()

	if err := tok.SetChatTemplate(`{% for m in messages %}{{ m.role }}: {{ m.content }}
{% endfor %}`); err != nil {
		t.Fatalf("SetChatTemplate returned error: %v", err)
	}

	got, err := tok.ApplyChatTemplate([]Message{{Role: "user", Content: "hi"}}, false)
	if err != nil {
		t.Fatalf("ApplyChatTemplate returned error: %v", err)
	}

	want := "user: hi\n"
	if got != want {
		t.Errorf("ApplyChatTemplate() = %q, want %q", got, want)
	}
}

func TestFacadeChatTemplateVariablesIsSortedAndStable(t *testing.T) {
	tok := newTestFacadeTokenizer()

	got := tok.ChatTemplateVariables(true)
	want := []string{"add_generation_prompt", "bos_token", "eos_token", "messages"}
	if len(got) != len(want) {
		t.Fatalf("ChatTemplateVariables() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ChatTemplateVariables()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestFacadeApplyChatTemplateJSON(t *testing.T) {
	tok := newTestFacadeTokenizer()
	if err := tok.SetChatTemplate(`{% for m in messages %}{{ m.role }}:{{ m.content }}{% endfor %}`); err != nil {
		t.Fatalf("SetChatTemplate returned error: %v", err)
	}

	got, err := tok.ApplyChatTemplateJSON(`[{"role":"user","content":"hi"}]`, false)
	if err != nil {
		t.Fatalf("ApplyChatTemplateJSON returned error: %v", err)
	}
	if got != "user:hi" {
		t.Errorf("ApplyChatTemplateJSON() = %q, want \"user:hi\"", got)
	}
}
