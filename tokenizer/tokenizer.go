// Package tokenizer reconstructs the HuggingFace tokenizers pipeline:
// normalizer, pre-tokenizer, subword model, post-processor, and decoder,
// composed behind a single façade loaded declaratively from a
// tokenizer.json (+ optional tokenizer_config.json) pair.
package tokenizer

import (
	"encoding/json"
	"fmt"

	"github.com/tokenlattice/tokenizers/logutil"
	"github.com/tokenlattice/tokenizers/model"
)

// Model maps a single pre-tokenized fragment to a sequence of vocabulary
// ids. BPE, WordPiece, and Unigram all implement this.
type Model interface {
	Tokenize(fragment string) []int32
	TokenToID(s string) (int32, bool)
	IDToToken(id int32) (string, bool)
	VocabSize() int
}

var (
	_ Model = (*model.BPE)(nil)
	_ Model = (*model.WordPiece)(nil)
	_ Model = (*Unigram)(nil)
)

// Tokenizer is the constructed, immutable (besides chat template, cleanup
// flag, and the BPE cache) pipeline façade.
type Tokenizer struct {
	normalizer    Normalizer
	preTokenizer  PreTokenizer
	model         Model
	postProcessor PostProcessor
	decoder       Decoder

	added     *addedTokenTable
	specialID map[int32]bool

	padID, bosID, eosID, unkID int32

	cleanUpTokenizationSpaces bool
	chatTemplate              *chatTemplate
}

// Message is a single chat turn passed to ApplyChatTemplate.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func newTokenizer(m Model) *Tokenizer {
	return &Tokenizer{
		model:     m,
		specialID: make(map[int32]bool),
		padID:     -1,
		bosID:     -1,
		eosID:     -1,
		unkID:     -1,
	}
}

// Encode tokenizes text, optionally framing it with bos/eos (directly, or
// through a configured PostProcessor when one is present).
func (t *Tokenizer) Encode(text string, addSpecialTokens bool) ([]int32, error) {
	units := []unit{{text: text}}
	if t.added != nil {
		units = t.added.split(text)
	}

	var ids []int32
	for _, u := range units {
		if u.added != nil {
			ids = append(ids, u.added.ID)
			continue
		}

		s := u.text
		if t.normalizer != nil {
			s = t.normalizer.Normalize(s)
		}

		fragments := []string{s}
		if t.preTokenizer != nil {
			fragments = t.preTokenizer.PreTokenize(fragments)
		}

		for _, frag := range fragments {
			ids = append(ids, t.model.Tokenize(frag)...)
		}
	}

	if addSpecialTokens {
		if t.postProcessor != nil {
			ids = t.postProcessor.Process(ids)
		} else {
			ids = t.addBosEos(ids)
		}
	}

	logutil.Trace("encode", "text", text, "ids", ids)
	return ids, nil
}

func (t *Tokenizer) addBosEos(ids []int32) []int32 {
	if t.bosID >= 0 {
		ids = append([]int32{t.bosID}, ids...)
	}
	if t.eosID >= 0 {
		ids = append(ids, t.eosID)
	}
	return ids
}

// Decode reconstructs a string from ids, running the configured decoder
// chain over the selected token strings.
func (t *Tokenizer) Decode(ids []int32, skipSpecialTokens bool) (string, error) {
	tokens := make([]string, 0, len(ids))
	for _, id := range ids {
		if skipSpecialTokens && t.specialID[id] {
			continue
		}

		s, ok := t.model.IDToToken(id)
		if !ok {
			return "", fmt.Errorf("%w: %d", ErrInvalidTokenID, id)
		}
		tokens = append(tokens, s)
	}

	if t.decoder != nil {
		tokens = t.decoder.Decode(tokens)
	}

	var out string
	for _, s := range tokens {
		out += s
	}

	logutil.Trace("decode", "ids", ids, "text", out)
	return out, nil
}

func (t *Tokenizer) TokenToID(token string) int32 {
	if id, ok := t.model.TokenToID(token); ok {
		return id
	}
	return -1
}

func (t *Tokenizer) IDToToken(id int32) string {
	s, _ := t.model.IDToToken(id)
	return s
}

func (t *Tokenizer) PadTokenID() int32 { return t.padID }
func (t *Tokenizer) BOSTokenID() int32 { return t.bosID }
func (t *Tokenizer) EOSTokenID() int32 { return t.eosID }
func (t *Tokenizer) UnkTokenID() int32 { return t.unkID }

func (t *Tokenizer) VocabSize() int { return t.model.VocabSize() }

// SetCleanUpTokenizationSpaces toggles WordPiece decoder cleanup; it is the
// one pipeline setting mutable after load.
func (t *Tokenizer) SetCleanUpTokenizationSpaces(clean bool) {
	t.cleanUpTokenizationSpaces = clean
	if t.decoder != nil {
		setCleanupRecursive(t.decoder, clean)
	}
}

// SetChatTemplate installs a Jinja2 chat template string to be rendered by
// ApplyChatTemplate.
func (t *Tokenizer) SetChatTemplate(template string) error {
	ct, err := newChatTemplate(template)
	if err != nil {
		return err
	}
	t.chatTemplate = ct
	return nil
}

// ChatTemplateVariables reports the top-level variable names a call to
// ApplyChatTemplate makes available to the installed chat template, sorted
// for a stable diagnostic order. Useful for validating a template against
// the variables this tokenizer actually supplies before rendering it.
func (t *Tokenizer) ChatTemplateVariables(addGenerationPrompt bool) []string {
	return contextVariableNames(addGenerationPrompt, t.bosString(), t.eosString())
}

// ApplyChatTemplate renders messages through the installed chat template.
func (t *Tokenizer) ApplyChatTemplate(messages []Message, addGenerationPrompt bool) (string, error) {
	if t.chatTemplate == nil {
		return "", ErrNoChatTemplate
	}
	return t.chatTemplate.render(messages, addGenerationPrompt, t.bosString(), t.eosString())
}

// ApplyChatTemplateJSON parses messages from a JSON array of {role,content}
// objects before rendering them, mirroring the reference implementation's
// string overload of apply_chat_template.
func (t *Tokenizer) ApplyChatTemplateJSON(jsonMessages string, addGenerationPrompt bool) (string, error) {
	var messages []Message
	if err := json.Unmarshal([]byte(jsonMessages), &messages); err != nil {
		return "", fmt.Errorf("tokenizer: invalid chat messages json: %w", err)
	}
	return t.ApplyChatTemplate(messages, addGenerationPrompt)
}

func (t *Tokenizer) bosString() string {
	if t.bosID < 0 {
		return ""
	}
	return t.IDToToken(t.bosID)
}

func (t *Tokenizer) eosString() string {
	if t.eosID < 0 {
		return ""
	}
	return t.IDToToken(t.eosID)
}
