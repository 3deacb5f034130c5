package tokenizer

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/tokenlattice/tokenizers/model"
)

type modelHeader struct {
	Type                    string          `json:"type"`
	Vocab                   json.RawMessage `json:"vocab"`
	Merges                  mergeList       `json:"merges"`
	UnkToken                string          `json:"unk_token"`
	ContinuingSubwordPrefix string          `json:"continuing_subword_prefix"`
	MaxInputCharsPerWord    int             `json:"max_input_chars_per_word"`
	ByteFallback            bool            `json:"byte_fallback"`
	UnkID                   *int            `json:"unk_id"`
}

// buildModel constructs the subword Model named (or implied) by raw,
// returning it alongside the vocabulary id of its unk token (-1 if none).
func buildModel(raw json.RawMessage, useByteLevel, remap bool) (Model, int32, error) {
	var h modelHeader
	if err := json.Unmarshal(raw, &h); err != nil {
		return nil, -1, fmt.Errorf("parsing model: %w", err)
	}

	switch detectModelType(h) {
	case "BPE":
		vocabMap, err := parseObjectVocab(h.Vocab)
		if err != nil {
			return nil, -1, fmt.Errorf("parsing BPE vocab: %w", err)
		}
		vocab := buildVocabFromMap(vocabMap, h.Merges)
		m := model.NewBPE(vocab, useByteLevel, remap, h.ByteFallback)
		return m, vocab.Encode(h.UnkToken), nil

	case "WordPiece":
		vocabMap, err := parseObjectVocab(h.Vocab)
		if err != nil {
			return nil, -1, fmt.Errorf("parsing WordPiece vocab: %w", err)
		}
		vocab := buildVocabFromMap(vocabMap, nil)
		m := model.NewWordPiece(vocab, h.UnkToken, h.ContinuingSubwordPrefix, h.MaxInputCharsPerWord)
		return m, vocab.Encode(h.UnkToken), nil

	case "Unigram":
		values, scores, err := parseUnigramVocab(h.Vocab)
		if err != nil {
			return nil, -1, fmt.Errorf("parsing Unigram vocab: %w", err)
		}
		vocab := &model.Vocab{Values: values, Scores: scores, Types: make([]int32, len(values))}

		unkToken := ""
		if h.UnkID != nil && *h.UnkID >= 0 && *h.UnkID < len(values) {
			unkToken = values[*h.UnkID]
			vocab.Types[*h.UnkID] = model.TokenTypeUnknown
		}

		m := NewUnigram(vocab, unkToken, h.ByteFallback)
		return m, vocab.Encode(unkToken), nil

	default:
		return nil, -1, ErrUnknownModelType
	}
}

// detectModelType resolves h's model family, falling back to the auto-detect
// rule (vocab shape, presence of continuing_subword_prefix/merges) when the
// type field is absent.
func detectModelType(h modelHeader) string {
	if h.Type != "" {
		return h.Type
	}

	if trimmed := bytes.TrimSpace(h.Vocab); len(trimmed) > 0 && trimmed[0] == '[' {
		return "Unigram"
	}
	if h.ContinuingSubwordPrefix != "" || len(h.Merges) == 0 {
		return "WordPiece"
	}
	return "BPE"
}

func parseObjectVocab(raw json.RawMessage) (map[string]int32, error) {
	var m map[string]int32
	if len(raw) == 0 {
		return m, nil
	}
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func buildVocabFromMap(vocabMap map[string]int32, merges []string) *model.Vocab {
	maxID := -1
	for _, id := range vocabMap {
		if int(id) > maxID {
			maxID = int(id)
		}
	}

	values := make([]string, maxID+1)
	for tok, id := range vocabMap {
		values[id] = tok
	}

	return &model.Vocab{Values: values, Merges: merges}
}

func parseUnigramVocab(raw json.RawMessage) ([]string, []float32, error) {
	var entries [][2]any
	if len(raw) == 0 {
		return nil, nil, nil
	}
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, nil, err
	}

	values := make([]string, len(entries))
	scores := make([]float32, len(entries))
	for i, e := range entries {
		s, _ := e[0].(string)
		f, _ := e[1].(float64)
		values[i], scores[i] = s, float32(f)
	}
	return values, scores, nil
}
