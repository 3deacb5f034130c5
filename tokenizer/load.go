package tokenizer

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
)

// rawRoot mirrors the top-level shape of tokenizer.json.
type rawRoot struct {
	Model         json.RawMessage `json:"model"`
	Normalizer    json.RawMessage `json:"normalizer"`
	PreTokenizer  json.RawMessage `json:"pre_tokenizer"`
	PostProcessor json.RawMessage `json:"post_processor"`
	Decoder       json.RawMessage `json:"decoder"`
	AddedTokens   []rawAddedToken `json:"added_tokens"`
}

type rawAddedToken struct {
	ID         int32  `json:"id"`
	Content    string `json:"content"`
	Special    bool   `json:"special"`
	LStrip     bool   `json:"lstrip"`
	RStrip     bool   `json:"rstrip"`
	Normalized bool   `json:"normalized"`
}

// LoadBytes constructs a Tokenizer from the contents of a tokenizer.json
// document alone.
func LoadBytes(tokenizerJSON []byte) (*Tokenizer, error) {
	return load(tokenizerJSON, nil, nil, nil)
}

// LoadBytesWithConfig is LoadBytes plus a tokenizer_config.json document,
// which supplies the chat template, the clean-up-spaces flag, and special
// token name overrides.
func LoadBytesWithConfig(tokenizerJSON, tokenizerConfigJSON []byte) (*Tokenizer, error) {
	return load(tokenizerJSON, tokenizerConfigJSON, nil, nil)
}

// LoadDir constructs a Tokenizer from a directory on disk, reading
// tokenizer.json and any of tokenizer_config.json, special_tokens_map.json,
// generation_config.json that are present.
func LoadDir(dir string) (*Tokenizer, error) {
	return LoadFS(os.DirFS(dir), ".")
}

// LoadFS is LoadDir generalized to an arbitrary fs.FS, so callers can load a
// tokenizer out of an embed.FS or any other virtual filesystem.
func LoadFS(fsys fs.FS, dir string) (*Tokenizer, error) {
	tokenizerJSON, err := fs.ReadFile(fsys, path.Join(dir, "tokenizer.json"))
	if err != nil {
		return nil, fmt.Errorf("tokenizer: reading tokenizer.json: %w", err)
	}

	return load(
		tokenizerJSON,
		readOptional(fsys, path.Join(dir, "tokenizer_config.json")),
		readOptional(fsys, path.Join(dir, "special_tokens_map.json")),
		readOptional(fsys, path.Join(dir, "generation_config.json")),
	)
}

// isJSONNull reports whether raw is absent or the literal JSON null, both of
// which mean "this optional pipeline stage was not configured".
func isJSONNull(raw json.RawMessage) bool {
	trimmed := bytesTrimSpace(raw)
	return len(trimmed) == 0 || string(trimmed) == "null"
}

func bytesTrimSpace(b []byte) []byte {
	start := 0
	for start < len(b) && isJSONWhitespace(b[start]) {
		start++
	}
	end := len(b)
	for end > start && isJSONWhitespace(b[end-1]) {
		end--
	}
	return b[start:end]
}

func readOptional(fsys fs.FS, p string) []byte {
	b, err := fs.ReadFile(fsys, p)
	if err != nil {
		return nil
	}
	return b
}

func load(tokenizerJSON, tokenizerConfigJSON, specialTokensMapJSON, generationConfigJSON []byte) (*Tokenizer, error) {
	var root rawRoot
	if err := json.Unmarshal(sanitizeNonFiniteJSON(tokenizerJSON), &root); err != nil {
		return nil, fmt.Errorf("tokenizer: parsing tokenizer.json: %w", err)
	}

	byteLevelInPreTokenizer := containsStageType(root.PreTokenizer, "ByteLevel")
	useByteLevel := byteLevelInPreTokenizer ||
		containsStageType(root.PostProcessor, "ByteLevel") ||
		containsStageType(root.Decoder, "ByteLevel")
	remap := useByteLevel && !byteLevelInPreTokenizer

	logPretokenizerFamily(root.PreTokenizer)

	m, unkID, err := buildModel(root.Model, useByteLevel, remap)
	if err != nil {
		return nil, fmt.Errorf("tokenizer: building model: %w", err)
	}

	tok := newTokenizer(m)
	tok.unkID = unkID

	if !isJSONNull(root.Normalizer) {
		if n, err := buildNormalizer(root.Normalizer); err != nil {
			slog.Warn("tokenizer: skipping normalizer stage", "error", err)
		} else {
			tok.normalizer = n
		}
	}

	if !isJSONNull(root.PreTokenizer) {
		if p, err := buildPreTokenizer(root.PreTokenizer); err != nil {
			slog.Warn("tokenizer: skipping pre-tokenizer stage", "error", err)
		} else {
			tok.preTokenizer = p
		}
	}

	if !isJSONNull(root.Decoder) {
		d, err := buildDecoder(root.Decoder)
		if err != nil {
			slog.Warn("tokenizer: skipping decoder stage", "error", err)
		} else {
			tok.decoder = d
		}
	}
	if tok.decoder == nil {
		tok.decoder = ByteLevelDecoder()
	}

	addedTokens := make([]AddedToken, 0, len(root.AddedTokens))
	byContent := make(map[string]int32, len(root.AddedTokens))
	for _, raw := range root.AddedTokens {
		at := AddedToken{
			ID:         raw.ID,
			Content:    raw.Content,
			Special:    raw.Special,
			LStrip:     raw.LStrip,
			RStrip:     raw.RStrip,
			Normalized: raw.Normalized,
		}
		addedTokens = append(addedTokens, at)
		byContent[raw.Content] = raw.ID
	}
	tok.added = newAddedTokenTable(addedTokens)

	for _, at := range addedTokens {
		if !at.Special {
			continue
		}
		tok.specialID[at.ID] = true
		if role, ok := specialTokenRoles[at.Content]; ok {
			assignSpecialRole(tok, role, at.ID)
		}
	}

	resolveSpecial := func(name string) int32 {
		if id, ok := byContent[name]; ok {
			return id
		}
		return tok.TokenToID(name)
	}

	if !isJSONNull(root.PostProcessor) {
		pp, err := buildPostProcessor(root.PostProcessor, resolveSpecial)
		if err != nil {
			slog.Warn("tokenizer: skipping post-processor stage", "error", err)
		} else {
			tok.postProcessor = pp
		}
	}

	// generation_config.json takes precedence over tokenizer_config.json,
	// which takes precedence over special_tokens_map.json; apply lowest
	// precedence first so later calls override.
	applyTokenOverrides(tok, specialTokensMapJSON, resolveSpecial)
	applyTokenOverrides(tok, tokenizerConfigJSON, resolveSpecial)
	applyTokenOverrides(tok, generationConfigJSON, resolveSpecial)

	setCleanupRecursive(tok.decoder, tok.cleanUpTokenizationSpaces)

	return tok, nil
}

var specialTokenRoles = map[string]string{
	"[PAD]": "pad", "<pad>": "pad",
	"[BOS]": "bos", "<s>": "bos", "<bos>": "bos",
	"[EOS]": "eos", "</s>": "eos", "<eos>": "eos",
	"[UNK]": "unk", "<unk>": "unk",
}

func assignSpecialRole(tok *Tokenizer, role string, id int32) {
	switch role {
	case "pad":
		tok.padID = id
	case "bos":
		tok.bosID = id
	case "eos":
		tok.eosID = id
	case "unk":
		tok.unkID = id
	}
}

// containsStageType reports whether raw (a pipeline stage or Sequence of
// stages) contains a stage whose "type" field equals typeName anywhere in
// its tree.
func containsStageType(raw json.RawMessage, typeName string) bool {
	if len(raw) == 0 {
		return false
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return false
	}
	return walkForType(generic, typeName)
}

func walkForType(v any, typeName string) bool {
	switch x := v.(type) {
	case map[string]any:
		if t, _ := x["type"].(string); t == typeName {
			return true
		}
		for _, child := range x {
			if walkForType(child, typeName) {
				return true
			}
		}
	case []any:
		for _, child := range x {
			if walkForType(child, typeName) {
				return true
			}
		}
	}
	return false
}

// logPretokenizerFamily emits a best-effort load-time diagnostic identifying
// a known model family by the literal Split patterns in the pre-tokenizer
// chain. It never influences tokenization behavior.
func logPretokenizerFamily(raw json.RawMessage) {
	if len(raw) == 0 {
		return
	}
	var probe struct {
		PreTokenizers []struct {
			Type    string `json:"type"`
			Pattern *patternSpec `json:"pattern"`
		} `json:"pretokenizers"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return
	}
	for _, p := range probe.PreTokenizers {
		if p.Type == "Split" && p.Pattern != nil && p.Pattern.pattern == gpt2SplitPattern {
			slog.Debug("tokenizer: detected gpt2-family split pattern in pre-tokenizer chain")
			return
		}
	}
}
