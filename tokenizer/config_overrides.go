package tokenizer

import (
	"encoding/json"
	"log/slog"
)

// tokenizerConfig is the shape shared (loosely) by tokenizer_config.json,
// special_tokens_map.json, and generation_config.json: each may declare a
// subset of these fields, by name (bos_token/.../unk_token) or, in
// generation_config.json's case, by id (bos_token_id/...).
type tokenizerConfig struct {
	CleanUp *bool `json:"clean_up_tokenization_spaces"`

	ChatTemplate json.RawMessage `json:"chat_template"`

	BosToken tokenRef `json:"bos_token"`
	EosToken tokenRef `json:"eos_token"`
	PadToken tokenRef `json:"pad_token"`
	UnkToken tokenRef `json:"unk_token"`

	BosTokenID tokenIDRef `json:"bos_token_id"`
	EosTokenID tokenIDRef `json:"eos_token_id"`
	PadTokenID tokenIDRef `json:"pad_token_id"`
	UnkTokenID tokenIDRef `json:"unk_token_id"`
}

// applyTokenOverrides merges one config document's declarations into tok.
// Later calls win, so callers apply documents in ascending precedence order.
func applyTokenOverrides(tok *Tokenizer, raw []byte, resolveSpecial func(name string) int32) {
	if len(raw) == 0 {
		return
	}

	var cfg tokenizerConfig
	if err := json.Unmarshal(sanitizeNonFiniteJSON(raw), &cfg); err != nil {
		slog.Warn("tokenizer: skipping malformed config document", "error", err)
		return
	}

	if cfg.CleanUp != nil {
		tok.cleanUpTokenizationSpaces = *cfg.CleanUp
	}

	applyTokenField(&tok.bosID, cfg.BosToken, cfg.BosTokenID, resolveSpecial)
	applyTokenField(&tok.eosID, cfg.EosToken, cfg.EosTokenID, resolveSpecial)
	applyTokenField(&tok.padID, cfg.PadToken, cfg.PadTokenID, resolveSpecial)
	applyTokenField(&tok.unkID, cfg.UnkToken, cfg.UnkTokenID, resolveSpecial)

	if template := parseChatTemplate(cfg.ChatTemplate); template != "" {
		if err := tok.SetChatTemplate(template); err != nil {
			slog.Warn("tokenizer: skipping invalid chat template", "error", err)
		}
	}
}

func applyTokenField(field *int32, byName tokenRef, byID tokenIDRef, resolveSpecial func(name string) int32) {
	if byName.present {
		if id := resolveSpecial(byName.content); id >= 0 {
			*field = id
		}
	}
	if byID.present {
		*field = byID.id
	}
}

// parseChatTemplate accepts either a bare Jinja2 string, or the multi-prompt
// array form ([{"name": "...", "template": "..."}, ...]), picking the entry
// named "default" or, failing that, the first entry.
func parseChatTemplate(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var list []struct {
		Name     string `json:"name"`
		Template string `json:"template"`
	}
	if err := json.Unmarshal(raw, &list); err == nil {
		for _, e := range list {
			if e.Name == "default" {
				return e.Template
			}
		}
		if len(list) > 0 {
			return list[0].Template
		}
	}

	return ""
}
