package tokenizer

import "encoding/json"

// patternSpec decodes a Split/Replace pattern field, which appears in
// tokenizer.json either as a bare string or as an object tagging it
// explicitly ({"Regex": "..."} or {"String": "..."}).
type patternSpec struct {
	pattern string
}

func (p *patternSpec) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		p.pattern = s
		return nil
	}

	var obj struct {
		Regex  string `json:"Regex"`
		String string `json:"String"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	if obj.Regex != "" {
		p.pattern = obj.Regex
	} else {
		p.pattern = obj.String
	}
	return nil
}

// mergeList decodes a BPE merges array, accepting either the classic
// "left right" string form or the two-element-array form.
type mergeList []string

func (m *mergeList) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	out := make([]string, 0, len(raw))
	for _, r := range raw {
		var s string
		if err := json.Unmarshal(r, &s); err == nil {
			out = append(out, s)
			continue
		}

		var pair [2]string
		if err := json.Unmarshal(r, &pair); err == nil {
			out = append(out, pair[0]+" "+pair[1])
			continue
		}

		return errInvalidMergeEntry
	}

	*m = out
	return nil
}

// tokenRef decodes a bos/eos/pad/unk token field, which appears either as a
// bare string or as an added-token object carrying at least a content field.
type tokenRef struct {
	content string
	present bool
}

func (t *tokenRef) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		t.content, t.present = s, true
		return nil
	}

	var obj struct {
		Content string `json:"content"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	t.content, t.present = obj.Content, obj.Content != ""
	return nil
}

// tokenIDRef decodes a *_token_id field as found in generation_config.json,
// which may be a bare integer or a list of integers (the first is used).
type tokenIDRef struct {
	id      int32
	present bool
}

func (t *tokenIDRef) UnmarshalJSON(data []byte) error {
	var n int64
	if err := json.Unmarshal(data, &n); err == nil {
		t.id, t.present = int32(n), true
		return nil
	}

	var list []int64
	if err := json.Unmarshal(data, &list); err == nil && len(list) > 0 {
		t.id, t.present = int32(list[0]), true
		return nil
	}

	return nil
}
