package tokenizer

import (
	"encoding/json"
	"fmt"
)

type stageHeader struct {
	Type string `json:"type"`
}

func stageType(raw json.RawMessage) (string, error) {
	var h stageHeader
	if err := json.Unmarshal(raw, &h); err != nil {
		return "", err
	}
	return h.Type, nil
}

func buildNormalizer(raw json.RawMessage) (Normalizer, error) {
	typ, err := stageType(raw)
	if err != nil {
		return nil, err
	}

	switch typ {
	case "NFKC", "NFKD":
		return NFKC(), nil

	case "Precompiled":
		return Precompiled(), nil

	case "Prepend":
		var s struct {
			Prepend string `json:"prepend"`
		}
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
		return Prepend(s.Prepend), nil

	case "Lowercase":
		return Lowercase(), nil

	case "StripAccents":
		return StripAccents(), nil

	case "Replace":
		var s struct {
			Pattern patternSpec `json:"pattern"`
			Content string      `json:"content"`
		}
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
		return Replace(s.Pattern.pattern, s.Content), nil

	case "BertNormalizer":
		var s struct {
			CleanText          bool  `json:"clean_text"`
			HandleChineseChars bool  `json:"handle_chinese_chars"`
			StripAccents       *bool `json:"strip_accents"`
			Lowercase          bool  `json:"lowercase"`
		}
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
		return NewBertNormalizer(s.CleanText, s.HandleChineseChars, s.StripAccents, s.Lowercase), nil

	case "Sequence":
		var s struct {
			Normalizers []json.RawMessage `json:"normalizers"`
		}
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
		stages := make([]Normalizer, 0, len(s.Normalizers))
		for _, child := range s.Normalizers {
			n, err := buildNormalizer(child)
			if err != nil {
				return nil, err
			}
			stages = append(stages, n)
		}
		return SequenceNormalizer(stages...), nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStageType, typ)
	}
}

func buildPreTokenizer(raw json.RawMessage) (PreTokenizer, error) {
	typ, err := stageType(raw)
	if err != nil {
		return nil, err
	}

	switch typ {
	case "Split":
		var s struct {
			Pattern  patternSpec `json:"pattern"`
			Behavior string      `json:"behavior"`
			Invert   bool        `json:"invert"`
		}
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
		return NewSplit(s.Pattern.pattern, s.Invert, splitBehaviorFromString(s.Behavior))

	case "ByteLevel":
		var s struct {
			UseRegex *bool `json:"use_regex"`
		}
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
		useRegex := true
		if s.UseRegex != nil {
			useRegex = *s.UseRegex
		}
		return NewByteLevel(useRegex), nil

	case "Digits":
		var s struct {
			IndividualDigits bool `json:"individual_digits"`
		}
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
		return NewDigits(s.IndividualDigits), nil

	case "Metaspace":
		var s struct {
			Replacement    string `json:"replacement"`
			AddPrefixSpace bool   `json:"add_prefix_space"`
		}
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
		return NewMetaspace(s.Replacement, s.AddPrefixSpace), nil

	case "BertPreTokenizer":
		return NewBertPreTokenizer(), nil

	case "WhitespaceSplit":
		return WhitespaceSplit(), nil

	case "Sequence":
		var s struct {
			PreTokenizers []json.RawMessage `json:"pretokenizers"`
		}
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
		stages := make([]PreTokenizer, 0, len(s.PreTokenizers))
		for _, child := range s.PreTokenizers {
			p, err := buildPreTokenizer(child)
			if err != nil {
				return nil, err
			}
			stages = append(stages, p)
		}
		return SequencePreTokenizer(stages...), nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStageType, typ)
	}
}

func splitBehaviorFromString(s string) splitBehavior {
	if s == "Removed" {
		return SplitRemoved
	}
	return SplitIsolated
}

func buildDecoder(raw json.RawMessage) (Decoder, error) {
	typ, err := stageType(raw)
	if err != nil {
		return nil, err
	}

	switch typ {
	case "Replace":
		var s struct {
			Pattern patternSpec `json:"pattern"`
			Content string      `json:"content"`
		}
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
		return ReplaceDecoder(s.Pattern.pattern, s.Content), nil

	case "ByteFallback":
		return ByteFallbackDecoder(), nil

	case "ByteLevel":
		return ByteLevelDecoder(), nil

	case "Fuse":
		return FuseDecoder(), nil

	case "Strip":
		var s struct {
			Content string `json:"content"`
			Start   int    `json:"start"`
			Stop    int    `json:"stop"`
		}
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
		return StripDecoder(s.Content, s.Start, s.Stop), nil

	case "WordPiece":
		var s struct {
			Prefix  string `json:"prefix"`
			Cleanup bool   `json:"cleanup"`
		}
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
		return WordPieceDecoder(s.Prefix, s.Cleanup), nil

	case "Metaspace":
		var s struct {
			Replacement    string `json:"replacement"`
			AddPrefixSpace bool   `json:"add_prefix_space"`
		}
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
		return MetaspaceDecoder(s.Replacement, s.AddPrefixSpace), nil

	case "Sequence":
		var s struct {
			Decoders []json.RawMessage `json:"decoders"`
		}
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
		stages := make([]Decoder, 0, len(s.Decoders))
		for _, child := range s.Decoders {
			d, err := buildDecoder(child)
			if err != nil {
				return nil, err
			}
			stages = append(stages, d)
		}
		return SequenceDecoder(stages...), nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStageType, typ)
	}
}

// templateStepRaw decodes one TemplateProcessing step, which is an object
// carrying exactly one of "SpecialToken" or "Sequence".
type templateStepRaw struct {
	SpecialToken *struct {
		ID string `json:"id"`
	} `json:"SpecialToken"`
	Sequence *struct {
		ID string `json:"id"`
	} `json:"Sequence"`
}

func buildPostProcessor(raw json.RawMessage, resolveSpecial func(name string) int32) (PostProcessor, error) {
	typ, err := stageType(raw)
	if err != nil {
		return nil, err
	}

	switch typ {
	case "TemplateProcessing":
		var s struct {
			Single []templateStepRaw `json:"single"`
		}
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, err
		}

		steps := make([]TemplateStep, 0, len(s.Single))
		for _, step := range s.Single {
			switch {
			case step.Sequence != nil:
				steps = append(steps, TemplateStep{Sequence: true})
			case step.SpecialToken != nil:
				steps = append(steps, TemplateStep{SpecialID: resolveSpecial(step.SpecialToken.ID)})
			}
		}
		return &TemplateProcessing{Single: steps}, nil

	case "Sequence":
		var s struct {
			Processors []json.RawMessage `json:"processors"`
		}
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
		stages := make([]PostProcessor, 0, len(s.Processors))
		for _, child := range s.Processors {
			p, err := buildPostProcessor(child, resolveSpecial)
			if err != nil {
				return nil, err
			}
			stages = append(stages, p)
		}
		return SequencePostProcessor(stages...), nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStageType, typ)
	}
}
