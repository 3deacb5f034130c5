package tokenizer

import "errors"

var (
	ErrNoChatTemplate   = errors.New("tokenizer: no chat template configured")
	ErrUnknownModelType = errors.New("tokenizer: unrecognized model type")
	ErrInvalidTokenID   = errors.New("tokenizer: invalid token id")
	ErrUnknownStageType = errors.New("tokenizer: unrecognized pipeline stage type")

	errInvalidMergeEntry = errors.New("tokenizer: invalid merge entry")
)
