package model

// WordPiece implements greedy longest-prefix-match subword tokenization,
// with continuation pieces marked by a prefix (conventionally "##"), the
// convention the HuggingFace tokenizers library itself uses.
type WordPiece struct {
	vocab                   *Vocab
	unkToken                string
	continuingSubwordPrefix string
	maxInputCharsPerWord    int

	unkID int32
}

func NewWordPiece(vocab *Vocab, unkToken, continuingSubwordPrefix string, maxInputCharsPerWord int) *WordPiece {
	if maxInputCharsPerWord <= 0 {
		maxInputCharsPerWord = 100
	}
	if continuingSubwordPrefix == "" {
		continuingSubwordPrefix = "##"
	}

	return &WordPiece{
		vocab:                   vocab,
		unkToken:                unkToken,
		continuingSubwordPrefix: continuingSubwordPrefix,
		maxInputCharsPerWord:    maxInputCharsPerWord,
		unkID:                   vocab.Encode(unkToken),
	}
}

func (w *WordPiece) VocabSize() int { return w.vocab.Len() }

func (w *WordPiece) TokenToID(s string) (int32, bool) {
	if id := w.vocab.Encode(s); id >= 0 {
		return id, true
	}
	return -1, false
}

func (w *WordPiece) IDToToken(id int32) (string, bool) {
	if id < 0 || int(id) >= w.vocab.Len() {
		return "", false
	}
	return w.vocab.Decode(id), true
}

// Tokenize greedily matches the longest prefix of fragment present in the
// vocabulary, prefixing every piece after the first with
// continuingSubwordPrefix. If no prefix ever matches, the whole fragment
// becomes a single unk token.
func (w *WordPiece) Tokenize(fragment string) []int32 {
	if len(fragment) > w.maxInputCharsPerWord {
		return []int32{w.unkID}
	}

	var ids []int32
	start := 0
	for start < len(fragment) {
		end := len(fragment)
		matchID := int32(-1)

		for end > start {
			piece := fragment[start:end]
			if start > 0 {
				piece = w.continuingSubwordPrefix + piece
			}

			if id := w.vocab.Encode(piece); id >= 0 {
				matchID = id
				break
			}
			end--
		}

		if matchID < 0 {
			return []int32{w.unkID}
		}

		ids = append(ids, matchID)
		start = end
	}

	return ids
}
