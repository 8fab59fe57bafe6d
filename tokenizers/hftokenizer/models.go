package hftokenizer

import "strings"

// Constructors for untrained tokenizers. They produce a Tokenizer with an
// empty vocabulary of the given model type; call Train to build the
// vocabulary before encoding.

// NewBPE returns an untrained byte-pair-encoding tokenizer.
func NewBPE(unkToken string) *Tokenizer {
	return newEmpty(Model{Type: "BPE", Vocab: map[string]int{}, UnkToken: unkToken})
}

// NewWordLevel returns an untrained whole-word tokenizer.
func NewWordLevel(unkToken string) *Tokenizer {
	return newEmpty(Model{Type: "WordLevel", Vocab: map[string]int{}, UnkToken: unkToken})
}

// NewWordPiece returns an untrained WordPiece (BERT-style) tokenizer.
func NewWordPiece(unkToken string) *Tokenizer {
	return newEmpty(Model{
		Type:                    "WordPiece",
		Vocab:                   map[string]int{},
		UnkToken:                unkToken,
		ContinuingSubwordPrefix: "##",
		MaxInputCharsPerWord:    100,
	})
}

// NewUnigram returns an untrained unigram tokenizer.
func NewUnigram() *Tokenizer {
	return newEmpty(Model{Type: "Unigram", Vocab: map[string]int{}})
}

func newEmpty(model Model) *Tokenizer {
	t := &Tokenizer{
		def: &TokenizerJSON{Version: "1.0", Model: model},
	}
	t.rebuild()
	return t
}

// tokenizeWord tokenizes a single pre-tokenized word according to the model
// type, returning token ids.
func (t *Tokenizer) tokenizeWord(word string) []int {
	// Added tokens bypass the model.
	if id, ok := t.addedTokens[word]; ok {
		return []int{id}
	}

	switch t.def.Model.Type {
	case "WordPiece":
		return t.wordPieceTokenize(word)
	case "BPE":
		return t.bpeTokenize(word)
	case "Unigram":
		return t.unigramTokenize(word)
	case "WordLevel":
		return t.wordLevelTokenize(word)
	default:
		if id, ok := t.def.Model.Vocab[word]; ok {
			return []int{id}
		}
		return t.unkOrNothing()
	}
}

func (t *Tokenizer) unkOrNothing() []int {
	if t.unkID >= 0 {
		return []int{t.unkID}
	}
	return nil
}

// wordLevelTokenize maps the whole word to a single id.
func (t *Tokenizer) wordLevelTokenize(word string) []int {
	if id, ok := t.def.Model.Vocab[word]; ok {
		return []int{id}
	}
	return t.unkOrNothing()
}

// wordPieceTokenize implements greedy longest-match-first WordPiece.
func (t *Tokenizer) wordPieceTokenize(word string) []int {
	if word == "" {
		return nil
	}

	maxChars := t.def.Model.MaxInputCharsPerWord
	if maxChars == 0 {
		maxChars = 100
	}
	if len(word) > maxChars {
		return t.unkOrNothing()
	}

	prefix := t.def.Model.ContinuingSubwordPrefix
	if prefix == "" {
		prefix = "##"
	}

	var tokens []int
	start := 0
	for start < len(word) {
		end := len(word)
		found := false

		for start < end {
			substr := word[start:end]
			if start > 0 {
				substr = prefix + substr
			}
			if id, ok := t.def.Model.Vocab[substr]; ok {
				tokens = append(tokens, id)
				found = true
				break
			}
			end--
		}

		if !found {
			// One unmatchable span makes the whole word unknown.
			return t.unkOrNothing()
		}
		start = end
	}
	return tokens
}

// bpeTokenize applies the learned merges to the word's initial symbols.
func (t *Tokenizer) bpeTokenize(word string) []int {
	if word == "" {
		return nil
	}

	symbols := t.initialBPESymbols(word)
	if len(symbols) == 1 {
		if id, ok := t.def.Model.Vocab[symbols[0]]; ok {
			return []int{id}
		}
	}

	for len(symbols) > 1 {
		bestRank := -1
		bestIdx := -1
		for i := 0; i < len(symbols)-1; i++ {
			pair := symbols[i] + " " + symbols[i+1]
			if rank, ok := t.mergeRanks[pair]; ok {
				if bestRank == -1 || rank < bestRank {
					bestRank = rank
					bestIdx = i
				}
			}
		}
		if bestIdx == -1 {
			break
		}

		merged := symbols[bestIdx] + symbols[bestIdx+1]
		next := make([]string, 0, len(symbols)-1)
		next = append(next, symbols[:bestIdx]...)
		next = append(next, merged)
		next = append(next, symbols[bestIdx+2:]...)
		symbols = next
	}

	var ids []int
	for _, sym := range symbols {
		if id, ok := t.def.Model.Vocab[sym]; ok {
			ids = append(ids, id)
		} else if t.unkID >= 0 {
			ids = append(ids, t.unkID)
		}
	}
	return ids
}

func (t *Tokenizer) initialBPESymbols(word string) []string {
	var symbols []string
	for _, r := range word {
		symbols = append(symbols, string(r))
	}
	if t.def.Model.EndOfWordSuffix != "" && len(symbols) > 0 {
		symbols[len(symbols)-1] += t.def.Model.EndOfWordSuffix
	}
	return symbols
}

// unigramTokenize uses greedy longest-match. The reference implementation
// runs Viterbi over piece scores; greedy matching is a close approximation
// for vocabularies trained by UnigramTrainer.
func (t *Tokenizer) unigramTokenize(word string) []int {
	var ids []int
	runes := []rune(word)
	start := 0

	for start < len(runes) {
		end := len(runes)
		found := false

		for end > start {
			substr := string(runes[start:end])
			if id, ok := t.def.Model.Vocab[substr]; ok {
				ids = append(ids, id)
				found = true
				start = end
				break
			}
			end--
		}

		if !found {
			char := string(runes[start])
			if id, ok := t.def.Model.Vocab[char]; ok {
				ids = append(ids, id)
			} else if t.unkID >= 0 {
				ids = append(ids, t.unkID)
			}
			start++
		}
	}
	return ids
}

// ModelType returns the model type (WordPiece, BPE, WordLevel, Unigram).
func (t *Tokenizer) ModelType() string {
	return t.def.Model.Type
}

// trimEndOfWord strips the model's end-of-word suffix, reporting whether the
// token carried it.
func trimEndOfWord(token, suffix string) (string, bool) {
	if suffix != "" && strings.HasSuffix(token, suffix) {
		return strings.TrimSuffix(token, suffix), true
	}
	return token, false
}
