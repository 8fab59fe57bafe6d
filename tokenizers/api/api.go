// Package api defines the capability interfaces shared by the tokenizer
// backends: encoding text to integer ids, decoding ids back to text, and
// mapping special tokens to their ids. The estimator layer (package hf)
// programs against these interfaces so that trainable and pretrained
// backends are interchangeable.
package api

// Tokenizer converts text to a sequence of integer ids and back.
//
// It also maps special tokens: tokens with a common semantic (like padding)
// that may resolve to different ids for different tokenizers.
type Tokenizer interface {
	Encode(text string) []int
	Decode(ids []int) string

	// SpecialTokenID returns the id for the given special token if
	// registered, or an error if not.
	SpecialTokenID(token SpecialToken) (int, error)
}

// Vocabulary is implemented by backends that can enumerate their vocabulary.
// Backends without an enumerable vocabulary (e.g. sentencepiece models) only
// implement Tokenizer.
type Vocabulary interface {
	// Vocab returns the token -> id mapping, including added special tokens.
	Vocab() map[string]int
	// VocabSize returns the number of entries in the vocabulary.
	VocabSize() int
}

// SpecialToken is an enum of commonly used special tokens.
type SpecialToken int

const (
	TokBeginningOfSentence SpecialToken = iota
	TokEndOfSentence
	TokUnknown
	TokPad
	TokMask
	TokClassification
	TokSeparator
	TokSpecialTokensCount
)

var specialTokenNames = [TokSpecialTokensCount]string{
	"beginning_of_sentence",
	"end_of_sentence",
	"unknown",
	"pad",
	"mask",
	"classification",
	"separator",
}

func (s SpecialToken) String() string {
	if s < 0 || s >= TokSpecialTokensCount {
		return "invalid"
	}
	return specialTokenNames[s]
}

// Config carries the textual form of the special tokens a model uses.
// Any field left empty falls back to the backend's own defaults.
type Config struct {
	UnkToken  string
	PadToken  string
	BosToken  string
	EosToken  string
	ClsToken  string
	SepToken  string
	MaskToken string
}
