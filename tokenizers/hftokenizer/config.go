package hftokenizer

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// TokenizerJSON mirrors the structure of HuggingFace's tokenizer.json file.
// It is both the on-disk format and the in-memory pipeline definition: the
// Tokenizer walks these structures when encoding and decoding, and trained
// tokenizers are serialized back into this shape.
type TokenizerJSON struct {
	Version       string         `json:"version"`
	Truncation    *Truncation    `json:"truncation"`
	Padding       *Padding       `json:"padding"`
	AddedTokens   []AddedToken   `json:"added_tokens"`
	Normalizer    *Normalizer    `json:"normalizer"`
	PreTokenizer  *PreTokenizer  `json:"pre_tokenizer"`
	PostProcessor *PostProcessor `json:"post_processor"`
	Decoder       *Decoder       `json:"decoder"`
	Model         Model          `json:"model"`
}

// AddedToken represents a token added to the vocabulary outside of model
// training, typically a special token.
type AddedToken struct {
	ID         int    `json:"id"`
	Content    string `json:"content"`
	SingleWord bool   `json:"single_word"`
	Lstrip     bool   `json:"lstrip"`
	Rstrip     bool   `json:"rstrip"`
	Normalized bool   `json:"normalized"`
	Special    bool   `json:"special"`
}

// Normalizer is a normalizer definition. Which fields are meaningful depends
// on Type.
type Normalizer struct {
	Type        string       `json:"type"`
	Lowercase   bool         `json:"lowercase,omitempty"`
	Pattern     *Pattern     `json:"pattern,omitempty"`
	Normalizers []Normalizer `json:"normalizers,omitempty"`
}

// Pattern for regex- or literal-based operations.
type Pattern struct {
	Regex  string `json:"Regex,omitempty"`
	String string `json:"String,omitempty"`
}

// PreTokenizer is a pre-tokenizer definition.
type PreTokenizer struct {
	Type             string         `json:"type"`
	AddPrefixSpace   bool           `json:"add_prefix_space,omitempty"`
	IndividualDigits bool           `json:"individual_digits,omitempty"`
	PreTokenizers    []PreTokenizer `json:"pretokenizers,omitempty"`
	Pattern          *Pattern       `json:"pattern,omitempty"`
	Behavior         string         `json:"behavior,omitempty"`
	Invert           bool           `json:"invert,omitempty"`
}

// PostProcessor is a post-processor definition. TemplateProcessing uses
// Single/Pair/SpecialTokens; the other types carry no parameters we act on.
type PostProcessor struct {
	Type          string                          `json:"type"`
	Single        []PostProcItem                  `json:"single,omitempty"`
	Pair          []PostProcItem                  `json:"pair,omitempty"`
	SpecialTokens map[string]PostProcSpecialToken `json:"special_tokens,omitempty"`
}

// PostProcItem is a single piece of a processing template: either a sequence
// reference ($A / $B) or a special token.
type PostProcItem struct {
	SpecialToken *PostProcRef `json:"SpecialToken,omitempty"`
	Sequence     *PostProcRef `json:"Sequence,omitempty"`
}

// PostProcRef names a template piece and the type id its tokens receive.
type PostProcRef struct {
	ID     string `json:"id"`
	TypeID int    `json:"type_id"`
}

// PostProcSpecialToken declares a special token usable in a template.
type PostProcSpecialToken struct {
	ID     string   `json:"id"`
	IDs    []int    `json:"ids,omitempty"`
	Tokens []string `json:"tokens,omitempty"`
}

// Decoder is a decoder definition.
type Decoder struct {
	Type     string    `json:"type"`
	Prefix   string    `json:"prefix,omitempty"`
	Suffix   string    `json:"suffix,omitempty"`
	Decoders []Decoder `json:"decoders,omitempty"`
	Pattern  *Pattern  `json:"pattern,omitempty"`
	Content  string    `json:"content,omitempty"`
}

// Model is the tokenizer model: WordPiece, BPE, WordLevel or Unigram.
type Model struct {
	Type                    string         `json:"type"`
	Vocab                   map[string]int `json:"vocab"`
	Merges                  []string       `json:"merges,omitempty"`
	UnkToken                string         `json:"unk_token,omitempty"`
	ContinuingSubwordPrefix string         `json:"continuing_subword_prefix,omitempty"`
	MaxInputCharsPerWord    int            `json:"max_input_chars_per_word,omitempty"`
	FuseUnk                 bool           `json:"fuse_unk,omitempty"`
	ByteFallback            bool           `json:"byte_fallback,omitempty"`
	Dropout                 *float64       `json:"dropout,omitempty"`
	EndOfWordSuffix         string         `json:"end_of_word_suffix,omitempty"`
}

// Truncation is the serialized form of TruncationParams.
type Truncation struct {
	MaxLength int    `json:"max_length"`
	Strategy  string `json:"strategy,omitempty"`
}

// Padding is the serialized form of PaddingParams.
type Padding struct {
	Length    int    `json:"length"`
	PadID     int    `json:"pad_id"`
	PadTypeID int    `json:"pad_type_id"`
	PadToken  string `json:"pad_token"`
}

func parseTokenizerJSON(content []byte) (*TokenizerJSON, error) {
	var tj TokenizerJSON
	if err := json.Unmarshal(content, &tj); err != nil {
		return nil, errors.Wrapf(err, "failed to parse tokenizer.json")
	}
	return &tj, nil
}
