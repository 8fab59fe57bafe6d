// Package hftokenizer implements a tokenizer for HuggingFace's tokenizer.json
// format. It supports the WordPiece (BERT), BPE (GPT-2, RoBERTa), WordLevel
// and Unigram models, can be loaded from a tokenizer.json file or trained
// from a corpus, and serializes back to the same format.
package hftokenizer

import (
	"encoding/json"
	"os"
	"sort"

	"github.com/pkg/errors"

	"github.com/terminator-ger/skorch/hub"
	"github.com/terminator-ger/skorch/tokenizers/api"
)

// Tokenizer implements the api.Tokenizer interface for HuggingFace
// tokenizer.json definitions, trained or loaded.
type Tokenizer struct {
	config *api.Config
	def    *TokenizerJSON

	idToToken   map[int]string
	mergeRanks  map[string]int // BPE: "left right" -> merge priority
	addedTokens map[string]int
	specialIDs  map[int]bool

	unkID  int
	padID  int
	bosID  int
	eosID  int
	clsID  int
	sepID  int
	maskID int

	truncation *TruncationParams
	padding    *PaddingParams
}

// Compile time assert that Tokenizer implements the api interfaces.
var _ api.Tokenizer = &Tokenizer{}
var _ api.Vocabulary = &Tokenizer{}

// New creates a tokenizer from the repo's tokenizer.json file, downloading
// it if needed. It implements the tokenizer constructor signature used by
// the pretrained transformer.
func New(config *api.Config, repo *hub.Repo) (*Tokenizer, error) {
	if !repo.HasFile("tokenizer.json") {
		return nil, errors.Errorf("\"tokenizer.json\" file not found in repo %q", repo.ID)
	}
	tokenizerFile, err := repo.DownloadFile("tokenizer.json")
	if err != nil {
		return nil, errors.Wrapf(err, "can't download tokenizer.json file")
	}
	return NewFromFile(config, tokenizerFile)
}

// NewFromFile creates a tokenizer from a local tokenizer.json file path.
func NewFromFile(config *api.Config, filePath string) (*Tokenizer, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read tokenizer.json file %q", filePath)
	}
	return NewFromContent(config, content)
}

// NewFromContent creates a tokenizer from tokenizer.json content.
func NewFromContent(config *api.Config, content []byte) (*Tokenizer, error) {
	tj, err := parseTokenizerJSON(content)
	if err != nil {
		return nil, err
	}
	t := &Tokenizer{config: config, def: tj}
	t.rebuild()
	if tj.Truncation != nil {
		t.truncation = &TruncationParams{MaxLength: tj.Truncation.MaxLength}
	}
	if tj.Padding != nil {
		t.padding = &PaddingParams{
			Length:    tj.Padding.Length,
			PadID:     tj.Padding.PadID,
			PadTypeID: tj.Padding.PadTypeID,
			PadToken:  tj.Padding.PadToken,
		}
	}
	return t, nil
}

// rebuild derives the lookup tables from the definition. Must be called
// after every change to def (loading, training, adding tokens).
func (t *Tokenizer) rebuild() {
	t.idToToken = make(map[int]string, len(t.def.Model.Vocab))
	for token, id := range t.def.Model.Vocab {
		t.idToToken[id] = token
	}

	t.addedTokens = make(map[string]int, len(t.def.AddedTokens))
	t.specialIDs = make(map[int]bool)
	for _, at := range t.def.AddedTokens {
		t.addedTokens[at.Content] = at.ID
		t.idToToken[at.ID] = at.Content
		if at.Special {
			t.specialIDs[at.ID] = true
		}
	}

	t.mergeRanks = nil
	if t.def.Model.Type == "BPE" {
		t.mergeRanks = make(map[string]int, len(t.def.Model.Merges))
		for i, merge := range t.def.Model.Merges {
			t.mergeRanks[merge] = i
		}
	}

	t.resolveSpecialTokens()
}

// resolveSpecialTokens maps special tokens from the model, the added tokens
// and the config to their ids.
func (t *Tokenizer) resolveSpecialTokens() {
	t.unkID, t.padID, t.bosID, t.eosID, t.clsID, t.sepID, t.maskID = -1, -1, -1, -1, -1, -1, -1

	if unk := t.def.Model.UnkToken; unk != "" {
		if id, ok := t.def.Model.Vocab[unk]; ok {
			t.unkID = id
		}
	}

	for _, at := range t.def.AddedTokens {
		if !at.Special {
			continue
		}
		switch at.Content {
		case "[UNK]", "<unk>":
			t.unkID = at.ID
		case "[PAD]", "<pad>":
			t.padID = at.ID
		case "[CLS]", "<s>":
			t.clsID = at.ID
		case "[SEP]", "</s>":
			t.sepID = at.ID
		case "[MASK]", "<mask>":
			t.maskID = at.ID
		}
		if t.config != nil {
			if at.Content == t.config.BosToken {
				t.bosID = at.ID
			}
			if at.Content == t.config.EosToken {
				t.eosID = at.ID
			}
		}
	}

	if t.config == nil {
		return
	}
	resolve := func(current *int, token string) {
		if *current != -1 || token == "" {
			return
		}
		if id, ok := t.TokenToID(token); ok {
			*current = id
		}
	}
	resolve(&t.unkID, t.config.UnkToken)
	resolve(&t.padID, t.config.PadToken)
	resolve(&t.clsID, t.config.ClsToken)
	resolve(&t.sepID, t.config.SepToken)
	resolve(&t.maskID, t.config.MaskToken)
	resolve(&t.bosID, t.config.BosToken)
	resolve(&t.eosID, t.config.EosToken)
}

// Pipeline configuration. These mutate the definition and return the
// tokenizer for chaining.

// WithNormalizer sets the normalizer.
func (t *Tokenizer) WithNormalizer(n *Normalizer) *Tokenizer {
	t.def.Normalizer = n
	return t
}

// WithPreTokenizer sets the pre-tokenizer.
func (t *Tokenizer) WithPreTokenizer(pt *PreTokenizer) *Tokenizer {
	t.def.PreTokenizer = pt
	return t
}

// WithPostProcessor sets the post-processor.
func (t *Tokenizer) WithPostProcessor(pp *PostProcessor) *Tokenizer {
	t.def.PostProcessor = pp
	return t
}

// WithDecoder sets the decoder.
func (t *Tokenizer) WithDecoder(d *Decoder) *Tokenizer {
	t.def.Decoder = d
	return t
}

// Encode converts text to a sequence of token ids, without post-processing,
// truncation or padding. It implements api.Tokenizer.
func (t *Tokenizer) Encode(text string) []int {
	ids, _ := t.encodeCore(text)
	return ids
}

// encodeCore runs normalization, pre-tokenization and the model.
func (t *Tokenizer) encodeCore(text string) ([]int, []string) {
	normalized := t.normalize(text)
	words := t.preTokenize(normalized)

	var ids []int
	for _, word := range words {
		ids = append(ids, t.tokenizeWord(word)...)
	}

	tokens := make([]string, len(ids))
	for i, id := range ids {
		tokens[i] = t.idToToken[id]
	}
	return ids, tokens
}

// EncodeFull runs the complete pipeline: model encoding, post-processing
// (special token insertion, type ids), then the configured truncation and
// padding.
func (t *Tokenizer) EncodeFull(text string) (*Encoding, error) {
	ids, tokens := t.encodeCore(text)
	enc := &Encoding{
		IDs:         ids,
		Tokens:      tokens,
		TypeIDs:     make([]int, len(ids)),
		SpecialMask: make([]int, len(ids)),
	}

	enc, err := t.postProcess(enc)
	if err != nil {
		return nil, err
	}
	if t.truncation != nil {
		enc.Truncate(t.truncation.MaxLength)
	}
	enc.AttentionMask = make([]int, enc.Len())
	for i := range enc.AttentionMask {
		enc.AttentionMask[i] = 1
	}
	if t.padding != nil {
		enc.Pad(t.padding)
	}
	return enc, nil
}

// EncodeBatch encodes each text with EncodeFull.
func (t *Tokenizer) EncodeBatch(texts []string) ([]*Encoding, error) {
	encodings := make([]*Encoding, len(texts))
	for i, text := range texts {
		enc, err := t.EncodeFull(text)
		if err != nil {
			return nil, errors.WithMessagef(err, "encoding document %d", i)
		}
		encodings[i] = enc
	}
	return encodings, nil
}

// SpecialTokenID returns the id for a given special token.
func (t *Tokenizer) SpecialTokenID(token api.SpecialToken) (int, error) {
	switch token {
	case api.TokUnknown:
		if t.unkID >= 0 {
			return t.unkID, nil
		}
	case api.TokPad:
		if t.padID >= 0 {
			return t.padID, nil
		}
	case api.TokBeginningOfSentence:
		if t.bosID >= 0 {
			return t.bosID, nil
		}
		if t.clsID >= 0 {
			return t.clsID, nil
		}
	case api.TokEndOfSentence:
		if t.eosID >= 0 {
			return t.eosID, nil
		}
		if t.sepID >= 0 {
			return t.sepID, nil
		}
	case api.TokMask:
		if t.maskID >= 0 {
			return t.maskID, nil
		}
	case api.TokClassification:
		if t.clsID >= 0 {
			return t.clsID, nil
		}
	case api.TokSeparator:
		if t.sepID >= 0 {
			return t.sepID, nil
		}
	}
	return 0, errors.Errorf("special token %s not found", token)
}

// VocabSize returns the number of vocabulary entries, counting added tokens
// that are not part of the model vocabulary.
func (t *Tokenizer) VocabSize() int {
	size := len(t.def.Model.Vocab)
	for _, at := range t.def.AddedTokens {
		if _, ok := t.def.Model.Vocab[at.Content]; !ok {
			size++
		}
	}
	return size
}

// Vocab returns the full token -> id mapping including added tokens.
func (t *Tokenizer) Vocab() map[string]int {
	vocab := make(map[string]int, len(t.def.Model.Vocab)+len(t.def.AddedTokens))
	for k, v := range t.def.Model.Vocab {
		vocab[k] = v
	}
	for _, at := range t.def.AddedTokens {
		vocab[at.Content] = at.ID
	}
	return vocab
}

// TokenToID converts a token string to its id.
func (t *Tokenizer) TokenToID(token string) (int, bool) {
	if id, ok := t.addedTokens[token]; ok {
		return id, true
	}
	id, ok := t.def.Model.Vocab[token]
	return id, ok
}

// IDToToken converts a token id to its string.
func (t *Tokenizer) IDToToken(id int) (string, bool) {
	token, ok := t.idToToken[id]
	return token, ok
}

// AddedTokensList returns the added tokens sorted by id.
func (t *Tokenizer) AddedTokensList() []AddedToken {
	result := make([]AddedToken, len(t.def.AddedTokens))
	copy(result, t.def.AddedTokens)
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// AddSpecialTokens appends the given tokens as special vocabulary entries,
// assigning fresh ids to tokens not already known. It returns the number of
// tokens actually added.
func (t *Tokenizer) AddSpecialTokens(tokens ...string) int {
	added := 0
	for _, token := range tokens {
		if _, ok := t.TokenToID(token); ok {
			continue
		}
		id := t.nextID()
		t.def.AddedTokens = append(t.def.AddedTokens, AddedToken{
			ID:      id,
			Content: token,
			Special: true,
		})
		added++
		// Keep lookups current so subsequent ids don't collide.
		t.addedTokens[token] = id
		t.idToToken[id] = token
		t.specialIDs[id] = true
	}
	if added > 0 {
		t.resolveSpecialTokens()
	}
	return added
}

func (t *Tokenizer) nextID() int {
	next := 0
	for id := range t.idToToken {
		if id >= next {
			next = id + 1
		}
	}
	return next
}

// MarshalJSON serializes the tokenizer definition in tokenizer.json format.
func (t *Tokenizer) MarshalJSON() ([]byte, error) {
	def := *t.def
	if t.truncation != nil {
		def.Truncation = &Truncation{MaxLength: t.truncation.MaxLength}
	}
	if t.padding != nil {
		def.Padding = &Padding{
			Length:    t.padding.Length,
			PadID:     t.padding.PadID,
			PadTypeID: t.padding.PadTypeID,
			PadToken:  t.padding.PadToken,
		}
	}
	return json.Marshal(&def)
}

// Save writes the tokenizer definition to path in tokenizer.json format.
func (t *Tokenizer) Save(path string) error {
	content, err := t.MarshalJSON()
	if err != nil {
		return errors.Wrap(err, "failed to serialize tokenizer")
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return errors.Wrapf(err, "failed to write tokenizer file %q", path)
	}
	return nil
}

// Clone returns an independent copy of the tokenizer via a serialization
// round-trip.
func (t *Tokenizer) Clone() (*Tokenizer, error) {
	content, err := t.MarshalJSON()
	if err != nil {
		return nil, errors.Wrap(err, "failed to serialize tokenizer for cloning")
	}
	var configCopy *api.Config
	if t.config != nil {
		c := *t.config
		configCopy = &c
	}
	return NewFromContent(configCopy, content)
}
