// Package hf provides scikit-learn-style transformers around text
// tokenizers: Fit builds or loads a vocabulary, Transform encodes documents
// into tensor-ready batches of token ids, and InverseTransform decodes id
// rows back to (approximate) text.
//
// Two transformers are provided: Tokenizer trains a subword vocabulary from
// the corpus it is fitted on, and PretrainedTokenizer loads a published
// tokenizer from the HuggingFace Hub or a local file. Both delegate the
// actual tokenization to the backends in the tokenizers/ packages.
package hf

import (
	"sort"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/terminator-ger/skorch/tokenizers/api"
	"github.com/terminator-ger/skorch/tokenizers/hftokenizer"
)

// Tokenizer is a transformer that trains a tokenizer on the corpus passed to
// Fit. The exported fields are its parameters; change them only between
// Fit/Transform cycles.
//
// After a successful Fit the trained vocabulary replaces any previous one
// wholesale; there is no incremental update.
type Tokenizer struct {
	// Tokenizer is the untrained engine template: its model type and
	// unknown token carry over into the trained tokenizer. Fit copies the
	// template, so the same template can serve several transformers.
	Tokenizer *hftokenizer.Tokenizer

	// Trainer builds the vocabulary. Nil is an error at Fit time: a
	// transformer restored with Load has no trainer and cannot be refitted.
	Trainer hftokenizer.Trainer

	// Optional pipeline overrides applied to the engine copy before
	// training. Nil fields leave the template's pipeline untouched.
	Normalizer    *hftokenizer.Normalizer
	PreTokenizer  *hftokenizer.PreTokenizer
	PostProcessor *hftokenizer.PostProcessor
	Decoder       *hftokenizer.Decoder

	// MaxLength is the row width of fixed-shape output. Ignored by the
	// lists format.
	MaxLength int

	// Format selects the output container: ragged lists, gonum matrix or
	// gomlx tensor.
	Format Format

	// Field toggles. Transform always emits input_ids.
	ReturnAttentionMask bool
	ReturnTokenTypeIDs  bool
	ReturnLength        bool

	// PadToken is appended to the vocabulary after training and used to
	// right-pad fixed-shape rows.
	PadToken string

	fitted     *hftokenizer.Tokenizer
	vocabulary map[string]int
}

// NewTokenizer creates a trainable tokenizer transformer with the default
// parameters: tensor output, rows of 256, attention mask on, pad token
// "[PAD]".
func NewTokenizer(engine *hftokenizer.Tokenizer, trainer hftokenizer.Trainer) *Tokenizer {
	return &Tokenizer{
		Tokenizer:           engine,
		Trainer:             trainer,
		MaxLength:           256,
		Format:              FormatTensor,
		ReturnAttentionMask: true,
		PadToken:            "[PAD]",
	}
}

// Fit trains the tokenizer on the given corpus. raw must be an iterable of
// documents (see collectDocuments); a bare string is rejected.
func (t *Tokenizer) Fit(raw any) error {
	docs, err := collectDocuments(raw)
	if err != nil {
		return err
	}
	if t.Trainer == nil {
		return errors.New("tried to fit Tokenizer but trainer is nil")
	}
	if t.Tokenizer == nil {
		return errors.New("tried to fit Tokenizer but no engine template is set")
	}

	engine, err := t.Tokenizer.Clone()
	if err != nil {
		return errors.WithMessage(err, "failed to copy the engine template")
	}
	if t.Normalizer != nil {
		engine.WithNormalizer(t.Normalizer)
	}
	if t.PreTokenizer != nil {
		engine.WithPreTokenizer(t.PreTokenizer)
	}
	if t.PostProcessor != nil {
		engine.WithPostProcessor(t.PostProcessor)
	}
	if t.Decoder != nil {
		engine.WithDecoder(t.Decoder)
	}

	if err := engine.Train(docs, t.Trainer); err != nil {
		return err
	}
	if t.PadToken != "" {
		engine.AddSpecialTokens(t.PadToken)
	}

	t.fitted = engine
	t.vocabulary = engine.Vocab()
	klog.V(1).Infof("fitted tokenizer on %d documents, vocabulary size %d", len(docs), len(t.vocabulary))
	return nil
}

// Transform encodes the corpus into the configured output fields. The
// tokenizer must have been fitted.
func (t *Tokenizer) Transform(raw any) (*Encoded, error) {
	if t.fitted == nil {
		return nil, errors.New("Tokenizer is not fitted, call Fit before Transform")
	}
	docs, err := collectDocuments(raw)
	if err != nil {
		return nil, err
	}
	return transformDocuments(t.fitted, docs, transformOptions{
		MaxLength:           t.MaxLength,
		Format:              t.Format,
		ReturnAttentionMask: t.ReturnAttentionMask,
		ReturnTokenTypeIDs:  t.ReturnTokenTypeIDs,
		ReturnLength:        t.ReturnLength,
		PadToken:            t.PadToken,
	})
}

// InverseTransform decodes the batch's input_ids rows back to text, skipping
// special tokens. The round trip is approximate: normalization and subword
// segmentation are lossy.
func (t *Tokenizer) InverseTransform(batch *Encoded) ([]string, error) {
	if t.fitted == nil {
		return nil, errors.New("Tokenizer is not fitted, call Fit before InverseTransform")
	}
	return decodeBatch(t.fitted, batch)
}

// GetFeatureNames returns the vocabulary tokens ordered by id.
func (t *Tokenizer) GetFeatureNames() ([]string, error) {
	if t.vocabulary == nil {
		return nil, errors.New("Tokenizer is not fitted, call Fit before GetFeatureNames")
	}
	return featureNames(t.vocabulary), nil
}

// Vocabulary returns the trained token -> id mapping, or nil before Fit.
func (t *Tokenizer) Vocabulary() map[string]int { return t.vocabulary }

// Fitted exposes the trained engine, or nil before Fit.
func (t *Tokenizer) Fitted() *hftokenizer.Tokenizer { return t.fitted }

// transformOptions carries the per-call encoding configuration shared by the
// trainable and pretrained transformers.
type transformOptions struct {
	MaxLength           int
	Format              Format
	ReturnAttentionMask bool
	ReturnTokenTypeIDs  bool
	ReturnLength        bool
	PadToken            string
}

// fullEncoder is implemented by backends that run a complete encoding
// pipeline (special token insertion, type ids, masks).
type fullEncoder interface {
	EncodeFull(text string) (*hftokenizer.Encoding, error)
}

// tokenIndex is implemented by backends that can map between tokens and ids.
type tokenIndex interface {
	TokenToID(token string) (int, bool)
	IDToToken(id int) (string, bool)
}

func encodeDocument(tok api.Tokenizer, doc string) (*hftokenizer.Encoding, error) {
	if fe, ok := tok.(fullEncoder); ok {
		return fe.EncodeFull(doc)
	}
	ids := tok.Encode(doc)
	enc := &hftokenizer.Encoding{
		IDs:           ids,
		TypeIDs:       make([]int, len(ids)),
		AttentionMask: make([]int, len(ids)),
		SpecialMask:   make([]int, len(ids)),
	}
	for i := range enc.AttentionMask {
		enc.AttentionMask[i] = 1
	}
	return enc, nil
}

// resolvePadID finds the id rows are padded with: the configured pad token
// when the backend can look it up, else the backend's own pad token.
func resolvePadID(tok api.Tokenizer, padToken string) (int, error) {
	if padToken != "" {
		if idx, ok := tok.(tokenIndex); ok {
			if id, ok := idx.TokenToID(padToken); ok {
				return id, nil
			}
		}
	}
	if id, err := tok.SpecialTokenID(api.TokPad); err == nil {
		return id, nil
	}
	return 0, errors.Errorf("no pad token available: %q is not in the vocabulary and the tokenizer defines no pad token", padToken)
}

func transformDocuments(tok api.Tokenizer, docs []string, opts transformOptions) (*Encoded, error) {
	fixed := opts.Format != FormatLists

	padID := 0
	padToken := opts.PadToken
	if fixed {
		id, err := resolvePadID(tok, opts.PadToken)
		if err != nil {
			return nil, err
		}
		padID = id
		if padToken == "" {
			if idx, ok := tok.(tokenIndex); ok {
				padToken, _ = idx.IDToToken(padID)
			}
		}
	}

	idRows := make([][]int, len(docs))
	maskRows := make([][]int, len(docs))
	typeRows := make([][]int, len(docs))
	lengthRows := make([][]int, len(docs))
	for i, doc := range docs {
		enc, err := encodeDocument(tok, doc)
		if err != nil {
			return nil, errors.WithMessagef(err, "encoding document %d", i)
		}
		if fixed {
			enc.Truncate(opts.MaxLength)
			enc.Pad(&hftokenizer.PaddingParams{Length: opts.MaxLength, PadID: padID, PadToken: padToken})
		}

		idRows[i] = enc.IDs
		maskRows[i] = enc.AttentionMask
		typeRows[i] = enc.TypeIDs
		content := 0
		for _, m := range enc.AttentionMask {
			content += m
		}
		lengthRows[i] = []int{content}
	}

	out := newEncoded(opts.Format)
	out.setField(FieldInputIDs, idRows)
	if opts.ReturnAttentionMask {
		out.setField(FieldAttentionMask, maskRows)
	}
	if opts.ReturnTokenTypeIDs {
		out.setField(FieldTokenTypeIDs, typeRows)
	}
	if opts.ReturnLength {
		out.setField(FieldLength, lengthRows)
	}
	return out, nil
}

// specialSkippingDecoder is implemented by backends that can drop special
// tokens while decoding.
type specialSkippingDecoder interface {
	DecodeWithOptions(ids []int, skipSpecial bool) string
}

func decodeBatch(tok api.Tokenizer, batch *Encoded) ([]string, error) {
	rows, err := batch.Rows(FieldInputIDs)
	if err != nil {
		return nil, err
	}
	texts := make([]string, len(rows))
	for i, ids := range rows {
		if sd, ok := tok.(specialSkippingDecoder); ok {
			texts[i] = sd.DecodeWithOptions(ids, true)
		} else {
			texts[i] = tok.Decode(ids)
		}
	}
	return texts, nil
}

func featureNames(vocab map[string]int) []string {
	names := make([]string, 0, len(vocab))
	for token := range vocab {
		names = append(names, token)
	}
	sort.Slice(names, func(i, j int) bool { return vocab[names[i]] < vocab[names[j]] })
	return names
}
