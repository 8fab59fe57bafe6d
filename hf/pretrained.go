package hf

import (
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/terminator-ger/skorch/hub"
	"github.com/terminator-ger/skorch/tokenizers/api"
	"github.com/terminator-ger/skorch/tokenizers/hftokenizer"
	"github.com/terminator-ger/skorch/tokenizers/sentencepiece"
)

// PretrainedTokenizer is a transformer backed by a published tokenizer. Fit
// loads the tokenizer from the HuggingFace Hub (or a local file) instead of
// training; the corpus argument is validated but otherwise unused.
type PretrainedTokenizer struct {
	// ModelID is the hub repository id, e.g. "bert-base-cased".
	ModelID string

	// File is a local tokenizer.json path, used instead of ModelID when
	// set. A transformer loaded this way cannot be cloned: there is no
	// model id for the clone to reload from.
	File string

	// Revision, CacheDir and AuthToken configure the hub download. Empty
	// values use the hub defaults.
	Revision  string
	CacheDir  string
	AuthToken string

	// Output configuration, matching Tokenizer's fields.
	MaxLength           int
	Format              Format
	ReturnAttentionMask bool
	ReturnTokenTypeIDs  bool
	ReturnLength        bool

	fitted api.Tokenizer
}

// NewPretrainedTokenizer creates a transformer loading the given hub model,
// with the same defaults as NewTokenizer.
func NewPretrainedTokenizer(modelID string) *PretrainedTokenizer {
	return &PretrainedTokenizer{
		ModelID:             modelID,
		MaxLength:           256,
		Format:              FormatTensor,
		ReturnAttentionMask: true,
	}
}

// NewPretrainedTokenizerFromFile creates a transformer loading a local
// tokenizer.json file.
func NewPretrainedTokenizerFromFile(path string) *PretrainedTokenizer {
	t := NewPretrainedTokenizer("")
	t.File = path
	return t
}

func (t *PretrainedTokenizer) repo() *hub.Repo {
	repo := hub.New(t.ModelID)
	if t.Revision != "" {
		repo = repo.WithRevision(t.Revision)
	}
	if t.CacheDir != "" {
		repo = repo.WithCacheDir(t.CacheDir)
	}
	if t.AuthToken != "" {
		repo = repo.WithAuth(t.AuthToken)
	}
	return repo
}

// Fit loads the pretrained tokenizer. raw is validated like Tokenizer.Fit
// (a bare string is rejected) but its documents are not used.
func (t *PretrainedTokenizer) Fit(raw any) error {
	if _, err := collectDocuments(raw); err != nil {
		return err
	}

	if t.File != "" {
		tok, err := hftokenizer.NewFromFile(nil, t.File)
		if err != nil {
			return err
		}
		t.fitted = tok
		return nil
	}
	if t.ModelID == "" {
		return errors.New("tried to fit PretrainedTokenizer but neither a model id nor a file is set")
	}

	repo := t.repo()
	switch {
	case repo.HasFile("tokenizer.json"):
		tok, err := hftokenizer.New(nil, repo)
		if err != nil {
			return err
		}
		t.fitted = tok
	case repo.HasFile("tokenizer.model"):
		tok, err := sentencepiece.New(nil, repo)
		if err != nil {
			return err
		}
		t.fitted = tok
	default:
		return errors.Errorf("repo %q provides neither tokenizer.json nor tokenizer.model", t.ModelID)
	}
	klog.V(1).Infof("loaded pretrained tokenizer from %q", t.ModelID)
	return nil
}

// Transform encodes the corpus into the configured output fields.
func (t *PretrainedTokenizer) Transform(raw any) (*Encoded, error) {
	if t.fitted == nil {
		return nil, errors.New("PretrainedTokenizer is not fitted, call Fit before Transform")
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
	})
}

// InverseTransform decodes the batch's input_ids rows back to text, skipping
// special tokens.
func (t *PretrainedTokenizer) InverseTransform(batch *Encoded) ([]string, error) {
	if t.fitted == nil {
		return nil, errors.New("PretrainedTokenizer is not fitted, call Fit before InverseTransform")
	}
	return decodeBatch(t.fitted, batch)
}

// GetFeatureNames returns the vocabulary tokens ordered by id. It errors for
// backends without an enumerable vocabulary (sentencepiece models).
func (t *PretrainedTokenizer) GetFeatureNames() ([]string, error) {
	vocab := t.Vocabulary()
	if vocab == nil {
		return nil, errors.New("the loaded tokenizer does not expose its vocabulary")
	}
	return featureNames(vocab), nil
}

// Vocabulary returns the token -> id mapping, or nil if the tokenizer is not
// fitted or its backend cannot enumerate the vocabulary.
func (t *PretrainedTokenizer) Vocabulary() map[string]int {
	if v, ok := t.fitted.(api.Vocabulary); ok {
		return v.Vocab()
	}
	return nil
}

// Fitted exposes the loaded backend, or nil before Fit.
func (t *PretrainedTokenizer) Fitted() api.Tokenizer { return t.fitted }

// Clone returns an unfitted copy with the same parameters. Transformers
// loaded from a local file cannot be cloned, as there is no model id the
// copy could reload the tokenizer from.
func (t *PretrainedTokenizer) Clone() (*PretrainedTokenizer, error) {
	if t.File != "" {
		return nil, errors.New("cannot clone a PretrainedTokenizer loaded from a local file")
	}
	clone := *t
	clone.fitted = nil
	return &clone, nil
}
