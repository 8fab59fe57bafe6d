package hf

import (
	"encoding/json"
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/terminator-ger/skorch/tokenizers/hftokenizer"
)

// Serialization of whole transformer instances, fitted state included. The
// trainer is deliberately left out: trainers are plain configuration the
// caller can reconstruct, and a restored transformer is meant for
// Transform/InverseTransform, not refitting. Calling Fit on a restored
// transformer errors accordingly.

type savedState struct {
	Kind                string          `json:"kind"`
	ModelID             string          `json:"model_id,omitempty"`
	Revision            string          `json:"revision,omitempty"`
	MaxLength           int             `json:"max_length"`
	Format              string          `json:"format"`
	ReturnAttentionMask bool            `json:"return_attention_mask"`
	ReturnTokenTypeIDs  bool            `json:"return_token_type_ids"`
	ReturnLength        bool            `json:"return_length"`
	PadToken            string          `json:"pad_token,omitempty"`
	Tokenizer           json.RawMessage `json:"tokenizer,omitempty"`
}

const (
	kindTrainable  = "trainable"
	kindPretrained = "pretrained"
)

// Save writes the transformer, including the trained tokenizer state, as
// JSON.
func (t *Tokenizer) Save(w io.Writer) error {
	state := savedState{
		Kind:                kindTrainable,
		MaxLength:           t.MaxLength,
		Format:              t.Format.String(),
		ReturnAttentionMask: t.ReturnAttentionMask,
		ReturnTokenTypeIDs:  t.ReturnTokenTypeIDs,
		ReturnLength:        t.ReturnLength,
		PadToken:            t.PadToken,
	}
	if t.fitted != nil {
		content, err := t.fitted.MarshalJSON()
		if err != nil {
			return errors.WithMessage(err, "failed to serialize the fitted tokenizer")
		}
		state.Tokenizer = content
	}
	return writeState(w, &state)
}

// SaveFile is Save to a file path.
func (t *Tokenizer) SaveFile(path string) error {
	return saveToFile(path, t.Save)
}

// Save writes the transformer as JSON. Only tokenizer.json-backed instances
// can be saved; sentencepiece-backed ones have no serializable form here.
func (t *PretrainedTokenizer) Save(w io.Writer) error {
	state := savedState{
		Kind:                kindPretrained,
		ModelID:             t.ModelID,
		Revision:            t.Revision,
		MaxLength:           t.MaxLength,
		Format:              t.Format.String(),
		ReturnAttentionMask: t.ReturnAttentionMask,
		ReturnTokenTypeIDs:  t.ReturnTokenTypeIDs,
		ReturnLength:        t.ReturnLength,
	}
	if t.fitted != nil {
		ht, ok := t.fitted.(*hftokenizer.Tokenizer)
		if !ok {
			return errors.New("cannot save a sentencepiece-backed PretrainedTokenizer")
		}
		content, err := ht.MarshalJSON()
		if err != nil {
			return errors.WithMessage(err, "failed to serialize the loaded tokenizer")
		}
		state.Tokenizer = content
	}
	return writeState(w, &state)
}

// SaveFile is Save to a file path.
func (t *PretrainedTokenizer) SaveFile(path string) error {
	return saveToFile(path, t.Save)
}

// LoadTokenizer restores a trainable transformer saved with Tokenizer.Save.
// The restored transformer has no trainer: it can Transform but not refit.
func LoadTokenizer(r io.Reader) (*Tokenizer, error) {
	state, err := readState(r, kindTrainable)
	if err != nil {
		return nil, err
	}
	format, err := ParseFormat(state.Format)
	if err != nil {
		return nil, err
	}
	t := &Tokenizer{
		MaxLength:           state.MaxLength,
		Format:              format,
		ReturnAttentionMask: state.ReturnAttentionMask,
		ReturnTokenTypeIDs:  state.ReturnTokenTypeIDs,
		ReturnLength:        state.ReturnLength,
		PadToken:            state.PadToken,
	}
	if len(state.Tokenizer) > 0 {
		fitted, err := hftokenizer.NewFromContent(nil, state.Tokenizer)
		if err != nil {
			return nil, errors.WithMessage(err, "failed to restore the fitted tokenizer")
		}
		t.fitted = fitted
		t.vocabulary = fitted.Vocab()
	}
	return t, nil
}

// LoadTokenizerFile is LoadTokenizer from a file path.
func LoadTokenizerFile(path string) (*Tokenizer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %q", path)
	}
	defer func() { _ = f.Close() }()
	return LoadTokenizer(f)
}

// LoadPretrainedTokenizer restores a transformer saved with
// PretrainedTokenizer.Save, including its loaded tokenizer state, without
// touching the network.
func LoadPretrainedTokenizer(r io.Reader) (*PretrainedTokenizer, error) {
	state, err := readState(r, kindPretrained)
	if err != nil {
		return nil, err
	}
	format, err := ParseFormat(state.Format)
	if err != nil {
		return nil, err
	}
	t := &PretrainedTokenizer{
		ModelID:             state.ModelID,
		Revision:            state.Revision,
		MaxLength:           state.MaxLength,
		Format:              format,
		ReturnAttentionMask: state.ReturnAttentionMask,
		ReturnTokenTypeIDs:  state.ReturnTokenTypeIDs,
		ReturnLength:        state.ReturnLength,
	}
	if len(state.Tokenizer) > 0 {
		fitted, err := hftokenizer.NewFromContent(nil, state.Tokenizer)
		if err != nil {
			return nil, errors.WithMessage(err, "failed to restore the loaded tokenizer")
		}
		t.fitted = fitted
	}
	return t, nil
}

// LoadPretrainedTokenizerFile is LoadPretrainedTokenizer from a file path.
func LoadPretrainedTokenizerFile(path string) (*PretrainedTokenizer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %q", path)
	}
	defer func() { _ = f.Close() }()
	return LoadPretrainedTokenizer(f)
}

func writeState(w io.Writer, state *savedState) error {
	enc := json.NewEncoder(w)
	if err := enc.Encode(state); err != nil {
		return errors.Wrap(err, "failed to write transformer state")
	}
	return nil
}

func readState(r io.Reader, wantKind string) (*savedState, error) {
	var state savedState
	if err := json.NewDecoder(r).Decode(&state); err != nil {
		return nil, errors.Wrap(err, "failed to read transformer state")
	}
	if state.Kind != wantKind {
		return nil, errors.Errorf("transformer state has kind %q, expected %q", state.Kind, wantKind)
	}
	return &state, nil
}

func saveToFile(path string, save func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "failed to create %q", path)
	}
	if err := save(f); err != nil {
		_ = f.Close()
		return err
	}
	return errors.Wrapf(f.Close(), "failed to close %q", path)
}
