package hf

import "github.com/pkg/errors"

// Parameter access in the scikit-learn style: a flat map keyed by snake_case
// names, so pipeline tooling can read and write configuration generically.

// GetParams returns the transformer's parameters.
func (t *Tokenizer) GetParams() map[string]any {
	return map[string]any{
		"max_length":            t.MaxLength,
		"format":                t.Format.String(),
		"return_attention_mask": t.ReturnAttentionMask,
		"return_token_type_ids": t.ReturnTokenTypeIDs,
		"return_length":         t.ReturnLength,
		"pad_token":             t.PadToken,
	}
}

// SetParams updates parameters from the given map. Unknown keys and
// mistyped values are errors. Fitted state is left untouched; refit for the
// training-time parameters to take effect.
func (t *Tokenizer) SetParams(params map[string]any) error {
	for key, value := range params {
		switch key {
		case "max_length":
			n, err := asInt(key, value)
			if err != nil {
				return err
			}
			t.MaxLength = n
		case "format":
			f, err := asFormat(key, value)
			if err != nil {
				return err
			}
			t.Format = f
		case "return_attention_mask":
			b, err := asBool(key, value)
			if err != nil {
				return err
			}
			t.ReturnAttentionMask = b
		case "return_token_type_ids":
			b, err := asBool(key, value)
			if err != nil {
				return err
			}
			t.ReturnTokenTypeIDs = b
		case "return_length":
			b, err := asBool(key, value)
			if err != nil {
				return err
			}
			t.ReturnLength = b
		case "pad_token":
			s, err := asString(key, value)
			if err != nil {
				return err
			}
			t.PadToken = s
		default:
			return errors.Errorf("unknown parameter %q for Tokenizer", key)
		}
	}
	return nil
}

// Clone returns an unfitted copy with the same parameters, trainer and
// pipeline configuration.
func (t *Tokenizer) Clone() (*Tokenizer, error) {
	clone := *t
	clone.fitted = nil
	clone.vocabulary = nil
	return &clone, nil
}

// GetParams returns the transformer's parameters.
func (t *PretrainedTokenizer) GetParams() map[string]any {
	return map[string]any{
		"model_id":              t.ModelID,
		"file":                  t.File,
		"revision":              t.Revision,
		"max_length":            t.MaxLength,
		"format":                t.Format.String(),
		"return_attention_mask": t.ReturnAttentionMask,
		"return_token_type_ids": t.ReturnTokenTypeIDs,
		"return_length":         t.ReturnLength,
	}
}

// SetParams updates parameters from the given map. Unknown keys and
// mistyped values are errors.
func (t *PretrainedTokenizer) SetParams(params map[string]any) error {
	for key, value := range params {
		switch key {
		case "model_id":
			s, err := asString(key, value)
			if err != nil {
				return err
			}
			t.ModelID = s
		case "file":
			s, err := asString(key, value)
			if err != nil {
				return err
			}
			t.File = s
		case "revision":
			s, err := asString(key, value)
			if err != nil {
				return err
			}
			t.Revision = s
		case "max_length":
			n, err := asInt(key, value)
			if err != nil {
				return err
			}
			t.MaxLength = n
		case "format":
			f, err := asFormat(key, value)
			if err != nil {
				return err
			}
			t.Format = f
		case "return_attention_mask":
			b, err := asBool(key, value)
			if err != nil {
				return err
			}
			t.ReturnAttentionMask = b
		case "return_token_type_ids":
			b, err := asBool(key, value)
			if err != nil {
				return err
			}
			t.ReturnTokenTypeIDs = b
		case "return_length":
			b, err := asBool(key, value)
			if err != nil {
				return err
			}
			t.ReturnLength = b
		default:
			return errors.Errorf("unknown parameter %q for PretrainedTokenizer", key)
		}
	}
	return nil
}

func asInt(key string, value any) (int, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	default:
		return 0, errors.Errorf("parameter %q expects an int, got %T", key, value)
	}
}

func asBool(key string, value any) (bool, error) {
	b, ok := value.(bool)
	if !ok {
		return false, errors.Errorf("parameter %q expects a bool, got %T", key, value)
	}
	return b, nil
}

func asString(key string, value any) (string, error) {
	s, ok := value.(string)
	if !ok {
		return "", errors.Errorf("parameter %q expects a string, got %T", key, value)
	}
	return s, nil
}

func asFormat(key string, value any) (Format, error) {
	switch v := value.(type) {
	case Format:
		return v, nil
	case string:
		return ParseFormat(v)
	default:
		return 0, errors.Errorf("parameter %q expects a Format or its name, got %T", key, value)
	}
}
