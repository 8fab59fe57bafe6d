package hftokenizer

// Encoding is the result of encoding a single document: ids, the token
// strings they map to, per-position type ids, the attention mask (1 for
// content, 0 for padding) and the special-tokens mask (1 for inserted
// special tokens).
type Encoding struct {
	IDs           []int
	Tokens        []string
	TypeIDs       []int
	AttentionMask []int
	SpecialMask   []int
}

// Len returns the current sequence length.
func (e *Encoding) Len() int { return len(e.IDs) }

// TruncationParams limits encoded sequences to MaxLength tokens.
type TruncationParams struct {
	MaxLength int
}

// PaddingParams right-pads encoded sequences to Length tokens with the given
// pad token.
type PaddingParams struct {
	Length    int
	PadID     int
	PadTypeID int
	PadToken  string
}

// Truncate cuts the encoding down to maxLength tokens, keeping the head of
// the sequence.
func (e *Encoding) Truncate(maxLength int) {
	if maxLength <= 0 || e.Len() <= maxLength {
		return
	}
	e.IDs = e.IDs[:maxLength]
	if len(e.Tokens) > maxLength {
		e.Tokens = e.Tokens[:maxLength]
	}
	if len(e.TypeIDs) > maxLength {
		e.TypeIDs = e.TypeIDs[:maxLength]
	}
	if len(e.AttentionMask) > maxLength {
		e.AttentionMask = e.AttentionMask[:maxLength]
	}
	if len(e.SpecialMask) > maxLength {
		e.SpecialMask = e.SpecialMask[:maxLength]
	}
}

// Pad extends the encoding to params.Length tokens. Shorter sequences get
// the pad id with attention mask 0; longer sequences are left untouched.
func (e *Encoding) Pad(params *PaddingParams) {
	for e.Len() < params.Length {
		e.IDs = append(e.IDs, params.PadID)
		e.Tokens = append(e.Tokens, params.PadToken)
		e.TypeIDs = append(e.TypeIDs, params.PadTypeID)
		e.AttentionMask = append(e.AttentionMask, 0)
		e.SpecialMask = append(e.SpecialMask, 1)
	}
}

// WithTruncation configures truncation applied by EncodeFull. Passing nil
// disables it.
func (t *Tokenizer) WithTruncation(params *TruncationParams) *Tokenizer {
	t.truncation = params
	return t
}

// WithPadding configures padding applied by EncodeFull. Passing nil disables
// it.
func (t *Tokenizer) WithPadding(params *PaddingParams) *Tokenizer {
	t.padding = params
	return t
}
