package hftokenizer

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// NewByteLevelPostProcessor returns the ByteLevel post-processor. It only
// affects offset trimming in the reference implementation, so encoding-wise
// it is a no-op here.
func NewByteLevelPostProcessor() *PostProcessor {
	return &PostProcessor{Type: "ByteLevel"}
}

// NewBertPostProcessor wraps single sequences as [CLS] A [SEP] and pairs as
// [CLS] A [SEP] B [SEP] with type id 1 on the second segment.
func NewBertPostProcessor() (*PostProcessor, error) {
	return NewTemplateProcessing("[CLS] $A [SEP]", "[CLS] $A [SEP] $B:1 [SEP]:1")
}

// NewTemplateProcessing builds a TemplateProcessing post-processor from
// template strings like "[CLS] $A [SEP]" and "[CLS] $A [SEP] $B:1 [SEP]:1".
// Pieces are whitespace separated; "$A"/"$B" refer to the input sequences and
// every other piece is a special token. A ":<n>" suffix sets the type id.
// Special token ids are resolved against the vocabulary at encoding time, so
// templates can be declared before the tokenizer is trained.
func NewTemplateProcessing(single, pair string) (*PostProcessor, error) {
	pp := &PostProcessor{Type: "TemplateProcessing", SpecialTokens: map[string]PostProcSpecialToken{}}

	parse := func(template string) ([]PostProcItem, error) {
		var items []PostProcItem
		for _, piece := range strings.Fields(template) {
			name := piece
			typeID := 0
			if idx := strings.LastIndex(piece, ":"); idx > 0 {
				n, err := strconv.Atoi(piece[idx+1:])
				if err != nil {
					return nil, errors.Wrapf(err, "invalid type id in template piece %q", piece)
				}
				name = piece[:idx]
				typeID = n
			}
			ref := &PostProcRef{ID: name, TypeID: typeID}
			if name == "$A" || name == "$B" {
				items = append(items, PostProcItem{Sequence: ref})
				continue
			}
			items = append(items, PostProcItem{SpecialToken: ref})
			pp.SpecialTokens[name] = PostProcSpecialToken{ID: name, Tokens: []string{name}}
		}
		return items, nil
	}

	var err error
	if pp.Single, err = parse(single); err != nil {
		return nil, err
	}
	if pair != "" {
		if pp.Pair, err = parse(pair); err != nil {
			return nil, err
		}
	}
	return pp, nil
}

// postProcess applies the configured post-processor to a single-sequence
// encoding, inserting special tokens and assigning type ids.
func (t *Tokenizer) postProcess(enc *Encoding) (*Encoding, error) {
	pp := t.def.PostProcessor
	if pp == nil {
		return enc, nil
	}

	switch pp.Type {
	case "TemplateProcessing":
		return t.applyTemplate(enc, pp.Single)
	case "BertProcessing":
		single := []PostProcItem{
			{SpecialToken: &PostProcRef{ID: "[CLS]", TypeID: 0}},
			{Sequence: &PostProcRef{ID: "A", TypeID: 0}},
			{SpecialToken: &PostProcRef{ID: "[SEP]", TypeID: 0}},
		}
		return t.applyTemplate(enc, single)
	case "ByteLevel", "RobertaProcessing":
		// Offset-only processors: ids and type ids are unchanged.
		return enc, nil
	default:
		return enc, nil
	}
}

func (t *Tokenizer) applyTemplate(enc *Encoding, items []PostProcItem) (*Encoding, error) {
	if len(items) == 0 {
		return enc, nil
	}

	out := &Encoding{}
	for _, item := range items {
		switch {
		case item.Sequence != nil:
			typeID := item.Sequence.TypeID
			out.IDs = append(out.IDs, enc.IDs...)
			out.Tokens = append(out.Tokens, enc.Tokens...)
			for range enc.IDs {
				out.TypeIDs = append(out.TypeIDs, typeID)
				out.SpecialMask = append(out.SpecialMask, 0)
			}
		case item.SpecialToken != nil:
			name := item.SpecialToken.ID
			id, ok := t.TokenToID(name)
			if !ok {
				return nil, errors.Errorf("post-processor special token %q not in vocabulary", name)
			}
			out.IDs = append(out.IDs, id)
			out.Tokens = append(out.Tokens, name)
			out.TypeIDs = append(out.TypeIDs, item.SpecialToken.TypeID)
			out.SpecialMask = append(out.SpecialMask, 1)
		}
	}
	return out, nil
}
