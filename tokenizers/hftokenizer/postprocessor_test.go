package hftokenizer

import (
	"reflect"
	"testing"
)

func TestTemplateProcessingParse(t *testing.T) {
	pp, err := NewTemplateProcessing("[CLS] $A [SEP]", "[CLS] $A [SEP] $B:1 [SEP]:1")
	if err != nil {
		t.Fatalf("NewTemplateProcessing failed: %v", err)
	}

	if len(pp.Single) != 3 {
		t.Fatalf("single template has %d items, want 3", len(pp.Single))
	}
	if pp.Single[0].SpecialToken == nil || pp.Single[0].SpecialToken.ID != "[CLS]" {
		t.Errorf("single[0] = %+v, want [CLS] special token", pp.Single[0])
	}
	if pp.Single[1].Sequence == nil || pp.Single[1].Sequence.ID != "$A" {
		t.Errorf("single[1] = %+v, want $A sequence", pp.Single[1])
	}

	if len(pp.Pair) != 5 {
		t.Fatalf("pair template has %d items, want 5", len(pp.Pair))
	}
	if pp.Pair[3].Sequence == nil || pp.Pair[3].Sequence.TypeID != 1 {
		t.Errorf("pair[3] = %+v, want $B with type id 1", pp.Pair[3])
	}
	if pp.Pair[4].SpecialToken == nil || pp.Pair[4].SpecialToken.TypeID != 1 {
		t.Errorf("pair[4] = %+v, want [SEP] with type id 1", pp.Pair[4])
	}
}

func TestTemplateProcessingInvalidTypeID(t *testing.T) {
	if _, err := NewTemplateProcessing("[CLS] $A [SEP]:x", ""); err == nil {
		t.Error("NewTemplateProcessing should reject a non-numeric type id")
	}
}

func TestEncodeFullWithTemplate(t *testing.T) {
	tok := newWordPieceFixture(t)
	pp, err := NewTemplateProcessing("[CLS] $A [SEP]", "")
	if err != nil {
		t.Fatalf("NewTemplateProcessing failed: %v", err)
	}
	tok.WithPostProcessor(pp)

	enc, err := tok.EncodeFull("Hello world.")
	if err != nil {
		t.Fatalf("EncodeFull failed: %v", err)
	}

	if want := []int{1, 3, 4, 9, 2}; !reflect.DeepEqual(enc.IDs, want) {
		t.Errorf("IDs = %v, want %v", enc.IDs, want)
	}
	if want := []int{1, 0, 0, 0, 1}; !reflect.DeepEqual(enc.SpecialMask, want) {
		t.Errorf("SpecialMask = %v, want %v", enc.SpecialMask, want)
	}
	if want := []int{1, 1, 1, 1, 1}; !reflect.DeepEqual(enc.AttentionMask, want) {
		t.Errorf("AttentionMask = %v, want %v", enc.AttentionMask, want)
	}
	if want := []int{0, 0, 0, 0, 0}; !reflect.DeepEqual(enc.TypeIDs, want) {
		t.Errorf("TypeIDs = %v, want %v", enc.TypeIDs, want)
	}
}

func TestEncodeFullTemplateMissingSpecial(t *testing.T) {
	tok := newBPEFixture(t)
	pp, err := NewTemplateProcessing("[CLS] $A [SEP]", "")
	if err != nil {
		t.Fatalf("NewTemplateProcessing failed: %v", err)
	}
	tok.WithPostProcessor(pp)

	if _, err := tok.EncodeFull("low"); err == nil {
		t.Error("EncodeFull should fail when the template's special token is not in the vocabulary")
	}
}

func TestEncodeFullTruncationAndPadding(t *testing.T) {
	tok := newWordPieceFixture(t)
	tok.AddSpecialTokens("[PAD]")
	padID, _ := tok.TokenToID("[PAD]")

	t.Run("truncation", func(t *testing.T) {
		tok.WithTruncation(&TruncationParams{MaxLength: 2}).WithPadding(nil)
		enc, err := tok.EncodeFull("hello world .")
		if err != nil {
			t.Fatalf("EncodeFull failed: %v", err)
		}
		if want := []int{3, 4}; !reflect.DeepEqual(enc.IDs, want) {
			t.Errorf("IDs = %v, want %v", enc.IDs, want)
		}
	})

	t.Run("padding", func(t *testing.T) {
		tok.WithTruncation(nil).WithPadding(&PaddingParams{Length: 5, PadID: padID, PadToken: "[PAD]"})
		enc, err := tok.EncodeFull("hello world")
		if err != nil {
			t.Fatalf("EncodeFull failed: %v", err)
		}
		if want := []int{3, 4, padID, padID, padID}; !reflect.DeepEqual(enc.IDs, want) {
			t.Errorf("IDs = %v, want %v", enc.IDs, want)
		}
		if want := []int{1, 1, 0, 0, 0}; !reflect.DeepEqual(enc.AttentionMask, want) {
			t.Errorf("AttentionMask = %v, want %v", enc.AttentionMask, want)
		}
	})
}

func TestEncodeBatch(t *testing.T) {
	tok := newWordPieceFixture(t)
	encs, err := tok.EncodeBatch([]string{"hello", "hello world ."})
	if err != nil {
		t.Fatalf("EncodeBatch failed: %v", err)
	}
	if len(encs) != 2 {
		t.Fatalf("EncodeBatch returned %d encodings, want 2", len(encs))
	}
	if encs[0].Len() != 1 || encs[1].Len() != 3 {
		t.Errorf("encoding lengths = %d, %d, want 1, 3", encs[0].Len(), encs[1].Len())
	}
}

func TestEncodingTruncateAndPad(t *testing.T) {
	enc := &Encoding{
		IDs:           []int{1, 2, 3, 4},
		Tokens:        []string{"a", "b", "c", "d"},
		TypeIDs:       []int{0, 0, 0, 0},
		AttentionMask: []int{1, 1, 1, 1},
		SpecialMask:   []int{0, 0, 0, 0},
	}

	enc.Truncate(2)
	if enc.Len() != 2 {
		t.Fatalf("Len() after Truncate = %d, want 2", enc.Len())
	}

	enc.Pad(&PaddingParams{Length: 4, PadID: 99, PadToken: "<pad>"})
	if want := []int{1, 2, 99, 99}; !reflect.DeepEqual(enc.IDs, want) {
		t.Errorf("IDs = %v, want %v", enc.IDs, want)
	}
	if want := []int{1, 1, 0, 0}; !reflect.DeepEqual(enc.AttentionMask, want) {
		t.Errorf("AttentionMask = %v, want %v", enc.AttentionMask, want)
	}

	// Padding never shortens.
	enc.Pad(&PaddingParams{Length: 2, PadID: 99})
	if enc.Len() != 4 {
		t.Errorf("Len() after short Pad = %d, want 4", enc.Len())
	}
}
