package hftokenizer

import (
	"reflect"
	"strings"
	"testing"
)

func TestWordLevelTraining(t *testing.T) {
	tok := NewWordLevel("[UNK]").
		WithNormalizer(NewLowercaseNormalizer()).
		WithPreTokenizer(NewWhitespacePreTokenizer())

	docs := []string{"The cat sat", "the cat", "the"}
	if err := tok.Train(docs, NewWordLevelTrainer(10, "[UNK]", "[PAD]")); err != nil {
		t.Fatalf("Train failed: %v", err)
	}

	// Specials come first, then words by descending frequency.
	wantVocab := map[string]int{"[UNK]": 0, "[PAD]": 1, "the": 2, "cat": 3, "sat": 4}
	if got := tok.Vocab(); !reflect.DeepEqual(got, wantVocab) {
		t.Errorf("Vocab() = %v, want %v", got, wantVocab)
	}

	if got := tok.Encode("The cat"); !reflect.DeepEqual(got, []int{2, 3}) {
		t.Errorf("Encode(The cat) = %v, want [2 3]", got)
	}
	if got := tok.Encode("dog"); !reflect.DeepEqual(got, []int{0}) {
		t.Errorf("Encode(dog) = %v, want unknown token [0]", got)
	}
}

func TestWordLevelTrainingVocabCap(t *testing.T) {
	tok := NewWordLevel("[UNK]")
	docs := []string{"a b c d e f g h"}
	if err := tok.Train(docs, NewWordLevelTrainer(4, "[UNK]")); err != nil {
		t.Fatalf("Train failed: %v", err)
	}
	if got := tok.VocabSize(); got != 4 {
		t.Errorf("VocabSize() = %d, want 4", got)
	}
}

func TestBPETraining(t *testing.T) {
	tok := NewBPE("[UNK]")
	docs := []string{"low low low lower lowest"}
	if err := tok.Train(docs, NewBpeTrainer(12, "[UNK]")); err != nil {
		t.Fatalf("Train failed: %v", err)
	}

	if got := tok.VocabSize(); got != 12 {
		t.Errorf("VocabSize() = %d, want 12", got)
	}
	vocab := tok.Vocab()
	for _, want := range []string{"lo", "low", "lower"} {
		if _, ok := vocab[want]; !ok {
			t.Errorf("trained vocabulary is missing merge result %q", want)
		}
	}
	if len(tok.def.Model.Merges) == 0 || tok.def.Model.Merges[0] != "l o" {
		t.Errorf("first merge = %v, want \"l o\"", tok.def.Model.Merges)
	}

	if got := tok.Encode("lower"); len(got) != 1 {
		t.Errorf("Encode(lower) = %v, want a single merged token", got)
	}
	if got := tok.Encode("low lowest"); len(got) == 0 {
		t.Errorf("Encode(low lowest) produced no tokens")
	}
}

func TestWordPieceTraining(t *testing.T) {
	tok := NewWordPiece("[UNK]").
		WithNormalizer(NewLowercaseNormalizer()).
		WithPreTokenizer(NewWhitespacePreTokenizer())

	docs := []string{"hug hug hug pug pugs"}
	if err := tok.Train(docs, NewWordPieceTrainer(12, "[UNK]")); err != nil {
		t.Fatalf("Train failed: %v", err)
	}

	if got := tok.ModelType(); got != "WordPiece" {
		t.Fatalf("ModelType() = %q, want WordPiece", got)
	}
	vocab := tok.Vocab()
	if _, ok := vocab["##ug"]; !ok {
		t.Errorf("trained vocabulary is missing continuation token ##ug: %v", vocab)
	}
	if _, ok := vocab["hug"]; !ok {
		t.Errorf("trained vocabulary is missing merged word hug: %v", vocab)
	}

	// "hugs" was never seen whole but decomposes into learned pieces.
	ids := tok.Encode("hugs")
	if len(ids) != 2 {
		t.Fatalf("Encode(hugs) = %v, want two pieces", ids)
	}
	if got := tok.Decode(ids); got != "hugs" {
		t.Errorf("Decode(Encode(hugs)) = %q, want hugs", got)
	}
}

func TestUnigramTraining(t *testing.T) {
	tok := NewUnigram().WithPreTokenizer(NewWhitespaceSplitPreTokenizer())
	docs := []string{"banana banana band"}
	if err := tok.Train(docs, NewUnigramTrainer(10, "[UNK]")); err != nil {
		t.Fatalf("Train failed: %v", err)
	}

	if got := tok.VocabSize(); got != 10 {
		t.Errorf("VocabSize() = %d, want 10", got)
	}
	vocab := tok.Vocab()
	for _, c := range []string{"a", "b", "d", "n"} {
		if _, ok := vocab[c]; !ok {
			t.Errorf("trained vocabulary is missing character %q", c)
		}
	}

	ids := tok.Encode("banana")
	if len(ids) == 0 {
		t.Fatal("Encode(banana) produced no tokens")
	}
	for _, id := range ids {
		if _, ok := tok.IDToToken(id); !ok {
			t.Errorf("Encode(banana) produced id %d outside the vocabulary", id)
		}
	}
}

func TestTrainNilTrainer(t *testing.T) {
	tok := NewBPE("[UNK]")
	if err := tok.Train([]string{"some text"}, nil); err == nil {
		t.Error("Train with nil trainer should fail")
	}
}

func TestTrainerVocabSizeValidation(t *testing.T) {
	trainers := map[string]Trainer{
		"bpe":       NewBpeTrainer(0),
		"wordlevel": NewWordLevelTrainer(0),
		"wordpiece": NewWordPieceTrainer(0),
		"unigram":   NewUnigramTrainer(0),
	}
	for name, tr := range trainers {
		t.Run(name, func(t *testing.T) {
			if _, _, err := tr.Train(map[string]int{"word": 1}); err == nil {
				t.Error("Train with zero vocab size should fail")
			}
		})
	}
}

func TestTrainingIsDeterministic(t *testing.T) {
	docs := []string{"the quick brown fox jumps over the lazy dog", "pack my box with five dozen jugs"}

	train := func() map[string]int {
		tok := NewBPE("[UNK]").WithPreTokenizer(NewWhitespacePreTokenizer())
		if err := tok.Train(docs, NewBpeTrainer(40, "[UNK]")); err != nil {
			t.Fatalf("Train failed: %v", err)
		}
		return tok.Vocab()
	}

	first := train()
	for i := 0; i < 3; i++ {
		if next := train(); !reflect.DeepEqual(next, first) {
			t.Fatal("repeated training produced different vocabularies")
		}
	}
}

func TestTrainedSpecialsSkippedOnDecode(t *testing.T) {
	tok := NewWordLevel("[UNK]")
	if err := tok.Train([]string{"alpha beta"}, NewWordLevelTrainer(10, "[UNK]", "[PAD]")); err != nil {
		t.Fatalf("Train failed: %v", err)
	}

	padID, ok := tok.TokenToID("[PAD]")
	if !ok {
		t.Fatal("trained tokenizer is missing [PAD]")
	}
	ids := append(tok.Encode("alpha beta"), padID)
	got := tok.DecodeWithOptions(ids, true)
	if strings.Contains(got, "[PAD]") {
		t.Errorf("DecodeWithOptions kept the pad token: %q", got)
	}
}
