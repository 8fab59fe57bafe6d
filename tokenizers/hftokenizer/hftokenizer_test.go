package hftokenizer

import (
	"reflect"
	"testing"

	"github.com/terminator-ger/skorch/tokenizers/api"
)

const wordPieceJSON = `{
	"version": "1.0",
	"added_tokens": [
		{"id": 0, "content": "[UNK]", "special": true},
		{"id": 1, "content": "[CLS]", "special": true},
		{"id": 2, "content": "[SEP]", "special": true}
	],
	"normalizer": {"type": "Lowercase"},
	"pre_tokenizer": {"type": "BertPreTokenizer"},
	"model": {
		"type": "WordPiece",
		"unk_token": "[UNK]",
		"continuing_subword_prefix": "##",
		"vocab": {
			"[UNK]": 0, "[CLS]": 1, "[SEP]": 2,
			"hello": 3, "world": 4, "hell": 5, "##o": 6,
			"play": 7, "##ing": 8, ".": 9
		}
	}
}`

const bpeJSON = `{
	"version": "1.0",
	"added_tokens": [{"id": 8, "content": "[UNK]", "special": true}],
	"model": {
		"type": "BPE",
		"unk_token": "[UNK]",
		"vocab": {"l": 0, "o": 1, "w": 2, "e": 3, "r": 4, "lo": 5, "low": 6, "er": 7, "[UNK]": 8},
		"merges": ["l o", "lo w", "e r"]
	}
}`

func newWordPieceFixture(t *testing.T) *Tokenizer {
	t.Helper()
	tok, err := NewFromContent(nil, []byte(wordPieceJSON))
	if err != nil {
		t.Fatalf("NewFromContent failed: %v", err)
	}
	return tok
}

func newBPEFixture(t *testing.T) *Tokenizer {
	t.Helper()
	tok, err := NewFromContent(nil, []byte(bpeJSON))
	if err != nil {
		t.Fatalf("NewFromContent failed: %v", err)
	}
	return tok
}

func TestWordPieceEncode(t *testing.T) {
	tok := newWordPieceFixture(t)

	tests := []struct {
		text string
		want []int
	}{
		{"Hello world.", []int{3, 4, 9}},
		{"playing", []int{7, 8}},
		{"hello hello", []int{3, 3}},
		{"xyz", []int{0}},
		{"", nil},
	}
	for _, test := range tests {
		t.Run(test.text, func(t *testing.T) {
			got := tok.Encode(test.text)
			if !reflect.DeepEqual(got, test.want) {
				t.Errorf("Encode(%q) = %v, want %v", test.text, got, test.want)
			}
		})
	}
}

func TestWordPieceDecode(t *testing.T) {
	tok := newWordPieceFixture(t)

	tests := []struct {
		name string
		ids  []int
		want string
	}{
		{"words", []int{3, 4, 9}, "hello world ."},
		{"subwords fused", []int{7, 8}, "playing"},
		{"split word", []int{5, 6}, "hello"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := tok.Decode(test.ids); got != test.want {
				t.Errorf("Decode(%v) = %q, want %q", test.ids, got, test.want)
			}
		})
	}
}

func TestDecodeSkipSpecial(t *testing.T) {
	tok := newWordPieceFixture(t)
	got := tok.DecodeWithOptions([]int{1, 3, 4, 2}, true)
	if got != "hello world" {
		t.Errorf("DecodeWithOptions = %q, want %q", got, "hello world")
	}
}

func TestBPEEncode(t *testing.T) {
	tok := newBPEFixture(t)

	tests := []struct {
		text string
		want []int
	}{
		{"low", []int{6}},
		{"lower", []int{6, 7}},
		{"z", []int{8}},
	}
	for _, test := range tests {
		t.Run(test.text, func(t *testing.T) {
			got := tok.Encode(test.text)
			if !reflect.DeepEqual(got, test.want) {
				t.Errorf("Encode(%q) = %v, want %v", test.text, got, test.want)
			}
		})
	}
}

func TestSpecialTokenIDs(t *testing.T) {
	tok := newWordPieceFixture(t)

	tests := []struct {
		token api.SpecialToken
		want  int
	}{
		{api.TokUnknown, 0},
		{api.TokClassification, 1},
		{api.TokSeparator, 2},
		// Without explicit BOS/EOS, CLS and SEP stand in.
		{api.TokBeginningOfSentence, 1},
		{api.TokEndOfSentence, 2},
	}
	for _, test := range tests {
		t.Run(test.token.String(), func(t *testing.T) {
			got, err := tok.SpecialTokenID(test.token)
			if err != nil {
				t.Fatalf("SpecialTokenID(%s) failed: %v", test.token, err)
			}
			if got != test.want {
				t.Errorf("SpecialTokenID(%s) = %d, want %d", test.token, got, test.want)
			}
		})
	}

	if _, err := tok.SpecialTokenID(api.TokPad); err == nil {
		t.Error("SpecialTokenID(TokPad) should fail, no pad token defined")
	}
}

func TestVocab(t *testing.T) {
	tok := newWordPieceFixture(t)

	if got := tok.VocabSize(); got != 10 {
		t.Errorf("VocabSize() = %d, want 10", got)
	}

	id, ok := tok.TokenToID("world")
	if !ok || id != 4 {
		t.Errorf("TokenToID(world) = %d, %v, want 4, true", id, ok)
	}
	token, ok := tok.IDToToken(6)
	if !ok || token != "##o" {
		t.Errorf("IDToToken(6) = %q, %v, want ##o, true", token, ok)
	}
	if _, ok := tok.TokenToID("missing"); ok {
		t.Error("TokenToID(missing) should report not found")
	}

	vocab := tok.Vocab()
	if len(vocab) != 10 {
		t.Errorf("Vocab() has %d entries, want 10", len(vocab))
	}
	if vocab["[CLS]"] != 1 {
		t.Errorf("Vocab()[\"[CLS]\"] = %d, want 1", vocab["[CLS]"])
	}
}

func TestAddSpecialTokens(t *testing.T) {
	tok := newWordPieceFixture(t)

	added := tok.AddSpecialTokens("[PAD]")
	if added != 1 {
		t.Fatalf("AddSpecialTokens returned %d, want 1", added)
	}
	id, ok := tok.TokenToID("[PAD]")
	if !ok || id != 10 {
		t.Errorf("TokenToID([PAD]) = %d, %v, want 10, true", id, ok)
	}
	if got := tok.VocabSize(); got != 11 {
		t.Errorf("VocabSize() = %d, want 11", got)
	}
	padID, err := tok.SpecialTokenID(api.TokPad)
	if err != nil || padID != 10 {
		t.Errorf("SpecialTokenID(TokPad) = %d, %v, want 10, nil", padID, err)
	}

	// Adding an existing token is a no-op.
	if added := tok.AddSpecialTokens("[PAD]"); added != 0 {
		t.Errorf("second AddSpecialTokens returned %d, want 0", added)
	}
}

func TestAddedTokensList(t *testing.T) {
	tok := newWordPieceFixture(t)
	tok.AddSpecialTokens("[PAD]")

	list := tok.AddedTokensList()
	if len(list) != 4 {
		t.Fatalf("AddedTokensList has %d entries, want 4", len(list))
	}
	for i := 1; i < len(list); i++ {
		if list[i-1].ID >= list[i].ID {
			t.Errorf("AddedTokensList not sorted by id: %v", list)
		}
	}
	if last := list[len(list)-1]; last.Content != "[PAD]" || last.ID != 10 {
		t.Errorf("last added token = %+v, want [PAD] at 10", last)
	}
}

func TestConfigFallbackSpecialTokens(t *testing.T) {
	config := &api.Config{PadToken: "."}
	tok, err := NewFromContent(config, []byte(wordPieceJSON))
	if err != nil {
		t.Fatalf("NewFromContent failed: %v", err)
	}
	padID, err := tok.SpecialTokenID(api.TokPad)
	if err != nil || padID != 9 {
		t.Errorf("SpecialTokenID(TokPad) = %d, %v, want 9 from config fallback", padID, err)
	}
}

func TestInvalidJSON(t *testing.T) {
	if _, err := NewFromContent(nil, []byte("not json")); err == nil {
		t.Error("NewFromContent should fail on invalid JSON")
	}
}

func TestSerializationRoundTrip(t *testing.T) {
	tok := newWordPieceFixture(t)
	tok.WithTruncation(&TruncationParams{MaxLength: 16})
	tok.WithPadding(&PaddingParams{Length: 16, PadID: 0, PadToken: "[UNK]"})

	content, err := tok.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON failed: %v", err)
	}
	restored, err := NewFromContent(nil, content)
	if err != nil {
		t.Fatalf("NewFromContent on serialized output failed: %v", err)
	}

	if !reflect.DeepEqual(restored.Vocab(), tok.Vocab()) {
		t.Error("restored vocabulary differs from original")
	}
	if restored.truncation == nil || restored.truncation.MaxLength != 16 {
		t.Errorf("restored truncation = %+v, want MaxLength 16", restored.truncation)
	}
	if restored.padding == nil || restored.padding.Length != 16 {
		t.Errorf("restored padding = %+v, want Length 16", restored.padding)
	}
	want := tok.Encode("Hello world.")
	if got := restored.Encode("Hello world."); !reflect.DeepEqual(got, want) {
		t.Errorf("restored Encode = %v, want %v", got, want)
	}
}

func TestClone(t *testing.T) {
	tok := newWordPieceFixture(t)
	clone, err := tok.Clone()
	if err != nil {
		t.Fatalf("Clone failed: %v", err)
	}

	clone.AddSpecialTokens("[NEW]")
	if _, ok := tok.TokenToID("[NEW]"); ok {
		t.Error("mutating the clone leaked into the original")
	}
	if !reflect.DeepEqual(clone.Encode("hello"), tok.Encode("hello")) {
		t.Error("clone encodes differently from the original")
	}
}

func TestSaveLoad(t *testing.T) {
	tok := newWordPieceFixture(t)
	path := t.TempDir() + "/tokenizer.json"
	if err := tok.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := NewFromFile(nil, path)
	if err != nil {
		t.Fatalf("NewFromFile failed: %v", err)
	}
	want := tok.Encode("playing")
	if got := loaded.Encode("playing"); !reflect.DeepEqual(got, want) {
		t.Errorf("loaded Encode = %v, want %v", got, want)
	}
}

func TestUnigramGreedyMatch(t *testing.T) {
	tok := newEmpty(Model{
		Type:  "Unigram",
		Vocab: map[string]int{"h": 0, "e": 1, "l": 2, "o": 3, "hell": 4, "hello": 5},
	})

	tests := []struct {
		text string
		want []int
	}{
		{"hello", []int{5}},
		{"hell", []int{4}},
		{"heo", []int{0, 1, 3}},
	}
	for _, test := range tests {
		t.Run(test.text, func(t *testing.T) {
			got := tok.Encode(test.text)
			if !reflect.DeepEqual(got, test.want) {
				t.Errorf("Encode(%q) = %v, want %v", test.text, got, test.want)
			}
		})
	}
}
