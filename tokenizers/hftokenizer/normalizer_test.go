package hftokenizer

import "testing"

func TestApplyNormalizer(t *testing.T) {
	tests := []struct {
		name string
		n    *Normalizer
		text string
		want string
	}{
		{"lowercase", NewLowercaseNormalizer(), "Hello World", "hello world"},
		{"bert cleans whitespace", NewBertNormalizer(false), "a\tb\nc", "a b c"},
		{"bert lowercase", NewBertNormalizer(true), "MiXeD", "mixed"},
		{
			"nfd plus strip accents",
			NewSequenceNormalizer(NewNFDNormalizer(), NewStripAccentsNormalizer()),
			"héllo wörld",
			"hello world",
		},
		{
			"bert style sequence",
			NewSequenceNormalizer(NewNFDNormalizer(), NewLowercaseNormalizer(), NewStripAccentsNormalizer()),
			"Héllo",
			"hello",
		},
		{"unknown type passes through", &Normalizer{Type: "Mystery"}, "AbC", "AbC"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := applyNormalizer(test.text, test.n); got != test.want {
				t.Errorf("applyNormalizer(%q) = %q, want %q", test.text, got, test.want)
			}
		})
	}
}

func TestCleanText(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"hello world", "hello world"},
		{"tabs\tto spaces", "tabs to spaces"},
		{"drop\x01control", "dropcontrol"},
		{"keep.punct!", "keep.punct!"},
	}
	for _, test := range tests {
		if got := cleanText(test.text); got != test.want {
			t.Errorf("cleanText(%q) = %q, want %q", test.text, got, test.want)
		}
	}
}

func TestIsPunctuation(t *testing.T) {
	for _, r := range "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~" {
		if !isPunctuation(r) {
			t.Errorf("isPunctuation(%q) = false, want true", r)
		}
	}
	for _, r := range "abc123 " {
		if isPunctuation(r) {
			t.Errorf("isPunctuation(%q) = true, want false", r)
		}
	}
}

func TestNoNormalizerPassesThrough(t *testing.T) {
	tok := newEmpty(Model{Type: "WordLevel", Vocab: map[string]int{}})
	if got := tok.normalize("As Is"); got != "As Is" {
		t.Errorf("normalize = %q, want unchanged input", got)
	}
}
