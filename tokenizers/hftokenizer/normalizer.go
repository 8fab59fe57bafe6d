package hftokenizer

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Constructors for the normalizer definitions used when building a tokenizer
// programmatically (as opposed to loading a tokenizer.json file).

// NewLowercaseNormalizer lowercases the input.
func NewLowercaseNormalizer() *Normalizer { return &Normalizer{Type: "Lowercase"} }

// NewNFDNormalizer applies unicode NFD decomposition.
func NewNFDNormalizer() *Normalizer { return &Normalizer{Type: "NFD"} }

// NewNFCNormalizer applies unicode NFC composition.
func NewNFCNormalizer() *Normalizer { return &Normalizer{Type: "NFC"} }

// NewStripAccentsNormalizer removes combining marks. Usually combined with
// NFD in a sequence, BERT-style.
func NewStripAccentsNormalizer() *Normalizer { return &Normalizer{Type: "StripAccents"} }

// NewBertNormalizer cleans control characters and optionally lowercases.
func NewBertNormalizer(lowercase bool) *Normalizer {
	return &Normalizer{Type: "BertNormalizer", Lowercase: lowercase}
}

// NewSequenceNormalizer applies the given normalizers in order.
func NewSequenceNormalizer(children ...*Normalizer) *Normalizer {
	seq := &Normalizer{Type: "Sequence"}
	for _, c := range children {
		seq.Normalizers = append(seq.Normalizers, *c)
	}
	return seq
}

// normalize applies the configured normalizer to the text.
func (t *Tokenizer) normalize(text string) string {
	if t.def.Normalizer == nil {
		return text
	}
	return applyNormalizer(text, t.def.Normalizer)
}

func applyNormalizer(text string, n *Normalizer) string {
	switch n.Type {
	case "Lowercase":
		return strings.ToLower(text)
	case "NFD":
		return norm.NFD.String(text)
	case "NFC":
		return norm.NFC.String(text)
	case "NFKC":
		return norm.NFKC.String(text)
	case "NFKD":
		return norm.NFKD.String(text)
	case "StripAccents":
		return removeAccents(text)
	case "BertNormalizer":
		result := cleanText(text)
		if n.Lowercase {
			result = strings.ToLower(result)
		}
		return result
	case "Sequence":
		result := text
		for i := range n.Normalizers {
			result = applyNormalizer(result, &n.Normalizers[i])
		}
		return result
	default:
		return text
	}
}

// cleanText removes control characters and normalizes all whitespace to
// plain spaces, like the BERT reference implementation.
func cleanText(text string) string {
	var result strings.Builder
	for _, r := range text {
		if r == 0 || r == 0xFFFD || isControl(r) {
			continue
		}
		if isWhitespace(r) {
			result.WriteRune(' ')
		} else {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// removeAccents drops nonspacing combining marks. Callers that want full
// accent stripping should decompose first (NFD).
func removeAccents(text string) string {
	var result strings.Builder
	for _, r := range text {
		if !unicode.Is(unicode.Mn, r) {
			result.WriteRune(r)
		}
	}
	return result.String()
}

func isWhitespace(r rune) bool {
	if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
		return true
	}
	return unicode.Is(unicode.Zs, r)
}

func isControl(r rune) bool {
	if r == '\t' || r == '\n' || r == '\r' {
		return false
	}
	return unicode.IsControl(r)
}

func isPunctuation(r rune) bool {
	// ASCII punctuation ranges first, then the unicode punctuation classes.
	if (r >= 33 && r <= 47) || (r >= 58 && r <= 64) ||
		(r >= 91 && r <= 96) || (r >= 123 && r <= 126) {
		return true
	}
	return unicode.IsPunct(r)
}
