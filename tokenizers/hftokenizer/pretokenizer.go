package hftokenizer

import (
	"strings"
	"unicode"
)

// Constructors for pre-tokenizer definitions.

// NewWhitespacePreTokenizer splits into word runs and punctuation runs.
func NewWhitespacePreTokenizer() *PreTokenizer { return &PreTokenizer{Type: "Whitespace"} }

// NewWhitespaceSplitPreTokenizer splits on whitespace only.
func NewWhitespaceSplitPreTokenizer() *PreTokenizer { return &PreTokenizer{Type: "WhitespaceSplit"} }

// NewBertPreTokenizer splits on whitespace and isolates each punctuation rune.
func NewBertPreTokenizer() *PreTokenizer { return &PreTokenizer{Type: "BertPreTokenizer"} }

// NewByteLevelPreTokenizer maps input bytes to the GPT-2 unicode alphabet.
func NewByteLevelPreTokenizer(addPrefixSpace bool) *PreTokenizer {
	return &PreTokenizer{Type: "ByteLevel", AddPrefixSpace: addPrefixSpace}
}

// NewMetaspacePreTokenizer replaces spaces with U+2581 and splits on it.
func NewMetaspacePreTokenizer(addPrefixSpace bool) *PreTokenizer {
	return &PreTokenizer{Type: "Metaspace", AddPrefixSpace: addPrefixSpace}
}

// NewPunctuationPreTokenizer isolates punctuation runes.
func NewPunctuationPreTokenizer() *PreTokenizer { return &PreTokenizer{Type: "Punctuation"} }

// NewDigitsPreTokenizer splits digits from other characters; with individual
// set, every digit becomes its own word.
func NewDigitsPreTokenizer(individual bool) *PreTokenizer {
	return &PreTokenizer{Type: "Digits", IndividualDigits: individual}
}

// NewSequencePreTokenizer applies the given pre-tokenizers in order.
func NewSequencePreTokenizer(children ...*PreTokenizer) *PreTokenizer {
	seq := &PreTokenizer{Type: "Sequence"}
	for _, c := range children {
		seq.PreTokenizers = append(seq.PreTokenizers, *c)
	}
	return seq
}

// preTokenize splits normalized text into words using the configured
// pre-tokenizer. Without one, it splits on whitespace.
func (t *Tokenizer) preTokenize(text string) []string {
	if t.def.PreTokenizer == nil {
		return strings.Fields(text)
	}
	return applyPreTokenizer(text, t.def.PreTokenizer)
}

func applyPreTokenizer(text string, pt *PreTokenizer) []string {
	switch pt.Type {
	case "BertPreTokenizer":
		return bertPreTokenize(text)
	case "Whitespace":
		return whitespacePreTokenize(text)
	case "WhitespaceSplit":
		return strings.Fields(text)
	case "ByteLevel":
		if pt.AddPrefixSpace && len(text) > 0 && text[0] != ' ' {
			text = " " + text
		}
		return byteLevelPreTokenize(text)
	case "Metaspace":
		return metaspacePreTokenize(text, pt.AddPrefixSpace)
	case "Punctuation":
		return punctuationPreTokenize(text)
	case "Digits":
		return digitsPreTokenize(text, pt.IndividualDigits)
	case "Sequence":
		result := []string{text}
		for i := range pt.PreTokenizers {
			var next []string
			for _, s := range result {
				next = append(next, applyPreTokenizer(s, &pt.PreTokenizers[i])...)
			}
			result = next
		}
		return result
	default:
		return strings.Fields(text)
	}
}

// whitespacePreTokenize splits text into alternating runs of word characters
// and punctuation, dropping whitespace. "don't." becomes ["don", "'", "t", "."].
func whitespacePreTokenize(text string) []string {
	var tokens []string
	var current strings.Builder
	currentIsWord := false

	flush := func() {
		if current.Len() > 0 {
			tokens = append(tokens, current.String())
			current.Reset()
		}
	}

	for _, r := range text {
		switch {
		case isWhitespace(r):
			flush()
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_':
			if !currentIsWord {
				flush()
			}
			currentIsWord = true
			current.WriteRune(r)
		default:
			if currentIsWord {
				flush()
			}
			currentIsWord = false
			current.WriteRune(r)
		}
	}
	flush()
	return tokens
}

func bertPreTokenize(text string) []string {
	var tokens []string
	var current strings.Builder

	for _, r := range text {
		if isWhitespace(r) {
			if current.Len() > 0 {
				tokens = append(tokens, current.String())
				current.Reset()
			}
		} else if isPunctuation(r) {
			if current.Len() > 0 {
				tokens = append(tokens, current.String())
				current.Reset()
			}
			tokens = append(tokens, string(r))
		} else {
			current.WriteRune(r)
		}
	}

	if current.Len() > 0 {
		tokens = append(tokens, current.String())
	}
	return tokens
}

func punctuationPreTokenize(text string) []string {
	var tokens []string
	var current strings.Builder

	for _, r := range text {
		if isPunctuation(r) {
			if current.Len() > 0 {
				tokens = append(tokens, current.String())
				current.Reset()
			}
			tokens = append(tokens, string(r))
		} else {
			current.WriteRune(r)
		}
	}

	if current.Len() > 0 {
		tokens = append(tokens, current.String())
	}
	return tokens
}

func digitsPreTokenize(text string, individual bool) []string {
	var tokens []string
	var current strings.Builder
	currentIsDigit := false

	flush := func() {
		if current.Len() > 0 {
			tokens = append(tokens, current.String())
			current.Reset()
		}
	}

	for _, r := range text {
		isDigit := unicode.IsDigit(r)
		if current.Len() > 0 && isDigit != currentIsDigit {
			flush()
		}
		currentIsDigit = isDigit
		if isDigit && individual {
			flush()
			tokens = append(tokens, string(r))
			continue
		}
		current.WriteRune(r)
	}
	flush()
	return tokens
}

// Byte-level BPE uses the GPT-2 byte-to-unicode alphabet so that arbitrary
// bytes become printable symbols.
var byteToUnicode map[byte]rune
var unicodeToByte map[rune]byte

func init() {
	byteToUnicode = make(map[byte]rune)
	unicodeToByte = make(map[rune]byte)

	n := 0
	for b := 0; b < 256; b++ {
		if (b >= '!' && b <= '~') || (b >= 0xa1 && b <= 0xac) || (b >= 0xae && b <= 0xff) {
			byteToUnicode[byte(b)] = rune(b)
			unicodeToByte[rune(b)] = byte(b)
		} else {
			byteToUnicode[byte(b)] = rune(256 + n)
			unicodeToByte[rune(256+n)] = byte(b)
			n++
		}
	}
}

// byteLevelPreTokenize splits on spaces, attaching the space marker to the
// following word, and maps every byte through the GPT-2 alphabet.
func byteLevelPreTokenize(text string) []string {
	var tokens []string
	var current strings.Builder
	inWord := false

	for _, r := range text {
		if r == ' ' {
			if inWord {
				tokens = append(tokens, current.String())
				current.Reset()
			}
			current.WriteRune(byteToUnicode[' '])
			inWord = false
			continue
		}
		inWord = true
		for _, b := range []byte(string(r)) {
			current.WriteRune(byteToUnicode[b])
		}
	}

	if current.Len() > 0 {
		tokens = append(tokens, current.String())
	}
	return tokens
}

func byteLevelDecode(text string) string {
	var result []byte
	for _, r := range text {
		if b, ok := unicodeToByte[r]; ok {
			result = append(result, b)
		} else {
			result = append(result, []byte(string(r))...)
		}
	}
	return string(result)
}

const metaspaceRune = '▁'

func metaspacePreTokenize(text string, addPrefixSpace bool) []string {
	if addPrefixSpace && len(text) > 0 && text[0] != ' ' {
		text = " " + text
	}
	text = strings.ReplaceAll(text, " ", string(metaspaceRune))

	var tokens []string
	var current strings.Builder
	for _, r := range text {
		if r == metaspaceRune && current.Len() > 0 {
			tokens = append(tokens, current.String())
			current.Reset()
		}
		current.WriteRune(r)
	}
	if current.Len() > 0 {
		tokens = append(tokens, current.String())
	}
	return tokens
}
