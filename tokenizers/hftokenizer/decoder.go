package hftokenizer

import "strings"

// Decode converts a sequence of token ids back to text, including special
// tokens. It implements api.Tokenizer.
func (t *Tokenizer) Decode(ids []int) string {
	return t.DecodeWithOptions(ids, false)
}

// DecodeWithOptions converts ids back to text, optionally dropping special
// tokens (added special tokens and the pad token).
func (t *Tokenizer) DecodeWithOptions(ids []int, skipSpecial bool) string {
	var tokens []string
	for _, id := range ids {
		if skipSpecial && t.specialIDs[id] {
			continue
		}
		if token, ok := t.idToToken[id]; ok {
			tokens = append(tokens, token)
		}
	}
	return t.applyDecoder(tokens)
}

func (t *Tokenizer) applyDecoder(tokens []string) string {
	d := t.def.Decoder
	if d == nil {
		// Byte-level tokens live in the GPT-2 alphabet and must be mapped
		// back to bytes even without an explicit decoder.
		if pt := t.def.PreTokenizer; pt != nil && pt.Type == "ByteLevel" {
			return byteLevelDecode(strings.Join(tokens, ""))
		}
		return t.subwordJoin(tokens, "")
	}

	switch d.Type {
	case "WordPiece":
		prefix := d.Prefix
		if prefix == "" {
			prefix = "##"
		}
		return t.subwordJoin(tokens, prefix)
	case "ByteLevel":
		return byteLevelDecode(strings.Join(tokens, ""))
	case "Metaspace":
		return metaspaceDecode(tokens)
	case "BPEDecoder":
		return bpeSuffixDecode(tokens, t.def.Model.EndOfWordSuffix)
	case "Sequence":
		// Sub-decoders we model (Replace/Strip/ByteFallback) keep tokens
		// unchanged at this granularity; join what remains.
		return strings.Join(tokens, "")
	default:
		return t.subwordJoin(tokens, "")
	}
}

// subwordJoin joins tokens with spaces, fusing continuation tokens (those
// carrying the model's continuing-subword prefix) onto the previous token.
// An empty prefix argument falls back to the model's configured prefix.
func (t *Tokenizer) subwordJoin(tokens []string, prefix string) string {
	if prefix == "" {
		prefix = t.def.Model.ContinuingSubwordPrefix
	}
	if prefix == "" {
		prefix = "##"
	}

	var result strings.Builder
	for i, token := range tokens {
		if strings.HasPrefix(token, prefix) {
			result.WriteString(strings.TrimPrefix(token, prefix))
			continue
		}
		if i > 0 {
			result.WriteString(" ")
		}
		result.WriteString(token)
	}
	return result.String()
}

func metaspaceDecode(tokens []string) string {
	var result strings.Builder
	for _, token := range tokens {
		result.WriteString(strings.ReplaceAll(token, string(metaspaceRune), " "))
	}
	return strings.TrimLeft(result.String(), " ")
}

func bpeSuffixDecode(tokens []string, suffix string) string {
	var result strings.Builder
	for i, token := range tokens {
		trimmed, hadSuffix := trimEndOfWord(token, suffix)
		result.WriteString(trimmed)
		if hadSuffix && i < len(tokens)-1 {
			result.WriteString(" ")
		}
	}
	return result.String()
}
