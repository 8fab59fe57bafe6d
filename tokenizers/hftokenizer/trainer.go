package hftokenizer

import (
	"sort"
	"strings"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Trainer builds a tokenizer model from word frequencies. Train returns the
// model and the special tokens reserved at the front of its vocabulary.
type Trainer interface {
	Train(words map[string]int) (*Model, []string, error)
}

// Train builds word counts from the corpus using the configured normalizer
// and pre-tokenizer, then replaces the model with the trainer's output.
// The previous vocabulary is discarded wholesale.
func (t *Tokenizer) Train(docs []string, trainer Trainer) error {
	if trainer == nil {
		return errors.New("cannot train: trainer is nil")
	}
	words := t.wordCounts(docs)
	klog.V(1).Infof("training %s tokenizer on %d distinct words", t.def.Model.Type, len(words))

	model, specials, err := trainer.Train(words)
	if err != nil {
		return err
	}
	if model.Type == "" {
		model.Type = t.def.Model.Type
	}
	if model.UnkToken == "" {
		model.UnkToken = t.def.Model.UnkToken
	}
	if model.Type == "WordPiece" && model.ContinuingSubwordPrefix == "" {
		model.ContinuingSubwordPrefix = "##"
	}

	t.def.Model = *model
	t.def.AddedTokens = nil
	for _, s := range specials {
		id, ok := model.Vocab[s]
		if !ok {
			continue
		}
		t.def.AddedTokens = append(t.def.AddedTokens, AddedToken{ID: id, Content: s, Special: true})
	}
	t.rebuild()

	// The unknown token must be resolvable or unknown words would be
	// silently dropped.
	if model.UnkToken != "" && t.unkID < 0 {
		t.AddSpecialTokens(model.UnkToken)
	}
	klog.V(1).Infof("trained vocabulary has %d entries", t.VocabSize())
	return nil
}

func (t *Tokenizer) wordCounts(docs []string) map[string]int {
	counts := make(map[string]int)
	for _, doc := range docs {
		for _, w := range t.preTokenize(t.normalize(doc)) {
			counts[w]++
		}
	}
	return counts
}

// vocabBuilder assigns consecutive ids in insertion order.
type vocabBuilder struct {
	vocab map[string]int
}

func newVocabBuilder() *vocabBuilder { return &vocabBuilder{vocab: map[string]int{}} }

func (b *vocabBuilder) add(token string) {
	if _, ok := b.vocab[token]; !ok {
		b.vocab[token] = len(b.vocab)
	}
}

func (b *vocabBuilder) size() int { return len(b.vocab) }

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// BpeTrainer learns byte-pair-encoding merges until the vocabulary reaches
// VocabSize or no mergeable pair remains.
type BpeTrainer struct {
	VocabSize     int
	MinFrequency  int
	SpecialTokens []string
	ShowProgress  bool
}

// NewBpeTrainer returns a BPE trainer targeting the given vocabulary size.
func NewBpeTrainer(vocabSize int, specialTokens ...string) *BpeTrainer {
	return &BpeTrainer{VocabSize: vocabSize, SpecialTokens: specialTokens}
}

func (tr *BpeTrainer) Train(words map[string]int) (*Model, []string, error) {
	model, merges, err := trainMerges(words, tr.VocabSize, tr.MinFrequency, tr.SpecialTokens, "", tr.ShowProgress)
	if err != nil {
		return nil, nil, err
	}
	model.Type = "BPE"
	model.Merges = merges
	return model, tr.SpecialTokens, nil
}

// WordPieceTrainer learns a WordPiece vocabulary by BPE-style merging over
// symbols carrying the continuing-subword prefix.
type WordPieceTrainer struct {
	VocabSize               int
	MinFrequency            int
	SpecialTokens           []string
	ContinuingSubwordPrefix string
	ShowProgress            bool
}

// NewWordPieceTrainer returns a WordPiece trainer targeting the given
// vocabulary size.
func NewWordPieceTrainer(vocabSize int, specialTokens ...string) *WordPieceTrainer {
	return &WordPieceTrainer{
		VocabSize:               vocabSize,
		SpecialTokens:           specialTokens,
		ContinuingSubwordPrefix: "##",
	}
}

func (tr *WordPieceTrainer) Train(words map[string]int) (*Model, []string, error) {
	prefix := tr.ContinuingSubwordPrefix
	if prefix == "" {
		prefix = "##"
	}
	model, _, err := trainMerges(words, tr.VocabSize, tr.MinFrequency, tr.SpecialTokens, prefix, tr.ShowProgress)
	if err != nil {
		return nil, nil, err
	}
	// WordPiece matches greedily against the vocabulary at encoding time;
	// the merge list itself is not needed.
	model.Type = "WordPiece"
	model.ContinuingSubwordPrefix = prefix
	model.MaxInputCharsPerWord = 100
	return model, tr.SpecialTokens, nil
}

// trainMerges is the shared merge-learning loop for BPE and WordPiece. With
// a non-empty prefix, non-initial symbols carry it and merging strips it
// from the right-hand side.
func trainMerges(words map[string]int, vocabSize, minFrequency int, specials []string, prefix string, showProgress bool) (*Model, []string, error) {
	if vocabSize <= 0 {
		return nil, nil, errors.Errorf("vocab size must be positive, got %d", vocabSize)
	}

	b := newVocabBuilder()
	for _, s := range specials {
		b.add(s)
	}

	type sequence struct {
		syms []string
		freq int
	}

	alphabet := map[string]bool{}
	seqs := make([]sequence, 0, len(words))
	for _, w := range sortedKeys(words) {
		var syms []string
		for i, r := range w {
			s := string(r)
			if prefix != "" && i > 0 {
				s = prefix + string(r)
			}
			alphabet[s] = true
			syms = append(syms, s)
		}
		seqs = append(seqs, sequence{syms: syms, freq: words[w]})
	}
	alphaSorted := make([]string, 0, len(alphabet))
	for s := range alphabet {
		alphaSorted = append(alphaSorted, s)
	}
	sort.Strings(alphaSorted)
	for _, s := range alphaSorted {
		b.add(s)
	}

	if minFrequency < 1 {
		minFrequency = 1
	}

	var merges []string
	for b.size() < vocabSize {
		pairCounts := map[string]int{}
		for _, seq := range seqs {
			for i := 0; i < len(seq.syms)-1; i++ {
				pairCounts[seq.syms[i]+" "+seq.syms[i+1]] += seq.freq
			}
		}

		// Best pair: highest count, lexicographically first on ties, so
		// training is deterministic.
		best := ""
		bestCount := 0
		for pair, count := range pairCounts {
			if count > bestCount || (count == bestCount && (best == "" || pair < best)) {
				best = pair
				bestCount = count
			}
		}
		if best == "" || bestCount < minFrequency {
			break
		}

		parts := strings.SplitN(best, " ", 2)
		merged := mergeSymbols(parts[0], parts[1], prefix)
		merges = append(merges, best)
		b.add(merged)

		for si := range seqs {
			syms := seqs[si].syms
			for i := 0; i < len(syms)-1; {
				if syms[i] == parts[0] && syms[i+1] == parts[1] {
					syms[i] = merged
					syms = append(syms[:i+1], syms[i+2:]...)
				} else {
					i++
				}
			}
			seqs[si].syms = syms
		}

		if showProgress && len(merges)%100 == 0 {
			klog.Infof("learned %d merges, vocabulary at %d/%d", len(merges), b.size(), vocabSize)
		}
	}

	return &Model{Vocab: b.vocab}, merges, nil
}

func mergeSymbols(left, right, prefix string) string {
	if prefix != "" {
		right = strings.TrimPrefix(right, prefix)
	}
	return left + right
}

// WordLevelTrainer keeps the most frequent whole words.
type WordLevelTrainer struct {
	VocabSize     int
	MinFrequency  int
	SpecialTokens []string
	ShowProgress  bool
}

// NewWordLevelTrainer returns a WordLevel trainer targeting the given
// vocabulary size.
func NewWordLevelTrainer(vocabSize int, specialTokens ...string) *WordLevelTrainer {
	return &WordLevelTrainer{VocabSize: vocabSize, SpecialTokens: specialTokens}
}

func (tr *WordLevelTrainer) Train(words map[string]int) (*Model, []string, error) {
	if tr.VocabSize <= 0 {
		return nil, nil, errors.Errorf("vocab size must be positive, got %d", tr.VocabSize)
	}

	b := newVocabBuilder()
	for _, s := range tr.SpecialTokens {
		b.add(s)
	}

	type wordFreq struct {
		word string
		freq int
	}
	sorted := make([]wordFreq, 0, len(words))
	for w, f := range words {
		sorted = append(sorted, wordFreq{w, f})
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].freq != sorted[j].freq {
			return sorted[i].freq > sorted[j].freq
		}
		return sorted[i].word < sorted[j].word
	})

	for _, wf := range sorted {
		if b.size() >= tr.VocabSize {
			break
		}
		if tr.MinFrequency > 0 && wf.freq < tr.MinFrequency {
			break
		}
		b.add(wf.word)
	}
	return &Model{Type: "WordLevel", Vocab: b.vocab}, tr.SpecialTokens, nil
}

// UnigramTrainer keeps single characters plus the highest-scoring substrings
// of the corpus words. The reference implementation prunes candidates with
// EM over piece likelihoods; frequency-times-length scoring approximates the
// same preference for long frequent pieces.
type UnigramTrainer struct {
	VocabSize      int
	SpecialTokens  []string
	MaxPieceLength int
	ShowProgress   bool
}

// NewUnigramTrainer returns a unigram trainer targeting the given vocabulary
// size.
func NewUnigramTrainer(vocabSize int, specialTokens ...string) *UnigramTrainer {
	return &UnigramTrainer{VocabSize: vocabSize, SpecialTokens: specialTokens, MaxPieceLength: 8}
}

func (tr *UnigramTrainer) Train(words map[string]int) (*Model, []string, error) {
	if tr.VocabSize <= 0 {
		return nil, nil, errors.Errorf("vocab size must be positive, got %d", tr.VocabSize)
	}
	maxLen := tr.MaxPieceLength
	if maxLen <= 0 {
		maxLen = 8
	}

	b := newVocabBuilder()
	for _, s := range tr.SpecialTokens {
		b.add(s)
	}

	chars := map[string]bool{}
	scores := map[string]int{}
	for _, w := range sortedKeys(words) {
		freq := words[w]
		runes := []rune(w)
		for i, r := range runes {
			chars[string(r)] = true
			for l := 2; l <= maxLen && i+l <= len(runes); l++ {
				piece := string(runes[i : i+l])
				scores[piece] += freq * l
			}
		}
	}

	charsSorted := make([]string, 0, len(chars))
	for c := range chars {
		charsSorted = append(charsSorted, c)
	}
	sort.Strings(charsSorted)
	for _, c := range charsSorted {
		b.add(c)
	}

	type scored struct {
		piece string
		score int
	}
	candidates := make([]scored, 0, len(scores))
	for p, s := range scores {
		candidates = append(candidates, scored{p, s})
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].piece < candidates[j].piece
	})

	for _, c := range candidates {
		if b.size() >= tr.VocabSize {
			break
		}
		b.add(c.piece)
	}
	return &Model{Type: "Unigram", Vocab: b.vocab}, tr.SpecialTokens, nil
}
