package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/terminator-ger/skorch/datasets"
	"github.com/terminator-ger/skorch/hf"
	"github.com/terminator-ger/skorch/tokenizers/hftokenizer"
)

var defaultSpecialTokens = []string{"[UNK]", "[CLS]", "[SEP]", "[PAD]", "[MASK]"}

func newTrainCmd() *cobra.Command {
	var (
		model     string
		vocabSize int
		maxLength int
		output    string
		lowercase bool
	)

	cmd := &cobra.Command{
		Use:   "train [corpus files...]",
		Short: "Train a tokenizer on a text corpus and save its state",
		Long: "Train a tokenizer on one or more corpus files. Files ending in " +
			".parquet are read as HuggingFace dataset shards with a \"text\" " +
			"column, anything else is read as one document per line.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			docs, err := loadCorpus(args)
			if err != nil {
				return err
			}

			engine, trainer, err := buildEngine(model, vocabSize, lowercase)
			if err != nil {
				return err
			}

			tok := hf.NewTokenizer(engine, trainer)
			tok.MaxLength = maxLength
			if err := tok.Fit(docs); err != nil {
				return err
			}
			if err := tok.SaveFile(output); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(),
				"trained %s tokenizer on %d documents, vocabulary size %d, saved to %s\n",
				model, len(docs), len(tok.Vocabulary()), output)
			return err
		},
	}

	cmd.Flags().StringVar(&model, "model", "bpe", "tokenization model: bpe, wordpiece, wordlevel or unigram")
	cmd.Flags().IntVar(&vocabSize, "vocab-size", 30000, "target vocabulary size")
	cmd.Flags().IntVar(&maxLength, "max-length", 256, "maximum sequence length for fixed-shape outputs")
	cmd.Flags().StringVarP(&output, "output", "o", "tokenizer-state.json", "path to write the trained tokenizer state")
	cmd.Flags().BoolVar(&lowercase, "lowercase", false, "lowercase text before tokenizing")
	return cmd
}

func loadCorpus(paths []string) ([]string, error) {
	var docs []string
	for _, path := range paths {
		if strings.HasSuffix(path, ".parquet") {
			shard, err := datasets.LoadText(path)
			if err != nil {
				return nil, err
			}
			docs = append(docs, shard...)
			continue
		}
		lines, err := readLines(path)
		if err != nil {
			return nil, err
		}
		docs = append(docs, lines...)
	}
	return docs, nil
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open corpus file %q", path)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "failed to read corpus file %q", path)
	}
	return lines, nil
}

func buildEngine(model string, vocabSize int, lowercase bool) (*hftokenizer.Tokenizer, hftokenizer.Trainer, error) {
	var (
		engine  *hftokenizer.Tokenizer
		trainer hftokenizer.Trainer
	)
	switch strings.ToLower(model) {
	case "bpe":
		engine = hftokenizer.NewBPE("[UNK]")
		trainer = hftokenizer.NewBpeTrainer(vocabSize, defaultSpecialTokens...)
	case "wordpiece":
		engine = hftokenizer.NewWordPiece("[UNK]")
		trainer = hftokenizer.NewWordPieceTrainer(vocabSize, defaultSpecialTokens...)
	case "wordlevel":
		engine = hftokenizer.NewWordLevel("[UNK]")
		trainer = hftokenizer.NewWordLevelTrainer(vocabSize, defaultSpecialTokens...)
	case "unigram":
		engine = hftokenizer.NewUnigram()
		trainer = hftokenizer.NewUnigramTrainer(vocabSize, defaultSpecialTokens...)
	default:
		return nil, nil, errors.Errorf("unknown model %q, expected bpe, wordpiece, wordlevel or unigram", model)
	}
	engine.WithPreTokenizer(hftokenizer.NewWhitespacePreTokenizer())
	if lowercase {
		engine.WithNormalizer(hftokenizer.NewLowercaseNormalizer())
	}
	return engine, trainer, nil
}
