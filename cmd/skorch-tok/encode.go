package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/terminator-ger/skorch/hf"
)

func newEncodeCmd() *cobra.Command {
	var (
		state      string
		pretrained string
		revision   string
	)

	cmd := &cobra.Command{
		Use:   "encode [documents...]",
		Short: "Encode documents to token id rows",
		Long: "Encode documents with a trained tokenizer state (--state) or a " +
			"pretrained HuggingFace model (--pretrained). Documents come from " +
			"the arguments, or from stdin one per line when no arguments are " +
			"given. Each output line is the JSON id row of one document.",
		RunE: func(cmd *cobra.Command, args []string) error {
			docs := args
			if len(docs) == 0 {
				var err error
				docs, err = readStdinLines()
				if err != nil {
					return err
				}
			}

			tok, err := loadTransformer(state, pretrained, revision)
			if err != nil {
				return err
			}
			batch, err := tok.Transform(docs)
			if err != nil {
				return err
			}
			rows, err := batch.Lists(hf.FieldInputIDs)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, row := range rows {
				line, err := json.Marshal(row)
				if err != nil {
					return errors.Wrap(err, "failed to marshal id row")
				}
				if _, err := fmt.Fprintln(out, string(line)); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&state, "state", "", "path to a trained tokenizer state file")
	cmd.Flags().StringVar(&pretrained, "pretrained", "", "HuggingFace model id to load the tokenizer from")
	cmd.Flags().StringVar(&revision, "revision", "main", "model revision used with --pretrained")
	cmd.MarkFlagsOneRequired("state", "pretrained")
	cmd.MarkFlagsMutuallyExclusive("state", "pretrained")
	return cmd
}

// transformer is the common surface of the trainable and pretrained
// tokenizers the encode and decode commands can drive.
type transformer interface {
	Transform(raw any) (*hf.Encoded, error)
	InverseTransform(batch *hf.Encoded) ([]string, error)
}

func loadTransformer(state, pretrained, revision string) (transformer, error) {
	if state != "" {
		tok, err := hf.LoadTokenizerFile(state)
		if err != nil {
			return nil, err
		}
		tok.Format = hf.FormatLists
		return tok, nil
	}
	tok := hf.NewPretrainedTokenizer(pretrained)
	tok.Revision = revision
	tok.CacheDir = viper.GetString("cache-dir")
	tok.AuthToken = viper.GetString("auth-token")
	tok.Format = hf.FormatLists
	if err := tok.Fit([]string{}); err != nil {
		return nil, err
	}
	return tok, nil
}

func readStdinLines() ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to read documents from stdin")
	}
	return lines, nil
}
