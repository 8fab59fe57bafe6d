package main

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/terminator-ger/skorch/hf"
)

func newDecodeCmd() *cobra.Command {
	var (
		state      string
		pretrained string
		revision   string
	)

	cmd := &cobra.Command{
		Use:   "decode [token ids...]",
		Short: "Decode token id rows back to text",
		Long: "Decode token ids with a trained tokenizer state (--state) or a " +
			"pretrained HuggingFace model (--pretrained). Ids come from the " +
			"arguments as a single row, or from stdin as one JSON array per " +
			"line.",
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := collectIDRows(args)
			if err != nil {
				return err
			}

			tok, err := loadTransformer(state, pretrained, revision)
			if err != nil {
				return err
			}
			texts, err := tok.InverseTransform(hf.NewEncoded(hf.FormatLists, rows))
			if err != nil {
				return err
			}
			for _, text := range texts {
				if _, err := fmt.Fprintln(cmd.OutOrStdout(), text); err != nil {
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

func collectIDRows(args []string) ([][]int, error) {
	if len(args) > 0 {
		row := make([]int, len(args))
		for i, arg := range args {
			id, err := strconv.Atoi(arg)
			if err != nil {
				return nil, errors.Errorf("token id %q is not an integer", arg)
			}
			row[i] = id
		}
		return [][]int{row}, nil
	}

	lines, err := readStdinLines()
	if err != nil {
		return nil, err
	}
	rows := make([][]int, 0, len(lines))
	for _, line := range lines {
		if line == "" {
			continue
		}
		var row []int
		if err := json.Unmarshal([]byte(line), &row); err != nil {
			return nil, errors.Wrapf(err, "failed to parse id row %q", line)
		}
		rows = append(rows, row)
	}
	return rows, nil
}
