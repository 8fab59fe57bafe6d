package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/terminator-ger/skorch/hub"
)

func newDownloadCmd() *cobra.Command {
	var revision string

	cmd := &cobra.Command{
		Use:   "download <model id> [files...]",
		Short: "Download tokenizer files from HuggingFace Hub into the cache",
		Long: "Download files from a HuggingFace Hub repository into the local " +
			"cache and print their paths. With no file arguments, fetches " +
			"tokenizer.json.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			modelID := args[0]
			files := args[1:]
			if len(files) == 0 {
				files = []string{"tokenizer.json"}
			}

			repo := hub.New(modelID).
				WithRevision(revision).
				WithCacheDir(viper.GetString("cache-dir")).
				WithAuth(viper.GetString("auth-token"))

			for _, file := range files {
				path, err := repo.WithProgressCallback(hub.ProgressBar(file)).DownloadFile(file)
				if err != nil {
					return err
				}
				if _, err := fmt.Fprintln(cmd.OutOrStdout(), path); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&revision, "revision", "main", "repository revision to download from")
	return cmd
}
