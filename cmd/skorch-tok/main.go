// Package main implements the skorch-tok command line interface: training,
// encoding and decoding text with tokenizers, plus fetching tokenizer files
// from HuggingFace Hub.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/terminator-ger/skorch/hub"
)

var (
	// Version is set at build time.
	Version = "dev"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "skorch-tok",
		Short:         "skorch-tok trains and applies text tokenizers",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.PersistentFlags().String("cache-dir", hub.DefaultCacheDir(),
		"directory used to cache files downloaded from HuggingFace Hub")
	rootCmd.PersistentFlags().String("auth-token", "",
		"HuggingFace Hub token used for gated or private repositories")

	viper.AutomaticEnv()
	viper.SetEnvPrefix("SKORCH")
	cobra.CheckErr(viper.BindPFlag("cache-dir", rootCmd.PersistentFlags().Lookup("cache-dir")))
	cobra.CheckErr(viper.BindPFlag("auth-token", rootCmd.PersistentFlags().Lookup("auth-token")))
	cobra.CheckErr(viper.BindEnv("cache-dir", "SKORCH_CACHE_DIR"))
	cobra.CheckErr(viper.BindEnv("auth-token", "SKORCH_AUTH_TOKEN", "HF_TOKEN"))

	rootCmd.AddCommand(newTrainCmd())
	rootCmd.AddCommand(newEncodeCmd())
	rootCmd.AddCommand(newDecodeCmd())
	rootCmd.AddCommand(newDownloadCmd())

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version number of skorch-tok",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "skorch-tok version %s\n", Version)
			return err
		},
	}
	rootCmd.AddCommand(versionCmd)

	return rootCmd
}
