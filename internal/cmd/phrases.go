package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/conductor/internal/classify"
	"github.com/Iron-Ham/conductor/internal/config"
	"github.com/Iron-Ham/conductor/internal/render"
)

var phrasesCmd = &cobra.Command{
	Use:   "phrases",
	Short: "List the active phrase table",
	Long: `Phrases lists every phrase conductor recognizes and its category.
With --file, the given phrase file is validated and listed instead of the
configured one.`,
	Args: cobra.NoArgs,
	RunE: runPhrases,
}

var phrasesFile string

func init() {
	rootCmd.AddCommand(phrasesCmd)
	phrasesCmd.Flags().StringVar(&phrasesFile, "file", "", "phrase file to validate and list")
}

func runPhrases(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	var table *classify.Table
	if phrasesFile != "" {
		table, err = classify.LoadTable(phrasesFile)
	} else {
		table, err = loadPhrases(cfg)
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	return render.WriteTable(out, table, colorFor(cfg.Output.Color, out))
}
