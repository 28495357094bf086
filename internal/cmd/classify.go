package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/conductor/internal/classify"
	"github.com/Iron-Ham/conductor/internal/config"
)

var classifyCmd = &cobra.Command{
	Use:   "classify [text...]",
	Short: "Classify text with the active phrase table",
	Long: `Classify prints the category of each argument, or of each line read
from stdin when no arguments are given. Line terminators are removed the
way the monitor removes them; otherwise matching is exact, so surrounding
whitespace or extra text makes a phrase unrecognized.`,
	RunE: runClassify,
}

func init() {
	rootCmd.AddCommand(classifyCmd)
}

func runClassify(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	table, err := loadPhrases(cfg)
	if err != nil {
		return err
	}
	c := classify.NewClassifier(table)
	out := cmd.OutOrStdout()

	newline := cfg.Monitor.Newline

	if len(args) > 0 {
		for _, text := range args {
			printClassification(out, c, classify.Normalize(text, newline))
		}
		return nil
	}

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for scanner.Scan() {
		printClassification(out, c, strings.TrimSuffix(scanner.Text(), "\r"))
	}
	return scanner.Err()
}

func printClassification(w io.Writer, c classify.Classifier, key string) {
	fmt.Fprintf(w, "%s\t%s\n", c.Classify(key), key)
}
