package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var classifyCmd = &cobra.Command{
	Use:   "classify <message>",
	Short: "Classify a single message and print the result as JSON",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()
		defer logger.Sync()

		ctx := context.Background()
		_, e := mustEngine(ctx, logger)
		defer e.Close()

		result := e.classifier.Classify(ctx, strings.Join(args, " "))
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

var intentsCmd = &cobra.Command{
	Use:   "intents [query]",
	Short: "List the intent tags in the corpus",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()
		defer logger.Sync()

		_, e := mustEngine(context.Background(), logger)
		defer e.Close()

		query := ""
		if len(args) == 1 {
			query = args[0]
		}
		for _, tag := range e.corpus.SearchTags(query) {
			fmt.Fprintln(cmd.OutOrStdout(), tag)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(classifyCmd)
	rootCmd.AddCommand(intentsCmd)
}
