package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/xaenox/intentbot/internal/mcpserver"
	"go.uber.org/zap"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the classifier as an MCP tool over stdio",
	RunE: func(cmd *cobra.Command, args []string) error {
		// stdout carries the protocol, so logs go to stderr only
		logger := newLogger()
		defer logger.Sync()

		ctx, stop := signalContext()
		defer stop()

		_, e := mustEngine(ctx, logger)
		defer e.Close()

		s := mcpserver.New(Version, e.classifier, e.corpus, logger)
		if err := s.Serve(ctx, os.Stdin, os.Stdout); err != nil {
			logger.Error("MCP server stopped", zap.Error(err))
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
