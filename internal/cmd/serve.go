package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/xaenox/intentbot/internal/bot"
	"github.com/xaenox/intentbot/internal/server"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	servePort     int
	serveTelegram bool

	newBot = bot.New
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the chat API over HTTP",
	Long: `Serve the chat API over HTTP. With --telegram the Telegram bot runs in the
same process and shares the classifier.`,
	RunE: runServe,
}

var telegramCmd = &cobra.Command{
	Use:   "telegram",
	Short: "Run the Telegram bot",
	RunE:  runTelegram,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(telegramCmd)

	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to listen on (overrides server.port)")
	serveCmd.Flags().BoolVar(&serveTelegram, "telegram", false, "Also run the Telegram bot")
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	defer logger.Sync()

	ctx, stop := signalContext()
	defer stop()

	cfg, e := mustEngine(ctx, logger)
	defer e.Close()

	port := cfg.Server.Port
	if servePort != 0 {
		port = servePort
	}

	var b *bot.Bot
	if serveTelegram {
		var err error
		b, err = newBot(cfg.Telegram.Token, e.classifier, e.corpus, logger)
		if err != nil {
			logger.Error("Failed to create bot", zap.Error(err))
			return err
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.New(e.classifier, e.corpus, logger).Run(ctx, port, cfg.Server.AllowedOrigins)
	})
	if b != nil {
		g.Go(func() error { return b.Start(ctx) })
	}

	if err := g.Wait(); err != nil {
		logger.Error("Server stopped", zap.Error(err))
		return err
	}
	return nil
}

func runTelegram(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	defer logger.Sync()

	ctx, stop := signalContext()
	defer stop()

	cfg, e := mustEngine(ctx, logger)
	defer e.Close()

	b, err := newBot(cfg.Telegram.Token, e.classifier, e.corpus, logger)
	if err != nil {
		logger.Error("Failed to create bot", zap.Error(err))
		return err
	}
	return b.Start(ctx)
}
