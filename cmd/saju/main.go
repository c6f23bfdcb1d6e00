package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/LuckyMan0277/saju-app/cmd/saju/tui"
	"github.com/LuckyMan0277/saju-app/internal/client"
	"github.com/LuckyMan0277/saju-app/internal/config"
	"github.com/LuckyMan0277/saju-app/internal/inference"
	"github.com/LuckyMan0277/saju-app/internal/server"
)

var (
	// Global flags
	verbose    bool
	configPath string

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "saju",
	Short: "AI 사주팔자 분석 - two-stage Saju analysis over Gemini",
	Long: `saju derives the four stem-branch pillars from a birth profile via a
generative model, then produces per-topic narrative readings from them.

Run "saju serve" to start the HTTP API, or "saju chat" (the default)
for the interactive terminal client.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// The interactive client owns the terminal; keep zap quiet there.
		if cmd.Name() == "chat" || cmd.Name() == cmd.Root().Name() {
			logger = zap.NewNop()
			return nil
		}

		cfg := zap.NewProductionConfig()
		if verbose {
			cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = cfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		// Default behavior: launch the interactive client
		return runChat(cmd, args)
	},
}

// serveCmd runs the HTTP API server
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the saju analysis HTTP API",
	Long: `Starts the stateless analysis server.

Each request runs at most two sequential model calls: the pillar
computation (unless the client passed cached pillars back) and the
narrative for the one requested section.`,
	RunE: runServe,
}

// chatCmd runs the interactive terminal client
var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive terminal client for saju analysis",
	RunE:  runChat,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.LLM.APIKey == "" {
		return fmt.Errorf("no API key configured: set GEMINI_API_KEY or llm.api_key in %s", configPath)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gateway, err := inference.NewGemini(ctx, inference.GeminiConfig{
		APIKey:  cfg.LLM.APIKey,
		Model:   cfg.LLM.Model,
		Timeout: cfg.LLM.TimeoutDuration(),
	})
	if err != nil {
		return err
	}
	logger.Info("inference gateway ready", zap.String("model", gateway.Model()))

	srv := server.New(cfg.Server.Addr, gateway, logger)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(srv.ListenAndServe)
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	api := client.New(cfg.Client.BaseURL, cfg.Client.TimeoutDuration())
	return tui.Run(api)
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "saju.yaml", "path to config file")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(chatCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
