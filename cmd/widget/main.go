package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/zhouzirui/chat-widget/internal/config"
	"github.com/zhouzirui/chat-widget/internal/model/profile"
)

var (
	envFile string
	logFile string
)

var rootCmd = &cobra.Command{
	Use:   "widget",
	Short: "Chat widget server and terminal client",
	Long: `widget serves a chat page that relays every message to an external
conversational endpoint, or embeds a hosted webchat in an iframe.

The deployment mode is chosen with WIDGET_MODE (custom or embed).`,
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	RunE:  runServe,
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the configured endpoint from the terminal",
	Long: `Opens a terminal chat over one session.

Enter sends, Alt+Enter or Ctrl+J inserts a newline, Ctrl+C quits.`,
	RunE: runChat,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	chatCmd.Flags().StringVar(&logFile, "log-file", "", "write logs to this file (default: discard)")

	rootCmd.AddCommand(serveCmd, chatCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads the optional dotenv file, then the environment.
func loadConfig() (*config.Config, error) {
	var envErr error
	if envFile != "" {
		envErr = godotenv.Load(envFile)
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if envErr != nil && !os.IsNotExist(envErr) {
		return cfg, fmt.Errorf("failed to load %s: %w", envFile, envErr)
	}
	return cfg, nil
}

func buildProfile(cfg config.WidgetConfig) profile.Profile {
	return profile.Default().WithOverrides(cfg.AppName, cfg.Tagline, cfg.Greeting)
}
