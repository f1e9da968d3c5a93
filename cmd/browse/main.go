package main

import (
	"context"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"promptly/config"
	"promptly/library"
	"promptly/tui"
)

var (
	query    string
	category string
	source   string
	logFile  string
)

var rootCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse and copy prompts in the terminal",
	Long: `Browse the prompt library in the terminal.

Prompts are loaded from the same source as the web server, selected by
PROMPTS_SOURCE and the GOOGLE_* variables. Press enter to copy the
selected prompt to the system clipboard.`,
	SilenceUsage: true,
	RunE:         runBrowse,
}

func init() {
	rootCmd.Flags().StringVarP(&query, "query", "q", "", "Initial search term")
	rootCmd.Flags().StringVarP(&category, "category", "c", "", "Initial category")
	rootCmd.Flags().StringVar(&source, "source", "", "Prompt source: sheets, static or table (overrides PROMPTS_SOURCE)")
	rootCmd.Flags().StringVar(&logFile, "log-file", "", "Append logs to this file (the terminal is used by the UI)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runBrowse(cmd *cobra.Command, args []string) error {
	getenv := os.Getenv
	if source != "" {
		getenv = func(k string) string {
			if k == "PROMPTS_SOURCE" {
				return source
			}
			return os.Getenv(k)
		}
	}
	cfg, err := config.FromEnv(getenv)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logger := log.New()
	logger.SetLevel(cfg.Level())
	logger.SetOutput(io.Discard)
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log: %w", err)
		}
		defer f.Close()
		logger.SetOutput(f)
	}

	src, err := cfg.PromptSource(cfg.RedisClient(), logger)
	if err != nil {
		return fmt.Errorf("prompt source: %w", err)
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	lib := library.New(src, logger)
	model := tui.New(ctx, lib, nil).WithFilter(query, category)
	if _, err := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run(); err != nil {
		return fmt.Errorf("browse: %w", err)
	}
	return nil
}
