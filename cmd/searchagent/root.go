package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/ashutoshrp06/search-agent/internal/config"
	"github.com/ashutoshrp06/search-agent/internal/session"
	"github.com/ashutoshrp06/search-agent/internal/ui"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	configPath  string
	verbose     bool
	interactive bool
	stream      bool
	toolMode    string
	maxRounds   int
)

var rootCmd = &cobra.Command{
	Use:   "searchagent [question]",
	Short: "Answer questions with live web search",
	Long: ui.Banner() + `

  Ask a question; the assistant searches the web when it needs fresh facts
  and answers from what it found.

Usage:
  searchagent "Who won the 2024 Nobel Prize in Physics?"
  searchagent --mode never "Explain TCP slow start"
  searchagent --it`,

	Args: cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if interactive {
			return runInteractive(cmd)
		}
		if len(args) > 0 {
			return runOneShot(cmd, strings.Join(args, " "))
		}
		return cmd.Help()
	},
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolVar(&interactive, "it", false, "Start interactive mode")
	rootCmd.Flags().BoolVar(&stream, "stream", false, "Stream the answer as it is generated")
	rootCmd.Flags().StringVar(&toolMode, "mode", "", "Tool mode: never, auto or always")
	rootCmd.Flags().IntVar(&maxRounds, "max-rounds", 0, "Maximum tool rounds per question")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")

	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(toolsCmd)
	rootCmd.AddCommand(versionCmd)
}

func runOneShot(cmd *cobra.Command, question string) error {
	cfg, err := loadRunConfig(cmd)
	if err != nil {
		printError("Invalid configuration", err)
		return err
	}

	logger, err := createLogger(cfg.Logging, verbose, false)
	if err != nil {
		return err
	}
	defer logger.Sync()

	sess, err := startSession(cfg, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if _, err := ui.NewPrinter(os.Stdout, verbose).Print(sess.Send(ctx, question)); err != nil {
		printError("Request failed", err)
		return err
	}
	return nil
}

func runInteractive(cmd *cobra.Command) error {
	cfg, err := loadRunConfig(cmd)
	if err != nil {
		printError("Invalid configuration", err)
		return err
	}

	logger, err := createLogger(cfg.Logging, verbose, true)
	if err != nil {
		return err
	}
	defer logger.Sync()

	sess, err := startSession(cfg, logger)
	if err != nil {
		return err
	}

	// Check LLM connectivity.
	fmt.Print(lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B")).Render("Connecting to LLM... "))
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	err = sess.Ping(ctx)
	cancel()
	if err != nil {
		fmt.Println(lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Render("✗"))
		fmt.Println()
		printConnectionHelp(cfg, err)
		return err
	}
	fmt.Println(lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")).Render("✓"))
	fmt.Printf("Using model: %s\n", sess.Model())

	if err := ui.Run(sess); err != nil {
		printError("UI failed", err)
		return err
	}
	return nil
}

func startSession(cfg *config.Config, logger *zap.Logger) (*session.Session, error) {
	if cfg.LLM.APIKey == "" {
		err := errors.New("no API key configured")
		printError("Cannot start", err)
		printConnectionHelp(cfg, err)
		return nil, err
	}
	if cfg.Search.APIKey == "" {
		fmt.Fprintln(os.Stderr, lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B")).
			Render("TAVILY_API_KEY not set: web search is disabled."))
	}

	sess, err := newSession(cfg, logger)
	if err != nil {
		printError("Failed to initialize session", err)
		return nil, err
	}
	return sess, nil
}

// loadRunConfig loads configuration and applies command line overrides.
func loadRunConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if err := applyFlags(cmd, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	if cmd.Flags().Changed("stream") {
		cfg.Agent.Stream = stream
	}
	if toolMode != "" {
		cfg.Agent.ToolMode = toolMode
	}
	if cmd.Flags().Changed("max-rounds") {
		cfg.Agent.MaxRounds = maxRounds
	}
	return cfg.Validate()
}

func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.Load(configPath)
	}
	return config.LoadFromPaths(config.DefaultPaths()...)
}

func printError(msg string, err error) {
	fmt.Fprintln(os.Stderr, lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).
		Render(fmt.Sprintf("Error: %s: %v", msg, err)))
}

func printConnectionHelp(cfg *config.Config, err error) {
	helpStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF"))
	cmdStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#06B6D4"))
	errStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))

	fmt.Println(errStyle.Render(fmt.Sprintf("Could not use the model at %s: %v", cfg.LLM.BaseURL, err)))
	fmt.Println()
	fmt.Println(helpStyle.Render("Make sure an API key is set:"))
	fmt.Println(cmdStyle.Render("  export DEEPSEEK_API_KEY=sk-..."))
	fmt.Println(cmdStyle.Render("  export TAVILY_API_KEY=tvly-..."))
	fmt.Println()
	fmt.Println(helpStyle.Render("Or configure a different endpoint:"))
	fmt.Println(cmdStyle.Render("  Edit config.yaml and set llm.base_url and llm.model"))
}
