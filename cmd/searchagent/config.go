package main

import (
	"fmt"
	"os"

	"github.com/ashutoshrp06/search-agent/internal/config"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or create configuration",
	Long:  "View the effective configuration or create a default config file.",
	RunE:  runConfig,
}

var (
	configInit bool
	configShow bool
)

func init() {
	configCmd.Flags().BoolVar(&configInit, "init", false, "Create default config file")
	configCmd.Flags().BoolVar(&configShow, "show", true, "Show current configuration")
}

func runConfig(cmd *cobra.Command, args []string) error {
	if configInit {
		path := configPath
		if path == "" {
			path = "config.yaml"
		}
		return initConfig(path)
	}

	if configShow {
		return showConfig()
	}
	return nil
}

func initConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		fmt.Println(lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B")).
			Render(path + " already exists. Use --show to view it."))
		return nil
	}

	if err := config.DefaultConfig().Save(path); err != nil {
		printError("Failed to create config", err)
		return err
	}

	fmt.Println(lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")).
		Render("Created " + path + " with default settings."))
	fmt.Println("\nEdit this file to configure:")
	fmt.Println("  - LLM endpoint, model and sampling")
	fmt.Println("  - Web search provider and result count")
	fmt.Println("  - Tool mode, round limit and streaming")
	fmt.Println("\nAPI keys are best supplied as DEEPSEEK_API_KEY and TAVILY_API_KEY.")
	return nil
}

func showConfig() error {
	cfg, err := loadConfig()
	if err != nil {
		printError("Could not load config", err)
		return err
	}

	fmt.Println(lipgloss.NewStyle().Foreground(lipgloss.Color("#06B6D4")).Bold(true).
		Render("Current Configuration:\n"))

	data, err := yaml.Marshal(cfg.Redacted())
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	fmt.Println(string(data))

	fmt.Println(lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF")).
		Render("Config file locations (in order of precedence):"))
	for i, path := range config.DefaultPaths() {
		fmt.Printf("  %d. %s\n", i+1, path)
	}
	fmt.Printf("  Environment: %s_<SECTION>_<KEY>, DEEPSEEK_API_KEY, TAVILY_API_KEY\n", config.EnvPrefix)
	return nil
}
