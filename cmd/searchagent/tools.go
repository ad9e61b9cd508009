package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List available tools",
	Long: `List the tools the assistant may call.

Web search is only available when a Tavily API key is configured.

Examples:
  searchagent tools           # List all tools
  searchagent tools --verbose # Show parameter details`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTools()
	},
}

func runTools() error {
	headerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#7C3AED")).
		Bold(true)

	toolStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#F59E0B")).
		Bold(true)

	descStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#9CA3AF"))

	paramStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#06B6D4"))

	cfg, err := loadConfig()
	if err != nil {
		printError("Could not load config", err)
		return err
	}
	registry := buildRegistry(cfg)

	fmt.Println(headerStyle.Render("Available Tools"))
	fmt.Println()

	for _, tool := range registry.All() {
		fmt.Printf("  %s\n", toolStyle.Render(tool.Name()))
		fmt.Printf("    %s\n", descStyle.Render(tool.Description()))

		if verbose && len(tool.Parameters()) > 0 {
			fmt.Println("    Parameters:")
			for _, p := range tool.Parameters() {
				req := ""
				if p.Required {
					req = " (required)"
				}
				fmt.Printf("      %s %s%s\n", paramStyle.Render(p.Name), descStyle.Render(p.Type), req)
				if p.Description != "" {
					fmt.Printf("        %s\n", descStyle.Render(p.Description))
				}
				if len(p.Enum) > 0 {
					fmt.Printf("        %s\n", descStyle.Render(fmt.Sprintf("one of %v", p.Enum)))
				}
			}
		}
		fmt.Println()
	}

	fmt.Println(descStyle.Render(fmt.Sprintf("  Total: %d tools available", len(registry.List()))))
	if cfg.Search.APIKey == "" {
		fmt.Println(descStyle.Render("  Set TAVILY_API_KEY to enable web_search"))
	}
	if !verbose {
		fmt.Println(descStyle.Render("  Use --verbose for parameter details"))
	}
	return nil
}
