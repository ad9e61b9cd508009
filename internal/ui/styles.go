package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// Palette is the set of colors the interface is drawn with.
type Palette struct {
	Brand  lipgloss.Color
	Query  lipgloss.Color
	Tool   lipgloss.Color
	Good   lipgloss.Color
	Bad    lipgloss.Color
	Warn   lipgloss.Color
	Faint  lipgloss.Color
	Body   lipgloss.Color
	Subtle lipgloss.Color
}

// DarkPalette suits dark terminal backgrounds.
func DarkPalette() Palette {
	return Palette{
		Brand:  lipgloss.Color("#7C3AED"),
		Query:  lipgloss.Color("#06B6D4"),
		Tool:   lipgloss.Color("#F59E0B"),
		Good:   lipgloss.Color("#10B981"),
		Bad:    lipgloss.Color("#EF4444"),
		Warn:   lipgloss.Color("#FBBF24"),
		Faint:  lipgloss.Color("#6B7280"),
		Body:   lipgloss.Color("#F9FAFB"),
		Subtle: lipgloss.Color("#9CA3AF"),
	}
}

// Styles groups the rendered elements of a conversation: the frame, chat
// lines, search/fetch activity and the status line.
type Styles struct {
	App         lipgloss.Style
	BannerTitle lipgloss.Style
	Prompt      lipgloss.Style

	UserMessage      lipgloss.Style
	AssistantMessage lipgloss.Style
	SystemMessage    lipgloss.Style
	ErrorText        lipgloss.Style

	// Tool activity
	ToolBox     lipgloss.Style
	ToolName    lipgloss.Style
	ToolParams  lipgloss.Style
	ToolOutput  lipgloss.Style
	ToolSuccess lipgloss.Style
	ToolError   lipgloss.Style

	StatusText lipgloss.Style
	StateLabel lipgloss.Style
	Notice     lipgloss.Style

	HelpKey   lipgloss.Style
	HelpValue lipgloss.Style
	HelpBar   lipgloss.Style
}

func fg(c lipgloss.Color) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(c)
}

// StylesFor derives every style from p.
func StylesFor(p Palette) Styles {
	indented := func(c lipgloss.Color) lipgloss.Style { return fg(c).PaddingLeft(2) }

	return Styles{
		App:         lipgloss.NewStyle().Padding(1, 2),
		BannerTitle: fg(p.Brand).Bold(true),
		Prompt:      fg(p.Query).Bold(true),

		UserMessage:      indented(p.Query).Bold(true),
		AssistantMessage: indented(p.Body),
		SystemMessage:    indented(p.Faint).Italic(true),
		ErrorText:        indented(p.Bad).Bold(true),

		ToolBox: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.Tool).
			Padding(0, 1).
			Margin(1, 0, 1, 2),
		ToolName:    fg(p.Tool).Bold(true),
		ToolParams:  fg(p.Subtle),
		ToolOutput:  fg(p.Body).PaddingLeft(1),
		ToolSuccess: fg(p.Good).Bold(true),
		ToolError:   fg(p.Bad).Bold(true),

		StatusText: fg(p.Subtle),
		StateLabel: fg(p.Brand).Bold(true),
		Notice:     fg(p.Warn).Italic(true),

		HelpKey:   fg(p.Faint),
		HelpValue: fg(p.Subtle),
		HelpBar:   fg(p.Faint).MarginTop(1),
	}
}

// DefaultStyles returns styles for the dark palette.
func DefaultStyles() Styles {
	return StylesFor(DarkPalette())
}

// Banner returns the title art shown above the conversation.
func Banner() string {
	return `
 ╔════════════════════════════════════════════════╗
 ║   ┏━┓┏━╸┏━┓┏━┓┏━╸╻ ╻   ┏━┓┏━╸┏━╸┏┓╻╺┳╸         ║
 ║   ┗━┓┣╸ ┣━┫┣┳┛┃  ┣━┫   ┣━┫┃╺┓┣╸ ┃┗┫ ┃          ║
 ║   ┗━┛┗━╸╹ ╹╹┗╸┗━╸╹ ╹   ╹ ╹┗━┛┗━╸╹ ╹ ╹          ║
 ║                                                ║
 ║     Tool-augmented answers from the live web   ║
 ╚════════════════════════════════════════════════╝`
}
