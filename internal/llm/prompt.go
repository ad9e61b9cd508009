package llm

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ashutoshrp06/search-agent/pkg/models"
)

// SummaryInstruction is appended as a user message when a turn runs out of
// tool rounds.
const SummaryInstruction = "Tool use is no longer available for this question. " +
	"Using only the information already gathered above, give a complete and accurate final answer. " +
	"Do not say that more searching is needed; answer the user's question directly."

// FallbackAnswer is returned when the model produces no text in the forced
// summary round.
const FallbackAnswer = "I could not produce an answer from the gathered information."

// BuildSystemPrompt loads the prompt template at path and substitutes
// {{TOOLS}} and {{DATE}}. Falls back to a built-in prompt if the file cannot
// be read.
func BuildSystemPrompt(path string, tools []models.ToolSchema, now time.Time) string {
	if path == "" {
		return buildFallbackPrompt(tools, now)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return buildFallbackPrompt(tools, now)
	}

	prompt := string(raw)
	prompt = strings.ReplaceAll(prompt, "{{TOOLS}}", buildToolList(tools))
	prompt = strings.ReplaceAll(prompt, "{{DATE}}", now.Format("2006-01-02"))
	return prompt
}

func buildToolList(tools []models.ToolSchema) string {
	if len(tools) == 0 {
		return "No tools available."
	}

	var sb strings.Builder
	for _, t := range tools {
		sb.WriteString(fmt.Sprintf("- %s: %s\n", t.Name, t.Description))
	}
	return sb.String()
}

func buildFallbackPrompt(tools []models.ToolSchema, now time.Time) string {
	var sb strings.Builder

	sb.WriteString("You are a helpful research assistant.\n")
	sb.WriteString(fmt.Sprintf("Today's date is %s.\n\n", now.Format("2006-01-02")))

	if len(tools) > 0 {
		sb.WriteString("You can use these tools:\n")
		sb.WriteString(buildToolList(tools))
		sb.WriteString(`
How to work:
- First decide whether the question needs current or external information. If not, answer directly.
- Search with focused queries and try different wording when results are weak.
- After every search, judge whether you already have enough to answer. Avoid repeated searches.
- Cite the sources you relied on.
`)
	}

	sb.WriteString("\nAnswer in the language the user writes in.")
	return sb.String()
}
