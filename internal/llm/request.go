package llm

import "github.com/ashutoshrp06/search-agent/pkg/models"

// ToolChoice tells the model how it may use the offered tools.
type ToolChoice string

const (
	ToolChoiceAuto     ToolChoice = "auto"
	ToolChoiceRequired ToolChoice = "required"
	ToolChoiceNone     ToolChoice = "none"
)

// Settings are the per-conversation model parameters.
type Settings struct {
	Model       string
	Temperature float64
	MaxTokens   int
	ToolChoice  ToolChoice
}

// DefaultSettings returns the parameters used when none are configured.
func DefaultSettings() Settings {
	return Settings{
		Model:       "deepseek-chat",
		Temperature: 0.7,
		MaxTokens:   4096,
		ToolChoice:  ToolChoiceAuto,
	}
}

// Overrides replace individual Settings for a single call. Zero values keep
// the setting.
type Overrides struct {
	Temperature *float64
	MaxTokens   *int
	ToolChoice  ToolChoice
}

// Request is everything needed for one model invocation.
type Request struct {
	Model       string
	Messages    []models.Message
	Tools       []models.ToolSchema
	ToolChoice  ToolChoice
	Temperature float64
	MaxTokens   int
	Stream      bool
}

// HasTools reports whether tools are offered in this request.
func (r Request) HasTools() bool { return len(r.Tools) > 0 }

// BuildRequest assembles a request from its inputs without side effects.
// messages is used as given; without tools, ToolChoice is left empty so no
// tool fields reach the wire.
func BuildRequest(s Settings, messages []models.Message, tools []models.ToolSchema, o Overrides, stream bool) Request {
	req := Request{
		Model:       s.Model,
		Messages:    messages,
		Temperature: s.Temperature,
		MaxTokens:   s.MaxTokens,
		Stream:      stream,
	}

	if o.Temperature != nil {
		req.Temperature = *o.Temperature
	}
	if o.MaxTokens != nil {
		req.MaxTokens = *o.MaxTokens
	}

	if len(tools) == 0 {
		return req
	}

	req.Tools = append([]models.ToolSchema(nil), tools...)
	switch {
	case o.ToolChoice != "":
		req.ToolChoice = o.ToolChoice
	case s.ToolChoice != "":
		req.ToolChoice = s.ToolChoice
	default:
		req.ToolChoice = ToolChoiceAuto
	}
	return req
}
