package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/ashutoshrp06/search-agent/pkg/models"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/ssestream"
	"github.com/openai/openai-go/shared"
	"go.uber.org/zap"
)

// Invoker is the model boundary used by the orchestrator.
type Invoker interface {
	// Complete performs one blocking model call.
	Complete(ctx context.Context, req Request) (*Response, error)

	// Stream starts a streaming model call. Failures that happen after the
	// call starts are reported by the stream's Err.
	Stream(ctx context.Context, req Request) (Stream, error)
}

// Response is the result of a non-streaming call.
type Response struct {
	Content      string
	ToolCalls    []models.ToolCall
	FinishReason string
}

// Fragment is one incremental piece of a streamed response.
type Fragment struct {
	Content   string
	ToolCalls []ToolCallFragment
}

// ToolCallFragment is a piece of one tool call. Index identifies the call
// within the response; ID and Name are usually present only on the first
// fragment of a call.
type ToolCallFragment struct {
	Index     int
	ID        string
	Name      string
	Arguments string
}

// Stream yields fragments until Next returns false, after which Err reports
// whether the stream ended normally.
type Stream interface {
	Next() bool
	Current() Fragment
	Err() error
	Close() error
}

// ClientConfig configures an OpenAI-compatible chat completions client.
type ClientConfig struct {
	APIKey     string
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Client talks to an OpenAI-compatible chat completions endpoint.
type Client struct {
	client openai.Client
	logger *zap.Logger
}

func NewClient(cfg ClientConfig) *Client {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	// Retry policy belongs to the caller.
	opts := []option.RequestOption{
		option.WithAPIKey(strings.TrimSpace(cfg.APIKey)),
		option.WithMaxRetries(0),
	}
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		opts = append(opts, option.WithBaseURL(base))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}

	return &Client{
		client: openai.NewClient(opts...),
		logger: cfg.Logger,
	}
}

// Complete sends req and waits for the full response.
func (c *Client) Complete(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	resp, err := c.client.Chat.Completions.New(ctx, toParams(req))
	if err != nil {
		c.logger.Warn("Chat completion failed", zap.String("model", req.Model), zap.Error(err))
		return nil, WrapInvocation("complete", err)
	}
	if len(resp.Choices) == 0 {
		return nil, WrapInvocation("complete", errors.New("response has no choices"))
	}

	choice := resp.Choices[0]
	out := &Response{
		Content:      choice.Message.Content,
		FinishReason: string(choice.FinishReason),
	}
	for _, tc := range choice.Message.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, models.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}

	c.logger.Debug("Chat completion finished",
		zap.String("model", req.Model),
		zap.Int("tool_calls", len(out.ToolCalls)),
		zap.String("finish_reason", out.FinishReason),
		zap.Duration("duration", time.Since(start)))

	return out, nil
}

// Stream starts a streaming chat completion.
func (c *Client) Stream(ctx context.Context, req Request) (Stream, error) {
	c.logger.Debug("Starting chat completion stream",
		zap.String("model", req.Model),
		zap.Int("messages", len(req.Messages)),
		zap.Bool("tools", req.HasTools()))

	return &chunkStream{stream: c.client.Chat.Completions.NewStreaming(ctx, toParams(req))}, nil
}

type chunkStream struct {
	stream *ssestream.Stream[openai.ChatCompletionChunk]
}

func (s *chunkStream) Next() bool { return s.stream.Next() }

func (s *chunkStream) Current() Fragment {
	chunk := s.stream.Current()
	if len(chunk.Choices) == 0 {
		return Fragment{}
	}

	delta := chunk.Choices[0].Delta
	frag := Fragment{Content: delta.Content}
	for _, tc := range delta.ToolCalls {
		frag.ToolCalls = append(frag.ToolCalls, ToolCallFragment{
			Index:     int(tc.Index),
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	return frag
}

func (s *chunkStream) Err() error { return WrapInvocation("stream", s.stream.Err()) }

func (s *chunkStream) Close() error { return s.stream.Close() }

func toParams(req Request) openai.ChatCompletionNewParams {
	params := openai.ChatCompletionNewParams{
		Model:       shared.ChatModel(req.Model),
		Messages:    toMessages(req.Messages),
		Temperature: openai.Float(req.Temperature),
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}

	if !req.HasTools() {
		return params
	}

	params.Tools = make([]openai.ChatCompletionToolParam, 0, len(req.Tools))
	for _, t := range req.Tools {
		fn := shared.FunctionDefinitionParam{
			Name:        t.Name,
			Description: openai.String(t.Description),
		}
		if t.Parameters != nil {
			fn.Parameters = shared.FunctionParameters(t.Parameters)
		}
		params.Tools = append(params.Tools, openai.ChatCompletionToolParam{Function: fn})
	}
	if req.ToolChoice != "" {
		params.ToolChoice = openai.ChatCompletionToolChoiceOptionUnionParam{
			OfAuto: openai.String(string(req.ToolChoice)),
		}
	}
	return params
}

func toMessages(messages []models.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case models.RoleSystem:
			out = append(out, openai.SystemMessage(msg.Content))
		case models.RoleUser:
			out = append(out, openai.UserMessage(msg.Content))
		case models.RoleTool:
			out = append(out, openai.ToolMessage(msg.Content, msg.ToolCallID))
		case models.RoleAssistant:
			if len(msg.ToolCalls) == 0 {
				out = append(out, openai.AssistantMessage(msg.Content))
				continue
			}
			calls := make([]openai.ChatCompletionMessageToolCallParam, 0, len(msg.ToolCalls))
			for _, tc := range msg.ToolCalls {
				calls = append(calls, openai.ChatCompletionMessageToolCallParam{
					ID: tc.ID,
					Function: openai.ChatCompletionMessageToolCallFunctionParam{
						Name:      tc.Name,
						Arguments: tc.Arguments,
					},
				})
			}
			assistant := openai.ChatCompletionAssistantMessageParam{ToolCalls: calls}
			if msg.Content != "" {
				assistant.Content = openai.ChatCompletionAssistantMessageParamContentUnion{
					OfString: openai.String(msg.Content),
				}
			}
			out = append(out, openai.ChatCompletionMessageParamUnion{OfAssistant: &assistant})
		}
	}
	return out
}
