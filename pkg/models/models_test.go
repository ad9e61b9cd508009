package models

import "testing"

func TestAgentState_String(t *testing.T) {
	tests := []struct {
		state    AgentState
		expected string
	}{
		{StateIdle, "Idle"},
		{StateThinking, "Thinking"},
		{StateToolCall, "Planning tool call"},
		{StateToolExecuting, "Executing tool"},
		{StateResponding, "Responding"},
		{StateError, "Error"},
		{AgentState(42), "Unknown"},
	}

	for _, tt := range tests {
		if got := tt.state.String(); got != tt.expected {
			t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.expected)
		}
	}
}

func TestEventType_String(t *testing.T) {
	events := []Event{
		ContentEvent{},
		ToolCallDeltaEvent{},
		ToolCallCompleteEvent{},
		ToolStartEvent{},
		ToolExecutingEvent{},
		ToolResultEvent{},
		ToolErrorEvent{},
		CeilingReachedEvent{},
		DoneEvent{},
		ErrorEvent{},
	}
	expected := []string{
		"content", "tool-call-delta", "tool-call-complete", "tool-start",
		"tool-executing", "tool-result", "tool-error", "ceiling-reached",
		"done", "error",
	}

	for i, ev := range events {
		if got := ev.Type().String(); got != expected[i] {
			t.Errorf("event %d: got %q, want %q", i, got, expected[i])
		}
	}
	if got := EventType(99).String(); got != "unknown" {
		t.Errorf("expected unknown, got %q", got)
	}
}

func TestMessage_Clone(t *testing.T) {
	orig := AssistantMessage("", ToolCall{ID: "call_1", Name: "web_search", Arguments: `{"query":"go"}`})
	clone := orig.Clone()
	clone.ToolCalls[0].Name = "changed"

	if orig.ToolCalls[0].Name != "web_search" {
		t.Fatalf("clone shares tool calls with original")
	}
}

func TestToolResult_Content(t *testing.T) {
	ok := ToolResult{Success: true, Output: "sunny, 25C"}
	if ok.Content() != "sunny, 25C" {
		t.Errorf("expected output, got %q", ok.Content())
	}

	failed := ToolResult{Success: false, Output: "ignored", Error: "tool not found: foo"}
	if failed.Content() != "tool not found: foo" {
		t.Errorf("expected error text, got %q", failed.Content())
	}
}

func TestPushTerminal(t *testing.T) {
	tests := []struct {
		name     string
		capacity int
		buffered int
		wantLen  int
	}{
		{"empty buffer", 3, 0, 1},
		{"partly full", 3, 1, 2},
		{"full buffer drops oldest", 3, 3, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ch := make(chan Event, tt.capacity)
			for i := 0; i < tt.buffered; i++ {
				ch <- ContentEvent{Text: string(rune('a' + i))}
			}
			PushTerminal(ch, DoneEvent{Text: "final"})
			close(ch)

			var got []Event
			for ev := range ch {
				got = append(got, ev)
			}
			if len(got) != tt.wantLen {
				t.Fatalf("got %d events, want %d", len(got), tt.wantLen)
			}
			if done, ok := got[len(got)-1].(DoneEvent); !ok || done.Text != "final" {
				t.Fatalf("terminal event not last: %+v", got)
			}
			if tt.buffered == tt.capacity {
				if first := got[0].(ContentEvent); first.Text != "b" {
					t.Fatalf("expected oldest event dropped, first is %q", first.Text)
				}
			}
		})
	}
}

func TestPushTerminal_UnbufferedWithoutReceiver(t *testing.T) {
	ch := make(chan Event)
	PushTerminal(ch, DoneEvent{})
}
