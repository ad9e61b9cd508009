package models

// EventType enumerates the kinds of events a streaming turn produces.
type EventType int

const (
	EventContent EventType = iota
	EventToolCallDelta
	EventToolCallComplete
	EventToolStart
	EventToolExecuting
	EventToolResult
	EventToolError
	EventCeilingReached
	EventDone
	EventError
)

func (t EventType) String() string {
	names := [...]string{
		"content",
		"tool-call-delta",
		"tool-call-complete",
		"tool-start",
		"tool-executing",
		"tool-result",
		"tool-error",
		"ceiling-reached",
		"done",
		"error",
	}
	if t < 0 || int(t) >= len(names) {
		return "unknown"
	}
	return names[t]
}

// Event is one record of a streaming turn. The set of implementations is
// closed: only the types in this file satisfy it.
type Event interface {
	Type() EventType
	event()
}

// ContentEvent carries a fragment of assistant text.
type ContentEvent struct {
	Text string
}

// ToolCallDeltaEvent carries one argument fragment of a tool call still being
// streamed.
type ToolCallDeltaEvent struct {
	Index    int
	ID       string
	Name     string
	Fragment string
}

// ToolCallCompleteEvent carries a fully reassembled tool call. It is emitted
// once per call when the stream ends, before the DoneEvent.
type ToolCallCompleteEvent struct {
	Index int
	Call  ToolCall
}

// ToolStartEvent opens the execution phase of a round.
type ToolStartEvent struct {
	Round int
	Calls []ToolCall
}

type ToolExecutingEvent struct {
	Call ToolCall
}

type ToolResultEvent struct {
	Call   ToolCall
	Result ToolResult
}

// ToolErrorEvent reports a tool call whose result is an error text. The text
// is still appended to the log.
type ToolErrorEvent struct {
	Call   ToolCall
	Result ToolResult
}

// CeilingReachedEvent is emitted once per turn when the round ceiling forces
// a tool-free summary.
type CeilingReachedEvent struct {
	Rounds int
}

// DoneEvent terminates a response. From the reassembler it carries the
// reconstructed text and tool calls of one model response; as the last event
// of a turn it carries the final answer.
type DoneEvent struct {
	Text      string
	ToolCalls []ToolCall
}

// ErrorEvent terminates a turn that failed.
type ErrorEvent struct {
	Err error
}

func (ContentEvent) Type() EventType          { return EventContent }
func (ToolCallDeltaEvent) Type() EventType    { return EventToolCallDelta }
func (ToolCallCompleteEvent) Type() EventType { return EventToolCallComplete }
func (ToolStartEvent) Type() EventType        { return EventToolStart }
func (ToolExecutingEvent) Type() EventType    { return EventToolExecuting }
func (ToolResultEvent) Type() EventType       { return EventToolResult }
func (ToolErrorEvent) Type() EventType        { return EventToolError }
func (CeilingReachedEvent) Type() EventType   { return EventCeilingReached }
func (DoneEvent) Type() EventType             { return EventDone }
func (ErrorEvent) Type() EventType            { return EventError }

func (ContentEvent) event()          {}
func (ToolCallDeltaEvent) event()    {}
func (ToolCallCompleteEvent) event() {}
func (ToolStartEvent) event()        {}
func (ToolExecutingEvent) event()    {}
func (ToolResultEvent) event()       {}
func (ToolErrorEvent) event()        {}
func (CeilingReachedEvent) event()   {}
func (DoneEvent) event()             {}
func (ErrorEvent) event()            {}

// PushTerminal delivers ev on ch without blocking, discarding the oldest
// buffered events when ch is full. The caller must be the only sender on ch.
// On an unbuffered channel ev is dropped unless a receiver is waiting.
func PushTerminal(ch chan Event, ev Event) {
	if cap(ch) == 0 {
		select {
		case ch <- ev:
		default:
		}
		return
	}
	for {
		select {
		case ch <- ev:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}
