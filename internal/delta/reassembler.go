// Package delta rebuilds complete text and tool calls from a streamed model
// response.
package delta

import (
	"context"
	"sort"
	"strings"

	"github.com/ashutoshrp06/search-agent/internal/llm"
	"github.com/ashutoshrp06/search-agent/pkg/models"
)

type partial struct {
	index int
	call  models.ToolCall
}

// Reassembler accumulates fragments of one response. A zero value is not
// usable; call New.
type Reassembler struct {
	text    strings.Builder
	current *partial
	// finalized calls keyed by stream index
	calls map[int]models.ToolCall
}

func New() *Reassembler {
	return &Reassembler{calls: make(map[int]models.ToolCall)}
}

// Push consumes one fragment and returns the events it produces, in order.
func (r *Reassembler) Push(f llm.Fragment) []models.Event {
	var events []models.Event

	if f.Content != "" {
		r.text.WriteString(f.Content)
		events = append(events, models.ContentEvent{Text: f.Content})
	}

	for _, tc := range f.ToolCalls {
		if r.current == nil || tc.Index != r.current.index {
			r.park()
			r.open(tc)
		}

		if tc.Name != "" {
			r.current.call.Name = tc.Name
		}
		if r.current.call.ID == "" && tc.ID != "" {
			r.current.call.ID = tc.ID
		}
		if tc.Arguments != "" {
			r.current.call.Arguments += tc.Arguments
			events = append(events, models.ToolCallDeltaEvent{
				Index:    r.current.index,
				ID:       r.current.call.ID,
				Name:     r.current.call.Name,
				Fragment: tc.Arguments,
			})
		}
	}

	return events
}

// Finish closes the open tool call and returns one ToolCallCompleteEvent per
// call in index order, followed by the DoneEvent. Completion is only reported
// here because the stream may return to any index until it ends.
func (r *Reassembler) Finish() []models.Event {
	r.park()
	done := r.Done()
	events := make([]models.Event, 0, len(done.ToolCalls)+1)
	for i, idx := range r.indexes() {
		events = append(events, models.ToolCallCompleteEvent{Index: idx, Call: done.ToolCalls[i]})
	}
	return append(events, done)
}

// Done reports everything reassembled so far. Tool calls are ordered by
// stream index.
func (r *Reassembler) Done() models.DoneEvent {
	done := models.DoneEvent{Text: r.text.String()}
	if len(r.calls) == 0 {
		return done
	}

	indexes := r.indexes()
	done.ToolCalls = make([]models.ToolCall, 0, len(indexes))
	for _, idx := range indexes {
		done.ToolCalls = append(done.ToolCalls, r.calls[idx])
	}
	return done
}

// open starts a partial for tc's index. An index seen earlier in the stream
// resumes the call it started.
func (r *Reassembler) open(tc llm.ToolCallFragment) {
	if prev, ok := r.calls[tc.Index]; ok {
		r.current = &partial{index: tc.Index, call: prev}
		return
	}
	r.current = &partial{index: tc.Index, call: models.ToolCall{ID: tc.ID}}
}

// park stores the open partial under its index.
func (r *Reassembler) park() {
	if r.current == nil {
		return
	}
	r.calls[r.current.index] = r.current.call
	r.current = nil
}

func (r *Reassembler) indexes() []int {
	indexes := make([]int, 0, len(r.calls))
	for idx := range r.calls {
		indexes = append(indexes, idx)
	}
	sort.Ints(indexes)
	return indexes
}

// Consume drains stream into a new Reassembler, passing every intermediate
// event to emit, and returns the terminal DoneEvent. A stream failure or
// context cancellation is returned as an error and no DoneEvent is produced.
func Consume(ctx context.Context, stream llm.Stream, emit func(models.Event)) (models.DoneEvent, error) {
	if emit == nil {
		emit = func(models.Event) {}
	}

	r := New()
	for stream.Next() {
		if err := ctx.Err(); err != nil {
			return models.DoneEvent{}, err
		}
		for _, ev := range r.Push(stream.Current()) {
			emit(ev)
		}
	}
	if err := stream.Err(); err != nil {
		return models.DoneEvent{}, err
	}
	if err := ctx.Err(); err != nil {
		return models.DoneEvent{}, err
	}

	events := r.Finish()
	for _, ev := range events[:len(events)-1] {
		emit(ev)
	}
	return events[len(events)-1].(models.DoneEvent), nil
}
