package ui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/ashutoshrp06/search-agent/pkg/models"
)

// Printer writes turn events to a plain terminal as they arrive. It is used
// for one-shot queries where the full-screen UI would be in the way.
type Printer struct {
	w       io.Writer
	styles  Styles
	verbose bool

	// streamed holds text printed since the last tool round.
	streamed strings.Builder
}

// NewPrinter creates a printer. In verbose mode tool output is shown too.
func NewPrinter(w io.Writer, verbose bool) *Printer {
	return &Printer{w: w, styles: DefaultStyles(), verbose: verbose}
}

// Print consumes events until the channel closes and returns the final
// answer, or the error carried by the terminal event.
func (p *Printer) Print(events <-chan models.Event) (string, error) {
	var (
		answer string
		err    error
	)

	for ev := range events {
		switch e := ev.(type) {
		case models.ContentEvent:
			p.streamed.WriteString(e.Text)
			fmt.Fprint(p.w, e.Text)

		case models.ToolStartEvent:
			p.endLine()
			names := make([]string, len(e.Calls))
			for i, c := range e.Calls {
				names[i] = c.Name
			}
			fmt.Fprintln(p.w, p.styles.Notice.Render(
				fmt.Sprintf("Round %d: %s", e.Round, strings.Join(names, ", "))))

		case models.ToolExecutingEvent:
			fmt.Fprintf(p.w, "  %s %s\n",
				p.styles.ToolName.Render("-> "+e.Call.Name),
				p.styles.ToolParams.Render(truncate(e.Call.Arguments, 80)))

		case models.ToolResultEvent:
			fmt.Fprintln(p.w, p.styles.ToolSuccess.Render(
				fmt.Sprintf("     ok (%s)", e.Result.Duration.Round(time.Millisecond))))
			if p.verbose {
				for _, line := range strings.Split(truncate(e.Result.Output, 500), "\n") {
					if line != "" {
						fmt.Fprintln(p.w, p.styles.ToolOutput.Render("     | "+line))
					}
				}
			}

		case models.ToolErrorEvent:
			fmt.Fprintln(p.w, p.styles.ToolError.Render("     failed: "+e.Result.Error))

		case models.CeilingReachedEvent:
			p.endLine()
			fmt.Fprintln(p.w, p.styles.Notice.Render(
				fmt.Sprintf("Round limit reached after %d rounds, summarizing.", e.Rounds)))

		case models.DoneEvent:
			if strings.TrimSpace(p.streamed.String()) == "" {
				fmt.Fprint(p.w, e.Text)
			}
			fmt.Fprintln(p.w)
			answer = e.Text

		case models.ErrorEvent:
			p.endLine()
			err = e.Err
		}
	}

	return answer, err
}

// endLine terminates streamed text so notices start on their own line.
func (p *Printer) endLine() {
	if p.streamed.Len() > 0 {
		fmt.Fprintln(p.w)
	}
	p.streamed.Reset()
}
