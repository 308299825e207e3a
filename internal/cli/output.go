package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/briandowns/spinner"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// KeyValueTable renders rows as a two-column KEY/VALUE table.
func KeyValueTable(w io.Writer, rows [][2]string) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{
		text.FgHiCyan.Sprint("KEY"),
		text.FgHiCyan.Sprint("VALUE"),
	})
	for _, row := range rows {
		t.AppendRow(table.Row{row[0], row[1]})
	}
	t.Render()
}

// StatusText colours a yes/no value.
func StatusText(ok bool, yes, no string) string {
	if ok {
		return text.FgGreen.Sprint(yes)
	}
	return text.FgYellow.Sprint(no)
}

// Spinner wraps the progress spinner shown while waiting. A quiet spinner
// prints nothing.
type Spinner struct {
	s *spinner.Spinner
}

// StartSpinner starts a spinner writing to w with suffix. When quiet is set
// the returned spinner is inert.
func StartSpinner(w io.Writer, quiet bool, suffix string) *Spinner {
	if quiet {
		return &Spinner{}
	}
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(w))
	s.Suffix = " " + suffix
	s.Start()
	return &Spinner{s: s}
}

// Stop stops the spinner and prints final, if any, in its place.
func (sp *Spinner) Stop(final string) {
	if sp.s == nil {
		return
	}
	if final != "" {
		sp.s.FinalMSG = final + "\n"
	}
	sp.s.Stop()
}

// Success formats a success line.
func Success(format string, args ...interface{}) string {
	return fmt.Sprintf("%s %s", text.FgGreen.Sprint("✓"), fmt.Sprintf(format, args...))
}

// Failure formats a failure line.
func Failure(format string, args ...interface{}) string {
	return fmt.Sprintf("%s %s", text.FgRed.Sprint("✗"), fmt.Sprintf(format, args...))
}
