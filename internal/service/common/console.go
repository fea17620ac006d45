//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// affirmativeAnswer is the only input that confirms a prompt.
const affirmativeAnswer = "yes"

// Console is the user-facing output sink. Services print the report,
// prompts and guidance through it instead of the logger, so tests can
// capture output and the logger stays operational-only.
type Console interface {
	// Printf writes formatted text without a trailing newline.
	Printf(format string, args ...any)
	// Println writes the arguments followed by a newline.
	Println(args ...any)
}

// WriterConsole is a Console backed by an io.Writer (stdout in production).
type WriterConsole struct {
	w io.Writer
}

// NewConsole returns a Console writing to w.
func NewConsole(w io.Writer) *WriterConsole {
	return &WriterConsole{w: w}
}

// Printf implements Console.
func (c *WriterConsole) Printf(format string, args ...any) {
	_, _ = fmt.Fprintf(c.w, format, args...)
}

// Println implements Console.
func (c *WriterConsole) Println(args ...any) {
	_, _ = fmt.Fprintln(c.w, args...)
}

// Writer exposes the underlying writer so progress rendering can share the
// same destination as the report.
func (c *WriterConsole) Writer() io.Writer {
	return c.w
}

// Confirmer asks the user a yes/no question. An affirmative answer gates
// every privileged or network-heavy step.
type Confirmer interface {
	// Confirm presents the prompt and reports whether the user accepted.
	Confirm(prompt string) bool
}

// LineConfirmer reads one line per prompt from an input stream (stdin in
// production). Only a case-insensitive "yes" counts as acceptance; any other
// input, including a read failure, declines.
type LineConfirmer struct {
	reader  *bufio.Reader
	console Console
}

// NewLineConfirmer returns a Confirmer reading from r and prompting via console.
func NewLineConfirmer(r io.Reader, console Console) *LineConfirmer {
	return &LineConfirmer{
		reader:  bufio.NewReader(r),
		console: console,
	}
}

// Confirm implements Confirmer.
func (c *LineConfirmer) Confirm(prompt string) bool {
	c.console.Printf("%s (yes/no): ", prompt)

	line, err := c.reader.ReadString('\n')
	if err != nil && line == "" {
		return false
	}

	return strings.EqualFold(strings.TrimSpace(line), affirmativeAnswer)
}
