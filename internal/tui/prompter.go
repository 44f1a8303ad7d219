package tui

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"
)

// Prompter reads one line of user input in response to a message.
// It returns io.EOF when input is exhausted.
type Prompter interface {
	Prompt(ctx context.Context, message string) (string, error)
}

// NewPrompter picks the bubbletea prompter when in is an interactive
// terminal and the line prompter otherwise.
func NewPrompter(in *os.File, out io.Writer) Prompter {
	if isatty.IsTerminal(in.Fd()) || isatty.IsCygwinTerminal(in.Fd()) {
		return NewInputPrompter(in, out)
	}
	return NewLinePrompter(in, out)
}

type lineResult struct {
	line string
	err  error
}

// LinePrompter reads newline-terminated input. A single reader goroutine
// owns the underlying reader so a cancelled prompt never loses a line.
type LinePrompter struct {
	in  *bufio.Reader
	out io.Writer

	once  sync.Once
	lines chan lineResult
	mu    sync.Mutex
}

// NewLinePrompter creates a LinePrompter over in, echoing prompts to out.
func NewLinePrompter(in io.Reader, out io.Writer) *LinePrompter {
	return &LinePrompter{
		in:    bufio.NewReader(in),
		out:   out,
		lines: make(chan lineResult),
	}
}

func (p *LinePrompter) read() {
	for {
		line, err := p.in.ReadString('\n')
		if err != nil {
			// A final unterminated line still counts.
			if err == io.EOF && line != "" {
				p.lines <- lineResult{line: strings.TrimRight(line, "\r\n")}
			}
			p.lines <- lineResult{err: err}
			close(p.lines)
			return
		}
		p.lines <- lineResult{line: strings.TrimRight(line, "\r\n")}
	}
}

// Prompt writes message and waits for the next line.
func (p *LinePrompter) Prompt(ctx context.Context, message string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.once.Do(func() { go p.read() })

	if message != "" {
		fmt.Fprintln(p.out, promptStyle.Render(message))
	}
	fmt.Fprint(p.out, "> ")

	select {
	case <-ctx.Done():
		fmt.Fprintln(p.out)
		return "", ctx.Err()
	case r, ok := <-p.lines:
		if !ok {
			return "", io.EOF
		}
		return r.line, r.err
	}
}
