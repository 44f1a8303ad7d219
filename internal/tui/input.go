package tui

import (
	"context"
	"errors"
	"io"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// inputModel is a single-line bubbletea text input that quits on submit.
type inputModel struct {
	message   string
	input     textinput.Model
	width     int
	submitted bool
	aborted   bool
}

func newInputModel(message string) inputModel {
	ti := textinput.New()
	ti.Placeholder = "Type a request and press Enter..."
	ti.Focus()
	ti.CharLimit = 2000
	ti.Width = 60

	return inputModel{message: message, input: ti, width: 80}
}

// Init implements tea.Model.
func (m inputModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m inputModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyEnter:
			m.submitted = true
			return m, tea.Quit
		case tea.KeyCtrlC, tea.KeyCtrlD, tea.KeyEsc:
			m.aborted = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = msg.Width - 6 // prompt, border and padding
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m inputModel) View() string {
	if m.submitted || m.aborted {
		return ""
	}
	box := boxStyle.Width(m.width - 2).Render(promptStyle.Render("> ") + m.input.View())
	if m.message == "" {
		return box
	}
	return lipgloss.JoinVertical(lipgloss.Left, promptStyle.Render(m.message), box)
}

// Value returns the submitted text.
func (m inputModel) Value() string {
	return m.input.Value()
}

// InputPrompter runs a short-lived bubbletea program per prompt.
type InputPrompter struct {
	in  io.Reader
	out io.Writer
}

// NewInputPrompter creates an InputPrompter reading keys from in.
func NewInputPrompter(in io.Reader, out io.Writer) *InputPrompter {
	return &InputPrompter{in: in, out: out}
}

// Prompt shows message above a text input. Ctrl+C, Ctrl+D and Esc end input
// and are reported as io.EOF.
func (p *InputPrompter) Prompt(ctx context.Context, message string) (string, error) {
	program := tea.NewProgram(
		newInputModel(message),
		tea.WithContext(ctx),
		tea.WithInput(p.in),
		tea.WithOutput(p.out),
	)

	final, err := program.Run()
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if errors.Is(err, tea.ErrProgramKilled) {
			return "", io.EOF
		}
		return "", err
	}

	m, ok := final.(inputModel)
	if !ok || m.aborted {
		return "", io.EOF
	}
	if p.out != nil && m.message != "" {
		// Leave a trace of the exchange in the scrollback.
		io.WriteString(p.out, promptStyle.Render(m.message)+"\n> "+m.Value()+"\n")
	}
	return m.Value(), nil
}
