package console

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/peterh/liner"
)

// Prompter reads one line of user input per call. Implementations return
// io.EOF once the user closes the input or aborts the prompt.
type Prompter interface {
	Prompt(prompt string) (string, error)
	PasswordPrompt(prompt string) (string, error)
	Close() error
}

// NewPrompter returns a line-editing prompter when both stdin and stdout
// are terminals, and a plain line reader otherwise.
func NewPrompter() Prompter {
	if IsTerminal(os.Stdin) && IsTerminal(os.Stdout) {
		return NewTerminalPrompter()
	}
	return NewLinePrompter(os.Stdin, os.Stdout)
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// TerminalPrompter prompts through liner: history, line editing and
// passwords read without echo.
type TerminalPrompter struct {
	state *liner.State
}

func NewTerminalPrompter() *TerminalPrompter {
	state := liner.NewLiner()
	state.SetCtrlCAborts(true)
	return &TerminalPrompter{state: state}
}

func (p *TerminalPrompter) Prompt(prompt string) (string, error) {
	line, err := p.state.Prompt(prompt)
	if err != nil {
		return "", translate(err)
	}
	if strings.TrimSpace(line) != "" {
		p.state.AppendHistory(line)
	}
	return line, nil
}

func (p *TerminalPrompter) PasswordPrompt(prompt string) (string, error) {
	line, err := p.state.PasswordPrompt(prompt)
	if err != nil {
		return "", translate(err)
	}
	return line, nil
}

// Close restores the terminal mode.
func (p *TerminalPrompter) Close() error {
	return p.state.Close()
}

func translate(err error) error {
	if errors.Is(err, liner.ErrPromptAborted) {
		return io.EOF
	}
	return err
}

// LinePrompter reads newline-terminated input from any reader. It is used
// for piped input, where there is no terminal to hide a password on.
type LinePrompter struct {
	in  *bufio.Reader
	out io.Writer
}

func NewLinePrompter(in io.Reader, out io.Writer) *LinePrompter {
	return &LinePrompter{
		in:  bufio.NewReader(in),
		out: out,
	}
}

func (p *LinePrompter) Prompt(prompt string) (string, error) {
	fmt.Fprint(p.out, prompt)
	line, err := p.in.ReadString('\n')
	if err != nil {
		// A final line without a trailing newline still counts.
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimRight(line, "\r"), nil
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (p *LinePrompter) PasswordPrompt(prompt string) (string, error) {
	return p.Prompt(prompt)
}

func (p *LinePrompter) Close() error {
	return nil
}
