package cli

import (
	"bufio"
	"errors"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// passwordPrompt reads passwords without echo from a terminal, or line by
// line from anything else (pipes, tests).
type passwordPrompt struct {
	terminal *os.File
	lines    *bufio.Reader
}

func newPasswordPrompt(in io.Reader) *passwordPrompt {
	if file, ok := in.(*os.File); ok && term.IsTerminal(int(file.Fd())) {
		return &passwordPrompt{terminal: file}
	}
	return &passwordPrompt{lines: bufio.NewReader(in)}
}

func (prompt *passwordPrompt) read(out io.Writer, label string) (string, error) {
	if _, err := io.WriteString(out, label); err != nil {
		return "", err
	}

	if prompt.terminal != nil {
		password, err := term.ReadPassword(int(prompt.terminal.Fd()))
		_, _ = io.WriteString(out, "\n")
		if err != nil {
			return "", err
		}
		return string(password), nil
	}

	line, err := prompt.lines.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	if errors.Is(err, io.EOF) && line == "" {
		return "", io.ErrUnexpectedEOF
	}
	return strings.TrimRight(line, "\r\n"), nil
}
