// Package prompt reads interactive input for the client commands.
package prompt

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Prompter reads answers line by line from in and writes labels to out.
type Prompter struct {
	in      io.Reader
	scanner *bufio.Scanner
	out     io.Writer
}

// New returns a Prompter over in and out.
func New(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: in, scanner: bufio.NewScanner(in), out: out}
}

// Line prints label and returns the next input line without the trailing
// newline. ok is false once the input is exhausted.
func (p *Prompter) Line(label string) (string, bool) {
	if label != "" {
		fmt.Fprint(p.out, label)
	}
	if !p.scanner.Scan() {
		return "", false
	}
	return strings.TrimRight(p.scanner.Text(), "\r"), true
}

// Password prints label and reads a line without echo when the input is a
// terminal. Otherwise it behaves like Line.
func (p *Prompter) Password(label string) (string, bool) {
	f, isFile := p.in.(*os.File)
	if !isFile || !term.IsTerminal(int(f.Fd())) {
		return p.Line(label)
	}

	fmt.Fprint(p.out, label)
	b, err := term.ReadPassword(int(f.Fd()))
	fmt.Fprintln(p.out)
	if err != nil {
		return "", false
	}
	return string(b), true
}

// Err reports the first non-EOF read error.
func (p *Prompter) Err() error {
	return p.scanner.Err()
}
