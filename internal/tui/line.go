package tui

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// LinePrompter is the fallback used when stdin is not a terminal (piped
// answers, CI). It reads one answer per line and returns io.EOF once the
// input is exhausted instead of waiting forever.
type LinePrompter struct {
	in  *bufio.Scanner
	out io.Writer
}

func NewLinePrompter(in io.Reader, out io.Writer) *LinePrompter {
	return &LinePrompter{in: bufio.NewScanner(in), out: out}
}

func (p *LinePrompter) Ask(label, def string) (string, error) {
	if def != "" {
		fmt.Fprintf(p.out, "%s [%s]: ", label, def)
	} else {
		fmt.Fprintf(p.out, "%s: ", label)
	}
	line, err := p.next()
	if err != nil {
		return "", err
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return def, nil
	}
	return line, nil
}

func (p *LinePrompter) Secret(label string) (string, error) {
	fmt.Fprintf(p.out, "%s: ", label)
	return p.next()
}

func (p *LinePrompter) Confirm(label string, def bool) (bool, error) {
	hint := "y/N"
	if def {
		hint = "Y/n"
	}
	for {
		fmt.Fprintf(p.out, "%s [%s]: ", label, hint)
		line, err := p.next()
		if err != nil {
			return false, err
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "":
			return def, nil
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
	}
}

func (p *LinePrompter) next() (string, error) {
	if !p.in.Scan() {
		if err := p.in.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return p.in.Text(), nil
}
