package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

type prompter struct {
	in  *bufio.Scanner
	out io.Writer
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	return &prompter{in: bufio.NewScanner(in), out: out}
}

func (p *prompter) printf(format string, args ...any) {
	fmt.Fprintf(p.out, format, args...)
}

// ask shows current in brackets and keeps it on an empty answer. ok is false
// once input is exhausted.
func (p *prompter) ask(label, current string) (string, bool) {
	if current != "" {
		p.printf("%s [%s]: ", label, current)
	} else {
		p.printf("%s: ", label)
	}
	if !p.in.Scan() {
		return current, false
	}
	answer := strings.TrimSpace(p.in.Text())
	if answer == "" {
		return current, true
	}
	return answer, true
}

// choose lists options and returns the picked one, or current on an empty
// answer.
func (p *prompter) choose(label string, options []string, current string) (string, bool) {
	p.printf("%s\n", label)
	for i, opt := range options {
		marker := " "
		if opt == current {
			marker = "*"
		}
		p.printf(" %s %2d) %s\n", marker, i+1, opt)
	}
	for {
		answer, ok := p.ask("Choose a number", "")
		if !ok {
			return current, false
		}
		if answer == "" && current != "" {
			return current, true
		}
		n, err := strconv.Atoi(answer)
		if err == nil && n >= 1 && n <= len(options) {
			return options[n-1], true
		}
		p.printf("Enter a number between 1 and %d.\n", len(options))
	}
}

func (p *prompter) confirm(label string) (bool, bool) {
	answer, ok := p.ask(label+" (y/n)", "")
	if !ok {
		return false, false
	}
	answer = strings.ToLower(answer)
	return answer == "y" || answer == "yes", true
}
