package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
)

// ErrInputCancelled is returned when input is canceled by context.
var ErrInputCancelled = errors.New("input canceled")

// Prompter asks questions on a terminal and honors context cancellation.
type Prompter struct {
	reader *bufio.Reader
	out    io.Writer
	mu     sync.Mutex
}

// NewPrompter creates a Prompter reading in and writing prompts to out.
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{reader: bufio.NewReader(in), out: out}
}

// ReadLine reads one trimmed line. A canceled context returns
// ErrInputCancelled immediately; the pending read finishes in the background.
func (p *Prompter) ReadLine(ctx context.Context) (string, error) {
	type result struct {
		err   error
		value string
	}
	ch := make(chan result, 1)

	go func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		value, err := p.reader.ReadString('\n')
		if errors.Is(err, io.EOF) && value != "" {
			err = nil
		}
		ch <- result{value: value, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ErrInputCancelled
	case res := <-ch:
		return strings.TrimSpace(res.value), res.err
	}
}

// Ask prints question and returns the answer, or fallback when blank.
func (p *Prompter) Ask(ctx context.Context, question, fallback string) (string, error) {
	label := question
	if fallback != "" {
		label = fmt.Sprintf("%s [%s]", question, fallback)
	}
	_, _ = fmt.Fprint(p.out, FormatPrompt(label))

	answer, err := p.ReadLine(ctx)
	if err != nil {
		return "", err
	}
	if answer == "" {
		return fallback, nil
	}
	return answer, nil
}

// Confirm asks a yes/no question. Anything but y or yes is no.
func (p *Prompter) Confirm(ctx context.Context, question string) (bool, error) {
	answer, err := p.Ask(ctx, question+" (y/N)", "")
	if err != nil {
		return false, err
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}
