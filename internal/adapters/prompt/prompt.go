// Package prompt implements ports.Confirmer for terminals and for
// unattended runs.
package prompt

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/cases"

	"github.com/felixgeelhaar/provision/internal/ports"
)

// ErrNoInput is returned when input ends before an answer is read.
var ErrNoInput = errors.New("no input available to answer prompt")

var (
	fold     = cases.Fold()
	yesWords = map[string]bool{"y": true, "yes": true}
	noWords  = map[string]bool{"n": true, "no": true}
)

// ParseAnswer interprets one line of input. Empty input selects def; ok is
// false for anything outside the yes and no families.
func ParseAnswer(line string, def bool) (answer, ok bool) {
	token := fold.String(strings.TrimSpace(line))
	switch {
	case token == "":
		return def, true
	case yesWords[token]:
		return true, true
	case noWords[token]:
		return false, true
	default:
		return false, false
	}
}

// LinePrompter asks yes/no questions on a line-oriented stream.
type LinePrompter struct {
	in  *bufio.Reader
	out io.Writer
}

// NewLinePrompter creates a prompter reading in and writing prompts to out.
func NewLinePrompter(in io.Reader, out io.Writer) *LinePrompter {
	return &LinePrompter{in: bufio.NewReader(in), out: out}
}

// NewStdioPrompter prompts on stdin/stdout.
func NewStdioPrompter() *LinePrompter {
	return NewLinePrompter(os.Stdin, os.Stdout)
}

// Confirm prints prompt with a [Y/n] or [y/N] hint and reads answers until
// one is recognized. Unrecognized input repeats the question.
func (p *LinePrompter) Confirm(ctx context.Context, prompt string, def bool) (bool, error) {
	hint := "[y/N]"
	if def {
		hint = "[Y/n]"
	}

	for {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		if _, err := fmt.Fprintf(p.out, "%s %s ", prompt, hint); err != nil {
			return false, err
		}

		line, err := p.in.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			if errors.Is(err, io.EOF) {
				_, _ = fmt.Fprintln(p.out)
				return false, ErrNoInput
			}
			return false, fmt.Errorf("read answer: %w", err)
		}

		if answer, ok := ParseAnswer(line, def); ok {
			return answer, nil
		}
		_, _ = fmt.Fprintln(p.out, "Please answer yes or no.")
	}
}

// AssumeYes answers yes to every prompt. It is only used when the user
// passes --yes.
type AssumeYes struct {
	logger ports.Logger
}

// NewAssumeYes creates an AssumeYes confirmer. Each answered prompt is
// logged at info level when logger is non-nil.
func NewAssumeYes(logger ports.Logger) *AssumeYes {
	return &AssumeYes{logger: logger}
}

// Confirm answers yes.
func (a *AssumeYes) Confirm(ctx context.Context, prompt string, _ bool) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if a.logger != nil {
		a.logger.Info(ctx, prompt+" yes (--yes)")
	}
	return true, nil
}

// Defaults resolves every prompt to its default answer. It is used with
// --non-interactive.
type Defaults struct {
	logger ports.Logger
}

// NewDefaults creates a Defaults confirmer.
func NewDefaults(logger ports.Logger) *Defaults {
	return &Defaults{logger: logger}
}

// Confirm returns def.
func (d *Defaults) Confirm(ctx context.Context, prompt string, def bool) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if d.logger != nil {
		answer := "no"
		if def {
			answer = "yes"
		}
		d.logger.Info(ctx, fmt.Sprintf("%s %s (default)", prompt, answer))
	}
	return def, nil
}

var (
	_ ports.Confirmer = (*LinePrompter)(nil)
	_ ports.Confirmer = (*AssumeYes)(nil)
	_ ports.Confirmer = (*Defaults)(nil)
)
