package mocks

import (
	"context"
	"errors"
	"sync"

	"github.com/felixgeelhaar/provision/internal/ports"
)

// ErrNoScriptedAnswer is returned when a Confirmer runs out of answers and
// has no fallback.
var ErrNoScriptedAnswer = errors.New("no scripted answer")

// Prompt records one Confirm call.
type Prompt struct {
	Text    string
	Default bool
}

// Confirmer answers prompts from a script and records what was asked.
type Confirmer struct {
	mu       sync.Mutex
	answers  map[string][]bool
	errs     map[string]error
	fallback *bool
	prompts  []Prompt
}

// NewConfirmer creates a Confirmer that fails on unscripted prompts.
func NewConfirmer() *Confirmer {
	return &Confirmer{
		answers: make(map[string][]bool),
		errs:    make(map[string]error),
	}
}

// AlwaysYes creates a Confirmer answering yes to everything.
func AlwaysYes() *Confirmer {
	return NewConfirmer().Otherwise(true)
}

// Answer queues answers for an exact prompt text.
func (c *Confirmer) Answer(prompt string, answers ...bool) *Confirmer {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.answers[prompt] = append(c.answers[prompt], answers...)
	return c
}

// Fail makes the prompt return err.
func (c *Confirmer) Fail(prompt string, err error) *Confirmer {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errs[prompt] = err
	return c
}

// Otherwise sets the answer for prompts without a scripted one.
func (c *Confirmer) Otherwise(answer bool) *Confirmer {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fallback = &answer
	return c
}

// Confirm returns the next scripted answer for prompt.
func (c *Confirmer) Confirm(ctx context.Context, prompt string, def bool) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.prompts = append(c.prompts, Prompt{Text: prompt, Default: def})
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if err := c.errs[prompt]; err != nil {
		return false, err
	}
	if queue := c.answers[prompt]; len(queue) > 0 {
		c.answers[prompt] = queue[1:]
		return queue[0], nil
	}
	if c.fallback != nil {
		return *c.fallback, nil
	}
	return false, ErrNoScriptedAnswer
}

// Prompts returns every prompt asked, in order.
func (c *Confirmer) Prompts() []Prompt {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Prompt(nil), c.prompts...)
}

var _ ports.Confirmer = (*Confirmer)(nil)
