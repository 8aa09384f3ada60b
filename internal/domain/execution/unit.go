// Package execution runs a provisioning plan: environment checks, the begin
// gate, then each step's work units in order, recording every outcome in
// the ledger.
package execution

import (
	"context"
)

// WorkUnit is a named, idempotent unit of provisioning.
type WorkUnit interface {
	// Name identifies the unit in logs and the ledger.
	Name() string
	// Probe reports whether the unit is already satisfied.
	Probe(ctx context.Context) (bool, error)
	// Apply performs the unit. A returned error is recorded as Failed unless
	// it is wrapped with Fatal.
	Apply(ctx context.Context) error
}

// Confirmation is the question asked before an optional unit runs.
type Confirmation struct {
	Prompt  string
	Default bool
}

// OptionalUnit is a WorkUnit that only runs after a yes answer.
type OptionalUnit interface {
	WorkUnit
	Confirmation() Confirmation
}

// AsOptional returns u as an OptionalUnit, or nil for a mandatory unit.
func AsOptional(u WorkUnit) OptionalUnit {
	if o, ok := u.(OptionalUnit); ok {
		return o
	}
	return nil
}

// ProbeFunc reports whether a unit is already satisfied.
type ProbeFunc func(ctx context.Context) (bool, error)

// ApplyFunc performs a unit.
type ApplyFunc func(ctx context.Context) error

// FuncUnit is a WorkUnit backed by functions.
type FuncUnit struct {
	name  string
	probe ProbeFunc
	apply ApplyFunc
}

// NewUnit creates a function-backed unit. A nil probe always reports
// "not satisfied".
func NewUnit(name string, probe ProbeFunc, apply ApplyFunc) *FuncUnit {
	return &FuncUnit{name: name, probe: probe, apply: apply}
}

// Name returns the unit name.
func (u *FuncUnit) Name() string {
	return u.name
}

// Probe runs the probe function.
func (u *FuncUnit) Probe(ctx context.Context) (bool, error) {
	if u.probe == nil {
		return false, nil
	}
	return u.probe(ctx)
}

// Apply runs the apply function.
func (u *FuncUnit) Apply(ctx context.Context) error {
	if u.apply == nil {
		return nil
	}
	return u.apply(ctx)
}

// Optional returns an optional copy of the unit.
func (u *FuncUnit) Optional(prompt string, def bool) OptionalUnit {
	return Optionalize(u, Confirmation{Prompt: prompt, Default: def})
}

type optionalUnit struct {
	WorkUnit
	confirmation Confirmation
}

func (o optionalUnit) Confirmation() Confirmation {
	return o.confirmation
}

// Optionalize wraps any unit so that it asks c before applying.
func Optionalize(u WorkUnit, c Confirmation) OptionalUnit {
	return optionalUnit{WorkUnit: u, confirmation: c}
}
