package execution

import "context"

// Step is one top-level progress step. Run performs zero or more work units
// through the session. A returned error aborts the run.
type Step struct {
	Name string
	Run  func(ctx context.Context, s *Session) error
}

// UnitStep returns a step that executes units in order.
func UnitStep(name string, units ...WorkUnit) Step {
	return Step{
		Name: name,
		Run: func(ctx context.Context, s *Session) error {
			return s.Execute(ctx, units...)
		},
	}
}

// Plan is everything a run executes: global checks, then steps.
type Plan struct {
	// Checks are evaluated once before the begin gate. Any failure is fatal
	// and nothing is recorded in the ledger.
	Checks []WorkUnit
	Steps  []Step
}

// StepNames returns the step names in order.
func (p Plan) StepNames() []string {
	names := make([]string, len(p.Steps))
	for i, s := range p.Steps {
		names[i] = s.Name
	}
	return names
}
