package app

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/provision/internal/domain/config"
	"github.com/felixgeelhaar/provision/internal/domain/execution"
	"github.com/felixgeelhaar/provision/internal/ports"
)

// UnitState is what a probe found for one unit.
type UnitState int

const (
	// StateSatisfied means the unit would be skipped.
	StateSatisfied UnitState = iota
	// StateNeedsApply means the unit would run.
	StateNeedsApply
	// StateUnknown means the unit could not be probed.
	StateUnknown
)

// PlanEntry is one probed unit or check.
type PlanEntry struct {
	Name  string
	State UnitState
	// Prompt is set for optional units.
	Prompt string
	Err    error
}

// PlanStep groups the entries of one manifest step.
type PlanStep struct {
	Name    string
	Entries []PlanEntry
}

// Preview is a probe-only view of a manifest. Nothing is applied and nothing
// is recorded.
type Preview struct {
	Platform string
	Manager  string
	Checks   []PlanEntry
	Steps    []PlanStep
}

// Counts returns how many units would run and how many are satisfied.
func (p *Preview) Counts() (total, needsApply, satisfied int) {
	for _, s := range p.Steps {
		for _, e := range s.Entries {
			total++
			switch e.State {
			case StateNeedsApply:
				needsApply++
			case StateSatisfied:
				satisfied++
			}
		}
	}
	return total, needsApply, satisfied
}

// Plan compiles m and probes every check and unit.
func (p *Provisioner) Plan(ctx context.Context, m *config.Manifest) (*Preview, error) {
	compiled, err := p.compile(ctx, m, nil)
	if err != nil {
		return nil, err
	}

	preview := &Preview{
		Platform: p.platform.String(),
		Manager:  p.ManagerName(),
	}

	for _, c := range compiled.checks {
		preview.Checks = append(preview.Checks, probe(ctx, c))
	}

	managerReady := compiled.pm != nil && compiled.pm.Available(ctx)
	for _, s := range compiled.steps {
		step := PlanStep{Name: s.name}
		for _, u := range s.units {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if compiled.managed[u.Name()] && !managerReady {
				step.Entries = append(step.Entries, PlanEntry{
					Name:  u.Name(),
					State: StateUnknown,
					Err:   fmt.Errorf("package manager %q unavailable", preview.Manager),
				})
				continue
			}
			step.Entries = append(step.Entries, probe(ctx, u))
		}
		preview.Steps = append(preview.Steps, step)
	}

	p.logger.Debug(ctx, "Plan probed", ports.F("steps", len(preview.Steps)))
	return preview, nil
}

func probe(ctx context.Context, u execution.WorkUnit) PlanEntry {
	e := PlanEntry{Name: u.Name()}
	if o := execution.AsOptional(u); o != nil {
		e.Prompt = o.Confirmation().Prompt
	}

	satisfied, err := u.Probe(ctx)
	switch {
	case err != nil:
		e.State = StateUnknown
		e.Err = err
	case satisfied:
		e.State = StateSatisfied
	default:
		e.State = StateNeedsApply
	}
	return e
}

// PrintPlan outputs a human-readable plan summary.
func (p *Provisioner) PrintPlan(preview *Preview) {
	total, needsApply, satisfied := preview.Counts()

	p.printf("\n%s\n", p.styles.Header.Render("Provision Plan"))
	p.printf("==============\n\n")
	p.printf("Platform: %s\n", preview.Platform)
	if preview.Manager != "" {
		p.printf("Package manager: %s\n", preview.Manager)
	}

	if len(preview.Checks) > 0 {
		p.printf("\nEnvironment checks:\n")
		for _, c := range preview.Checks {
			p.printEntry(c, "✗")
		}
	}

	for _, s := range preview.Steps {
		p.printf("\n%s\n", s.Name)
		for _, e := range s.Entries {
			p.printEntry(e, "+")
		}
	}

	p.printf("\nUnits: %d total, %d to apply, %d satisfied\n", total, needsApply, satisfied)
	if needsApply == 0 && total == satisfied {
		p.printf("No changes needed. Your system is up to date.\n")
		return
	}
	p.printf("\nRun 'provision run' to execute this plan.\n")
}

func (p *Provisioner) printEntry(e PlanEntry, pending string) {
	switch e.State {
	case StateSatisfied:
		p.printf("  %s %s\n", p.styles.Success.Render("✓"), e.Name)
	case StateNeedsApply:
		p.printf("  %s %s", p.styles.Warning.Render(pending), e.Name)
		if e.Prompt != "" {
			p.printf(" (asks: %s)", e.Prompt)
		}
		p.printf("\n")
	case StateUnknown:
		p.printf("  %s %s: %v\n", p.styles.Error.Render("?"), e.Name, e.Err)
	}
}
