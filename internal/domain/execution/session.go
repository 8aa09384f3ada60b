package execution

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/provision/internal/domain/ledger"
	"github.com/felixgeelhaar/provision/internal/ports"
)

// Session is the per-run state handed to steps.
type Session struct {
	id        string
	ledger    *ledger.Ledger
	confirmer ports.Confirmer
	logger    ports.Logger
}

// ID returns the session id.
func (s *Session) ID() string {
	return s.id
}

// Ledger returns the run ledger.
func (s *Session) Ledger() *ledger.Ledger {
	return s.ledger
}

// Logger returns the run logger.
func (s *Session) Logger() ports.Logger {
	return s.logger
}

// Execute evaluates units in order: probe, then the confirmation gate for
// optional units, then apply. Apply errors are recorded as Failed and the
// next unit runs. Probe errors, confirmation errors, Fatal apply errors and
// cancellation are returned and abort the run.
func (s *Session) Execute(ctx context.Context, units ...WorkUnit) error {
	for _, u := range units {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.execute(ctx, u); err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) execute(ctx context.Context, u WorkUnit) error {
	name := u.Name()

	satisfied, err := u.Probe(ctx)
	if err != nil {
		return fmt.Errorf("probe %s: %w", name, err)
	}
	if satisfied {
		if err := s.ledger.RecordSkipped(name, ledger.AlreadySatisfied); err != nil {
			return err
		}
		s.logger.Info(ctx, fmt.Sprintf("%s is already installed, skipping", name))
		return nil
	}

	if opt := AsOptional(u); opt != nil {
		c := opt.Confirmation()
		yes, err := s.confirmer.Confirm(ctx, c.Prompt, c.Default)
		if err != nil {
			return fmt.Errorf("confirm %s: %w", name, err)
		}
		if !yes {
			if err := s.ledger.RecordSkipped(name, ledger.Declined); err != nil {
				return err
			}
			s.logger.Info(ctx, fmt.Sprintf("Skipping %s (declined)", name))
			return nil
		}
	}

	s.logger.Info(ctx, fmt.Sprintf("Installing %s...", name))
	if err := u.Apply(ctx); err != nil {
		if IsFatal(err) || ctx.Err() != nil {
			return fmt.Errorf("apply %s: %w", name, err)
		}
		if rerr := s.ledger.RecordFailed(name, err); rerr != nil {
			return rerr
		}
		s.logger.Error(ctx, fmt.Sprintf("Failed to install %s", name), ports.F("error", err))
		return nil
	}

	if err := s.ledger.RecordInstalled(name); err != nil {
		return err
	}
	s.logger.Success(ctx, fmt.Sprintf("%s installed", name))
	return nil
}
