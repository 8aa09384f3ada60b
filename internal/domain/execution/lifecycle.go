package execution

import (
	"fmt"

	"github.com/felixgeelhaar/statekit"
)

// Phase is the run lifecycle state.
type Phase string

// Lifecycle states.
const (
	PhaseIdle         Phase = "idle"
	PhaseValidating   Phase = "validating"
	PhaseConfirming   Phase = "confirming"
	PhaseProvisioning Phase = "provisioning"
	PhaseCompleted    Phase = "completed"
	PhaseAborted      Phase = "aborted"
)

// Event types for the run lifecycle.
const (
	EventValidate  = "VALIDATE"
	EventConfirm   = "CONFIRM"
	EventProvision = "PROVISION"
	EventComplete  = "COMPLETE"
	EventAbort     = "ABORT"
)

// lifecycleContext is the statekit context for a run.
type lifecycleContext struct {
	// Cause is the error carried by the ABORT event.
	Cause error
}

// lifecycle tracks the run phase. Transitions outside the table below are
// ignored by the interpreter, so a run can never leave completed or aborted.
type lifecycle struct {
	interp *statekit.Interpreter[lifecycleContext]
}

func newLifecycle() (*lifecycle, error) {
	machine, err := statekit.NewMachine[lifecycleContext]("provision-run").
		WithInitial("idle").
		WithContext(lifecycleContext{}).
		WithAction("recordCause", func(ctx *lifecycleContext, event statekit.Event) {
			if cause, ok := event.Payload.(error); ok {
				ctx.Cause = cause
			}
		}).
		State("idle").
		On(EventValidate).Target("validating").
		On(EventAbort).Target("aborted").Done().
		State("validating").
		On(EventConfirm).Target("confirming").
		On(EventAbort).Target("aborted").Done().
		State("confirming").
		On(EventProvision).Target("provisioning").
		On(EventAbort).Target("aborted").Done().
		State("provisioning").
		On(EventComplete).Target("completed").
		On(EventAbort).Target("aborted").Done().
		State("completed").Done().
		State("aborted").
		OnEntry("recordCause").Done().
		Build()
	if err != nil {
		return nil, fmt.Errorf("build run lifecycle: %w", err)
	}

	lc := &lifecycle{interp: statekit.NewInterpreter(machine)}
	lc.interp.Start()
	return lc, nil
}

func (lc *lifecycle) send(event string, payload interface{}) Phase {
	lc.interp.Send(statekit.Event{Type: statekit.EventType(event), Payload: payload})
	return lc.phase()
}

func (lc *lifecycle) phase() Phase {
	return Phase(lc.interp.State().Value)
}

// cause returns the error that moved the run to aborted, nil otherwise.
func (lc *lifecycle) cause() error {
	return lc.interp.State().Context.Cause
}

func (lc *lifecycle) stop() {
	lc.interp.Stop()
}
