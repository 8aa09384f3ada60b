package ports

import "context"

// Confirmer answers yes/no questions on behalf of the user.
//
// Confirm blocks until an answer is available. def is the answer used when
// the user accepts the default (an empty line for terminal prompts).
type Confirmer interface {
	Confirm(ctx context.Context, prompt string, def bool) (bool, error)
}
