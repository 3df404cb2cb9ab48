// Package reasoning defines the boundary to the remote natural-language
// reasoning engine.  The engine is treated as an opaque, possibly-slow,
// possibly-unavailable capability: callers bound it with a timeout and
// fail closed when it misbehaves.
package reasoning

import (
	"context"
	"errors"
)

// Input is the stable request contract: the scanned card, its raw block
// payloads, and a flattened rendering of the permissions table.
type Input struct {
	CardUID          string
	Block1Data       string
	Block2Data       string
	PermissionsTable string
}

// Output is the engine's structured verdict, returned verbatim to the
// decision caller.
type Output struct {
	Authorized bool   `json:"authorized"`
	Reason     string `json:"reason"`
}

// ErrUnavailable wraps every transport, timeout, or malformed-output
// failure.  Callers treat it as "deny with a system-error reason".
var ErrUnavailable = errors.New("reasoning engine unavailable")

type Engine interface {
	Decide(ctx context.Context, in Input) (Output, error)
}
