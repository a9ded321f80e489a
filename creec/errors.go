package creec

import (
	"errors"
	"fmt"
)

var (
	ErrBeatCountMismatch = errors.New("creec: payload does not match header beat count")
	ErrNotReady          = errors.New("creec: output not ready")
	ErrTooManyBeats      = errors.New("creec: output header announces too many beats")
)

// DefaultMaxBeats is the largest output a session accepts unless configured
// otherwise: 8 MiB of 8-byte beats.
const DefaultMaxBeats = 1 << 20

// A StateError reports an operation attempted in the wrong protocol state.
type StateError struct {
	Op   string
	Have State
	Want State
}

func (e *StateError) Error() string {
	return fmt.Sprintf("creec: %s requires state %s, session is %s",
		e.Op, e.Want, e.Have)
}

// ErrInvalidState is matched by every StateError.
var ErrInvalidState = errors.New("creec: invalid session state")

// Is makes errors.Is(err, ErrInvalidState) true.
func (e *StateError) Is(target error) bool {
	return target == ErrInvalidState
}
