package creec

import "fmt"

// State is the protocol state of a Session.
type State int

const (
	Idle State = iota
	HeaderSent
	PayloadSent
	Enabled
	Polling
	Completed
	Failed
)

var stateNames = [...]string{
	"Idle",
	"HeaderSent",
	"PayloadSent",
	"Enabled",
	"Polling",
	"Completed",
	"Failed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int(s))
	}

	return stateNames[s]
}
