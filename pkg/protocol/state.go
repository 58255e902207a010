package protocol

import "fmt"

// State is the position of a Client in the signing lifecycle.
//
//	Created → Connected → Precomputed → Ready → Signed → CleanedUp
//
// Failed is terminal and reachable from every other state but CleanedUp.
type State int

const (
	StateCreated State = iota
	StateConnected
	StatePrecomputed
	StateReady
	StateSigned
	StateCleanedUp
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateConnected:
		return "connected"
	case StatePrecomputed:
		return "precomputed"
	case StateReady:
		return "ready"
	case StateSigned:
		return "signed"
	case StateCleanedUp:
		return "cleaned_up"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// next returns the state following s on the success path.
func (s State) next() State {
	if s >= StateCreated && s < StateCleanedUp {
		return s + 1
	}
	return s
}
