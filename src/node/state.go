package node

import (
	"sync/atomic"
)

// State captures the state of a node: Running, Failed, or Shutdown
type State uint32

const (
	//Running is the initial state of a node.
	Running State = iota
	//Failed is set after an unrecoverable protocol error
	Failed
	//Shutdown is shutdown
	Shutdown
)

// String ...
func (s State) String() string {
	switch s {
	case Running:
		return "Running"
	case Failed:
		return "Failed"
	case Shutdown:
		return "Shutdown"
	default:
		return "Unknown"
	}
}

type state struct {
	state State
}

func (b *state) getState() State {
	stateAddr := (*uint32)(&b.state)
	return State(atomic.LoadUint32(stateAddr))
}

func (b *state) setState(s State) {
	stateAddr := (*uint32)(&b.state)
	atomic.StoreUint32(stateAddr, uint32(s))
}
