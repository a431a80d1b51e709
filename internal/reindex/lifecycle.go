package reindex

import "fmt"

type builderState int

const (
	stateOpen builderState = iota
	stateFrozen
	stateBuilt
)

func (s builderState) String() string {
	switch s {
	case stateOpen:
		return "open"
	case stateFrozen:
		return "frozen"
	case stateBuilt:
		return "built"
	default:
		return "unknown"
	}
}

// lifecycle guards builders: mutation is only allowed while open
type lifecycle struct {
	state builderState
}

func (l *lifecycle) checkOpen(operation string, owner fmt.Stringer) {
	if l.state != stateOpen {
		panic(fmt.Errorf("%w: %s on %s (state %s)", ErrBuilderFrozen, operation, owner, l.state))
	}
}

// markFrozen moves to frozen and reports whether the caller must do the freezing work
func (l *lifecycle) markFrozen() bool {
	if l.state != stateOpen {
		return false
	}
	l.state = stateFrozen
	return true
}

func (l *lifecycle) frozen() bool {
	return l.state != stateOpen
}
