package navigation

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownDirection = errors.New("unknown direction")
	ErrDanglingExit     = errors.New("exit leads to a room that does not exist")
	ErrDuplicateRoom    = errors.New("room already exists")
	ErrDuplicateZone    = errors.New("zone already exists")
	ErrUnknownZone      = errors.New("zone does not exist")
	ErrUnknownRoom      = errors.New("room does not exist")
	ErrNotPlaced        = errors.New("entity has no location")
)

// Step identifies a stage of the movement protocol.
type Step int

const (
	StepResolve Step = iota + 1
	StepVisibility
	StepTraverse
	StepAccept
	StepCommit
)

func (s Step) String() string {
	switch s {
	case StepResolve:
		return "resolve"
	case StepVisibility:
		return "visibility"
	case StepTraverse:
		return "traverse"
	case StepAccept:
		return "accept"
	case StepCommit:
		return "commit"
	default:
		return fmt.Sprintf("step(%d)", int(s))
	}
}

// Blocked is returned when a move is refused. Reason is fit to show the mover.
type Blocked struct {
	Step   Step
	Reason string
}

func (b *Blocked) Error() string {
	return b.Reason
}

func blocked(step Step, format string, args ...any) *Blocked {
	return &Blocked{Step: step, Reason: fmt.Sprintf(format, args...)}
}
