package commands

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidCommand  = errors.New("invalid command definition")
	ErrUnknownCategory = errors.New("unknown command category")
	ErrUnknownMode     = errors.New("unknown handler mode")
	ErrInvalidMode     = errors.New("invalid handler mode")
	ErrHandlerClosed   = errors.New("handler is closed")
)

// UserError is a failure meant for the person who typed the command. It is shown verbatim.
type UserError struct {
	Message string
}

func (e *UserError) Error() string {
	return e.Message
}

// Errorf builds a UserError.
func Errorf(format string, args ...any) error {
	return &UserError{Message: fmt.Sprintf(format, args...)}
}
