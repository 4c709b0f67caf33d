// Package errs defines the typed errors shared by the matching services.
package errs

import (
	"errors"
	"fmt"

	goerrors "github.com/go-errors/errors"
)

type Type string

const (
	TypeConfig          Type = "CONFIG"
	TypeUnavailable     Type = "UNAVAILABLE"
	TypeInvalidResponse Type = "INVALID_RESPONSE"
	TypeInvalidInput    Type = "INVALID_INPUT"
)

type DomainError struct {
	Type    Type
	Message string
	Err     error
	Stack   []byte
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

func (e *DomainError) StackTrace() []byte {
	return e.Stack
}

func New(t Type, message string, err error) *DomainError {
	var stack []byte
	if err != nil {
		var ge *goerrors.Error
		if errors.As(err, &ge) {
			stack = ge.Stack()
		} else {
			stack = goerrors.Wrap(err, 2).Stack()
		}
	} else {
		stack = goerrors.New(message).Stack()
	}

	return &DomainError{
		Type:    t,
		Message: message,
		Err:     err,
		Stack:   stack,
	}
}

func Config(message string, err error) *DomainError {
	return New(TypeConfig, message, err)
}

func Unavailable(message string, err error) *DomainError {
	return New(TypeUnavailable, message, err)
}

func InvalidResponse(message string, err error) *DomainError {
	return New(TypeInvalidResponse, message, err)
}

func InvalidInput(message string, err error) *DomainError {
	return New(TypeInvalidInput, message, err)
}

// Is reports whether any error in err's chain is a DomainError of type t.
func Is(err error, t Type) bool {
	var de *DomainError
	if !errors.As(err, &de) {
		return false
	}
	if de.Type == t {
		return true
	}
	return Is(de.Err, t)
}
