package mcaller

import (
	"errors"
	"fmt"
)

const (
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeExecution      = -32603
	CodeUnavailable    = -32000
)

var (
	ErrWrongKind    = errors.New("method kind does not provide this connection")
	ErrNoConnection = errors.New("caller has no connection")
	ErrNoConnector  = errors.New("caller has no sql connector")
	ErrComponent    = errors.New("can't choose component")
	ErrInvalidInput = errors.New("invalid method input")
)

// MethodError is returned by Caller.Call. Err (if any) is the error
// returned by the method itself.
type MethodError struct {
	Code    int
	Method  string
	Message string
	Err     error
}

func (e *MethodError) Error() string {
	return e.Message
}

func (e *MethodError) Unwrap() error { return e.Err }

func newMethodNotFoundError(name string) *MethodError {
	return &MethodError{
		Code:    CodeMethodNotFound,
		Method:  name,
		Message: fmt.Sprintf("method not found: %s", name),
	}
}

func newExecutionError(name string, err error) *MethodError {
	code := CodeExecution
	if errors.Is(err, ErrInvalidInput) {
		code = CodeInvalidParams
	} else if errors.Is(err, ErrNoConnection) || errors.Is(err, ErrComponent) || errors.Is(err, ErrNoConnector) {
		code = CodeUnavailable
	}
	return &MethodError{
		Code:    code,
		Method:  name,
		Message: fmt.Sprintf("error executing method %s: %v", name, err),
		Err:     err,
	}
}
