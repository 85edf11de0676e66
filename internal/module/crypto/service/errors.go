package service

import "fmt"

// ValidationError marks a use-case precondition failure such as insufficient
// data or an invalid parameter. The HTTP layer maps it to a 404 response;
// every other error becomes a 500.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}

func validationErrorf(format string, args ...interface{}) error {
	return &ValidationError{msg: fmt.Sprintf(format, args...)}
}
