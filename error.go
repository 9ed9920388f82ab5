package dupcat

import (
	"fmt"
	"strings"
)

// OperationError decorates the failure of one engine operation. The cause keeps its category.
type OperationError struct {
	message string
	cause   error
}

func (e *OperationError) Error() string {
	var msg strings.Builder
	fmt.Fprint(&msg, e.message)
	if e.cause != nil {
		fmt.Fprint(&msg, ": ", e.cause)
	}
	return msg.String()
}

func (e *OperationError) Unwrap() error {
	return e.cause
}

func newOperationError(message string, cause error) *OperationError {
	return &OperationError{message: message, cause: cause}
}
