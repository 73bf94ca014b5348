package errors

import (
	"errors"
	"fmt"
)

// Invariant panics with an internal FacetError. It is reserved for states the
// render code can never reach with correct input; Recover turns the panic back
// into an error at the request boundary.
func Invariant(code, format string, args ...interface{}) {
	panic(NewInternalError(code, fmt.Sprintf(format, args...), nil))
}

// Recover converts a panic raised during a render into an error stored in
// *errp. Panics that are not errors are wrapped as internal errors too, so one
// broken request never takes the process down. Use it as
//
//	defer errors.Recover(&err)
func Recover(errp *error) {
	r := recover()
	if r == nil {
		return
	}

	var fe *FacetError
	switch v := r.(type) {
	case *FacetError:
		fe = v
	case error:
		if !errors.As(v, &fe) {
			fe = NewInternalError(ErrCodeInternalError, "panic during render", v)
		}
	default:
		fe = NewInternalError(ErrCodeInternalError, fmt.Sprintf("panic during render: %v", v), nil)
	}
	*errp = fe
}
