package vm

import (
	"errors"
	"fmt"
)

// Access is the kind of memory operation that requires a translation.
type Access uint8

// The supported accesses. The values match the operation codes of the request
// stream.
const (
	Read  Access = 0
	Write Access = 1
)

func (a Access) String() string {
	switch a {
	case Read:
		return "read"
	case Write:
		return "write"
	default:
		return fmt.Sprintf("Access(%d)", uint8(a))
	}
}

// AccessFromCode converts an operation code of the request stream into an
// Access.
func AccessFromCode(code int) (Access, error) {
	switch code {
	case 0:
		return Read, nil
	case 1:
		return Write, nil
	default:
		return 0, fmt.Errorf("unknown operation code %d", code)
	}
}

// Translation failures. They are local to one request and never affect the
// state of the engine.
var (
	// ErrFault is returned when the walk reaches a faulted slot.
	ErrFault = errors.New("page fault")

	// ErrAccess is returned when a read reaches an unmapped slot.
	ErrAccess = errors.New("access to unmapped address")

	// ErrResourceExhausted is returned when a write needs to allocate a page
	// table or a page and there is no suitable free frame.
	ErrResourceExhausted = errors.New("no free frame")
)

// Failure classifies a translation error.
type Failure uint8

// The failure kinds.
const (
	NoFailure Failure = iota
	FailureFault
	FailureAccess
	FailureResourceExhausted
)

// FailureOf returns the kind of the given translation error. It panics if the
// error is not a translation failure.
func FailureOf(err error) Failure {
	switch {
	case err == nil:
		return NoFailure
	case errors.Is(err, ErrFault):
		return FailureFault
	case errors.Is(err, ErrAccess):
		return FailureAccess
	case errors.Is(err, ErrResourceExhausted):
		return FailureResourceExhausted
	default:
		panic(fmt.Sprintf("not a translation failure: %v", err))
	}
}

func (f Failure) String() string {
	switch f {
	case NoFailure:
		return "ok"
	case FailureFault:
		return "fault"
	case FailureAccess:
		return "access_error"
	case FailureResourceExhausted:
		return "resource_exhausted"
	default:
		return fmt.Sprintf("Failure(%d)", uint8(f))
	}
}
