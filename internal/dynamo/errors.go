package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for hybrid step operations.
var (
	// ErrAllocation indicates a scratch buffer could not be obtained.
	ErrAllocation = errors.New("dynamo: allocation failure")

	// ErrNullReference indicates a required state, buffer, model or
	// callback was absent.
	ErrNullReference = errors.New("dynamo: required reference is nil")

	// ErrInvalidDimension indicates a vector whose length does not match
	// the contract's declared sizes.
	ErrInvalidDimension = errors.New("dynamo: dimension mismatch between vector and contract")

	// ErrTimeLimit indicates the continuous time horizon was reached.
	ErrTimeLimit = errors.New("dynamo: time horizon reached")

	// ErrJumpLimit indicates the jump horizon was reached.
	ErrJumpLimit = errors.New("dynamo: jump horizon reached")

	// ErrInvalidJumpCondition indicates neither the flow set nor the jump
	// set contains the state. Reserved: the step engine does not raise it.
	ErrInvalidJumpCondition = errors.New("dynamo: state is in neither the flow set nor the jump set")

	// ErrGeneric is the catch-all for unclassified failures.
	ErrGeneric = errors.New("dynamo: unclassified step failure")

	// ErrInvalidContract indicates a contract with non-positive sizes,
	// step size or horizons.
	ErrInvalidContract = errors.New("dynamo: invalid contract")

	// ErrInvalidState indicates a state containing NaN or Inf.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")
)

func contractError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidContract, fmt.Sprintf(format, args...))
}

// Status classifies the outcome of a single hybrid step.
type Status int

const (
	StatusSuccess Status = iota
	StatusAllocationFailure
	StatusNullReference
	StatusInvalidDimension
	StatusTimeLimit
	StatusJumpLimit
	StatusInvalidJumpCondition
	StatusGeneric
)

var statusNames = map[Status]string{
	StatusSuccess:              "success",
	StatusAllocationFailure:    "allocation_failure",
	StatusNullReference:        "null_reference",
	StatusInvalidDimension:     "invalid_dimension",
	StatusTimeLimit:            "time_limit",
	StatusJumpLimit:            "jump_limit",
	StatusInvalidJumpCondition: "invalid_jump_condition",
	StatusGeneric:              "generic",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// ParseStatus is the inverse of String.
func ParseStatus(name string) (Status, error) {
	for s, n := range statusNames {
		if n == name {
			return s, nil
		}
	}
	return StatusGeneric, fmt.Errorf("unknown status: %s", name)
}

// Err returns the sentinel error for s, or nil for StatusSuccess.
func (s Status) Err() error {
	switch s {
	case StatusSuccess:
		return nil
	case StatusAllocationFailure:
		return ErrAllocation
	case StatusNullReference:
		return ErrNullReference
	case StatusInvalidDimension:
		return ErrInvalidDimension
	case StatusTimeLimit:
		return ErrTimeLimit
	case StatusJumpLimit:
		return ErrJumpLimit
	case StatusInvalidJumpCondition:
		return ErrInvalidJumpCondition
	default:
		return ErrGeneric
	}
}

// IsHorizon reports whether s signals that a simulation horizon was reached.
func (s Status) IsHorizon() bool {
	return s == StatusTimeLimit || s == StatusJumpLimit
}

// StatusOf maps an error returned by a step onto its Status.
func StatusOf(err error) Status {
	switch {
	case err == nil:
		return StatusSuccess
	case errors.Is(err, ErrTimeLimit):
		return StatusTimeLimit
	case errors.Is(err, ErrJumpLimit):
		return StatusJumpLimit
	case errors.Is(err, ErrNullReference):
		return StatusNullReference
	case errors.Is(err, ErrInvalidDimension):
		return StatusInvalidDimension
	case errors.Is(err, ErrAllocation):
		return StatusAllocationFailure
	case errors.Is(err, ErrInvalidJumpCondition):
		return StatusInvalidJumpCondition
	default:
		return StatusGeneric
	}
}

// StepError wraps a step failure with the extended state it was produced at.
type StepError struct {
	T       float64
	J       int
	Status  Status
	Wrapped error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("t=%.6g j=%d: %v", e.T, e.J, e.Wrapped)
}

func (e *StepError) Unwrap() error {
	return e.Wrapped
}
