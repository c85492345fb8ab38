package domain

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// Sentinel errors for domain operations
var (
	// ErrNotFound is returned when a requested resource doesn't exist
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists is returned when trying to create a resource that already exists
	ErrAlreadyExists = errors.New("already exists")

	// ErrContractNotFound is returned when a compiled contract can't be found
	ErrContractNotFound = errors.New("contract not found")
)

// Fatal deployment error kinds. A DeploymentError always matches exactly one
// of these with errors.Is.
var (
	// ErrInvalidPlan: cyclic graph, undefined dependency or inconsistent order.
	// Raised before any transaction is sent.
	ErrInvalidPlan = errors.New("invalid plan")

	// ErrTransaction: creation transaction rejected by the node or reverted
	ErrTransaction = errors.New("transaction failed")

	// ErrConfirmationTimeout: confirmation depth not reached in time
	ErrConfirmationTimeout = errors.New("confirmation timeout")

	// ErrWiringMismatch: on-chain dependency reference differs from the recorded address
	ErrWiringMismatch = errors.New("wiring mismatch")
)

// DeploymentError is a fatal orchestration error
type DeploymentError struct {
	Kind error
	Spec string // empty for plan-level errors
	Err  error
}

func (e *DeploymentError) Error() string {
	switch {
	case e.Spec == "" && e.Err == nil:
		return e.Kind.Error()
	case e.Spec == "":
		return fmt.Sprintf("%v: %v", e.Kind, e.Err)
	case e.Err == nil:
		return fmt.Sprintf("%s: %v", e.Spec, e.Kind)
	default:
		return fmt.Sprintf("%s: %v: %v", e.Spec, e.Kind, e.Err)
	}
}

// Is matches the error kind
func (e *DeploymentError) Is(target error) bool {
	return target == e.Kind
}

func (e *DeploymentError) Unwrap() error {
	return e.Err
}

// InvalidPlan builds an ErrInvalidPlan error
func InvalidPlan(format string, args ...any) error {
	return &DeploymentError{Kind: ErrInvalidPlan, Err: fmt.Errorf(format, args...)}
}

// TransactionFailed builds an ErrTransaction error for spec
func TransactionFailed(spec string, err error) error {
	return &DeploymentError{Kind: ErrTransaction, Spec: spec, Err: err}
}

// ConfirmationTimedOut builds an ErrConfirmationTimeout error for spec
func ConfirmationTimedOut(spec string, err error) error {
	return &DeploymentError{Kind: ErrConfirmationTimeout, Spec: spec, Err: err}
}

// WiringMismatchError describes a getter that returned the wrong address
type WiringMismatchError struct {
	Getter     string
	Dependency string
	Expected   common.Address
	Actual     common.Address
	ReadErr    error
}

func (e *WiringMismatchError) Error() string {
	if e.ReadErr != nil {
		return fmt.Sprintf("%s() could not be read to check %s (expected %s): %v",
			e.Getter, e.Dependency, e.Expected.Hex(), e.ReadErr)
	}
	return fmt.Sprintf("%s() returned %s, expected %s address %s",
		e.Getter, e.Actual.Hex(), e.Dependency, e.Expected.Hex())
}

func (e *WiringMismatchError) Unwrap() error {
	return e.ReadErr
}

// WiringMismatch builds an ErrWiringMismatch error for spec
func WiringMismatch(spec string, mismatch *WiringMismatchError) error {
	return &DeploymentError{Kind: ErrWiringMismatch, Spec: spec, Err: mismatch}
}

// IsFatal reports whether err is one of the fatal deployment kinds
func IsFatal(err error) bool {
	var de *DeploymentError
	return errors.As(err, &de)
}
