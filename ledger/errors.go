package ledger

import (
	"fmt"

	"github.com/pkg/errors"
)

// Errors
var (
	ErrTampered           = errors.New("blockchain tampered")
	ErrEmptyChain         = errors.New("empty blockchain")
	ErrPositionOutOfRange = errors.New("position out of range")
	ErrSealMismatch       = errors.New("seal does not match blockchain")
	ErrSealSignature      = errors.New("invalid seal signature")
	ErrInvalidUTF8        = errors.New("invalid UTF-8 in string")
	ErrDuplicateKey       = errors.New("duplicate object key")
)

// SerializationError is returned when a payload has no canonical encoding.
type SerializationError struct {
	Cause error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("cannot serialize payload: %v", e.Cause)
}

func (e *SerializationError) Unwrap() error {
	return e.Cause
}

// Violation names the check a block failed during verification.
type Violation string

const (
	ViolationHash     Violation = "hash mismatch"
	ViolationPrevHash Violation = "previous hash mismatch"
	ViolationPosition Violation = "position not sequential"
	ViolationGenesis  Violation = "invalid genesis block"
)

// ValidationError reports the first block that failed verification.
type ValidationError struct {
	// Position is the index of the offending block in the chain.
	Position  int
	Violation Violation
	Expected  string
	Actual    string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("block %d invalid: %s: expected %s, got %s", e.Position, e.Violation, e.Expected, e.Actual)
}

func (e *ValidationError) Unwrap() error {
	return ErrTampered
}
