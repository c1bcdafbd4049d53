// Package input turns command-line arguments into the number sequence
// dispatched to the GPU.
package input

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// DefaultNumbers is used when no arguments are given.
var DefaultNumbers = []uint32{1, 2, 3, 4}

// Common errors.
var (
	ErrNotANumber = errors.New("not a non-negative integer")
	ErrOutOfRange = errors.New("does not fit in 32 bits")
)

// ArgError reports the first argument that failed to parse.
type ArgError struct {
	Index int    // Zero-based position among the numeric arguments
	Value string // The offending argument
	Err   error  // ErrNotANumber or ErrOutOfRange
}

// Error implements the error interface.
func (e *ArgError) Error() string {
	return fmt.Sprintf("argument %d (%q): %v", e.Index+1, e.Value, e.Err)
}

// Unwrap returns the underlying sentinel.
func (e *ArgError) Unwrap() error { return e.Err }

// Parse converts args into unsigned 32-bit integers, preserving order.
// With no args it returns a copy of DefaultNumbers and defaulted=true.
func Parse(args []string) (numbers []uint32, defaulted bool, err error) {
	if len(args) == 0 {
		return append([]uint32(nil), DefaultNumbers...), true, nil
	}

	numbers = make([]uint32, 0, len(args))
	for i, arg := range args {
		// A single leading plus sign is accepted, as in "+5".
		n, err := strconv.ParseUint(strings.TrimPrefix(arg, "+"), 10, 32)
		if err != nil {
			cause := ErrNotANumber
			var numErr *strconv.NumError
			if errors.As(err, &numErr) && errors.Is(numErr.Err, strconv.ErrRange) {
				cause = ErrOutOfRange
			}
			return nil, false, &ArgError{Index: i, Value: arg, Err: cause}
		}
		numbers = append(numbers, uint32(n))
	}
	return numbers, false, nil
}
