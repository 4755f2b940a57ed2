package scb

import "fmt"

// ParamsError reports that the (MaxCount, MaxHash) pair, or the message
// length, does not satisfy the preconditions in spec.md §3/§7. It is the
// only error kind the core raises; block primitives are total functions
// over 16-byte inputs and never fail.
type ParamsError struct {
	Field   string // "max_count", "max_hash", "max_count+max_hash", or "length"
	Value   int
	Message string
}

func (e *ParamsError) Error() string {
	return fmt.Sprintf("scb: invalid %s (%d): %s", e.Field, e.Value, e.Message)
}

// IsParamsError reports whether err is a *ParamsError.
func IsParamsError(err error) bool {
	_, ok := err.(*ParamsError)
	return ok
}
