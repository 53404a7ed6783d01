package fourier

import "fmt"

// Status is the discrete outcome of a transform call. The numeric values are
// part of the transform contract and must not be reordered.
type Status uint8

const (
	Success Status = iota
	OutOfMemory
	InvalidDimension
	InvalidThreadCount
)

func (s Status) String() string {
	switch s {
	case Success:
		return "success"
	case OutOfMemory:
		return "out of memory"
	case InvalidDimension:
		return "invalid dimension"
	case InvalidThreadCount:
		return "invalid thread count"
	default:
		return fmt.Sprintf("status(%d)", uint8(s))
	}
}

// Error reports a failed transform. Retrying with the same input cannot
// succeed.
type Error struct {
	Status Status
	Detail string
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return "fourier: " + e.Status.String()
	}
	return fmt.Sprintf("fourier: %s: %s", e.Status, e.Detail)
}

// Is lets errors.Is match on the status alone, e.g.
// errors.Is(err, &Error{Status: InvalidDimension}).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Status == e.Status
}

func statusError(s Status, format string, args ...any) error {
	return &Error{Status: s, Detail: fmt.Sprintf(format, args...)}
}
