package tutor

import "fmt"

// GenerationError reports that the external text-generation call failed or
// timed out. Callers surface it as a server-side failure.
type GenerationError struct {
	Op  string
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed (%s): %v", e.Op, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }
