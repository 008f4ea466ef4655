package validation

import "fmt"

// MalformedInputError signals structurally invalid input: duplicate position
// keys or a schema missing required fields. It is a call failure, never a
// finding. Bad values inside a well-formed dataset produce findings instead.
type MalformedInputError struct {
	Reason string
}

func (e *MalformedInputError) Error() string {
	return fmt.Sprintf("malformed input: %s", e.Reason)
}

// ValidatorUnavailableError signals that a single validator cannot run at all,
// typically because the data plane it inspects is entirely absent from the
// dataset. The engine downgrades it to a VALIDATOR_SKIPPED meta-finding so one
// unavailable validator never aborts the run.
type ValidatorUnavailableError struct {
	Validator string
	Reason    string
}

func (e *ValidatorUnavailableError) Error() string {
	return fmt.Sprintf("validator %q unavailable: %s", e.Validator, e.Reason)
}
