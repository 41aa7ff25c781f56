package session

import "errors"

var (
	// ErrInvalidTransition is returned when a public method is called while
	// the Session is in a state that does not accept it (spec.md §4.7's
	// state table: each state lists the operations it accepts).
	ErrInvalidTransition = errors.New("session: operation not valid in current state")
	// ErrWorkflowNotFound is returned by SelectWorkflow when id does not
	// match any workflow produced by discovery.
	ErrWorkflowNotFound = errors.New("session: workflow id not found")
)
