package models

import "fmt"

// Status enum
type Status string

const (
	Pending  Status = "Pending"
	Approved Status = "Approved"
	Resolved Status = "Resolved"
)

var statusRank = map[Status]int{
	Pending:  0,
	Approved: 1,
	Resolved: 2,
}

// IsValid reports whether s is a known status
func (s Status) IsValid() bool {
	_, ok := statusRank[s]
	return ok
}

// Next returns the only status reachable from s, or "" when s is terminal
func (s Status) Next() Status {
	switch s {
	case Pending:
		return Approved
	case Approved:
		return Resolved
	default:
		return ""
	}
}

// CanTransition reports whether moving from s to to is allowed
func (s Status) CanTransition(to Status) bool {
	next := s.Next()
	return next != "" && next == to
}

// Less orders statuses along the lifecycle
func (s Status) Less(o Status) bool {
	return statusRank[s] < statusRank[o]
}

// TransitionError describes a rejected status move
type TransitionError struct {
	From Status
	To   Status
}

func (e *TransitionError) Error() string {
	if !e.To.IsValid() {
		return fmt.Sprintf("unknown status %q", e.To)
	}
	return fmt.Sprintf("cannot change status from %s to %s", e.From, e.To)
}

// Transition validates a status move
func Transition(from, to Status) error {
	if !from.CanTransition(to) {
		return &TransitionError{From: from, To: to}
	}
	return nil
}
