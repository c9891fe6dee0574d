package domain

import (
	"errors"
	"fmt"
	"strings"
)

// EmployeeStatus enumerates hiring workflow states.
type EmployeeStatus string

const (
	StatusApplicationReceived EmployeeStatus = "application_received"
	StatusInterviewScheduled  EmployeeStatus = "interview_scheduled"
	StatusHired               EmployeeStatus = "hired"
	StatusNotAccepted         EmployeeStatus = "not_accepted"
)

// InitialEmployeeStatus is assigned to every newly onboarded employee.
const InitialEmployeeStatus = StatusApplicationReceived

// ErrUnknownStatus is returned for values outside the workflow.
var ErrUnknownStatus = errors.New("unknown employee status")

type statusState struct {
	next     []EmployeeStatus
	terminal bool
}

var employeeWorkflow = map[EmployeeStatus]statusState{
	StatusApplicationReceived: {next: []EmployeeStatus{StatusInterviewScheduled, StatusNotAccepted}},
	StatusInterviewScheduled:  {next: []EmployeeStatus{StatusHired, StatusNotAccepted}},
	StatusHired:               {terminal: true},
	StatusNotAccepted:         {terminal: true},
}

// EmployeeStatuses returns every workflow state in declaration order.
func EmployeeStatuses() []EmployeeStatus {
	return []EmployeeStatus{StatusApplicationReceived, StatusInterviewScheduled, StatusHired, StatusNotAccepted}
}

// ParseEmployeeStatus validates a raw status value.
func ParseEmployeeStatus(raw string) (EmployeeStatus, error) {
	status := EmployeeStatus(strings.TrimSpace(raw))
	if !status.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, raw)
	}
	return status, nil
}

// Valid reports whether s is part of the workflow.
func (s EmployeeStatus) Valid() bool {
	_, ok := employeeWorkflow[s]
	return ok
}

// Terminal reports whether no transition may leave s.
func (s EmployeeStatus) Terminal() bool {
	return employeeWorkflow[s].terminal
}

// AllowedNext lists the states reachable from s in one step.
func (s EmployeeStatus) AllowedNext() []EmployeeStatus {
	next := employeeWorkflow[s].next
	out := make([]EmployeeStatus, len(next))
	copy(out, next)
	return out
}

// CanTransitionTo reports whether next is directly reachable from s.
func (s EmployeeStatus) CanTransitionTo(next EmployeeStatus) bool {
	for _, candidate := range employeeWorkflow[s].next {
		if candidate == next {
			return true
		}
	}
	return false
}

// TransitionErrorKind distinguishes why a status change was rejected.
type TransitionErrorKind int

const (
	TransitionInvalid TransitionErrorKind = iota + 1
	TransitionFromTerminal
)

// TransitionError is the typed failure of a workflow move.
type TransitionError struct {
	Kind      TransitionErrorKind
	Current   EmployeeStatus
	Requested EmployeeStatus
}

func (e *TransitionError) Error() string {
	if e.Kind == TransitionFromTerminal {
		return fmt.Sprintf("cannot change status from terminal state '%s' to '%s'", e.Current, e.Requested)
	}
	return fmt.Sprintf("invalid status transition from '%s' to '%s'", e.Current, e.Requested)
}

// CheckTransition validates moving from current to next.
// It returns ErrUnknownStatus (wrapped) for values outside the workflow
// and *TransitionError for moves the table forbids.
func CheckTransition(current, next EmployeeStatus) error {
	if !current.Valid() {
		return fmt.Errorf("%w: current %q", ErrUnknownStatus, current)
	}
	if !next.Valid() {
		return fmt.Errorf("%w: requested %q", ErrUnknownStatus, next)
	}
	if current.Terminal() {
		return &TransitionError{Kind: TransitionFromTerminal, Current: current, Requested: next}
	}
	if !current.CanTransitionTo(next) {
		return &TransitionError{Kind: TransitionInvalid, Current: current, Requested: next}
	}
	return nil
}
