package vmkit

import (
	"fmt"
	"strings"
)

// CircularDependencyError represents a resolution chain that re-enters a token.
type CircularDependencyError struct {
	Token Token
	Chain []Token
}

func (e *CircularDependencyError) Error() string {
	parts := make([]string, 0, len(e.Chain))
	for _, t := range e.Chain {
		parts = append(parts, string(t))
	}
	return fmt.Sprintf("circular dependency detected for token %s: %s", e.Token, strings.Join(parts, " -> "))
}

// UnregisteredTokenError represents a resolution of a token with no registration.
type UnregisteredTokenError struct {
	Token Token
}

func (e *UnregisteredTokenError) Error() string {
	return fmt.Sprintf("no registration found for token: %s", e.Token)
}

// NilFactoryError represents an attempt to register without a factory.
type NilFactoryError struct {
	Token Token
}

func (e *NilFactoryError) Error() string {
	return fmt.Sprintf("nil factory provided for token: %s", e.Token)
}

// InvalidRegistrationError represents a registration whose shape does not
// fit its lifetime.
type InvalidRegistrationError struct {
	Token  Token
	Reason string
}

func (e *InvalidRegistrationError) Error() string {
	return fmt.Sprintf("invalid registration for token %s: %s", e.Token, e.Reason)
}

// FactoryError represents a factory failure.
type FactoryError struct {
	Token Token
	Err   error
}

func (e *FactoryError) Error() string {
	return fmt.Sprintf("factory failed for token %s: %v", e.Token, e.Err)
}

func (e *FactoryError) Unwrap() error {
	return e.Err
}

// MaterializeError represents a failure to bind reactive properties to a
// freshly built instance.
type MaterializeError struct {
	Token Token
	Err   error
}

func (e *MaterializeError) Error() string {
	return fmt.Sprintf("materialize failed for token %s: %v", e.Token, e.Err)
}

func (e *MaterializeError) Unwrap() error {
	return e.Err
}

// TypeMismatchError represents a type assertion failure.
type TypeMismatchError struct {
	Expected string
	Got      string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("type mismatch: expected %s, got %s", e.Expected, e.Got)
}

// ShutdownError represents a singleton disposal failure.
type ShutdownError struct {
	Token Token
	Err   error
}

func (e *ShutdownError) Error() string {
	return fmt.Sprintf("shutdown failed for token %s: %v", e.Token, e.Err)
}

func (e *ShutdownError) Unwrap() error {
	return e.Err
}

// InvalidLifecycleTransitionError represents a lifecycle operation attempted
// from a state that does not allow it.
type InvalidLifecycleTransitionError struct {
	Op    string
	State State
}

func (e *InvalidLifecycleTransitionError) Error() string {
	return fmt.Sprintf("invalid lifecycle transition: cannot %s from state %s", e.Op, e.State)
}

// AlreadySettledError represents a second settle on a modal result channel.
type AlreadySettledError struct {
	Outcome DialogOutcome
}

func (e *AlreadySettledError) Error() string {
	return fmt.Sprintf("dialog result already settled with outcome %s", e.Outcome)
}
