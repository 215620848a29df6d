package framework

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoProgram indicates the loop has no program to run.
	ErrNoProgram = errors.New("no program")
	// ErrNotStarted indicates Step is called before Start.
	ErrNotStarted = errors.New("program not started")
	// ErrProgramStopped indicates the program already returned a final code.
	ErrProgramStopped = errors.New("program stopped")
)

// ProgramError is the error code returned by a program from a tick.
type ProgramError struct {
	Code Code
	Tick uint64
}

// Error implements error.
func (e *ProgramError) Error() string {
	return fmt.Sprintf("program aborted with code %d at tick %d", int(e.Code), e.Tick)
}

// AggregatedError aggregates multiple errors.
type AggregatedError struct {
	Errors []error
}

// Error implements error
func (e *AggregatedError) Error() string {
	if len(e.Errors) == 0 {
		return ""
	}
	msg := make([]string, len(e.Errors)+1)
	msg[0] = "Multiple errors:"
	for n, err := range e.Errors {
		msg[n+1] = err.Error()
	}
	return strings.Join(msg, "\n")
}

// Add adds errors to be aggregated. nil will be skipped.
func (e *AggregatedError) Add(errs ...error) *AggregatedError {
	for _, err := range errs {
		if err != nil {
			e.Errors = append(e.Errors, err)
		}
	}
	return e
}

// Aggregate returns aggregated error if any error happened.
func (e *AggregatedError) Aggregate() error {
	if len(e.Errors) == 0 {
		return nil
	}
	return e
}
