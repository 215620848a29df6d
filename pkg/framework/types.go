package framework

import (
	"context"
)

// Named is an abstraction for things with a name.
type Named interface {
	Name() string
}

// Runnable defines a generic interface for background runners.
type Runnable interface {
	Run(context.Context) error
}

// Code is the value a program returns from each tick.
type Code int

const (
	// CodeStop stops the program normally.
	CodeStop Code = 0
	// CodeContinue asks the host to keep calling the program.
	CodeContinue Code = 0x7FFF
)

// IsError indicates the code aborts the program with an error.
func (c Code) IsError() bool {
	return c != CodeContinue && c != CodeStop
}

// Poster defers a func to run in the program's execution context
// between two ticks. It's safe to be called from any goroutine.
type Poster interface {
	Post(fn func())
}

// Context is provided to the program and controllers on each invocation.
type Context interface {
	Poster
	// Context retrieves context.Context.
	Context() context.Context
	// Tick returns the logical tick number, 0 during Init.
	Tick() uint64
}

// Program is a plugin executed by the host scheduler.
type Program interface {
	// Init is called exactly once before the first tick.
	Init(Context) error
	// Tick is called once per quantum and must never block.
	Tick(Context) Code
}

// Controller is an auxiliary executed on every tick along with the program.
type Controller interface {
	Control(Context) error
}

// ControlFunc defines the func form of Controller.
type ControlFunc func(Context) error

// Control implements Controller.
func (f ControlFunc) Control(ctx Context) error {
	return f(ctx)
}

// Phase decides when a controller runs relative to the program tick.
type Phase int

// Controller phases.
const (
	// PhaseSense runs before the program, e.g. to update simulated inputs.
	PhaseSense Phase = iota
	// PhaseActuate runs after the program, e.g. to apply outputs.
	PhaseActuate
	// PhasePostProc runs last, e.g. for telemetry.
	PhasePostProc

	numPhases
)
