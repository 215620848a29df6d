// Package engine runs a program as an ordered sequence of stages.
//
// On every tick the current stage is evaluated. A stage either suspends
// (nothing more to do this tick), enters another stage (evaluated on the
// next tick) or advances into another stage, which is then evaluated in
// the same tick. Regardless of that, a tick performs at most one externally
// observable action: issuing an async command or returning a final code.
//
// Stages only move forward through the declared order, apart from the
// loop-back edges declared with LoopBack.
package engine
