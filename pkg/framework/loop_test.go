package framework

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type testProgram struct {
	initErr error
	codes   []Code
	ticks   []uint64
	trace   *[]string
}

func (p *testProgram) Init(ctx Context) error {
	if p.trace != nil {
		*p.trace = append(*p.trace, "init")
	}
	return p.initErr
}

func (p *testProgram) Tick(ctx Context) Code {
	p.ticks = append(p.ticks, ctx.Tick())
	if p.trace != nil {
		*p.trace = append(*p.trace, "tick")
	}
	if n := len(p.ticks) - 1; n < len(p.codes) {
		return p.codes[n]
	}
	return CodeContinue
}

func TestLoopStep(t *testing.T) {
	var trace []string
	prog := &testProgram{trace: &trace}
	loop := NewLoop(prog)
	_, err := loop.Step()
	require.Equal(t, ErrNotStarted, err)

	for _, phase := range []Phase{PhasePostProc, PhaseActuate, PhaseSense} {
		name := []string{"sense", "actuate", "postproc"}[phase]
		loop.AddController(phase, ControlFunc(func(ctx Context) error {
			trace = append(trace, name)
			return nil
		}))
	}
	require.NoError(t, loop.Start(context.Background()))
	loop.Post(func() { trace = append(trace, "callback") })
	code, err := loop.Step()
	require.NoError(t, err)
	require.Equal(t, CodeContinue, code)
	require.Equal(t, []string{"init", "callback", "sense", "tick", "actuate", "postproc"}, trace)
	require.Equal(t, []uint64{1}, prog.ticks)
}

func TestLoopCallbacksBetweenTicks(t *testing.T) {
	prog := &testProgram{}
	loop := NewLoop(prog)
	require.NoError(t, loop.Start(context.Background()))
	var seen []uint64
	loop.AddController(PhaseActuate, ControlFunc(func(ctx Context) error {
		// posted during a tick, runs before the next one.
		ctx.Post(func() { seen = append(seen, loop.Tick()) })
		return nil
	}))
	_, err := loop.StepN(3)
	require.NoError(t, err)
	require.Equal(t, []uint64{1, 2}, seen)
}

func TestLoopFinalCode(t *testing.T) {
	prog := &testProgram{codes: []Code{CodeContinue, CodeContinue, CodeStop}}
	loop := NewLoop(prog)
	require.NoError(t, loop.Start(context.Background()))
	code, err := loop.StepN(10)
	require.NoError(t, err)
	require.Equal(t, CodeStop, code)
	require.EqualValues(t, 3, loop.Tick())

	code, err = loop.Step()
	require.Equal(t, ErrProgramStopped, err)
	require.Equal(t, CodeStop, code)
	require.Len(t, prog.ticks, 3)
}

func TestLoopRun(t *testing.T) {
	t.Run("stop", func(t *testing.T) {
		loop := NewLoop(&testProgram{codes: []Code{CodeContinue, CodeStop}})
		loop.Interval = time.Microsecond
		require.NoError(t, loop.Run(context.Background()))
	})

	t.Run("error code", func(t *testing.T) {
		loop := NewLoop(&testProgram{codes: []Code{Code(0x42)}})
		loop.Interval = time.Microsecond
		err := loop.Run(context.Background())
		require.Equal(t, &ProgramError{Code: 0x42, Tick: 1}, err)
	})

	t.Run("init error", func(t *testing.T) {
		initErr := errors.New("no link")
		loop := NewLoop(&testProgram{initErr: initErr})
		require.Equal(t, initErr, loop.Run(context.Background()))
	})

	t.Run("runners cancelled", func(t *testing.T) {
		done := make(chan struct{})
		loop := NewLoop(&testProgram{codes: []Code{CodeStop}})
		loop.Interval = time.Microsecond
		loop.AddRunnable(RunFunc(func(ctx context.Context) error {
			<-ctx.Done()
			close(done)
			return nil
		}))
		require.NoError(t, loop.Run(context.Background()))
		<-done
	})

	t.Run("no program", func(t *testing.T) {
		require.Equal(t, ErrNoProgram, (&Loop{}).Run(context.Background()))
	})
}

func TestCode(t *testing.T) {
	require.False(t, CodeContinue.IsError())
	require.False(t, CodeStop.IsError())
	require.True(t, Code(1).IsError())
}

func TestAggregatedError(t *testing.T) {
	var errs AggregatedError
	require.NoError(t, errs.Add(nil).Aggregate())
	err := errs.Add(errors.New("a"), nil, errors.New("b")).Aggregate()
	require.EqualError(t, err, "Multiple errors:\na\nb")
}
