package framework

import (
	"context"
	"sync"
	"time"

	"github.com/golang/glog"
)

// DefaultInterval is the tick quantum of the controller firmware.
const DefaultInterval = time.Millisecond

// Loop is the host scheduler. It runs one program: Init once, then one
// Tick per Interval. Callbacks posted by peripheral drivers are queued and
// run strictly between ticks, so the program, its controllers and its
// callbacks never run concurrently.
type Loop struct {
	Interval time.Duration
	Program  Program

	controllers [numPhases][]Controller
	runners     []Runnable

	deferred callbackList
	lock     sync.Mutex

	ctx     context.Context
	tick    uint64
	started bool
	final   *Code
}

// LoopAdder provides specific logic to add components to loop.
type LoopAdder interface {
	AddToLoop(*Loop)
}

type callbackList struct {
	head *callbackItem
	tail *callbackItem
}

type callbackItem struct {
	fn   func()
	next *callbackItem
}

func (l *callbackList) append(item *callbackItem) {
	if l.head == nil {
		l.head = item
	} else {
		l.tail.next = item
	}
	l.tail = item
}

func (l *callbackList) splice(src *callbackList) {
	l.head, l.tail, src.head, src.tail = src.head, src.tail, nil, nil
}

type loopContext struct {
	loop *Loop
	ctx  context.Context
	tick uint64
}

func (c *loopContext) Context() context.Context { return c.ctx }
func (c *loopContext) Tick() uint64             { return c.tick }
func (c *loopContext) Post(fn func())           { c.loop.Post(fn) }

// NewLoop creates a Loop for a program.
func NewLoop(prog Program) *Loop {
	return &Loop{Interval: DefaultInterval, Program: prog}
}

// Add adds LoopAdders.
func (l *Loop) Add(adders ...LoopAdder) *Loop {
	for _, adder := range adders {
		adder.AddToLoop(l)
	}
	return l
}

// AddController registers controllers in a phase.
func (l *Loop) AddController(phase Phase, ctls ...Controller) *Loop {
	l.controllers[phase] = append(l.controllers[phase], ctls...)
	for _, ctl := range ctls {
		if runner, ok := ctl.(Runnable); ok {
			l.runners = append(l.runners, runner)
		}
	}
	return l
}

// AddRunnable adds Runnable implementions.
func (l *Loop) AddRunnable(runnables ...Runnable) *Loop {
	l.runners = append(l.runners, runnables...)
	return l
}

// Post implements Poster.
func (l *Loop) Post(fn func()) {
	l.lock.Lock()
	l.deferred.append(&callbackItem{fn: fn})
	l.lock.Unlock()
}

// Tick returns the number of the last executed tick.
func (l *Loop) Tick() uint64 {
	return l.tick
}

// Start calls Init of the program.
func (l *Loop) Start(ctx context.Context) error {
	if l.Program == nil {
		return ErrNoProgram
	}
	l.ctx, l.tick, l.started, l.final = ctx, 0, true, nil
	return l.Program.Init(&loopContext{loop: l, ctx: ctx})
}

// Step runs the posted callbacks and then exactly one tick.
func (l *Loop) Step() (Code, error) {
	if !l.started {
		return CodeContinue, ErrNotStarted
	}
	if l.final != nil {
		return *l.final, ErrProgramStopped
	}
	l.runCallbacks()
	l.tick++
	cc := &loopContext{loop: l, ctx: l.ctx, tick: l.tick}
	l.runControllers(cc, PhaseSense)
	code := l.Program.Tick(cc)
	l.runControllers(cc, PhaseActuate)
	l.runControllers(cc, PhasePostProc)
	if code != CodeContinue {
		l.final = &code
	}
	return code, nil
}

// StepN runs up to n ticks and stops early if the program ends.
func (l *Loop) StepN(n int) (Code, error) {
	code := CodeContinue
	for i := 0; i < n && code == CodeContinue; i++ {
		var err error
		if code, err = l.Step(); err != nil {
			return code, err
		}
	}
	return code, nil
}

// Run implements Runnable. It returns nil when the program stops normally
// and a *ProgramError when it aborts.
func (l *Loop) Run(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	runner := NewRunnerWith(runCtx)
	runner.Go(l.runners...)
	defer runner.Wait()
	defer cancel()

	if err := l.Start(runCtx); err != nil {
		return err
	}
	interval := l.Interval
	if interval == 0 {
		interval = DefaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			code, err := l.Step()
			if err != nil {
				return err
			}
			switch {
			case code == CodeStop:
				glog.Infof("program stopped at tick %d", l.tick)
				return nil
			case code.IsError():
				return &ProgramError{Code: code, Tick: l.tick}
			}
		}
	}
}

func (l *Loop) runCallbacks() {
	var cbs callbackList
	l.lock.Lock()
	cbs.splice(&l.deferred)
	l.lock.Unlock()
	for item := cbs.head; item != nil; item = item.next {
		item.fn()
	}
}

func (l *Loop) runControllers(cc Context, phase Phase) {
	for _, ctl := range l.controllers[phase] {
		if err := ctl.Control(cc); err != nil {
			glog.Errorf("controller error: %v", err)
		}
	}
}
