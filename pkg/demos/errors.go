package demos

import (
	"github.com/golang/glog"

	"github.com/robotalks/tickprog/pkg/async"
	"github.com/robotalks/tickprog/pkg/engine"
	fx "github.com/robotalks/tickprog/pkg/framework"
)

// Error codes returned by the demos.
const (
	CodeI2CFailed   fx.Code = 0x0301
	CodeIssueFailed fx.Code = 0x0302
)

func issue(step *engine.Step, name string, cmd async.Command, next engine.Stage) engine.Outcome {
	if _, err := step.Issue(cmd); err != nil {
		glog.Errorf("%s: issue %s: %v", name, cmd.Kind, err)
		return engine.Fail(CodeIssueFailed)
	}
	return engine.Enter(next)
}

// awaitI2C consumes a completed I2C transfer. When ok is false, the stage
// returns out.
func awaitI2C(step *engine.Step, name string) (r async.Result, out engine.Outcome, ok bool) {
	if r, ok = step.Await(); !ok {
		return r, engine.Suspend(), false
	}
	step.Consume()
	if !r.OK() {
		glog.Errorf("%s: %s failed with status %d", name, r.Kind, r.Status)
		return r, engine.Fail(CodeI2CFailed), false
	}
	return r, out, true
}
