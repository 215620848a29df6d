package main

//go-build: CGO_ENABLED=0

import (
	"flag"

	"github.com/golang/glog"

	"github.com/robotalks/tickprog/pkg/env"
	fx "github.com/robotalks/tickprog/pkg/framework"
	"github.com/robotalks/tickprog/pkg/joystick"
	"github.com/robotalks/tickprog/pkg/sim"
)

var useJoystick bool

func init() {
	env.SetupFlags()
	sim.SetupFlags()
	joystick.SetupFlags()
	flag.BoolVar(&useJoystick, "use-joystick", useJoystick, "Drive the controller button from a joystick.")
}

func main() {
	flag.Parse()

	conf, err := env.Resolve(flag.CommandLine, env.Default())
	if err != nil {
		glog.Exit(err)
	}
	runner := fx.NewRunner().HandleSignals()
	node, err := conf.NewNode(runner.Context, sim.Default())
	if err != nil {
		glog.Exit(err)
	}
	if useJoystick {
		node.Add(joystick.NewConfig().NewInput(node.Controller))
	}
	glog.Infof("node %s running %s at %s", conf.NodeName(), conf.Program, conf.Local)
	if err := runner.Go(node).Wait(); err != nil {
		glog.Exit(err)
	}
}
