package main

import (
	"github.com/robotalks/tickprog/pkg/cli/sh"
	"github.com/robotalks/tickprog/pkg/env"
	"github.com/robotalks/tickprog/pkg/sim"
)

//go-build: CGO_ENABLED=0

func init() {
	env.SetupFlags()
	sim.SetupFlags()
}

func main() {
	sh.Main()
}
