package demos

import (
	"fmt"
	"sort"

	"github.com/robotalks/tickprog/pkg/bt"
	fx "github.com/robotalks/tickprog/pkg/framework"
	"github.com/robotalks/tickprog/pkg/periph"
)

// Factory creates a program on a controller.
type Factory func(hooks periph.Hooks, opts bt.Options) fx.Program

var factories = map[string]Factory{
	"sender":     func(h periph.Hooks, opts bt.Options) fx.Program { return bt.NewSender(h, opts) },
	"receiver":   func(h periph.Hooks, opts bt.Options) fx.Program { return bt.NewReceiver(h, opts) },
	"i2ctemp":    func(h periph.Hooks, opts bt.Options) fx.Program { return NewI2CTemp(h) },
	"thermopile": func(h periph.Hooks, opts bt.Options) fx.Program { return NewThermopile(h) },
	"lightrun":   func(h periph.Hooks, opts bt.Options) fx.Program { return NewLightRun(h) },
	"motorrun": func(h periph.Hooks, opts bt.Options) fx.Program {
		p := NewMotorRun(h)
		p.Motor = opts.Motor
		return p
	},
	"stopgo": func(h periph.Hooks, opts bt.Options) fx.Program {
		p := NewStopGo(h)
		p.Motor, p.Button, p.Threshold = opts.Motor, opts.Button, opts.Threshold
		return p
	},
}

// Names lists the known programs.
func Names() []string {
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New creates a program by name.
func New(name string, hooks periph.Hooks, opts bt.Options) (fx.Program, error) {
	factory, ok := factories[name]
	if !ok {
		return nil, fmt.Errorf("unknown program %q", name)
	}
	return factory(hooks, opts), nil
}
