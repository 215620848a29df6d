package env

import (
	"context"
	"fmt"
	"net"
	"net/http"

	"github.com/golang/glog"

	"github.com/robotalks/tickprog/pkg/demos"
	"github.com/robotalks/tickprog/pkg/engine"
	fx "github.com/robotalks/tickprog/pkg/framework"
	"github.com/robotalks/tickprog/pkg/link"
	"github.com/robotalks/tickprog/pkg/link/mqtt"
	"github.com/robotalks/tickprog/pkg/radio"
	"github.com/robotalks/tickprog/pkg/sim"
	"github.com/robotalks/tickprog/pkg/telemetry"
)

// Node is one simulated controller running a program.
type Node struct {
	Config     *Config
	Controller *sim.Controller
	Radio      *radio.Radio
	Program    fx.Program
	Loop       *fx.Loop
	Metrics    *telemetry.Metrics

	queue *mqtt.Queue
}

// NewNode creates the node: it opens the link to the peer and the
// telemetry connections.
func (c *Config) NewNode(ctx context.Context, simConf *sim.Config) (*Node, error) {
	n := &Node{Config: c, Controller: simConf.NewController(), Metrics: telemetry.NewMetrics()}
	if err := n.setup(ctx); err != nil {
		if n.Radio != nil {
			n.Radio.Link.Close()
		}
		n.Close()
		return nil, err
	}
	glog.Infof("node %s: program %s, local %s, peer %s", c.NodeName(), c.Program, c.Local, c.Peer)
	return n, nil
}

func (n *Node) setup(ctx context.Context) (err error) {
	c := n.Config
	if c.LinkURL != "" {
		conn, err := link.Open(ctx, c.LinkURL, link.Endpoints{Local: c.Local, Peer: c.Peer})
		if err != nil {
			return fmt.Errorf("open link %s: %v", c.LinkURL, err)
		}
		n.Radio = radio.New(c.Local, conn, nil)
		n.Controller.Bluetooth = n.Radio
	}
	if n.Program, err = demos.New(c.Program, n.Controller, c.Options()); err != nil {
		return err
	}
	observers := []interface{}{n.Metrics}
	if c.MQTTBrokerURL != "" {
		if n.queue, err = mqtt.NewQueueFromURL(c.MQTTBrokerURL); err != nil {
			return err
		}
		if err = n.queue.Connect(); err != nil {
			return fmt.Errorf("mqtt connect: %v", err)
		}
		observers = append(observers, &telemetry.Publisher{Queue: n.queue, Node: c.NodeName()})
	}
	if holder, ok := n.Program.(engine.Holder); ok {
		telemetry.Attach(holder.StateMachine(), observers...)
	}
	n.Loop = fx.NewLoop(n.Program)
	n.Loop.Interval = c.Interval
	n.Loop.Add(n.Controller, n.Metrics)
	if c.MetricsAddr != "" {
		n.Loop.AddRunnable(fx.NamedRun("metrics", fx.RunFunc(n.serveMetrics)))
	}
	return nil
}

// Add adds more components to the loop.
func (n *Node) Add(adders ...fx.LoopAdder) *Node {
	n.Loop.Add(adders...)
	return n
}

// Run runs the program until it ends or ctx is cancelled.
func (n *Node) Run(ctx context.Context) error {
	defer n.Close()
	return n.Loop.Run(ctx)
}

// Close releases the connections not owned by the loop.
func (n *Node) Close() error {
	if n.queue != nil {
		n.queue.Close()
		n.queue = nil
	}
	return nil
}

func (n *Node) serveMetrics(ctx context.Context) error {
	ln, err := net.Listen("tcp", n.Config.MetricsAddr)
	if err != nil {
		return err
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", n.Metrics.Handler())
	server := &http.Server{Handler: mux}
	glog.Infof("metrics on %s", ln.Addr())
	return fx.RunWithContextCloser(ctx, server, func() error {
		return server.Serve(ln)
	})
}
