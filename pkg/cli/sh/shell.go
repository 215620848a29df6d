package sh

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/abiosoft/ishell"
	"github.com/golang/glog"

	"github.com/robotalks/tickprog/pkg/engine"
	"github.com/robotalks/tickprog/pkg/env"
	"github.com/robotalks/tickprog/pkg/sim"
)

// Shell provides ishell backed interactive shell over simulated nodes
// running in this process.
type Shell struct {
	Interactive bool
	OutputJSON  bool

	Shell     *ishell.Shell
	Config    *env.Config
	SimConfig *sim.Config

	lock  sync.Mutex
	nodes map[string]*RunningNode
}

// RunningNode is a node started from the shell.
type RunningNode struct {
	Name string
	Node *env.Node

	cancel func()
	done   chan struct{}
	err    error
}

// Status is what the shell reports about a node.
type Status struct {
	Name     string       `json:"name"`
	Program  string       `json:"program"`
	Address  string       `json:"address"`
	Stage    string       `json:"stage,omitempty"`
	Running  bool         `json:"running"`
	Result   string       `json:"result,omitempty"`
	Tick     uint64       `json:"tick"`
	Snapshot sim.Snapshot `json:"snapshot"`
}

const (
	shellKey = "$shell"
	prompt   = "tick > "
)

// QueryTimeout limits the wait for a running node to answer.
const QueryTimeout = time.Second

var (
	// flags

	evalOnly   bool
	outputJSON bool

	// commands
	commands = []*ishell.Cmd{
		&StartCmd,
		&StopGoCmd,
		&ListCmd,
		&ShowCmd,
		&PressCmd,
		&ReleaseCmd,
		&TempCmd,
		&StopCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
}

// AddCmds is used by other commands providers during init func.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}

// New creates a new shell.
func New(conf *env.Config, simConf *sim.Config) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,

		Shell:     ishell.New(),
		Config:    conf,
		SimConfig: simConf,
		nodes:     make(map[string]*RunningNode),
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(prompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// Start starts a node running program. With peer, the node is linked to
// the node of that name.
func (s *Shell) Start(name, program, peer string) (*RunningNode, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if _, exists := s.nodes[name]; exists {
		return nil, fmt.Errorf("node %s exists", name)
	}
	conf := *s.Config
	conf.Name, conf.Program = name, program
	conf.Local, conf.LinkURL, conf.MetricsAddr = env.AddressFromID(name), "", ""
	if peer != "" {
		conf.Peer = env.AddressFromID(peer)
		conf.LinkURL = "mem://" + linkName(name, peer)
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(context.Background())
	node, err := conf.NewNode(ctx, s.SimConfig)
	if err != nil {
		cancel()
		return nil, err
	}
	rn := &RunningNode{Name: name, Node: node, cancel: cancel, done: make(chan struct{})}
	s.nodes[name] = rn
	go func() {
		defer close(rn.done)
		rn.err = node.Run(ctx)
		glog.Infof("node %s: %v", name, rn.err)
	}()
	return rn, nil
}

func linkName(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + "-" + b
}

// Node finds a node by name.
func (s *Shell) Node(name string) (*RunningNode, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if rn, ok := s.nodes[name]; ok {
		return rn, nil
	}
	return nil, fmt.Errorf("unknown node %s", name)
}

// Names lists the nodes.
func (s *Shell) Names() []string {
	s.lock.Lock()
	defer s.lock.Unlock()
	names := make([]string, 0, len(s.nodes))
	for name := range s.nodes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Stop stops a node and removes it.
func (s *Shell) Stop(name string) error {
	rn, err := s.Node(name)
	if err != nil {
		return err
	}
	rn.cancel()
	<-rn.done
	s.lock.Lock()
	delete(s.nodes, name)
	s.lock.Unlock()
	return nil
}

// StopAll stops all nodes.
func (s *Shell) StopAll() {
	for _, name := range s.Names() {
		s.Stop(name)
	}
}

// Running indicates the node is still running.
func (rn *RunningNode) Running() bool {
	select {
	case <-rn.done:
		return false
	default:
		return true
	}
}

// Do runs fn between two ticks of a running node, or directly once the
// node stopped.
func (rn *RunningNode) Do(fn func()) error {
	if !rn.Running() {
		fn()
		return nil
	}
	doneCh := make(chan struct{})
	rn.Node.Loop.Post(func() {
		fn()
		close(doneCh)
	})
	select {
	case <-doneCh:
		return nil
	case <-rn.done:
		return nil
	case <-time.After(QueryTimeout):
		return fmt.Errorf("node %s not responding", rn.Name)
	}
}

// Status queries the status of the node.
func (rn *RunningNode) Status() (st Status, err error) {
	st.Name = rn.Name
	st.Program = rn.Node.Config.Program
	st.Address = rn.Node.Config.Local.String()
	err = rn.Do(func() {
		st.Tick = rn.Node.Loop.Tick()
		st.Snapshot = rn.Node.Controller.Snapshot()
		if holder, ok := rn.Node.Program.(engine.Holder); ok {
			m := holder.StateMachine()
			st.Stage = m.StageName(m.Current())
		}
	})
	if st.Running = rn.Running(); !st.Running {
		st.Result = "stopped"
		if rn.err != nil {
			st.Result = rn.err.Error()
		}
	}
	return
}

// FormatStatus prints Status into friendly string for display.
func FormatStatus(st Status) string {
	var w strings.Builder
	fmt.Fprintf(&w, "%s [%s] %s tick %d", st.Name, st.Program, st.Address, st.Tick)
	if st.Stage != "" {
		fmt.Fprintf(&w, " stage %s", st.Stage)
	}
	if !st.Running {
		fmt.Fprintf(&w, " (%s)", st.Result)
	}
	snap := st.Snapshot
	fmt.Fprintf(&w, "\n  inputs   %v\n  counters %v\n  duty     %v", snap.Inputs, snap.Counters, snap.Duty)
	if snap.Message != "" {
		fmt.Fprintf(&w, "\n  display  %q", snap.Message)
	}
	return w.String()
}

func (s *Shell) print(c *ishell.Context, v interface{}, text string) {
	if s.OutputJSON {
		out, err := json.Marshal(v)
		if err != nil {
			c.Err(err)
			return
		}
		c.Println(string(out))
		return
	}
	c.Println(text)
}

func (s *Shell) showNode(c *ishell.Context, name string) {
	rn, err := s.Node(name)
	if err != nil {
		c.Err(err)
		return
	}
	st, err := rn.Status()
	if err != nil {
		c.Err(err)
		return
	}
	s.print(c, st, FormatStatus(st))
}

// Run runs the shell.
func (s *Shell) Run(args ...string) error {
	defer s.StopAll()
	if len(args) > 0 {
		return s.Shell.Process(args...)
	}
	if s.Interactive {
		s.Shell.Run()
		return nil
	}
	return fmt.Errorf("command expected")
}

func parseInput(arg string) (int, error) {
	n, err := strconv.Atoi(strings.TrimPrefix(strings.ToUpper(arg), "I"))
	if err != nil {
		return 0, fmt.Errorf("invalid input %q", arg)
	}
	return n, nil
}

func setInput(c *ishell.Context, pressed bool) {
	if len(c.Args) < 2 {
		c.Err(fmt.Errorf("NODE INPUT expected"))
		return
	}
	rn, err := ShellFrom(c).Node(c.Args[0])
	if err != nil {
		c.Err(err)
		return
	}
	n, err := parseInput(c.Args[1])
	if err == nil && (n < 1 || n > len(sim.Snapshot{}.Inputs)) {
		err = fmt.Errorf("input %d out of range", n)
	}
	if err != nil {
		c.Err(err)
		return
	}
	if err := rn.Do(func() { rn.Node.Controller.Press(n-1, pressed) }); err != nil {
		c.Err(err)
	}
}

var (
	// StartCmd starts a node.
	StartCmd = ishell.Cmd{
		Name:    "start",
		Aliases: []string{"s"},
		Help:    "NAME PROGRAM [PEER]",
		Func: func(c *ishell.Context) {
			if len(c.Args) < 2 {
				c.Err(fmt.Errorf("NAME PROGRAM expected"))
				return
			}
			var peer string
			if len(c.Args) > 2 {
				peer = c.Args[2]
			}
			rn, err := ShellFrom(c).Start(c.Args[0], c.Args[1], peer)
			if err != nil {
				c.Err(err)
				return
			}
			c.Printf("%s started at %s\n", rn.Name, rn.Node.Config.Local)
		},
	}

	// StopGoCmd starts the two nodes of the stop-and-go over Bluetooth.
	StopGoCmd = ishell.Cmd{
		Name: "stopgo",
		Help: "start nodes motor and button",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			if _, err := s.Start("motor", "receiver", "button"); err != nil {
				c.Err(err)
				return
			}
			// the receiver must be listening before the sender connects.
			time.Sleep(100 * time.Millisecond)
			if _, err := s.Start("button", "sender", "motor"); err != nil {
				c.Err(err)
				return
			}
			c.Println("press button I8 on node button to run motor M1 on node motor")
		},
	}

	// ListCmd lists the nodes.
	ListCmd = ishell.Cmd{
		Name:    "list",
		Aliases: []string{"l"},
		Help:    "",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			names := s.Names()
			if len(names) == 0 && !s.OutputJSON {
				c.Println("No nodes")
				return
			}
			for _, name := range names {
				s.showNode(c, name)
			}
		},
	}

	// ShowCmd shows a node.
	ShowCmd = ishell.Cmd{
		Name: "show",
		Help: "NAME",
		Func: func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("NAME expected"))
				return
			}
			ShellFrom(c).showNode(c, c.Args[0])
		},
	}

	// PressCmd presses a button.
	PressCmd = ishell.Cmd{
		Name:    "press",
		Aliases: []string{"p"},
		Help:    "NODE INPUT",
		Func: func(c *ishell.Context) {
			setInput(c, true)
		},
	}

	// ReleaseCmd releases a button.
	ReleaseCmd = ishell.Cmd{
		Name:    "release",
		Aliases: []string{"r"},
		Help:    "NODE INPUT",
		Func: func(c *ishell.Context) {
			setInput(c, false)
		},
	}

	// TempCmd changes the temperature around the I2C sensors.
	TempCmd = ishell.Cmd{
		Name: "temp",
		Help: "NODE CELSIUS",
		Func: func(c *ishell.Context) {
			if len(c.Args) < 2 {
				c.Err(fmt.Errorf("NODE CELSIUS expected"))
				return
			}
			rn, err := ShellFrom(c).Node(c.Args[0])
			if err != nil {
				c.Err(err)
				return
			}
			temp, err := strconv.ParseFloat(c.Args[1], 64)
			if err != nil {
				c.Err(err)
				return
			}
			bus := rn.Node.Controller.Bus
			err = rn.Do(func() {
				if dev, ok := bus.Device(sim.DS1631Address).(*sim.DS1631); ok {
					dev.SetTemperature(temp)
				}
			})
			if err != nil {
				c.Err(err)
			}
		},
	}

	// StopCmd stops a node.
	StopCmd = ishell.Cmd{
		Name: "stop",
		Help: "NAME",
		Func: func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("NAME expected"))
				return
			}
			if err := ShellFrom(c).Stop(c.Args[0]); err != nil {
				c.Err(err)
			}
		},
	}
)

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	conf := env.NewConfig()
	if err := New(conf, sim.NewConfig()).Run(flag.Args()...); err != nil {
		glog.Exit(err)
	}
}
