package env

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/tickprog/pkg/bt"
	fx "github.com/robotalks/tickprog/pkg/framework"
	"github.com/robotalks/tickprog/pkg/periph"
)

// Config provides the options to run a node.
type Config struct {
	// Program is the name of the program to run.
	Program string `yaml:"program"`
	// Name identifies the node in telemetry, the program name by default.
	Name  string         `yaml:"name"`
	Local periph.Address `yaml:"local"`
	Peer  periph.Address `yaml:"peer"`
	// LinkURL specifies the transport to the peer, e.g. tcp://host:port.
	// The Bluetooth is switched off without it.
	LinkURL string `yaml:"link"`
	// MQTTBrokerURL publishes stage changes when set,
	// e.g. mqtt://host:port/topic-prefix
	MQTTBrokerURL string `yaml:"mqtt"`
	// MetricsAddr serves Prometheus metrics when set.
	MetricsAddr string        `yaml:"metrics"`
	Interval    time.Duration `yaml:"interval"`
	Channel     int           `yaml:"channel"`
	Motor       int           `yaml:"motor"`
	Button      int           `yaml:"button"`
	Threshold   int           `yaml:"threshold"`
	DwellTicks  uint          `yaml:"dwell_ticks"`
	Profile     string        `yaml:"-"`
}

// Environment variables.
const (
	EnvProgram = "TICKPROG_PROGRAM"
	EnvPeer    = "TICKPROG_PEER"
	EnvLink    = "TICKPROG_LINK"
	EnvMQTT    = "TICKPROG_MQTT_URL"
	EnvMetrics = "TICKPROG_METRICS"
	EnvProfile = "TICKPROG_PROFILE"
)

var defaultConfig = Config{
	Program:    "stopgo",
	Interval:   fx.DefaultInterval,
	Channel:    bt.DefaultChannel,
	Motor:      bt.DefaultMotor,
	Button:     bt.DefaultButton,
	Threshold:  bt.DefaultThreshold,
	DwellTicks: bt.DefaultDwellTicks,
}

func init() {
	defaultConfig.Local = LocalAddress()
	if err := defaultConfig.FromEnv(os.Getenv); err != nil {
		glog.Warning(err)
	}
}

// FromEnv overrides the config from environment variables.
func (c *Config) FromEnv(getenv func(string) string) error {
	if val := getenv(EnvProgram); val != "" {
		c.Program = val
	}
	if val := getenv(EnvPeer); val != "" {
		addr, err := periph.ParseAddress(val)
		if err != nil {
			return fmt.Errorf("%s: %v", EnvPeer, err)
		}
		c.Peer = addr
	}
	if val := getenv(EnvLink); val != "" {
		c.LinkURL = val
	}
	if val := getenv(EnvMQTT); val != "" {
		c.MQTTBrokerURL = val
	}
	if val := getenv(EnvMetrics); val != "" {
		c.MetricsAddr = val
	}
	if val := getenv(EnvProfile); val != "" {
		c.Profile = val
	}
	return nil
}

type addressValue struct {
	addr *periph.Address
}

func (v addressValue) String() string {
	if v.addr == nil {
		return ""
	}
	return v.addr.String()
}

func (v addressValue) Set(s string) error {
	return v.addr.UnmarshalText([]byte(s))
}

// SetupFlags sets command line flags.
func SetupFlags() {
	SetupFlagSet(flag.CommandLine, &defaultConfig)
}

// SetupFlagSet sets flags on fs bound to conf.
func SetupFlagSet(fs *flag.FlagSet, conf *Config) {
	fs.StringVar(&conf.Program, "program", conf.Program, "Program to run.")
	fs.StringVar(&conf.Name, "name", conf.Name, "Node name in telemetry.")
	fs.Var(addressValue{&conf.Local}, "local", "Local Bluetooth address.")
	fs.Var(addressValue{&conf.Peer}, "peer", "Peer Bluetooth address.")
	fs.StringVar(&conf.LinkURL, "link", conf.LinkURL, "Link to the peer, e.g. tcp://host:port, tcp+listen://:port, mqtt://broker/prefix.")
	fs.StringVar(&conf.MQTTBrokerURL, "mqtt", conf.MQTTBrokerURL, "MQTT broker URL for telemetry.")
	fs.StringVar(&conf.MetricsAddr, "metrics", conf.MetricsAddr, "Address serving Prometheus metrics.")
	fs.DurationVar(&conf.Interval, "interval", conf.Interval, "Tick interval.")
	fs.IntVar(&conf.Channel, "channel", conf.Channel, "Bluetooth channel.")
	fs.IntVar(&conf.Motor, "motor", conf.Motor, "Motor number.")
	fs.IntVar(&conf.Button, "button", conf.Button, "Universal input number of the button.")
	fs.IntVar(&conf.Threshold, "threshold", conf.Threshold, "Counter value completing the program.")
	fs.UintVar(&conf.DwellTicks, "dwell", conf.DwellTicks, "Ticks a status stays on the display.")
	fs.StringVar(&conf.Profile, "profile", conf.Profile, "YAML profile with defaults for the options.")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// NodeName returns the name of the node.
func (c *Config) NodeName() string {
	if c.Name != "" {
		return c.Name
	}
	return c.Program
}

// Options builds the options of the programs.
func (c *Config) Options() bt.Options {
	return bt.Options{
		Channel:    c.Channel,
		Peer:       c.Peer,
		Motor:      c.Motor,
		Button:     c.Button,
		Threshold:  int16(c.Threshold),
		DwellTicks: uint32(c.DwellTicks),
	}
}

// Validate checks the config.
func (c *Config) Validate() error {
	switch {
	case c.Program == "":
		return fmt.Errorf("program must be specified")
	case c.Channel < 1:
		return fmt.Errorf("invalid channel %d", c.Channel)
	case c.Motor < 1 || c.Motor > periph.NumMotors:
		return fmt.Errorf("invalid motor %d", c.Motor)
	case c.Button < 1 || c.Button > periph.NumInputs:
		return fmt.Errorf("invalid button %d", c.Button)
	case c.Threshold < 0 || c.Threshold > 0x7fff:
		return fmt.Errorf("invalid threshold %d", c.Threshold)
	case c.LinkURL != "" && c.Peer.IsZero():
		return fmt.Errorf("peer is required with link %s", c.LinkURL)
	}
	return nil
}
