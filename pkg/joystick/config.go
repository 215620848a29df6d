package joystick

import "flag"

// Config defines the configurations of the joystick input.
type Config struct {
	DeviceIndex int
	Button      int
	Input       int
	Verbose     bool
}

var defaultConfig = Config{
	DeviceIndex: -1,
	Input:       8,
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.IntVar(&defaultConfig.DeviceIndex, "joystick", defaultConfig.DeviceIndex, "Joystick device index, -1 for auto detection.")
	flag.IntVar(&defaultConfig.Button, "joystick-button", defaultConfig.Button, "Joystick button acting as the controller button.")
	flag.IntVar(&defaultConfig.Input, "joystick-input", defaultConfig.Input, "Universal input (1-based) driven by the joystick button.")
	flag.BoolVar(&defaultConfig.Verbose, "joystick-verbose", defaultConfig.Verbose, "Print Joystick events.")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a config with defaults.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// NewInput creates the input using the config.
func (c *Config) NewInput(target Presser) *Input {
	in := NewInput(target)
	in.DeviceIndex = c.DeviceIndex
	in.Buttons = map[int]int{c.Button: c.Input - 1}
	in.Verbose = c.Verbose
	return in
}
