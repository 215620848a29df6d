package sim

import "flag"

// Config defines the parameters of the simulated controller.
type Config struct {
	ResetTicks   int
	RefreshTicks int
	I2CLatency   int
	MotorSpeed   float64
	MotorAccel   float64
	Temperature  float64
}

// Defaults
const (
	DefaultRefreshTicks         = 2
	DefaultI2CLatency           = 2
	DefaultMotorSpeed   float64 = 0.5
	DefaultMotorAccel   float64 = 0.01
	DefaultTemperature  float64 = 21.5
)

var defaultConfig = Config{
	ResetTicks:   DefaultResetTicks,
	RefreshTicks: DefaultRefreshTicks,
	I2CLatency:   DefaultI2CLatency,
	MotorSpeed:   DefaultMotorSpeed,
	MotorAccel:   DefaultMotorAccel,
	Temperature:  DefaultTemperature,
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.IntVar(&defaultConfig.ResetTicks, "sim-reset-ticks", defaultConfig.ResetTicks, "Ticks a counter reset takes.")
	flag.IntVar(&defaultConfig.RefreshTicks, "sim-refresh-ticks", defaultConfig.RefreshTicks, "Ticks the display is refreshing after an update.")
	flag.IntVar(&defaultConfig.I2CLatency, "sim-i2c-latency", defaultConfig.I2CLatency, "Ticks an I2C transfer takes.")
	flag.Float64Var(&defaultConfig.MotorSpeed, "sim-motor-speed", defaultConfig.MotorSpeed, "Encoder pulses per tick at full duty.")
	flag.Float64Var(&defaultConfig.MotorAccel, "sim-motor-accel", defaultConfig.MotorAccel, "Speed change per tick, 0 means immediate.")
	flag.Float64Var(&defaultConfig.Temperature, "sim-temperature", defaultConfig.Temperature, "Temperature (C) measured by the I2C sensors.")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates the default configuration.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// NewController creates the Controller.
func (c *Config) NewController() *Controller {
	return NewController(c)
}
