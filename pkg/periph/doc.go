// Package periph defines the peripheral surface a controller program consumes.
package periph

// Everything in here is provided by the controller firmware (or a simulation
// of it). Bluetooth and I2C operations are asynchronous: the call returns
// immediately and the outcome is reported later through a Callback, always
// between two ticks of the program. Display and IO are synchronous.
