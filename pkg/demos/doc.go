// Package demos provides the sample programs of the controller: reading
// I2C sensors, running a motor through a duty ramp and the local
// stop-and-go with a button.
package demos
