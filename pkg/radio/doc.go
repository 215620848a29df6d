// Package radio emulates the short-range wireless peripheral of a
// controller on top of a packet link to the other controller.
//
// All callbacks are posted to the host loop and never invoked inline, so
// they're delivered strictly between two ticks of the program.
package radio
