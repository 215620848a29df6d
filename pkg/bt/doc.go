// Package bt implements the two halves of the remote stop-and-go protocol
// over the controller's wireless link.
//
// The Sender samples a button and transmits the resulting motor duty; the
// Receiver applies the duty to its motor and replies with the value of the
// motor's pulse counter. The Sender stops once the reported counter reaches
// the threshold. Every failure (handshake, receive registration, send,
// disconnection) is displayed and the program stops after a dwell window.
package bt
