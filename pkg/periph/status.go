package periph

import "fmt"

// Status is the status code reported by a peripheral.
// Pending is never a Status: a result which has not arrived is simply absent.
type Status uint8

// Bluetooth status codes.
const (
	BtSuccess Status = iota
	BtConExist
	BtConSetup
	BtSwitchedOff
	BtAllChanBusy
	BtNotRoboTX
	BtConTimeout
	BtConInvalid
	BtConRelease
	BtNotConnected
	BtNotReceive
	BtReceiveActive
	BtNoListenActive
	BtListenActive
	BtWrongChannel
	BtWrongAddress
	BtMsgSize
	BtConIndication
	BtDisconIndication
	BtMsgIndication
)

// I2C status codes.
const (
	I2CSuccess Status = iota
	I2CReadError
	I2CWriteError
)

var btStatusText = map[Status]string{
	BtSuccess:          "Success",
	BtConExist:         "Already connected",
	BtConSetup:         "Connection setup in progress",
	BtSwitchedOff:      "Bluetooth switched off",
	BtAllChanBusy:      "All channels busy",
	BtNotRoboTX:        "Peer is not a controller",
	BtConTimeout:       "Connection timeout",
	BtConInvalid:       "Invalid connection",
	BtConRelease:       "Connection released",
	BtNotConnected:     "Not connected",
	BtNotReceive:       "Receiving not started",
	BtReceiveActive:    "Receiving already active",
	BtNoListenActive:   "Listening not started",
	BtListenActive:     "Listening already active",
	BtWrongChannel:     "Wrong channel",
	BtWrongAddress:     "Wrong address",
	BtMsgSize:          "Wrong message size",
	BtConIndication:    "Passive connection established",
	BtDisconIndication: "Disconnected by peer",
	BtMsgIndication:    "Message received",
}

// BtStatusText formats a Bluetooth status for display.
func BtStatusText(s Status) string {
	if text, ok := btStatusText[s]; ok {
		return text
	}
	return fmt.Sprintf("status %d", s)
}

// IsBtIndication tells an unsolicited Bluetooth event from a command completion.
func IsBtIndication(s Status) bool {
	return s == BtConIndication || s == BtDisconIndication || s == BtMsgIndication
}

// StatusError wraps a failure status into an error.
type StatusError struct {
	Status Status
}

// Error implements error.
func (e *StatusError) Error() string {
	return "bluetooth: " + BtStatusText(e.Status)
}
