package env

import (
	"crypto/sha256"

	"github.com/denisbrodbeck/machineid"
	"github.com/golang/glog"

	"github.com/robotalks/tickprog/pkg/periph"
)

// AppID is mixed into the machine ID when deriving addresses.
const AppID = "tickprog"

// MachineID retrieves the ID identifying the machine for this app.
func MachineID() (string, error) {
	return machineid.ProtectedID(AppID)
}

// AddressFromID derives a locally administered unicast address from an ID.
func AddressFromID(id string) (addr periph.Address) {
	sum := sha256.Sum256([]byte(id))
	copy(addr[:], sum[:])
	addr[0] = addr[0]&^0x01 | 0x02
	return
}

// LocalAddress derives the address of this machine. Without a machine ID,
// the address is derived from the app ID.
func LocalAddress() periph.Address {
	id, err := MachineID()
	if err != nil {
		glog.Warningf("machine id: %v", err)
		id = AppID
	}
	return AddressFromID(id)
}
