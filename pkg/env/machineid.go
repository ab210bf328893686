// Package env provides facts about the host the simulated board runs on.
package env

import (
	"os"

	"github.com/denisbrodbeck/machineid"
	"github.com/golang/glog"
)

// AppID salts the machine ID so it is not exposed as is.
const AppID = "mcuasync"

// BoardIDLen is the length of generated board IDs.
const BoardIDLen = 12

// MachineID retrieves the unique ID identifying the machine.
func MachineID() (string, error) {
	return machineid.ProtectedID(AppID)
}

// BoardID derives a short board ID from the machine ID, falling back to
// the hostname.
func BoardID() string {
	id, err := MachineID()
	if err != nil {
		glog.Warningf("machine id unavailable: %v", err)
		if id, err = os.Hostname(); err != nil {
			return "board"
		}
		return id
	}
	if len(id) > BoardIDLen {
		id = id[:BoardIDLen]
	}
	return id
}
