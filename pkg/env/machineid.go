package env

import (
	"os"

	"github.com/denisbrodbeck/machineid"
	"github.com/golang/glog"
)

// MachineID retrieves the ID identifying the machine, derived for this
// application. It falls back to the hostname.
func MachineID() string {
	id, err := machineid.ProtectedID("pnpfeeder")
	if err == nil {
		return id[:12]
	}
	glog.Warningf("machine ID unavailable: %v", err)
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "pnpfeeder"
}
