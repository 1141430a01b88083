package netio

import (
	"fmt"
	"time"

	"github.com/huin/goupnp/dcps/internetgateway2"
)

// mappingDuration is the lease length requested from the IGD. A short
// lease plus periodic renewal is friendlier to routers than an
// indefinite one; FFTP renews it for as long as the Endpoint is open.
const mappingDuration = 1 * time.Hour

// mapPort discovers a UPnP IGD on the LAN and requests a UDP port
// mapping for localPort, returning a function that removes the
// mapping. Mapping failure is surfaced to the caller rather than
// silently ignored.
func mapPort(localPort int) (func(), error) {
	clients, _, err := internetgateway2.NewWANIPConnection1Clients()
	if err != nil {
		return nil, fmt.Errorf("discover IGD: %w", err)
	}
	if len(clients) == 0 {
		return nil, fmt.Errorf("no UPnP IGD found on the network")
	}
	client := clients[0]

	if err := client.AddPortMapping(
		"",
		uint16(localPort),
		"UDP",
		uint16(localPort),
		"", // resolved to the caller's LAN address by the IGD
		true,
		"fftpd",
		uint32(mappingDuration.Seconds()),
	); err != nil {
		return nil, fmt.Errorf("add port mapping: %w", err)
	}

	stop := make(chan struct{})
	go renewMapping(client, localPort, stop)

	return func() {
		close(stop)
		_ = client.DeletePortMapping("", uint16(localPort), "UDP")
	}, nil
}

// renewMapping re-requests the mapping before its lease expires, since
// many consumer routers drop mappings that aren't refreshed.
func renewMapping(client *internetgateway2.WANIPConnection1, port int, stop <-chan struct{}) {
	ticker := time.NewTicker(mappingDuration / 2)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			_ = client.AddPortMapping(
				"",
				uint16(port),
				"UDP",
				uint16(port),
				"",
				true,
				"fftpd",
				uint32(mappingDuration.Seconds()),
			)
		}
	}
}
