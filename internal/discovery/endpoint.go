// SPDX-License-Identifier: MIT
package discovery

import (
	"fmt"
	"net"
)

// Endpoint is the resolved base address of the companion tuner service.
// Values are immutable once published; the client replaces the whole value
// on every accepted candidate.
type Endpoint struct {
	URL      string // complete base URL, e.g. "http://127.0.0.1:3200"
	IPv6     bool
	Loopback bool
}

// newEndpoint formats a candidate address into an Endpoint. IPv6 addresses
// are bracketed in the URL.
func newEndpoint(ip net.IP, port int) Endpoint {
	ipv6 := ip.To4() == nil
	var url string
	if ipv6 {
		url = fmt.Sprintf("http://[%s]:%d", ip.String(), port)
	} else {
		url = fmt.Sprintf("http://%s:%d", ip.String(), port)
	}
	return Endpoint{
		URL:      url,
		IPv6:     ipv6,
		Loopback: ip.IsLoopback(),
	}
}

// takeCandidate decides whether a newly resolved candidate replaces the
// current endpoint. Priority, highest first: IPv4 loopback, other IPv4,
// IPv6. The decision depends only on the two values, so any arrival order
// converges to the same endpoint.
func takeCandidate(current *Endpoint, candidate Endpoint) bool {
	if current == nil {
		return true
	}
	if current.IPv6 && !candidate.IPv6 {
		return true // upgrade IPv6 -> IPv4
	}
	if !current.IPv6 && !candidate.IPv6 && candidate.Loopback {
		return true // prefer the IPv4 loopback over any other IPv4
	}
	return false
}
