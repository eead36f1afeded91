// SPDX-License-Identifier: MIT
package discovery

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewEndpoint(t *testing.T) {
	v4 := newEndpoint(net.ParseIP("192.168.1.50"), 3200)
	assert.Equal(t, "http://192.168.1.50:3200", v4.URL)
	assert.False(t, v4.IPv6)
	assert.False(t, v4.Loopback)

	lo := newEndpoint(net.ParseIP("127.0.0.1"), 3200)
	assert.Equal(t, "http://127.0.0.1:3200", lo.URL)
	assert.True(t, lo.Loopback)

	v6 := newEndpoint(net.ParseIP("fe80::1"), 3200)
	assert.Equal(t, "http://[fe80::1]:3200", v6.URL)
	assert.True(t, v6.IPv6)
}

func TestTakeCandidate(t *testing.T) {
	v4 := Endpoint{URL: "http://192.168.1.50:3200"}
	v4other := Endpoint{URL: "http://10.0.0.2:3200"}
	v4lo := Endpoint{URL: "http://127.0.0.1:3200", Loopback: true}
	v6 := Endpoint{URL: "http://[fe80::1]:3200", IPv6: true}

	tests := []struct {
		name      string
		current   *Endpoint
		candidate Endpoint
		want      bool
	}{
		{"first candidate always accepted", nil, v6, true},
		{"ipv4 replaces ipv6", &v6, v4, true},
		{"ipv6 never replaces ipv4", &v4, v6, false},
		{"loopback replaces other ipv4", &v4, v4lo, true},
		{"plain ipv4 keeps current ipv4", &v4, v4other, false},
		{"ipv6 keeps current ipv6", &v6, v6, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, takeCandidate(tc.current, tc.candidate))
		})
	}
}

func TestTakeCandidateOrderIndependent(t *testing.T) {
	// Any arrival order of the same candidate set must converge on the
	// IPv4 loopback.
	candidates := []Endpoint{
		{URL: "http://[fe80::1]:3200", IPv6: true},
		{URL: "http://192.168.1.50:3200"},
		{URL: "http://127.0.0.1:3200", Loopback: true},
	}

	orders := [][]int{{0, 1, 2}, {2, 1, 0}, {1, 2, 0}, {2, 0, 1}}
	for _, order := range orders {
		var current *Endpoint
		for _, i := range order {
			c := candidates[i]
			if takeCandidate(current, c) {
				current = &c
			}
		}
		if assert.NotNil(t, current) {
			assert.Equal(t, "http://127.0.0.1:3200", current.URL)
		}
	}
}
