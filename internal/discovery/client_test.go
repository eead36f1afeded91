// SPDX-License-Identifier: MIT
package discovery

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientBaseURL(t *testing.T) {
	c := New(DefaultConfig(3000))

	_, ok := c.BaseURL()
	assert.False(t, ok, "no endpoint before any resolution")

	c.offer(newEndpoint(net.ParseIP("fe80::1"), 3200))
	url, ok := c.BaseURL()
	require.True(t, ok)
	assert.Equal(t, "http://[fe80::1]:3200", url)

	// IPv4 upgrades, then loopback wins and a plain IPv4 cannot displace it.
	c.offer(newEndpoint(net.ParseIP("192.168.1.50"), 3200))
	c.offer(newEndpoint(net.ParseIP("127.0.0.1"), 3200))
	c.offer(newEndpoint(net.ParseIP("10.0.0.2"), 3200))

	url, ok = c.BaseURL()
	require.True(t, ok)
	assert.Equal(t, "http://127.0.0.1:3200", url)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig(8080)
	assert.Equal(t, "zapgate", cfg.Instance)
	assert.Equal(t, "tunercore", cfg.Companion)
	assert.Equal(t, "_http._tcp", cfg.Service)
	assert.Equal(t, "local.", cfg.Domain)
	assert.Equal(t, 8080, cfg.Port)
}
