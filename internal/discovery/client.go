// SPDX-License-Identifier: MIT

// Package discovery advertises the gateway over mDNS/DNS-SD and resolves the
// companion tuner service's address, exposing it as a single atomically
// replaceable endpoint.
package discovery

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/grandcat/zeroconf"
	"github.com/rs/zerolog"

	"github.com/zapgate/zapgate/internal/log"
	"github.com/zapgate/zapgate/internal/metrics"
)

// Config describes the advertised service and the companion to look for.
type Config struct {
	Instance  string // advertised instance name
	Companion string // companion instance name to resolve
	Service   string // DNS-SD service type, usually "_http._tcp"
	Domain    string // usually "local."
	Port      int    // port the gateway listens on
}

// DefaultConfig returns the gateway's fixed service identity.
func DefaultConfig(port int) Config {
	return Config{
		Instance:  "zapgate",
		Companion: "tunercore",
		Service:   "_http._tcp",
		Domain:    "local.",
		Port:      port,
	}
}

// Client runs the advertise/browse/resolve loop. The resolved endpoint is
// written only by the browse goroutine and read by any number of connection
// workers.
type Client struct {
	cfg     Config
	current atomic.Pointer[Endpoint]
	logger  zerolog.Logger

	mu         sync.Mutex
	advertised *zeroconf.Server
}

// New creates a discovery client. Start must be called to begin browsing.
func New(cfg Config) *Client {
	return &Client{
		cfg:    cfg,
		logger: log.WithComponent("discovery"),
	}
}

// Start publishes the gateway's advertisement and begins browsing for the
// companion. It returns an error if the mDNS subsystem is unreachable; the
// caller logs it and the endpoint simply stays absent.
func (c *Client) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.advertised == nil {
		server, err := zeroconf.Register(
			c.cfg.Instance, c.cfg.Service, c.cfg.Domain,
			c.cfg.Port, []string{"path=/"}, nil)
		if err != nil {
			c.mu.Unlock()
			return fmt.Errorf("mdns register: %w", err)
		}
		c.advertised = server
		c.logger.Info().
			Str("instance", c.cfg.Instance).
			Str("service", c.cfg.Service).
			Int("port", c.cfg.Port).
			Msg("service advertised")
	}
	c.mu.Unlock()

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return fmt.Errorf("mdns resolver: %w", err)
	}

	entries := make(chan *zeroconf.ServiceEntry, 8)
	go c.consume(entries)

	if err := resolver.Browse(ctx, c.cfg.Service, c.cfg.Domain, entries); err != nil {
		return fmt.Errorf("mdns browse: %w", err)
	}

	return nil
}

// consume filters browse results for the companion instance and feeds every
// resolved address through the priority policy.
func (c *Client) consume(entries <-chan *zeroconf.ServiceEntry) {
	for entry := range entries {
		if entry.Instance != c.cfg.Companion {
			continue
		}
		c.logger.Debug().
			Str("instance", entry.Instance).
			Str("host", entry.HostName).
			Int("port", entry.Port).
			Msg("companion resolved")

		for _, ip := range entry.AddrIPv4 {
			c.offer(newEndpoint(ip, entry.Port))
		}
		for _, ip := range entry.AddrIPv6 {
			c.offer(newEndpoint(ip, entry.Port))
		}
	}
}

func (c *Client) offer(candidate Endpoint) {
	current := c.current.Load()
	if !takeCandidate(current, candidate) {
		metrics.DiscoveryUpdatesTotal.WithLabelValues("rejected").Inc()
		c.logger.Debug().
			Str("candidate", candidate.URL).
			Str("current", current.URL).
			Msg("keeping current endpoint")
		return
	}
	metrics.DiscoveryUpdatesTotal.WithLabelValues("accepted").Inc()
	c.current.Store(&candidate)
	c.logger.Info().Str("endpoint", candidate.URL).Msg("companion endpoint updated")
}

// BaseURL returns the companion's base URL, or false while no endpoint has
// been resolved yet.
func (c *Client) BaseURL() (string, bool) {
	ep := c.current.Load()
	if ep == nil {
		return "", false
	}
	return ep.URL, true
}

// Shutdown withdraws the advertisement.
func (c *Client) Shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.advertised != nil {
		c.advertised.Shutdown()
		c.advertised = nil
	}
}
