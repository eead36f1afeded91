// SPDX-License-Identifier: MIT

// Package metrics holds the gateway's prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ActiveStreams counts currently relaying live/transcode clients.
	ActiveStreams = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "zapgate_active_streams",
		Help: "Number of clients currently being relayed a transcoded stream",
	})

	// EncoderStartTotal tracks encoder subprocess spawn attempts.
	EncoderStartTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "zapgate_encoder_start_total",
		Help: "Total encoder process starts by result",
	}, []string{"result"})

	// RecordingsActive counts occupied DVR registry slots.
	RecordingsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "zapgate_recordings_active",
		Help: "Number of capture subprocesses currently running",
	})

	// RecordingsFinishedTotal tracks completed captures by outcome.
	RecordingsFinishedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "zapgate_recordings_finished_total",
		Help: "Total finished recordings by outcome",
	}, []string{"outcome"})

	// DiscoveryUpdatesTotal tracks endpoint replacements by decision.
	DiscoveryUpdatesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "zapgate_discovery_updates_total",
		Help: "Total discovery resolution events by accept/reject decision",
	}, []string{"decision"})
)
