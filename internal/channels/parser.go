// SPDX-License-Identifier: MIT

// Package channels parses the dvbv5-style channels.conf file and caches the
// result for the playlist and channel API.
package channels

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strings"
)

// Channel is the parsed identity of one tuner channel. Read-only after load.
type Channel struct {
	Name      string `json:"name"`
	Number    string `json:"number"` // virtual channel number, "major.minor"
	ServiceID string `json:"service_id"`
	Frequency string `json:"frequency"`
}

// Parse reads the channels.conf block format: a `[Name]` header followed by
// KEY=VALUE lines. Channels without a VCHANNEL entry are dropped. The result
// is sorted by numeric major.minor channel number.
func Parse(path string) ([]Channel, error) {
	f, err := os.Open(path) // #nosec G304 -- operator-supplied channel list
	if err != nil {
		return nil, fmt.Errorf("open channel list: %w", err)
	}
	defer func() { _ = f.Close() }()

	var (
		out     []Channel
		current Channel
		inBlock bool
	)

	flush := func() {
		if inBlock && current.Number != "" {
			out = append(out, current)
		}
	}

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "[") {
			flush()
			current = Channel{}
			inBlock = true
			if end := strings.Index(line, "]"); end > 1 {
				current.Name = line[1:end]
			}
			continue
		}

		if !inBlock {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		switch key {
		case "VCHANNEL":
			current.Number = value
		case "SERVICE_ID":
			current.ServiceID = value
		case "FREQUENCY":
			current.Frequency = value
		}
	}
	flush()

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read channel list: %w", err)
	}

	sort.SliceStable(out, func(i, j int) bool {
		iMaj, iMin := splitNumber(out[i].Number)
		jMaj, jMin := splitNumber(out[j].Number)
		if iMaj != jMaj {
			return iMaj < jMaj
		}
		return iMin < jMin
	})

	return out, nil
}

func splitNumber(num string) (int, int) {
	var major, minor int
	_, _ = fmt.Sscanf(num, "%d.%d", &major, &minor)
	return major, minor
}
