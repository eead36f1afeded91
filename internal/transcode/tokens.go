// SPDX-License-Identifier: MIT
package transcode

import "strings"

// ParseTokens classifies free-form, order-independent path tokens into a
// Config plus a leftover identifier (channel number or recording id). The
// grammar is shared by the transcode, playback and playlist routes:
//
//	known backend keyword  -> Config.Backend
//	known codec keyword    -> Config.Codec
//	"ac6"                  -> 5.1 audio
//	"b<kbps>"              -> bitrate override
//	anything else          -> identifier (last unrecognised token wins)
//
// Unrecognised tokens never fail the parse; missing fields keep the defaults
// from base.
func ParseTokens(tokens []string, base Config) (Config, string) {
	cfg := base
	ident := ""

	for _, tok := range tokens {
		if tok == "" {
			continue
		}
		if b, ok := ParseBackend(tok); ok {
			cfg.Backend = b
			continue
		}
		if c, ok := ParseCodec(tok); ok {
			cfg.Codec = c
			continue
		}
		if tok == "ac6" {
			cfg.Surround51 = true
			continue
		}
		if kbps, ok := parseBitrateToken(tok); ok {
			cfg.BitrateKbps = kbps
			continue
		}
		ident = tok
	}

	return cfg, ident
}

// SplitPath splits a URL path remainder into its non-empty segments.
func SplitPath(rest string) []string {
	parts := strings.Split(rest, "/")
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parseBitrateToken recognises "b2500" style tokens (case-insensitive prefix).
func parseBitrateToken(tok string) (int, bool) {
	if len(tok) < 2 || (tok[0] != 'b' && tok[0] != 'B') {
		return 0, false
	}
	n := 0
	for _, r := range tok[1:] {
		if r < '0' || r > '9' {
			return 0, false
		}
		n = n*10 + int(r-'0')
	}
	return n, true
}
