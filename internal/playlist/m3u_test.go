// SPDX-License-Identifier: MIT
package playlist

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zapgate/zapgate/internal/channels"
	"github.com/zapgate/zapgate/internal/transcode"
)

func TestFlagPath(t *testing.T) {
	tests := []struct {
		name string
		cfg  transcode.Config
		want string
	}{
		{
			name: "defaults",
			cfg:  transcode.DefaultConfig(),
			want: "/software/h264",
		},
		{
			name: "all flags",
			cfg: transcode.Config{
				Backend:     transcode.BackendNVENC,
				Codec:       transcode.CodecHEVC,
				BitrateKbps: 2500,
				Surround51:  true,
			},
			want: "/nvenc/hevc/b2500/ac6",
		},
		{
			name: "empty config",
			cfg:  transcode.Config{},
			want: "",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, FlagPath(tc.cfg))
		})
	}
}

func TestFlagPathRoundTrip(t *testing.T) {
	// A flag path rendered here must parse back to the same config on the
	// transcode route.
	cfg := transcode.Config{
		Backend:     transcode.BackendVAAPI,
		Codec:       transcode.CodecAV1,
		BitrateKbps: 800,
		Surround51:  true,
	}
	parsed, ident := transcode.ParseTokens(transcode.SplitPath(FlagPath(cfg)), transcode.DefaultConfig())
	assert.Equal(t, cfg, parsed)
	assert.Empty(t, ident)
}

func TestWriteM3U(t *testing.T) {
	list := []channels.Channel{
		{Name: "ABCD", Number: "5.2"},
		{Name: "WXYZ-HD", Number: "7.1"},
	}

	var b strings.Builder
	require.NoError(t, WriteM3U(&b, "gateway.local:3000", "/nvenc/hevc", list))

	want := "#EXTM3U\n" +
		"#EXTINF:-1 tvg-id=\"5.2\" tvg-name=\"ABCD\",ABCD\n" +
		"http://gateway.local:3000/transcode/nvenc/hevc/5.2\n" +
		"#EXTINF:-1 tvg-id=\"7.1\" tvg-name=\"WXYZ-HD\",WXYZ-HD\n" +
		"http://gateway.local:3000/transcode/nvenc/hevc/7.1\n"
	assert.Equal(t, want, b.String())
}

func TestWriteM3UEmptyList(t *testing.T) {
	var b strings.Builder
	require.NoError(t, WriteM3U(&b, "localhost:3000", "", nil))
	assert.Equal(t, "# No channels found in channels.conf\n", b.String())
}
