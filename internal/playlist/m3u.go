// SPDX-License-Identifier: MIT

// Package playlist renders M3U playlists for the channel list.
package playlist

import (
	"bytes"
	"fmt"
	"io"

	"github.com/zapgate/zapgate/internal/channels"
	"github.com/zapgate/zapgate/internal/transcode"
)

// ContentType is the MIME type of an M3U playlist.
const ContentType = "audio/x-mpegurl"

// FlagPath renders a transcode Config into the /transcode/... path segments
// used in generated playlist URLs. Only non-default values are emitted.
func FlagPath(cfg transcode.Config) string {
	var b bytes.Buffer
	if cfg.Backend != "" {
		fmt.Fprintf(&b, "/%s", cfg.Backend)
	}
	if cfg.Codec != "" {
		fmt.Fprintf(&b, "/%s", cfg.Codec)
	}
	if cfg.BitrateKbps > 0 {
		fmt.Fprintf(&b, "/b%d", cfg.BitrateKbps)
	}
	if cfg.Surround51 {
		b.WriteString("/ac6")
	}
	return b.String()
}

// WriteM3U writes one playlist entry per channel, pointing at the gateway's
// transcode endpoint on host. An empty channel list yields a playlist whose
// only content is a comment line, not an error.
func WriteM3U(w io.Writer, host, flagPath string, list []channels.Channel) error {
	buf := &bytes.Buffer{}
	if len(list) == 0 {
		buf.WriteString("# No channels found in channels.conf\n")
		_, err := io.Copy(w, buf)
		return err
	}

	buf.WriteString("#EXTM3U\n")
	for _, ch := range list {
		fmt.Fprintf(buf,
			"#EXTINF:-1 tvg-id=%q tvg-name=%q,%s\n", ch.Number, ch.Name, ch.Name)
		fmt.Fprintf(buf,
			"http://%s/transcode%s/%s\n", host, flagPath, ch.Number)
	}
	_, err := io.Copy(w, buf)
	return err
}
