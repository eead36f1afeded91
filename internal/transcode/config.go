// SPDX-License-Identifier: MIT

// Package transcode maps declarative encode configurations onto ffmpeg
// invocations and supervises the resulting subprocesses.
package transcode

// Backend selects the encoder execution path.
type Backend string

const (
	BackendSoftware Backend = "software"
	BackendQSV      Backend = "qsv"
	BackendNVENC    Backend = "nvenc"
	BackendVAAPI    Backend = "vaapi"
)

// Codec selects the target video codec.
type Codec string

const (
	CodecH264 Codec = "h264"
	CodecHEVC Codec = "hevc"
	CodecAV1  Codec = "av1"
	CodecCopy Codec = "copy"
)

// Config describes one encode job. It is constructed per request and never
// mutated afterwards.
type Config struct {
	Backend     Backend
	Codec       Codec
	BitrateKbps int  // optional video bitrate cap, 0 = encoder default
	Surround51  bool // remap to 5.1 instead of downmixing to stereo
}

// DefaultConfig returns the software/h264 baseline used when nothing else is
// specified.
func DefaultConfig() Config {
	return Config{Backend: BackendSoftware, Codec: CodecH264}
}

// ParseBackend maps a backend keyword to its Backend value.
func ParseBackend(s string) (Backend, bool) {
	switch Backend(s) {
	case BackendSoftware, BackendQSV, BackendNVENC, BackendVAAPI:
		return Backend(s), true
	}
	return "", false
}

// ParseCodec maps a codec keyword to its Codec value.
func ParseCodec(s string) (Codec, bool) {
	switch Codec(s) {
	case CodecH264, CodecHEVC, CodecAV1, CodecCopy:
		return Codec(s), true
	}
	return "", false
}

// ContentType returns the MIME type of the produced container. AV1 is muxed
// into WebM, everything else into fragmented MP4.
func (c Config) ContentType() string {
	if c.Codec == CodecAV1 {
		return "video/webm"
	}
	return "video/mp4"
}
