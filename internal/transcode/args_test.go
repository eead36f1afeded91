// SPDX-License-Identifier: MIT
package transcode

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// indexOf returns the position of flag in args, or -1.
func indexOf(args []string, flag string) int {
	for i, a := range args {
		if a == flag {
			return i
		}
	}
	return -1
}

func flagValue(t *testing.T, args []string, flag string) string {
	t.Helper()
	i := indexOf(args, flag)
	require.GreaterOrEqual(t, i, 0, "flag %s missing from %v", flag, args)
	require.Less(t, i+1, len(args), "flag %s has no value", flag)
	return args[i+1]
}

func countFlag(args []string, flag string) int {
	n := 0
	for _, a := range args {
		if a == flag {
			n++
		}
	}
	return n
}

func TestBuildArgsSelectsExactlyOneVideoCodec(t *testing.T) {
	backends := []Backend{BackendSoftware, BackendNVENC, BackendQSV, BackendVAAPI}
	codecs := []Codec{CodecH264, CodecHEVC, CodecAV1}

	for _, b := range backends {
		for _, c := range codecs {
			args := BuildArgs("http://tuner/stream/5", Config{Backend: b, Codec: c})
			assert.Equal(t, 1, countFlag(args, "-c:v"), "%s/%s", b, c)
			assert.Equal(t, 1, countFlag(args, "-c:a"), "%s/%s", b, c)
			assert.Equal(t, "pipe:1", args[len(args)-1], "%s/%s", b, c)
		}
	}
}

func TestBuildArgsEncoderNames(t *testing.T) {
	tests := []struct {
		backend Backend
		codec   Codec
		want    string
	}{
		{BackendSoftware, CodecH264, "libx264"},
		{BackendSoftware, CodecHEVC, "libx265"},
		{BackendSoftware, CodecAV1, "libsvtav1"},
		{BackendNVENC, CodecH264, "h264_nvenc"},
		{BackendQSV, CodecHEVC, "hevc_qsv"},
		{BackendVAAPI, CodecAV1, "av1_vaapi"},
	}

	for _, tc := range tests {
		args := BuildArgs("input", Config{Backend: tc.backend, Codec: tc.codec})
		assert.Equal(t, tc.want, flagValue(t, args, "-c:v"), "%s/%s", tc.backend, tc.codec)
	}
}

func TestBuildArgsCopyIsPassthrough(t *testing.T) {
	args := BuildArgs("input", Config{Backend: BackendNVENC, Codec: CodecCopy})

	assert.Equal(t, "copy", flagValue(t, args, "-c:v"))
	// Copy mode must not re-encode audio or attach quality flags.
	assert.Equal(t, -1, indexOf(args, "-c:a"))
	assert.Equal(t, -1, indexOf(args, "-preset"))
	assert.Equal(t, -1, indexOf(args, "-crf"))
	assert.Equal(t, -1, indexOf(args, "-init_hw_device"))
}

func TestBuildArgsContainerByCodec(t *testing.T) {
	mp4 := BuildArgs("input", Config{Backend: BackendSoftware, Codec: CodecH264})
	assert.Equal(t, "mp4", flagValue(t, mp4, "-f"))
	assert.Equal(t, "frag_keyframe+empty_moov+default_base_moof", flagValue(t, mp4, "-movflags"))
	assert.Equal(t, "aac", flagValue(t, mp4, "-c:a"))

	webm := BuildArgs("input", Config{Backend: BackendSoftware, Codec: CodecAV1})
	assert.Equal(t, "webm", flagValue(t, webm, "-f"))
	assert.Equal(t, "libopus", flagValue(t, webm, "-c:a"))
	assert.Equal(t, -1, indexOf(webm, "-movflags"))
}

func TestBuildArgsHardwareDeviceBeforeInput(t *testing.T) {
	tests := []struct {
		backend Backend
		device  string
	}{
		{BackendVAAPI, "vaapi=gpu:/dev/dri/renderD128"},
		{BackendQSV, "qsv=hw"},
	}

	for _, tc := range tests {
		args := BuildArgs("input", Config{Backend: tc.backend, Codec: CodecH264})
		init := indexOf(args, "-init_hw_device")
		require.GreaterOrEqual(t, init, 0, "%s", tc.backend)
		assert.Equal(t, tc.device, args[init+1])
		assert.Less(t, init, indexOf(args, "-i"), "device init must precede input")
	}

	soft := BuildArgs("input", Config{Backend: BackendSoftware, Codec: CodecH264})
	assert.Equal(t, -1, indexOf(soft, "-init_hw_device"))
}

func TestBuildArgsAudioLayout(t *testing.T) {
	stereo := BuildArgs("input", Config{Backend: BackendSoftware, Codec: CodecH264})
	assert.Equal(t, "2", flagValue(t, stereo, "-ac"))
	assert.Equal(t, "128k", flagValue(t, stereo, "-b:a"))

	surround := BuildArgs("input", Config{Backend: BackendSoftware, Codec: CodecH264, Surround51: true})
	assert.Equal(t, "channelmap=channel_layout=5.1", flagValue(t, surround, "-af"))
	assert.Equal(t, "384k", flagValue(t, surround, "-b:a"))
	assert.Equal(t, -1, indexOf(surround, "-ac"))

	opus51 := BuildArgs("input", Config{Backend: BackendSoftware, Codec: CodecAV1, Surround51: true})
	assert.Equal(t, "1", flagValue(t, opus51, "-mapping_family"))
}

func TestBuildArgsBitrateOverride(t *testing.T) {
	args := BuildArgs("input", Config{Backend: BackendSoftware, Codec: CodecH264, BitrateKbps: 2500})
	assert.Equal(t, "2500k", flagValue(t, args, "-maxrate"))
	assert.Equal(t, "5000k", flagValue(t, args, "-bufsize"))

	noRate := BuildArgs("input", Config{Backend: BackendSoftware, Codec: CodecH264})
	assert.Equal(t, -1, indexOf(noRate, "-maxrate"))
}

func TestBuildCaptureArgs(t *testing.T) {
	args := BuildCaptureArgs("http://127.0.0.1:3000/stream/12", "/rec/show-1.mp4")

	joined := strings.Join(args, " ")
	assert.Equal(t, "-i http://127.0.0.1:3000/stream/12 -c copy -bsf:a aac_adtstoasc -movflags faststart -y /rec/show-1.mp4", joined)
}
