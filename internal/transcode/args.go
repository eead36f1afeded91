// SPDX-License-Identifier: MIT
package transcode

import (
	"fmt"
	"strconv"
)

// Audio bitrates, fixed per channel layout.
const (
	stereoBitrate   = "128k"
	surroundBitrate = "384k"
)

// encoderNames maps (backend, codec) onto the ffmpeg encoder.
var encoderNames = map[Backend]map[Codec]string{
	BackendSoftware: {
		CodecH264: "libx264",
		CodecHEVC: "libx265",
		CodecAV1:  "libsvtav1",
	},
	BackendNVENC: {
		CodecH264: "h264_nvenc",
		CodecHEVC: "hevc_nvenc",
		CodecAV1:  "av1_nvenc",
	},
	BackendQSV: {
		CodecH264: "h264_qsv",
		CodecHEVC: "hevc_qsv",
		CodecAV1:  "av1_qsv",
	},
	BackendVAAPI: {
		CodecH264: "h264_vaapi",
		CodecHEVC: "hevc_vaapi",
		CodecAV1:  "av1_vaapi",
	},
}

// BuildArgs translates a Config and input source into the ffmpeg argument
// list for live/browser streaming. Output is always written to stdout.
func BuildArgs(input string, cfg Config) []string {
	args := make([]string, 0, 40)

	// Hardware device initialisation must precede the input flag.
	switch cfg.Backend {
	case BackendVAAPI:
		args = append(args,
			"-init_hw_device", "vaapi=gpu:/dev/dri/renderD128",
			"-filter_hw_device", "gpu")
	case BackendQSV:
		args = append(args,
			"-init_hw_device", "qsv=hw",
			"-filter_hw_device", "hw")
	}

	args = append(args, "-re", "-i", input)

	if cfg.Codec == CodecCopy {
		args = append(args, "-c:v", "copy")
	} else {
		switch cfg.Backend {
		case BackendSoftware:
			args = append(args,
				"-c:v", encoderNames[BackendSoftware][cfg.Codec],
				"-preset", "fast",
				"-crf", "23")
		case BackendNVENC:
			args = append(args,
				"-c:v", encoderNames[BackendNVENC][cfg.Codec],
				"-preset", "p4",
				"-rc", "constqp",
				"-qp", "23")
		case BackendQSV:
			args = append(args,
				"-vf", "yadif=0:-1:0,format=nv12,hwupload=extra_hw_frames=64,format=qsv",
				"-c:v", encoderNames[BackendQSV][cfg.Codec],
				"-global_quality", "23")
		case BackendVAAPI:
			args = append(args,
				"-vf", "format=nv12,hwupload",
				"-c:v", encoderNames[BackendVAAPI][cfg.Codec],
				"-qp", "23")
		}

		if cfg.BitrateKbps > 0 {
			kbps := strconv.Itoa(cfg.BitrateKbps)
			args = append(args,
				"-maxrate", kbps+"k",
				"-bufsize", fmt.Sprintf("%dk", cfg.BitrateKbps*2))
		}

		args = append(args, audioArgs(cfg)...)
	}

	// AV1 goes into WebM; H.264/HEVC into fragmented MP4 so browsers can
	// play the stream progressively without a seekable file.
	if cfg.Codec == CodecAV1 {
		args = append(args, "-f", "webm")
	} else {
		args = append(args,
			"-f", "mp4",
			"-movflags", "frag_keyframe+empty_moov+default_base_moof")
	}

	return append(args, "pipe:1")
}

// audioArgs selects the audio codec family by container (Opus for WebM, AAC
// for MP4) and the channel layout by the 5.1 flag.
func audioArgs(cfg Config) []string {
	if cfg.Codec == CodecAV1 {
		if cfg.Surround51 {
			return []string{
				"-af", "channelmap=channel_layout=5.1",
				"-c:a", "libopus",
				"-mapping_family", "1",
				"-b:a", surroundBitrate,
			}
		}
		return []string{
			"-ac", "2",
			"-c:a", "libopus",
			"-b:a", stereoBitrate,
		}
	}

	if cfg.Surround51 {
		return []string{
			"-af", "channelmap=channel_layout=5.1",
			"-c:a", "aac",
			"-b:a", surroundBitrate,
		}
	}
	return []string{
		"-ac", "2",
		"-c:a", "aac",
		"-b:a", stereoBitrate,
	}
}

// BuildCaptureArgs builds the argument list for a DVR capture: passthrough
// copy of the gateway's own stream endpoint into an MP4 file.
func BuildCaptureArgs(streamURL, outPath string) []string {
	return []string{
		"-i", streamURL,
		"-c", "copy",
		"-bsf:a", "aac_adtstoasc",
		"-movflags", "faststart",
		"-y",
		outPath,
	}
}
