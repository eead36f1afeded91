// SPDX-License-Identifier: MIT
package transcode

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os/exec"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/zapgate/zapgate/internal/log"
	"github.com/zapgate/zapgate/internal/metrics"
	"github.com/zapgate/zapgate/internal/procgroup"
)

// relayBufSize matches the chunk size the relay loop reads from the encoder
// pipe before forwarding to the client.
const relayBufSize = 8 * 1024

// defaultStopGrace is how long Shutdown waits after SIGTERM before escalating
// to SIGKILL.
const defaultStopGrace = 5 * time.Second

// Job is one running encoder subprocess whose stdout is relayed to a client.
type Job struct {
	ID     string
	cfg    Config
	cmd    *exec.Cmd
	stdout io.ReadCloser
	grace  time.Duration
	logger zerolog.Logger
}

// Start spawns the encoder for the given input source. It returns before any
// output is produced; a spawn failure is reported here so the caller can
// still send an error response. Standard error is discarded.
func Start(ctx context.Context, ffmpegPath, input string, cfg Config) (*Job, error) {
	id := uuid.NewString()
	logger := log.Derive(func(c *zerolog.Context) {
		*c = c.Str("component", "transcode").Str("job_id", id)
	})

	args := BuildArgs(input, cfg)
	cmd := exec.CommandContext(ctx, ffmpegPath, args...) // #nosec G204 -- args built from a fixed grammar
	procgroup.Set(cmd)
	cmd.Stderr = nil

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("encoder stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		metrics.EncoderStartTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("encoder start: %w", err)
	}
	metrics.EncoderStartTotal.WithLabelValues("ok").Inc()

	logger.Info().
		Str("input", input).
		Str("backend", string(cfg.Backend)).
		Str("codec", string(cfg.Codec)).
		Int("pid", cmd.Process.Pid).
		Msg("encoder started")

	return &Job{
		ID:     id,
		cfg:    cfg,
		cmd:    cmd,
		stdout: stdout,
		grace:  defaultStopGrace,
		logger: logger,
	}, nil
}

// Relay copies encoder output to dst until the pipe drains or a write fails.
// A write failure means the client went away and is not reported as an error.
// If dst implements http.Flusher each chunk is flushed immediately so
// browsers can begin playback without buffering.
func (j *Job) Relay(dst io.Writer) error {
	metrics.ActiveStreams.Inc()
	defer metrics.ActiveStreams.Dec()

	flusher, _ := dst.(http.Flusher)
	buf := make([]byte, relayBufSize)

	for {
		n, readErr := j.stdout.Read(buf)
		if n > 0 {
			if _, writeErr := dst.Write(buf[:n]); writeErr != nil {
				j.logger.Debug().Msg("client disconnected, ending relay")
				return nil
			}
			if flusher != nil {
				flusher.Flush()
			}
		}
		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				j.logger.Debug().Msg("encoder output drained")
				return nil
			}
			return fmt.Errorf("encoder read: %w", readErr)
		}
	}
}

// Shutdown terminates the encoder: SIGTERM to the process group, a bounded
// wait, then SIGKILL. It always reaps the child so no zombie is left behind.
func (j *Job) Shutdown() {
	_ = procgroup.Kill(j.cmd, syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		_ = j.cmd.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(j.grace):
		j.logger.Warn().Int("pid", j.cmd.Process.Pid).Msg("encoder ignored SIGTERM, killing")
		_ = procgroup.Kill(j.cmd, syscall.SIGKILL)
		<-done
	}
}
