// SPDX-License-Identifier: MIT
package transcode

import (
	"context"
	"fmt"
	"os/exec"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/zapgate/zapgate/internal/log"
	"github.com/zapgate/zapgate/internal/metrics"
	"github.com/zapgate/zapgate/internal/procgroup"
)

// Capture is a passthrough recording subprocess writing a stream to a file.
// Unlike a streaming Job there is no relay loop; ffmpeg owns the output file
// and the parent only supervises the process.
type Capture struct {
	cmd   *exec.Cmd
	done  chan struct{}
	grace time.Duration
	log   zerolog.Logger
}

// StartCapture spawns ffmpeg copying streamURL into outPath. Stdout and
// stderr are discarded. The returned Capture reports process exit via
// Exited without blocking.
func StartCapture(ctx context.Context, ffmpegPath, streamURL, outPath string) (*Capture, error) {
	logger := log.Derive(func(c *zerolog.Context) {
		*c = c.Str("component", "capture").Str("path", outPath)
	})

	cmd := exec.CommandContext(ctx, ffmpegPath, BuildCaptureArgs(streamURL, outPath)...) // #nosec G204
	procgroup.Set(cmd)
	cmd.Stdout = nil
	cmd.Stderr = nil

	if err := cmd.Start(); err != nil {
		metrics.EncoderStartTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("capture start: %w", err)
	}
	metrics.EncoderStartTotal.WithLabelValues("ok").Inc()

	c := &Capture{
		cmd:   cmd,
		done:  make(chan struct{}),
		grace: defaultStopGrace,
		log:   logger,
	}

	go func() {
		_ = cmd.Wait()
		close(c.done)
	}()

	logger.Info().Str("input", streamURL).Int("pid", cmd.Process.Pid).Msg("capture started")
	return c, nil
}

// Exited reports, without blocking, whether the subprocess has terminated.
func (c *Capture) Exited() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// Stop signals the capture to finish and waits for it, escalating to SIGKILL
// after the grace period so a wedged encoder cannot block the scheduler
// forever.
func (c *Capture) Stop() {
	_ = procgroup.Kill(c.cmd, syscall.SIGTERM)

	select {
	case <-c.done:
	case <-time.After(c.grace):
		c.log.Warn().Msg("capture ignored SIGTERM, killing")
		_ = procgroup.Kill(c.cmd, syscall.SIGKILL)
		<-c.done
	}
}
