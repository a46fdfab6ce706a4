package audio

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"go.uber.org/zap"

	"github.com/satriahrh/swara/domain/repositories"
)

// FFmpegConverter re-encodes a voice recording by streaming it through an
// external ffmpeg process: source bytes in on stdin, converted bytes out on
// stdout. It is stateless and keeps no partial output on failure.
type FFmpegConverter struct {
	binary string
	logger *zap.Logger
}

// Ensure FFmpegConverter implements the AudioConverter interface
var _ repositories.AudioConverter = (*FFmpegConverter)(nil)

// NewFFmpegConverter creates a converter driving the ffmpeg binary on PATH
func NewFFmpegConverter(logger *zap.Logger) *FFmpegConverter {
	return &FFmpegConverter{
		binary: "ffmpeg",
		logger: logger,
	}
}

// Convert transcodes src from sourceFormat to targetFormat at the given
// audio bitrate. The output buffer is returned only after the transcoder
// exits cleanly; on any error the captured diagnostics are wrapped into a
// ConversionError and nothing is returned.
func (c *FFmpegConverter) Convert(ctx context.Context, src []byte, sourceFormat, targetFormat string, bitrateKbps int) ([]byte, error) {
	args, err := convertArgs(sourceFormat, targetFormat, bitrateKbps)
	if err != nil {
		return nil, &repositories.ConversionError{Err: err}
	}

	cmd := exec.CommandContext(ctx, c.binary, args...)
	cmd.Stdin = bytes.NewReader(src)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	c.logger.Debug("Running transcoder",
		zap.String("binary", c.binary),
		zap.Strings("args", args),
		zap.Int("inputBytes", len(src)))

	if err := cmd.Run(); err != nil {
		return nil, &repositories.ConversionError{
			Err:    err,
			Detail: strings.TrimSpace(stderr.String()),
		}
	}

	c.logger.Debug("Transcoding completed", zap.Int("outputBytes", stdout.Len()))

	return stdout.Bytes(), nil
}

// convertArgs assembles the ffmpeg invocation for a pipe-to-pipe transcode
func convertArgs(sourceFormat, targetFormat string, bitrateKbps int) ([]string, error) {
	codec, codecHasBitrate, err := codecFor(targetFormat)
	if err != nil {
		return nil, err
	}

	args := []string{
		"-hide_banner", "-loglevel", "error",
		"-f", sourceFormat,
		"-i", "pipe:0",
		"-c:a", codec,
	}

	if codecHasBitrate && bitrateKbps > 0 {
		args = append(args, "-b:a", fmt.Sprintf("%dk", bitrateKbps))
	}

	args = append(args, "-f", targetFormat, "pipe:1")
	return args, nil
}

// codecFor maps a target container to ffmpeg's encoder name and whether
// that encoder accepts a bitrate flag.
func codecFor(targetFormat string) (string, bool, error) {
	switch strings.ToLower(targetFormat) {
	case "ogg", "opus":
		return "libopus", true, nil
	case "mp3":
		return "libmp3lame", true, nil
	case "wav":
		return "pcm_s16le", false, nil
	case "flac":
		return "flac", false, nil
	default:
		return "", false, fmt.Errorf("unsupported target format: %s", targetFormat)
	}
}
