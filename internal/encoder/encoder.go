package encoder

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
)

const (
	// DefaultTimeout bounds a single encoder invocation; the process is
	// killed once it elapses.
	DefaultTimeout = 3600 * time.Second

	segmentDuration = "10"
	gopSize         = "48"
	audioBitrate    = "128k"
	audioSampleRate = "48000"

	PlaylistName   = "playlist.m3u8"
	SegmentPattern = "segment_%03d.ts"
)

// EncodeSpec describes one source-to-rendition invocation. Segmented
// output writes PlaylistName plus numbered segments into OutputDir;
// otherwise a single file is written to OutputPath.
type EncodeSpec struct {
	InputPath  string
	Width      int
	Height     int
	Bitrate    string
	Segmented  bool
	OutputDir  string
	OutputPath string
}

// EncodeError reports a non-zero encoder exit with its diagnostics.
type EncodeError struct {
	ExitCode int
	Stderr   string
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("encoder exited with code %d: %s", e.ExitCode, e.Stderr)
}

// ErrTimeout reports an invocation that exceeded the time ceiling.
var ErrTimeout = errors.New("encoding timed out")

type Encoder interface {
	Encode(ctx context.Context, spec EncodeSpec) error
}

type ffmpegEncoder struct {
	binary  string
	timeout time.Duration
}

func NewFFmpegEncoder(timeout time.Duration) Encoder {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &ffmpegEncoder{
		binary:  "ffmpeg",
		timeout: timeout,
	}
}

func (e *ffmpegEncoder) Encode(ctx context.Context, spec EncodeSpec) error {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, e.binary, buildEncodeArgs(spec)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err == nil {
		return nil
	}
	if ctx.Err() == context.DeadlineExceeded {
		return ErrTimeout
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &EncodeError{ExitCode: exitErr.ExitCode(), Stderr: stderr.String()}
	}
	return &EncodeError{ExitCode: -1, Stderr: err.Error()}
}

func buildEncodeArgs(spec EncodeSpec) []string {
	args := []string{
		"-i", spec.InputPath,
		"-vf", fmt.Sprintf("scale=%d:%d", spec.Width, spec.Height),
		"-c:v", "libx264",
		"-b:v", spec.Bitrate,
		"-preset", "medium",
		"-g", gopSize,
		"-sc_threshold", "0",
		"-c:a", "aac",
		"-b:a", audioBitrate,
		"-ar", audioSampleRate,
	}
	if spec.Segmented {
		args = append(args,
			"-f", "hls",
			"-hls_time", segmentDuration,
			"-hls_playlist_type", "vod",
			"-hls_segment_filename", filepath.Join(spec.OutputDir, SegmentPattern),
			filepath.Join(spec.OutputDir, PlaylistName),
		)
	} else {
		args = append(args, "-y", spec.OutputPath)
	}
	return args
}
