package encoder

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// MediaInfo is the probed source metadata. Probing is advisory: the
// pipeline proceeds with zero values when it fails.
type MediaInfo struct {
	Width    int
	Height   int
	Duration float64
	FileSize int64
}

type Prober interface {
	Probe(ctx context.Context, inputPath string) (*MediaInfo, error)
}

type ffProber struct {
	binary string
}

func NewFFProber() Prober {
	return &ffProber{binary: "ffprobe"}
}

func (p *ffProber) Probe(ctx context.Context, inputPath string) (*MediaInfo, error) {
	cmd := exec.CommandContext(ctx, p.binary, "-v", "error", "-select_streams", "v:0",
		"-show_entries", "stream=width,height", "-of", "csv=p=0", inputPath)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("ffprobe error: %v output: %v", err, string(output))
	}

	width, height, err := parseDimensions(string(output))
	if err != nil {
		return nil, err
	}

	cmd = exec.CommandContext(ctx, p.binary, "-v", "error", "-show_entries",
		"format=duration", "-of", "csv=p=0", inputPath)
	durationOutput, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("ffprobe duration error: %v", err)
	}

	duration, err := parseDuration(string(durationOutput))
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(inputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat input: %w", err)
	}

	return &MediaInfo{
		Width:    width,
		Height:   height,
		Duration: duration,
		FileSize: info.Size(),
	}, nil
}

func parseDimensions(out string) (int, int, error) {
	trimmed := strings.TrimSpace(out)
	trimmed = strings.TrimRight(trimmed, ",")
	parts := strings.Split(trimmed, ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("unexpected ffprobe output: %s", trimmed)
	}
	width, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid width: %v", err)
	}
	height, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid height: %v", err)
	}
	return width, height, nil
}

func parseDuration(out string) (float64, error) {
	duration, err := strconv.ParseFloat(strings.TrimSpace(out), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid duration: %v", err)
	}
	return duration, nil
}
