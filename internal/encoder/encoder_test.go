package encoder

import (
	"path/filepath"
	"reflect"
	"testing"
)

func TestBuildEncodeArgsSegmented(t *testing.T) {
	spec := EncodeSpec{
		InputPath: "/tmp/work/source.mp4",
		Width:     1280,
		Height:    720,
		Bitrate:   "2500k",
		Segmented: true,
		OutputDir: "/tmp/work/hls_output/720p",
	}
	got := buildEncodeArgs(spec)
	want := []string{
		"-i", "/tmp/work/source.mp4",
		"-vf", "scale=1280:720",
		"-c:v", "libx264",
		"-b:v", "2500k",
		"-preset", "medium",
		"-g", "48",
		"-sc_threshold", "0",
		"-c:a", "aac",
		"-b:a", "128k",
		"-ar", "48000",
		"-f", "hls",
		"-hls_time", "10",
		"-hls_playlist_type", "vod",
		"-hls_segment_filename", filepath.Join("/tmp/work/hls_output/720p", "segment_%03d.ts"),
		filepath.Join("/tmp/work/hls_output/720p", "playlist.m3u8"),
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("args mismatch:\ngot:  %v\nwant: %v", got, want)
	}
}

func TestBuildEncodeArgsSingleFile(t *testing.T) {
	spec := EncodeSpec{
		InputPath:  "/tmp/work/source.mp4",
		Width:      854,
		Height:     480,
		Bitrate:    "1000k",
		OutputPath: "/tmp/work/clip_480p.mp4",
	}
	got := buildEncodeArgs(spec)
	if got[len(got)-1] != "/tmp/work/clip_480p.mp4" {
		t.Errorf("last arg = %q, want output path", got[len(got)-1])
	}
	if got[len(got)-2] != "-y" {
		t.Errorf("expected -y before output path, got %q", got[len(got)-2])
	}
	for _, arg := range got {
		if arg == "hls" {
			t.Error("single-file output must not carry hls flags")
		}
	}
}

func TestParseDimensions(t *testing.T) {
	cases := []struct {
		in      string
		width   int
		height  int
		wantErr bool
	}{
		{in: "1920,1080\n", width: 1920, height: 1080},
		{in: "1280,720,\n", width: 1280, height: 720},
		{in: "  854,480  ", width: 854, height: 480},
		{in: "garbage", wantErr: true},
		{in: "", wantErr: true},
		{in: "1920,abc", wantErr: true},
	}
	for _, c := range cases {
		w, h, err := parseDimensions(c.in)
		if c.wantErr {
			if err == nil {
				t.Errorf("parseDimensions(%q): expected error", c.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseDimensions(%q): %v", c.in, err)
			continue
		}
		if w != c.width || h != c.height {
			t.Errorf("parseDimensions(%q) = %d,%d want %d,%d", c.in, w, h, c.width, c.height)
		}
	}
}

func TestParseDuration(t *testing.T) {
	d, err := parseDuration("632.566667\n")
	if err != nil {
		t.Fatalf("parseDuration: %v", err)
	}
	if d != 632.566667 {
		t.Errorf("duration = %v", d)
	}
	if _, err = parseDuration("N/A"); err == nil {
		t.Error("expected error for non-numeric duration")
	}
}
