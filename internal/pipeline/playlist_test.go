package pipeline

import (
	"strings"
	"testing"

	"github.com/clipstream/video-transcoder/internal/models"
)

func TestBandwidthFromBitrate(t *testing.T) {
	cases := []struct {
		bitrate string
		want    int
		wantErr bool
	}{
		{bitrate: "2500k", want: 2500000},
		{bitrate: "1000k", want: 1000000},
		{bitrate: "800k", want: 800000},
		{bitrate: "64", want: 64000},
		{bitrate: "abc", wantErr: true},
		{bitrate: "", wantErr: true},
	}
	for _, c := range cases {
		got, err := BandwidthFromBitrate(c.bitrate)
		if c.wantErr {
			if err == nil {
				t.Errorf("BandwidthFromBitrate(%q): expected error", c.bitrate)
			}
			continue
		}
		if err != nil {
			t.Errorf("BandwidthFromBitrate(%q): %v", c.bitrate, err)
			continue
		}
		if got != c.want {
			t.Errorf("BandwidthFromBitrate(%q) = %d, want %d", c.bitrate, got, c.want)
		}
	}
}

func TestRenderMasterPlaylistOrdering(t *testing.T) {
	// Deliberately out of order.
	renditions := []*models.Rendition{
		{Resolution: "1080p", Width: 1920, Height: 1080, Bitrate: "5000k"},
		{Resolution: "480p", Width: 854, Height: 480, Bitrate: "1000k"},
		{Resolution: "720p", Width: 1280, Height: 720, Bitrate: "2500k"},
	}
	data, err := RenderMasterPlaylist(renditions)
	if err != nil {
		t.Fatalf("RenderMasterPlaylist: %v", err)
	}
	got := string(data)

	want := "#EXTM3U\n#EXT-X-VERSION:3\n\n" +
		"#EXT-X-STREAM-INF:BANDWIDTH=1000000,RESOLUTION=854x480\n480p/playlist.m3u8\n\n" +
		"#EXT-X-STREAM-INF:BANDWIDTH=2500000,RESOLUTION=1280x720\n720p/playlist.m3u8\n\n" +
		"#EXT-X-STREAM-INF:BANDWIDTH=5000000,RESOLUTION=1920x1080\n1080p/playlist.m3u8\n\n"
	if got != want {
		t.Errorf("playlist mismatch:\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestRenderMasterPlaylistDoesNotMutateInput(t *testing.T) {
	renditions := []*models.Rendition{
		{Resolution: "1080p", Width: 1920, Height: 1080, Bitrate: "5000k"},
		{Resolution: "480p", Width: 854, Height: 480, Bitrate: "1000k"},
	}
	if _, err := RenderMasterPlaylist(renditions); err != nil {
		t.Fatalf("RenderMasterPlaylist: %v", err)
	}
	if renditions[0].Resolution != "1080p" {
		t.Errorf("input slice was reordered")
	}
}

func TestRenderMasterPlaylistBadBitrate(t *testing.T) {
	_, err := RenderMasterPlaylist([]*models.Rendition{
		{Resolution: "720p", Width: 1280, Height: 720, Bitrate: "fast"},
	})
	if err == nil || !strings.Contains(err.Error(), "fast") {
		t.Errorf("expected bitrate error, got %v", err)
	}
}
