package worker

import (
	"testing"

	"github.com/clipstream/video-transcoder/internal/config"
)

func TestCatalogFromConfigDefaults(t *testing.T) {
	catalog := catalogFromConfig(&config.Config{})
	if len(catalog) != 3 {
		t.Fatalf("default catalog has %d presets, want 3", len(catalog))
	}
	if catalog[1].Resolution != "720p" || catalog[1].Bitrate != "2500k" {
		t.Errorf("unexpected default preset: %+v", catalog[1])
	}
}

func TestCatalogFromConfigOverride(t *testing.T) {
	cfg := &config.Config{
		Presets: []config.PresetConfig{
			{Resolution: "360p", Width: 640, Height: 360, Bitrate: "600k"},
		},
	}
	catalog := catalogFromConfig(cfg)
	if len(catalog) != 1 {
		t.Fatalf("catalog has %d presets, want 1", len(catalog))
	}
	if catalog[0].Resolution != "360p" || catalog[0].Width != 640 {
		t.Errorf("unexpected preset: %+v", catalog[0])
	}
}
