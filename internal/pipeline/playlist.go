package pipeline

import (
	"bytes"
	"fmt"
	"os"
	"sort"

	"github.com/pkg/errors"

	"github.com/clipstream/video-transcoder/internal/models"
)

// BandwidthFromBitrate converts a preset bitrate such as "2500k" into
// the playlist BANDWIDTH attribute: the leading digit run interpreted
// as kilobits/second.
func BandwidthFromBitrate(bitrate string) (int, error) {
	i := 0
	for i < len(bitrate) && bitrate[i] >= '0' && bitrate[i] <= '9' {
		i++
	}
	if i == 0 {
		return 0, errors.Errorf("bitrate %q has no numeric prefix", bitrate)
	}
	var kbps int
	if _, err := fmt.Sscanf(bitrate[:i], "%d", &kbps); err != nil {
		return 0, errors.Wrapf(err, "bitrate %q", bitrate)
	}
	return kbps * 1000, nil
}

// RenderMasterPlaylist emits the master playlist listing every
// rendition, ascending by width regardless of input order.
func RenderMasterPlaylist(renditions []*models.Rendition) ([]byte, error) {
	sorted := make([]*models.Rendition, len(renditions))
	copy(sorted, renditions)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Width < sorted[j].Width
	})

	var buf bytes.Buffer
	buf.WriteString("#EXTM3U\n")
	buf.WriteString("#EXT-X-VERSION:3\n\n")
	for _, r := range sorted {
		bandwidth, err := BandwidthFromBitrate(r.Bitrate)
		if err != nil {
			return nil, err
		}
		fmt.Fprintf(&buf, "#EXT-X-STREAM-INF:BANDWIDTH=%d,RESOLUTION=%dx%d\n", bandwidth, r.Width, r.Height)
		fmt.Fprintf(&buf, "%s/playlist.m3u8\n\n", r.Resolution)
	}
	return buf.Bytes(), nil
}

func WriteMasterPlaylist(path string, renditions []*models.Rendition) error {
	data, err := RenderMasterPlaylist(renditions)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
