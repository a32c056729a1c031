package pipeline

import (
	"context"

	"github.com/pkg/errors"

	"github.com/clipstream/video-transcoder/internal/models"
	"github.com/clipstream/video-transcoder/pkg/utils"
)

// defaultSegmentSeconds matches the encoder's hls_time setting.
const defaultSegmentSeconds = 10

// planRenditions materializes one rendition row per catalog preset.
// Re-running the plan for the same job yields the same set: existing
// rows are reused with their outcome fields cleared for the new run.
func (p *Pipeline) planRenditions(ctx context.Context, jobID int64, catalog models.PresetCatalog) (map[string]*models.Rendition, error) {
	if len(catalog) == 0 {
		return nil, errors.New("preset catalog is empty")
	}

	planned := make(map[string]*models.Rendition, len(catalog))
	for _, preset := range catalog {
		if err := utils.ValidateStruct(ctx, preset); err != nil {
			return nil, errors.Wrapf(err, "invalid preset %q", preset.Resolution)
		}
		if _, dup := planned[preset.Resolution]; dup {
			return nil, errors.Errorf("duplicate preset %q in catalog", preset.Resolution)
		}

		rendition, created, err := p.repo.GetOrCreateRendition(ctx, &models.Rendition{
			JobID:           jobID,
			Resolution:      preset.Resolution,
			Width:           preset.Width,
			Height:          preset.Height,
			Bitrate:         preset.Bitrate,
			SegmentDuration: defaultSegmentSeconds,
		})
		if err != nil {
			return nil, errors.Wrapf(err, "failed to plan rendition %q", preset.Resolution)
		}
		if !created {
			if err := p.repo.ResetRendition(ctx, rendition.RenditionID); err != nil {
				return nil, errors.Wrapf(err, "failed to reset rendition %q", preset.Resolution)
			}
			rendition.StartedAt = nil
			rendition.CompletedAt = nil
			rendition.FailedAt = nil
			rendition.ErrorMessage = ""
			rendition.SegmentCount = 0
		}
		planned[preset.Resolution] = rendition
	}
	return planned, nil
}
