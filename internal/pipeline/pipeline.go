package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/clipstream/video-transcoder/internal/encoder"
	"github.com/clipstream/video-transcoder/internal/models"
	"github.com/clipstream/video-transcoder/internal/transcode"
	"github.com/clipstream/video-transcoder/pkg/logger"
)

// Pipeline runs one transcode job end to end: stage the source in,
// encode every planned rendition, stage the outputs out, and record
// the terminal job state.
type Pipeline struct {
	repo    transcode.Repository
	storage transcode.Storage
	encoder encoder.Encoder
	prober  encoder.Prober
	logger  logger.Logger
}

func New(repo transcode.Repository, storage transcode.Storage, enc encoder.Encoder, prober encoder.Prober, log logger.Logger) *Pipeline {
	return &Pipeline{
		repo:    repo,
		storage: storage,
		encoder: enc,
		prober:  prober,
		logger:  log,
	}
}

// Run processes the job identified by jobID against the given preset
// catalog. The returned error is also persisted as the job's failure
// message, so callers only need it for logging.
func (p *Pipeline) Run(ctx context.Context, jobID int64, catalog models.PresetCatalog) error {
	job, err := p.repo.GetJobByID(ctx, jobID)
	if err != nil {
		return errors.Wrapf(err, "pipeline.Run: load job %d", jobID)
	}

	if err := p.repo.MarkJobProcessing(ctx, jobID, time.Now()); err != nil {
		return errors.Wrapf(err, "pipeline.Run: mark job %d processing", jobID)
	}

	workDir, err := os.MkdirTemp("", "hls_processing_")
	if err != nil {
		return p.fail(ctx, jobID, errors.Wrap(err, "failed to create scratch workspace"))
	}
	defer func() {
		if rmErr := os.RemoveAll(workDir); rmErr != nil {
			p.logger.Errorf("job %d: failed to remove workspace %s: %v", jobID, workDir, rmErr)
		}
	}()

	inputPath := filepath.Join(workDir, "source"+filepath.Ext(job.SourceKey))
	p.logger.Infof("job %d: staging in %s", jobID, job.SourceKey)
	if err := p.storage.Download(ctx, job.SourceKey, inputPath); err != nil {
		return p.fail(ctx, jobID, fmt.Errorf("%w: %v", ErrStageIn, err))
	}

	if info, probeErr := p.prober.Probe(ctx, inputPath); probeErr != nil {
		p.logger.Warnf("job %d: probe failed, continuing without media info: %v", jobID, probeErr)
	} else {
		if err := p.repo.SetJobMediaInfo(ctx, jobID, info.Duration, info.FileSize, info.Width, info.Height); err != nil {
			p.logger.Warnf("job %d: failed to persist media info: %v", jobID, err)
		}
	}

	renditions, err := p.planRenditions(ctx, jobID, catalog)
	if err != nil {
		return p.fail(ctx, jobID, err)
	}

	switch job.OutputMode {
	case models.ModeStreaming:
		return p.runStreaming(ctx, job, catalog, renditions, workDir, inputPath)
	case models.ModeIndependent:
		return p.runIndependent(ctx, job, catalog, renditions, workDir, inputPath)
	default:
		return p.fail(ctx, jobID, errors.Errorf("unknown output mode %q", job.OutputMode))
	}
}

// Reprocess reruns a job from its stored source. Run already clears
// prior outcome fields, so a rerun is a plain Run.
func (p *Pipeline) Reprocess(ctx context.Context, jobID int64, catalog models.PresetCatalog) error {
	return p.Run(ctx, jobID, catalog)
}

// runStreaming encodes every variant and uploads the whole adaptive
// package. Any failure aborts the run: a streaming package is only
// useful complete.
func (p *Pipeline) runStreaming(ctx context.Context, job *models.TranscodeJob, catalog models.PresetCatalog,
	renditions map[string]*models.Rendition, workDir, inputPath string) error {
	outDir := filepath.Join(workDir, "hls_output")

	for _, preset := range catalog {
		rendition := renditions[preset.Resolution]
		if err := p.repo.MarkRenditionStarted(ctx, rendition.RenditionID, time.Now()); err != nil {
			return p.fail(ctx, job.JobID, errors.Wrapf(err, "failed to start rendition %q", preset.Resolution))
		}

		variantDir := filepath.Join(outDir, preset.Resolution)
		if err := os.MkdirAll(variantDir, 0o755); err != nil {
			return p.fail(ctx, job.JobID, errors.Wrapf(err, "failed to create variant dir %q", preset.Resolution))
		}

		p.logger.Infof("job %d: encoding %s variant (%dx%d @ %s)",
			job.JobID, preset.Resolution, preset.Width, preset.Height, preset.Bitrate)
		if err := p.encoder.Encode(ctx, encoder.EncodeSpec{
			InputPath: inputPath,
			Width:     preset.Width,
			Height:    preset.Height,
			Bitrate:   preset.Bitrate,
			Segmented: true,
			OutputDir: variantDir,
		}); err != nil {
			encodeErr := errors.Wrapf(err, "encoding %s variant failed", preset.Resolution)
			if markErr := p.repo.MarkRenditionFailed(ctx, rendition.RenditionID, encodeErr.Error(), time.Now()); markErr != nil {
				p.logger.Errorf("job %d: failed to record rendition failure: %v", job.JobID, markErr)
			}
			return p.fail(ctx, job.JobID, encodeErr)
		}
	}

	for _, preset := range catalog {
		rendition := renditions[preset.Resolution]
		variantDir := filepath.Join(outDir, preset.Resolution)
		segments, err := filepath.Glob(filepath.Join(variantDir, "segment_*.ts"))
		if err != nil {
			return p.fail(ctx, job.JobID, errors.Wrapf(err, "failed to list segments for %q", preset.Resolution))
		}
		if err := p.repo.CompleteStreamRendition(ctx, rendition.RenditionID,
			VariantPlaylistKey(job.JobID, preset.Resolution),
			SegmentPrefix(job.JobID, preset.Resolution),
			len(segments), time.Now()); err != nil {
			return p.fail(ctx, job.JobID, errors.Wrapf(err, "failed to complete rendition %q", preset.Resolution))
		}
		p.logger.Infof("job %d: %s variant produced %d segments", job.JobID, preset.Resolution, len(segments))
	}

	stored, err := p.repo.GetRenditionsByJob(ctx, job.JobID)
	if err != nil {
		return p.fail(ctx, job.JobID, errors.Wrap(err, "failed to load renditions for manifest"))
	}

	masterPath := filepath.Join(outDir, "master.m3u8")
	if err := WriteMasterPlaylist(masterPath, stored); err != nil {
		return p.fail(ctx, job.JobID, fmt.Errorf("%w: %v", ErrManifest, err))
	}

	masterKey := MasterPlaylistKey(job.JobID)
	if err := p.storage.Upload(ctx, masterPath, masterKey, PlaylistContentType); err != nil {
		return p.fail(ctx, job.JobID, fmt.Errorf("%w: %v", ErrStageOut, err))
	}
	for _, rendition := range stored {
		variantDir := filepath.Join(outDir, rendition.Resolution)
		if err := p.storage.Upload(ctx, filepath.Join(variantDir, encoder.PlaylistName),
			rendition.PlaylistKey, PlaylistContentType); err != nil {
			return p.fail(ctx, job.JobID, fmt.Errorf("%w: %v", ErrStageOut, err))
		}
		segments, err := filepath.Glob(filepath.Join(variantDir, "segment_*.ts"))
		if err != nil {
			return p.fail(ctx, job.JobID, fmt.Errorf("%w: %v", ErrStageOut, err))
		}
		sort.Strings(segments)
		for _, segment := range segments {
			segmentKey := rendition.SegmentPrefix + filepath.Base(segment)
			if err := p.storage.Upload(ctx, segment, segmentKey, SegmentContentType); err != nil {
				return p.fail(ctx, job.JobID, fmt.Errorf("%w: %v", ErrStageOut, err))
			}
		}
	}

	if err := p.repo.MarkJobCompleted(ctx, job.JobID, masterKey, time.Now()); err != nil {
		return errors.Wrapf(err, "failed to complete job %d", job.JobID)
	}
	p.logger.Infof("job %d: streaming package completed at %s", job.JobID, masterKey)
	return nil
}

// runIndependent encodes each rendition to a standalone MP4. Failures
// are isolated per rendition; the job completes if at least one
// rendition made it through.
func (p *Pipeline) runIndependent(ctx context.Context, job *models.TranscodeJob, catalog models.PresetCatalog,
	renditions map[string]*models.Rendition, workDir, inputPath string) error {
	baseName := strings.TrimSuffix(filepath.Base(job.SourceKey), filepath.Ext(job.SourceKey))
	completed := 0

	for _, preset := range catalog {
		rendition := renditions[preset.Resolution]
		if err := p.repo.MarkRenditionStarted(ctx, rendition.RenditionID, time.Now()); err != nil {
			return p.fail(ctx, job.JobID, errors.Wrapf(err, "failed to start rendition %q", preset.Resolution))
		}

		outputName := fmt.Sprintf("%s_%s.mp4", baseName, preset.Resolution)
		outputPath := filepath.Join(workDir, outputName)
		p.logger.Infof("job %d: encoding %s rendition (%dx%d @ %s)",
			job.JobID, preset.Resolution, preset.Width, preset.Height, preset.Bitrate)
		if err := p.encoder.Encode(ctx, encoder.EncodeSpec{
			InputPath:  inputPath,
			Width:      preset.Width,
			Height:     preset.Height,
			Bitrate:    preset.Bitrate,
			OutputPath: outputPath,
		}); err != nil {
			p.failRendition(ctx, job.JobID, rendition, errors.Wrapf(err, "encoding %s rendition failed", preset.Resolution))
			continue
		}

		fileKey := RenditionFileKey(job.JobID, preset.Resolution, outputName)
		if err := p.storage.Upload(ctx, outputPath, fileKey, MP4ContentType); err != nil {
			p.failRendition(ctx, job.JobID, rendition, fmt.Errorf("%w: %v", ErrStageOut, err))
			continue
		}

		var fileSize int64
		if stat, statErr := os.Stat(outputPath); statErr == nil {
			fileSize = stat.Size()
		}
		if err := p.repo.CompleteFileRendition(ctx, rendition.RenditionID, fileKey, fileSize, time.Now()); err != nil {
			return p.fail(ctx, job.JobID, errors.Wrapf(err, "failed to complete rendition %q", preset.Resolution))
		}
		completed++
	}

	if completed == 0 {
		return p.fail(ctx, job.JobID, errors.New("no renditions completed"))
	}

	if err := p.repo.MarkJobCompleted(ctx, job.JobID, "", time.Now()); err != nil {
		return errors.Wrapf(err, "failed to complete job %d", job.JobID)
	}
	p.logger.Infof("job %d: %d/%d renditions completed", job.JobID, completed, len(catalog))
	return nil
}

// fail records the job as failed with the error's message and passes
// the error back up.
func (p *Pipeline) fail(ctx context.Context, jobID int64, err error) error {
	if markErr := p.repo.MarkJobFailed(ctx, jobID, err.Error()); markErr != nil {
		p.logger.Errorf("job %d: failed to record failure: %v", jobID, markErr)
	}
	p.logger.Errorf("job %d: %v", jobID, err)
	return err
}

func (p *Pipeline) failRendition(ctx context.Context, jobID int64, rendition *models.Rendition, err error) {
	if markErr := p.repo.MarkRenditionFailed(ctx, rendition.RenditionID, err.Error(), time.Now()); markErr != nil {
		p.logger.Errorf("job %d: failed to record rendition failure: %v", jobID, markErr)
	}
	p.logger.Errorf("job %d: %v", jobID, err)
}
