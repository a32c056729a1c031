package worker

import (
	"context"
	"sync"
	"time"

	"github.com/clipstream/video-transcoder/internal/config"
	"github.com/clipstream/video-transcoder/internal/models"
	"github.com/clipstream/video-transcoder/internal/pipeline"
	"github.com/clipstream/video-transcoder/internal/transcode"
	"github.com/clipstream/video-transcoder/pkg/logger"
	"github.com/clipstream/video-transcoder/pkg/utils"
)

const (
	defaultDequeueTimeout = 5 * time.Second
	defaultLockTTL        = 2 * time.Hour
	cpuBackoff            = 10 * time.Second
)

// Worker drains the transcode queue with a pool of goroutines. Each
// task is guarded by a per-job advisory lock so two workers cannot run
// the same job at once.
type Worker struct {
	cfg       *config.Config
	queueRepo transcode.QueueRepository
	pipeline  *pipeline.Pipeline
	catalog   models.PresetCatalog
	logger    logger.Logger
	wg        sync.WaitGroup
}

func NewWorker(cfg *config.Config, queueRepo transcode.QueueRepository, pl *pipeline.Pipeline, log logger.Logger) *Worker {
	return &Worker{
		cfg:       cfg,
		queueRepo: queueRepo,
		pipeline:  pl,
		catalog:   catalogFromConfig(cfg),
		logger:    log,
	}
}

// Start launches the worker pool and blocks until ctx is cancelled and
// every in-flight job has finished.
func (w *Worker) Start(ctx context.Context) {
	count := w.cfg.Worker.WorkerCount
	if count < 1 {
		count = 1
	}
	w.logger.Infof("Starting %d transcode workers", count)
	for i := 0; i < count; i++ {
		w.wg.Add(1)
		go w.run(ctx, i)
	}
	w.wg.Wait()
}

func (w *Worker) run(ctx context.Context, id int) {
	defer w.wg.Done()
	for {
		select {
		case <-ctx.Done():
			w.logger.Infof("worker %d: shutting down", id)
			return
		default:
		}

		if ok, usage := utils.CheckCPUUsage(w.cfg.Worker.MaxCPUUsage); !ok {
			w.logger.Infof("worker %d: CPU usage %.2f%% too high, backing off", id, usage)
			select {
			case <-ctx.Done():
				return
			case <-time.After(cpuBackoff):
			}
			continue
		}

		task, err := w.queueRepo.DequeueTask(ctx, w.cfg.Redis.JobQueueKey, w.dequeueTimeout())
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			w.logger.Errorf("worker %d: dequeue error: %v", id, err)
			continue
		}
		if task == nil {
			continue
		}
		w.handle(ctx, id, task)
	}
}

func (w *Worker) handle(ctx context.Context, id int, task *models.TranscodeTask) {
	acquired, err := w.queueRepo.AcquireJobLock(ctx, task.JobID, w.lockTTL())
	if err != nil {
		w.logger.Errorf("worker %d: lock error for job %d: %v", id, task.JobID, err)
		return
	}
	if !acquired {
		w.logger.Warnf("worker %d: job %d is locked by another worker, skipping", id, task.JobID)
		return
	}
	defer func() {
		if err := w.queueRepo.ReleaseJobLock(ctx, task.JobID); err != nil {
			w.logger.Errorf("worker %d: failed to release lock for job %d: %v", id, task.JobID, err)
		}
	}()

	w.logger.Infof("worker %d: processing job %d (reprocess=%v)", id, task.JobID, task.Reprocess)
	if task.Reprocess {
		err = w.pipeline.Reprocess(ctx, task.JobID, w.catalog)
	} else {
		err = w.pipeline.Run(ctx, task.JobID, w.catalog)
	}
	if err != nil {
		w.logger.Errorf("worker %d: job %d failed: %v", id, task.JobID, err)
		return
	}
	w.logger.Infof("worker %d: job %d completed", id, task.JobID)
}

func (w *Worker) dequeueTimeout() time.Duration {
	if w.cfg.Worker.DequeueTimeout > 0 {
		return time.Duration(w.cfg.Worker.DequeueTimeout) * time.Second
	}
	return defaultDequeueTimeout
}

func (w *Worker) lockTTL() time.Duration {
	if w.cfg.Worker.LockTTL > 0 {
		return time.Duration(w.cfg.Worker.LockTTL) * time.Second
	}
	return defaultLockTTL
}

func catalogFromConfig(cfg *config.Config) models.PresetCatalog {
	if len(cfg.Presets) == 0 {
		return models.DefaultCatalog()
	}
	catalog := make(models.PresetCatalog, 0, len(cfg.Presets))
	for _, p := range cfg.Presets {
		catalog = append(catalog, models.ResolutionPreset{
			Resolution: p.Resolution,
			Width:      p.Width,
			Height:     p.Height,
			Bitrate:    p.Bitrate,
		})
	}
	return catalog
}
