package pipeline

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"

	"github.com/clipstream/video-transcoder/internal/encoder"
	"github.com/clipstream/video-transcoder/internal/models"
	"github.com/clipstream/video-transcoder/pkg/utils"
)

type nopLogger struct{}

func (nopLogger) InitLogger()                                 {}
func (nopLogger) Debug(args ...interface{})                   {}
func (nopLogger) Debugf(template string, args ...interface{}) {}
func (nopLogger) Info(args ...interface{})                    {}
func (nopLogger) Infof(template string, args ...interface{})  {}
func (nopLogger) Warn(args ...interface{})                    {}
func (nopLogger) Warnf(template string, args ...interface{})  {}
func (nopLogger) Error(args ...interface{})                   {}
func (nopLogger) Errorf(template string, args ...interface{}) {}
func (nopLogger) Fatal(args ...interface{})                   {}
func (nopLogger) Fatalf(template string, args ...interface{}) {}

type fakeRepo struct {
	mu         sync.Mutex
	job        *models.TranscodeJob
	renditions map[string]*models.Rendition
	nextID     int64
}

func newFakeRepo(job *models.TranscodeJob) *fakeRepo {
	return &fakeRepo{job: job, renditions: map[string]*models.Rendition{}, nextID: 1}
}

func (r *fakeRepo) CreateJob(ctx context.Context, job *models.TranscodeJob) (*models.TranscodeJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.job = job
	return job, nil
}

func (r *fakeRepo) GetJobByID(ctx context.Context, jobID int64) (*models.TranscodeJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.job == nil || r.job.JobID != jobID {
		return nil, sql.ErrNoRows
	}
	cp := *r.job
	return &cp, nil
}

func (r *fakeRepo) ListJobs(ctx context.Context, pq *utils.Pagination) (*models.JobList, error) {
	return &models.JobList{}, nil
}

func (r *fakeRepo) DeleteJob(ctx context.Context, jobID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.job = nil
	return nil
}

func (r *fakeRepo) MarkJobProcessing(ctx context.Context, jobID int64, startedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.job.Status = models.JobStatusProcessing
	r.job.ErrorMessage = ""
	r.job.ProcessingStartedAt = &startedAt
	r.job.ProcessedAt = nil
	return nil
}

func (r *fakeRepo) MarkJobCompleted(ctx context.Context, jobID int64, masterPlaylistKey string, completedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.job.Status = models.JobStatusCompleted
	if masterPlaylistKey != "" {
		r.job.MasterPlaylistKey = masterPlaylistKey
	}
	r.job.ProcessedAt = &completedAt
	return nil
}

func (r *fakeRepo) MarkJobFailed(ctx context.Context, jobID int64, errMsg string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.job.Status = models.JobStatusFailed
	r.job.ErrorMessage = errMsg
	return nil
}

func (r *fakeRepo) SetJobMediaInfo(ctx context.Context, jobID int64, duration float64, fileSize int64, width, height int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.job.Duration = duration
	if r.job.FileSize == 0 {
		r.job.FileSize = fileSize
	}
	r.job.Width = width
	r.job.Height = height
	return nil
}

func (r *fakeRepo) GetOrCreateRendition(ctx context.Context, rendition *models.Rendition) (*models.Rendition, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.renditions[rendition.Resolution]; ok {
		cp := *existing
		return &cp, false, nil
	}
	rendition.RenditionID = r.nextID
	r.nextID++
	now := time.Now()
	rendition.StartedAt = &now
	cp := *rendition
	r.renditions[rendition.Resolution] = &cp
	out := *rendition
	return &out, true, nil
}

func (r *fakeRepo) ResetRendition(ctx context.Context, renditionID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rend := range r.renditions {
		if rend.RenditionID == renditionID {
			now := time.Now()
			rend.StartedAt = &now
			rend.CompletedAt = nil
			rend.FailedAt = nil
			rend.ErrorMessage = ""
			rend.SegmentCount = 0
		}
	}
	return nil
}

func (r *fakeRepo) GetRenditionsByJob(ctx context.Context, jobID int64) ([]*models.Rendition, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Rendition, 0, len(r.renditions))
	for _, rend := range r.renditions {
		cp := *rend
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Width < out[j].Width })
	return out, nil
}

func (r *fakeRepo) byID(renditionID int64) *models.Rendition {
	for _, rend := range r.renditions {
		if rend.RenditionID == renditionID {
			return rend
		}
	}
	return nil
}

func (r *fakeRepo) MarkRenditionStarted(ctx context.Context, renditionID int64, startedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rend := r.byID(renditionID); rend != nil {
		rend.StartedAt = &startedAt
		rend.CompletedAt = nil
		rend.FailedAt = nil
		rend.ErrorMessage = ""
	}
	return nil
}

func (r *fakeRepo) CompleteStreamRendition(ctx context.Context, renditionID int64, playlistKey, segmentPrefix string, segmentCount int, completedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rend := r.byID(renditionID); rend != nil {
		rend.PlaylistKey = playlistKey
		rend.SegmentPrefix = segmentPrefix
		rend.SegmentCount = segmentCount
		rend.CompletedAt = &completedAt
	}
	return nil
}

func (r *fakeRepo) CompleteFileRendition(ctx context.Context, renditionID int64, fileKey string, fileSize int64, completedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rend := r.byID(renditionID); rend != nil {
		rend.FileKey = fileKey
		rend.FileSize = fileSize
		rend.CompletedAt = &completedAt
	}
	return nil
}

func (r *fakeRepo) MarkRenditionFailed(ctx context.Context, renditionID int64, errMsg string, failedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rend := r.byID(renditionID); rend != nil {
		rend.ErrorMessage = errMsg
		rend.FailedAt = &failedAt
	}
	return nil
}

type fakeStorage struct {
	mu           sync.Mutex
	objects      map[string][]byte
	contentTypes map[string]string
	downloadErr  error
	uploadErr    error
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: map[string][]byte{}, contentTypes: map[string]string{}}
}

func (s *fakeStorage) Upload(ctx context.Context, localPath, key, contentType string) error {
	if s.uploadErr != nil {
		return s.uploadErr
	}
	data, err := os.ReadFile(localPath)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = data
	s.contentTypes[key] = contentType
	return nil
}

func (s *fakeStorage) Download(ctx context.Context, key, localPath string) error {
	if s.downloadErr != nil {
		return s.downloadErr
	}
	if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
		return err
	}
	return os.WriteFile(localPath, []byte("source-bytes"), 0o644)
}

func (s *fakeStorage) Exists(ctx context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[key]
	return ok, nil
}

func (s *fakeStorage) Size(ctx context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[key]
	if !ok {
		return 0, errors.New("object does not exist")
	}
	return int64(len(data)), nil
}

func (s *fakeStorage) PresignUpload(ctx context.Context, key, contentType string, ttl time.Duration) (*models.PresignedUpload, error) {
	return nil, errors.New("presign not supported")
}

func (s *fakeStorage) PresignDownload(ctx context.Context, key string, ttl time.Duration) (string, error) {
	return "", errors.New("presign not supported")
}

func (s *fakeStorage) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

func (s *fakeStorage) keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.objects))
	for k := range s.objects {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// fakeEncoder writes synthetic playlist and segment files so glob and
// upload logic run against real paths.
type fakeEncoder struct {
	mu        sync.Mutex
	segments  int
	failWidth int
	err       error
	calls     []encoder.EncodeSpec
}

func (e *fakeEncoder) Encode(ctx context.Context, spec encoder.EncodeSpec) error {
	e.mu.Lock()
	e.calls = append(e.calls, spec)
	e.mu.Unlock()
	if e.err != nil && (e.failWidth == 0 || spec.Width == e.failWidth) {
		return e.err
	}
	if spec.Segmented {
		if err := os.WriteFile(filepath.Join(spec.OutputDir, encoder.PlaylistName), []byte("#EXTM3U\n"), 0o644); err != nil {
			return err
		}
		for i := 0; i < e.segments; i++ {
			name := fmt.Sprintf("segment_%03d.ts", i)
			if err := os.WriteFile(filepath.Join(spec.OutputDir, name), []byte("ts"), 0o644); err != nil {
				return err
			}
		}
		return nil
	}
	return os.WriteFile(spec.OutputPath, []byte("mp4-bytes"), 0o644)
}

func (e *fakeEncoder) workDirs() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	dirs := map[string]struct{}{}
	for _, call := range e.calls {
		if call.Segmented {
			dirs[filepath.Dir(filepath.Dir(call.OutputDir))] = struct{}{}
		} else {
			dirs[filepath.Dir(call.OutputPath)] = struct{}{}
		}
	}
	out := make([]string, 0, len(dirs))
	for d := range dirs {
		out = append(out, d)
	}
	return out
}

type fakeProber struct {
	info *encoder.MediaInfo
	err  error
}

func (p *fakeProber) Probe(ctx context.Context, inputPath string) (*encoder.MediaInfo, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.info, nil
}

func testCatalog() models.PresetCatalog {
	return models.DefaultCatalog()
}

func newTestJob(jobID int64, mode models.OutputMode) *models.TranscodeJob {
	return &models.TranscodeJob{
		JobID:      jobID,
		Title:      "test clip",
		SourceKey:  "videos/originals/clip.mp4",
		OutputMode: mode,
		Status:     models.JobStatusPending,
	}
}

func newTestPipeline(repo *fakeRepo, storage *fakeStorage, enc *fakeEncoder) *Pipeline {
	prober := &fakeProber{info: &encoder.MediaInfo{Width: 1920, Height: 1080, Duration: 12.5, FileSize: 1024}}
	return New(repo, storage, enc, prober, nopLogger{})
}

func assertWorkspacesRemoved(t *testing.T, enc *fakeEncoder) {
	t.Helper()
	for _, dir := range enc.workDirs() {
		if _, err := os.Stat(dir); !os.IsNotExist(err) {
			t.Errorf("scratch workspace %s still exists", dir)
		}
	}
}

func TestRunStreamingSuccess(t *testing.T) {
	repo := newFakeRepo(newTestJob(42, models.ModeStreaming))
	storage := newFakeStorage()
	enc := &fakeEncoder{segments: 4}
	p := newTestPipeline(repo, storage, enc)

	if err := p.Run(context.Background(), 42, testCatalog()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if repo.job.Status != models.JobStatusCompleted {
		t.Fatalf("job status = %s, want completed", repo.job.Status)
	}
	if repo.job.MasterPlaylistKey != "hls_videos/42/master.m3u8" {
		t.Errorf("master playlist key = %q", repo.job.MasterPlaylistKey)
	}
	if repo.job.Duration != 12.5 {
		t.Errorf("probed duration not persisted: %v", repo.job.Duration)
	}

	renditions, _ := repo.GetRenditionsByJob(context.Background(), 42)
	if len(renditions) != 3 {
		t.Fatalf("expected 3 renditions, got %d", len(renditions))
	}
	for _, r := range renditions {
		if !r.IsCompleted() {
			t.Errorf("rendition %s not completed", r.Resolution)
		}
		if r.PlaylistKey == "" || r.SegmentPrefix == "" {
			t.Errorf("rendition %s missing manifest keys", r.Resolution)
		}
		if r.SegmentCount != 4 {
			t.Errorf("rendition %s segment count = %d, want 4", r.Resolution, r.SegmentCount)
		}
	}

	keys := storage.keys()
	wantKeys := []string{
		"hls_videos/42/1080p/playlist.m3u8",
		"hls_videos/42/480p/playlist.m3u8",
		"hls_videos/42/720p/playlist.m3u8",
		"hls_videos/42/master.m3u8",
	}
	for _, want := range wantKeys {
		if _, ok := storage.objects[want]; !ok {
			t.Errorf("missing uploaded key %q in %v", want, keys)
		}
	}
	if _, ok := storage.objects["hls_videos/42/720p/segment_000.ts"]; !ok {
		t.Errorf("missing segment key, have %v", keys)
	}
	if ct := storage.contentTypes["hls_videos/42/master.m3u8"]; ct != PlaylistContentType {
		t.Errorf("master content type = %q", ct)
	}
	if ct := storage.contentTypes["hls_videos/42/720p/segment_000.ts"]; ct != SegmentContentType {
		t.Errorf("segment content type = %q", ct)
	}

	master := string(storage.objects["hls_videos/42/master.m3u8"])
	if !strings.HasPrefix(master, "#EXTM3U\n#EXT-X-VERSION:3\n\n") {
		t.Errorf("master playlist header malformed:\n%s", master)
	}
	i480 := strings.Index(master, "480p/playlist.m3u8")
	i720 := strings.Index(master, "720p/playlist.m3u8")
	i1080 := strings.Index(master, "1080p/playlist.m3u8")
	if !(i480 < i720 && i720 < i1080) {
		t.Errorf("variants not ascending by width:\n%s", master)
	}

	assertWorkspacesRemoved(t, enc)
}

func TestRunKeepsKnownFileSize(t *testing.T) {
	job := newTestJob(6, models.ModeStreaming)
	job.FileSize = 999
	repo := newFakeRepo(job)
	enc := &fakeEncoder{segments: 1}
	p := newTestPipeline(repo, newFakeStorage(), enc)

	if err := p.Run(context.Background(), 6, testCatalog()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if repo.job.FileSize != 999 {
		t.Errorf("known file size overwritten by probe: %d", repo.job.FileSize)
	}
	if repo.job.Duration != 12.5 {
		t.Errorf("probed duration not persisted: %v", repo.job.Duration)
	}
}

func TestRunStreamingEncodeFailureAbortsJob(t *testing.T) {
	repo := newFakeRepo(newTestJob(7, models.ModeStreaming))
	storage := newFakeStorage()
	enc := &fakeEncoder{segments: 4, failWidth: 1280, err: &encoder.EncodeError{ExitCode: 1, Stderr: "x264 blew up"}}
	p := newTestPipeline(repo, storage, enc)

	err := p.Run(context.Background(), 7, testCatalog())
	if err == nil {
		t.Fatal("expected error")
	}
	var encErr *encoder.EncodeError
	if !errors.As(err, &encErr) {
		t.Errorf("expected EncodeError in chain, got %v", err)
	}
	if repo.job.Status != models.JobStatusFailed {
		t.Errorf("job status = %s, want failed", repo.job.Status)
	}
	if !strings.Contains(repo.job.ErrorMessage, "x264 blew up") {
		t.Errorf("job error message = %q", repo.job.ErrorMessage)
	}
	if len(storage.keys()) != 0 {
		t.Errorf("nothing should be uploaded on abort, got %v", storage.keys())
	}

	renditions, _ := repo.GetRenditionsByJob(context.Background(), 7)
	for _, r := range renditions {
		if r.Resolution == "720p" && !r.IsFailed() {
			t.Errorf("720p rendition should be failed")
		}
	}
	assertWorkspacesRemoved(t, enc)
}

func TestRunEncodeTimeoutFailsJob(t *testing.T) {
	repo := newFakeRepo(newTestJob(9, models.ModeStreaming))
	storage := newFakeStorage()
	enc := &fakeEncoder{err: encoder.ErrTimeout}
	p := newTestPipeline(repo, storage, enc)

	err := p.Run(context.Background(), 9, testCatalog())
	if !errors.Is(err, encoder.ErrTimeout) {
		t.Fatalf("expected ErrTimeout in chain, got %v", err)
	}
	if repo.job.Status != models.JobStatusFailed {
		t.Errorf("job status = %s, want failed", repo.job.Status)
	}
	if !strings.Contains(repo.job.ErrorMessage, "encoding timed out") {
		t.Errorf("job error message = %q", repo.job.ErrorMessage)
	}
	assertWorkspacesRemoved(t, enc)
}

func TestRunStreamingUploadFailureFailsJob(t *testing.T) {
	repo := newFakeRepo(newTestJob(8, models.ModeStreaming))
	storage := newFakeStorage()
	storage.uploadErr = errors.New("access denied")
	enc := &fakeEncoder{segments: 2}
	p := newTestPipeline(repo, storage, enc)

	err := p.Run(context.Background(), 8, testCatalog())
	if !errors.Is(err, ErrStageOut) {
		t.Fatalf("expected ErrStageOut, got %v", err)
	}
	if repo.job.Status != models.JobStatusFailed {
		t.Errorf("job status = %s, want failed", repo.job.Status)
	}
	if !strings.HasPrefix(repo.job.ErrorMessage, "upload failed") {
		t.Errorf("job error message = %q", repo.job.ErrorMessage)
	}
	if len(storage.keys()) != 0 {
		t.Errorf("no object should be stored, got %v", storage.keys())
	}
	assertWorkspacesRemoved(t, enc)
}

func TestRunStageInFailure(t *testing.T) {
	repo := newFakeRepo(newTestJob(3, models.ModeStreaming))
	storage := newFakeStorage()
	storage.downloadErr = errors.New("connection reset")
	enc := &fakeEncoder{}
	p := newTestPipeline(repo, storage, enc)

	err := p.Run(context.Background(), 3, testCatalog())
	if !errors.Is(err, ErrStageIn) {
		t.Fatalf("expected ErrStageIn, got %v", err)
	}
	if repo.job.Status != models.JobStatusFailed {
		t.Errorf("job status = %s, want failed", repo.job.Status)
	}
	if !strings.HasPrefix(repo.job.ErrorMessage, "download failed") {
		t.Errorf("job error message = %q", repo.job.ErrorMessage)
	}
	if len(enc.calls) != 0 {
		t.Errorf("encoder should not run when stage-in fails")
	}
}

func TestRunIndependentPartialSuccess(t *testing.T) {
	repo := newFakeRepo(newTestJob(11, models.ModeIndependent))
	storage := newFakeStorage()
	enc := &fakeEncoder{failWidth: 1920, err: &encoder.EncodeError{ExitCode: 1, Stderr: "oom"}}
	p := newTestPipeline(repo, storage, enc)

	if err := p.Run(context.Background(), 11, testCatalog()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if repo.job.Status != models.JobStatusCompleted {
		t.Fatalf("job status = %s, want completed", repo.job.Status)
	}

	renditions, _ := repo.GetRenditionsByJob(context.Background(), 11)
	completed, failed := 0, 0
	for _, r := range renditions {
		switch {
		case r.IsCompleted():
			completed++
			if r.FileKey == "" || r.FileSize == 0 {
				t.Errorf("completed rendition %s missing file key or size", r.Resolution)
			}
		case r.IsFailed():
			failed++
			if !strings.Contains(r.ErrorMessage, "oom") {
				t.Errorf("failed rendition %s message = %q", r.Resolution, r.ErrorMessage)
			}
		}
	}
	if completed != 2 || failed != 1 {
		t.Errorf("completed=%d failed=%d, want 2/1", completed, failed)
	}

	if _, ok := storage.objects["videos/processed/11/720p/clip_720p.mp4"]; !ok {
		t.Errorf("missing mp4 key, have %v", storage.keys())
	}
	if ct := storage.contentTypes["videos/processed/11/720p/clip_720p.mp4"]; ct != MP4ContentType {
		t.Errorf("mp4 content type = %q", ct)
	}
	assertWorkspacesRemoved(t, enc)
}

func TestRunIndependentAllFail(t *testing.T) {
	repo := newFakeRepo(newTestJob(13, models.ModeIndependent))
	storage := newFakeStorage()
	enc := &fakeEncoder{err: &encoder.EncodeError{ExitCode: 1, Stderr: "bad input"}}
	p := newTestPipeline(repo, storage, enc)

	err := p.Run(context.Background(), 13, testCatalog())
	if err == nil {
		t.Fatal("expected error")
	}
	if repo.job.Status != models.JobStatusFailed {
		t.Errorf("job status = %s, want failed", repo.job.Status)
	}
	if !strings.Contains(repo.job.ErrorMessage, "no renditions completed") {
		t.Errorf("job error message = %q", repo.job.ErrorMessage)
	}
}

func TestPlanRenditionsIdempotent(t *testing.T) {
	repo := newFakeRepo(newTestJob(5, models.ModeStreaming))
	p := newTestPipeline(repo, newFakeStorage(), &fakeEncoder{})
	ctx := context.Background()

	first, err := p.planRenditions(ctx, 5, testCatalog())
	if err != nil {
		t.Fatalf("planRenditions: %v", err)
	}
	// Simulate a finished run before replanning.
	now := time.Now()
	for _, r := range first {
		if err := repo.CompleteStreamRendition(ctx, r.RenditionID, "k", "p/", 3, now); err != nil {
			t.Fatal(err)
		}
	}

	second, err := p.planRenditions(ctx, 5, testCatalog())
	if err != nil {
		t.Fatalf("replan: %v", err)
	}
	if len(second) != len(first) {
		t.Fatalf("replan produced %d renditions, want %d", len(second), len(first))
	}
	for res, r := range second {
		if r.RenditionID != first[res].RenditionID {
			t.Errorf("rendition %s: id changed on replan (%d -> %d)", res, first[res].RenditionID, r.RenditionID)
		}
		if r.IsCompleted() || r.SegmentCount != 0 || r.ErrorMessage != "" {
			t.Errorf("rendition %s: outcome fields not cleared on replan", res)
		}
	}
}

func TestPlanRenditionsRejectsBadPreset(t *testing.T) {
	repo := newFakeRepo(newTestJob(5, models.ModeStreaming))
	p := newTestPipeline(repo, newFakeStorage(), &fakeEncoder{})

	catalog := models.PresetCatalog{{Resolution: "720p", Width: 0, Height: 720, Bitrate: "2500k"}}
	if _, err := p.planRenditions(context.Background(), 5, catalog); err == nil {
		t.Error("expected validation error for zero width")
	}

	if _, err := p.planRenditions(context.Background(), 5, models.PresetCatalog{}); err == nil {
		t.Error("expected error for empty catalog")
	}
}
