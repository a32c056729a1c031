package transcode

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/clipstream/video-transcoder/internal/models"
)

// ErrNotExist is returned by Size for keys that are absent from the
// store. Exists reports absence as (false, nil) instead.
var ErrNotExist = errors.New("object does not exist")

// TransferError wraps a failed store operation with the key it acted on.
type TransferError struct {
	Op  string
	Key string
	Err error
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("storage %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *TransferError) Unwrap() error {
	return e.Err
}

// Storage is the content-store gateway. Keys are opaque slash-separated
// paths; calls are independent of each other and hold no local state.
type Storage interface {
	Upload(ctx context.Context, localPath, key, contentType string) error
	Download(ctx context.Context, key, localPath string) error
	Exists(ctx context.Context, key string) (bool, error)
	Size(ctx context.Context, key string) (int64, error)
	PresignUpload(ctx context.Context, key, contentType string, ttl time.Duration) (*models.PresignedUpload, error)
	PresignDownload(ctx context.Context, key string, ttl time.Duration) (string, error)
	Delete(ctx context.Context, key string) error
}
