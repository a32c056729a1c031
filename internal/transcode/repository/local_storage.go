package repository

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/clipstream/video-transcoder/internal/models"
	"github.com/clipstream/video-transcoder/internal/transcode"
)

// localStorage persists artifacts under a media root on disk. It backs
// the independent-rendition mode when no object store is configured;
// signing is meaningless here and reports an error.
type localStorage struct {
	root string
}

func NewLocalStorage(root string) transcode.Storage {
	return &localStorage{root: root}
}

var errPresignUnsupported = errors.New("presigned URLs are not supported by local storage")

func (l *localStorage) path(key string) string {
	return filepath.Join(l.root, filepath.FromSlash(key))
}

func (l *localStorage) Upload(ctx context.Context, localPath, key, contentType string) error {
	dst := l.path(key)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return &transcode.TransferError{Op: "upload", Key: key, Err: err}
	}
	if err := copyFile(localPath, dst); err != nil {
		return &transcode.TransferError{Op: "upload", Key: key, Err: err}
	}
	return nil
}

func (l *localStorage) Download(ctx context.Context, key, localPath string) error {
	if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
		return &transcode.TransferError{Op: "download", Key: key, Err: err}
	}
	if err := copyFile(l.path(key), localPath); err != nil {
		return &transcode.TransferError{Op: "download", Key: key, Err: err}
	}
	return nil
}

func (l *localStorage) Exists(ctx context.Context, key string) (bool, error) {
	_, err := os.Stat(l.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, &transcode.TransferError{Op: "head", Key: key, Err: err}
	}
	return true, nil
}

func (l *localStorage) Size(ctx context.Context, key string) (int64, error) {
	info, err := os.Stat(l.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return 0, transcode.ErrNotExist
		}
		return 0, &transcode.TransferError{Op: "head", Key: key, Err: err}
	}
	return info.Size(), nil
}

func (l *localStorage) PresignUpload(ctx context.Context, key, contentType string, ttl time.Duration) (*models.PresignedUpload, error) {
	return nil, &transcode.TransferError{Op: "presign-upload", Key: key, Err: errPresignUnsupported}
}

func (l *localStorage) PresignDownload(ctx context.Context, key string, ttl time.Duration) (string, error) {
	return "", &transcode.TransferError{Op: "presign-download", Key: key, Err: errPresignUnsupported}
}

func (l *localStorage) Delete(ctx context.Context, key string) error {
	if err := os.Remove(l.path(key)); err != nil && !os.IsNotExist(err) {
		return &transcode.TransferError{Op: "delete", Key: key, Err: err}
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err = io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
