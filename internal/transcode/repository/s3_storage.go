package repository

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/clipstream/video-transcoder/internal/models"
	"github.com/clipstream/video-transcoder/internal/transcode"
)

// maxUploadBytes is enforced server-side via the POST policy, not here.
const maxUploadBytes = 5 << 30

type s3Storage struct {
	client        *s3.Client
	presignClient *s3.PresignClient
	bucket        string
}

func NewS3Storage(client *s3.Client, presignClient *s3.PresignClient, bucket string) transcode.Storage {
	return &s3Storage{
		client:        client,
		presignClient: presignClient,
		bucket:        bucket,
	}
}

func (s *s3Storage) Upload(ctx context.Context, localPath, key, contentType string) error {
	file, err := os.Open(localPath)
	if err != nil {
		return &transcode.TransferError{Op: "upload", Key: key, Err: err}
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return &transcode.TransferError{Op: "upload", Key: key, Err: err}
	}
	size := info.Size()

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        &s.bucket,
		Key:           &key,
		Body:          file,
		ContentType:   &contentType,
		ContentLength: &size,
	})
	if err != nil {
		return &transcode.TransferError{Op: "upload", Key: key, Err: err}
	}
	return nil
}

func (s *s3Storage) Download(ctx context.Context, key, localPath string) error {
	if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
		return &transcode.TransferError{Op: "download", Key: key, Err: err}
	}
	res, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: &s.bucket,
		Key:    &key,
	})
	if err != nil {
		return &transcode.TransferError{Op: "download", Key: key, Err: err}
	}
	defer res.Body.Close()

	outFile, err := os.Create(localPath)
	if err != nil {
		return &transcode.TransferError{Op: "download", Key: key, Err: err}
	}
	defer outFile.Close()

	if _, err = io.Copy(outFile, res.Body); err != nil {
		return &transcode.TransferError{Op: "download", Key: key, Err: err}
	}
	return nil
}

func (s *s3Storage) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: &s.bucket,
		Key:    &key,
	})
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, &transcode.TransferError{Op: "head", Key: key, Err: err}
	}
	return true, nil
}

func (s *s3Storage) Size(ctx context.Context, key string) (int64, error) {
	res, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: &s.bucket,
		Key:    &key,
	})
	if err != nil {
		if isNotFound(err) {
			return 0, transcode.ErrNotExist
		}
		return 0, &transcode.TransferError{Op: "head", Key: key, Err: err}
	}
	return aws.ToInt64(res.ContentLength), nil
}

func (s *s3Storage) PresignUpload(ctx context.Context, key, contentType string, ttl time.Duration) (*models.PresignedUpload, error) {
	req, err := s.presignClient.PresignPostObject(
		ctx,
		&s3.PutObjectInput{
			Bucket:      &s.bucket,
			Key:         &key,
			ContentType: &contentType,
		},
		func(opts *s3.PresignPostOptions) {
			opts.Expires = ttl
			opts.Conditions = []interface{}{
				[]interface{}{"content-length-range", 1, maxUploadBytes},
			}
		},
	)
	if err != nil {
		return nil, &transcode.TransferError{Op: "presign-upload", Key: key, Err: err}
	}
	return &models.PresignedUpload{
		Method: "POST",
		URL:    req.URL,
		Fields: req.Values,
		Key:    key,
	}, nil
}

func (s *s3Storage) PresignDownload(ctx context.Context, key string, ttl time.Duration) (string, error) {
	req, err := s.presignClient.PresignGetObject(
		ctx,
		&s3.GetObjectInput{
			Bucket: &s.bucket,
			Key:    &key,
		},
		s3.WithPresignExpires(ttl),
	)
	if err != nil {
		return "", &transcode.TransferError{Op: "presign-download", Key: key, Err: err}
	}
	return req.URL, nil
}

func (s *s3Storage) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: &s.bucket,
		Key:    &key,
	})
	if err != nil {
		return &transcode.TransferError{Op: "delete", Key: key, Err: err}
	}
	return nil
}

func isNotFound(err error) bool {
	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		return code == "NotFound" || code == "NoSuchKey"
	}
	return false
}
