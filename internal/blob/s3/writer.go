package s3blob

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/alanyoungcy/lottodesk/internal/domain"
)

const (
	// S3 rejects multipart parts under 5 MiB except the last.
	minPartSize      = manager.MinUploadPartSize
	jsonlContentType = "application/x-ndjson"
)

// Writer uploads archive objects into one bucket.
type Writer struct {
	api    *s3.Client
	bucket string
}

var _ domain.BlobWriter = (*Writer)(nil)

func NewWriter(c *Client) *Writer {
	return &Writer{api: c.S3(), bucket: c.Bucket()}
}

func (w *Writer) object(key, contentType string, body io.Reader) *s3.PutObjectInput {
	return &s3.PutObjectInput{
		Bucket:      aws.String(w.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	}
}

// Put stores a small object in one request.
func (w *Writer) Put(ctx context.Context, key string, body io.Reader, contentType string) error {
	if _, err := w.api.PutObject(ctx, w.object(key, contentType, body)); err != nil {
		return fmt.Errorf("s3blob: put %s: %w", key, err)
	}
	return nil
}

// PutMultipart streams a JSON-lines object of unknown length in parts of at
// least partSize bytes.
func (w *Writer) PutMultipart(ctx context.Context, key string, body io.Reader, partSize int64) error {
	up := manager.NewUploader(w.api, func(u *manager.Uploader) {
		u.PartSize = max(partSize, minPartSize)
	})
	if _, err := up.Upload(ctx, w.object(key, jsonlContentType, body)); err != nil {
		return fmt.Errorf("s3blob: multipart put %s: %w", key, err)
	}
	return nil
}
