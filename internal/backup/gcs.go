package backup

import (
	"context"
	"fmt"
	"io"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// Uploader puts one object into a bucket.
type Uploader interface {
	Upload(ctx context.Context, bucket, object string, r io.Reader) error
	Close() error
}

// GCSUploader uploads to Google Cloud Storage.
type GCSUploader struct {
	client *storage.Client
}

// NewGCSUploader creates a storage client. With an empty credentialsFile it
// relies on Application Default Credentials.
func NewGCSUploader(ctx context.Context, credentialsFile string) (*GCSUploader, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &GCSUploader{client: client}, nil
}

// Upload implements Uploader.
func (u *GCSUploader) Upload(ctx context.Context, bucket, object string, r io.Reader) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := u.client.Bucket(bucket).Object(object).NewWriter(ctx)
	w.ContentType = "text/csv"
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return fmt.Errorf("copy %s to GCS writer: %w", object, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalize upload of %s: %w", object, err)
	}
	return nil
}

// Close implements Uploader.
func (u *GCSUploader) Close() error {
	return u.client.Close()
}
