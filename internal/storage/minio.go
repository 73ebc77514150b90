package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"trackapi/internal/config"
)

const bucketCheckTimeout = 10 * time.Second

// minioArchive implements Archive on an S3-compatible backend (MinIO, AWS S3, etc.).
// It is safe for concurrent use by multiple goroutines.
type minioArchive struct {
	client *minio.Client
	bucket string
	now    func() time.Time
}

// NewMinIO connects the payload archive. Outgoing calls are traced, and the
// bucket is created if missing.
func NewMinIO(cfg config.MinIOConfig) (Archive, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("minio endpoint is required")
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("minio credentials are required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("minio bucket is required")
	}

	a, err := newMinioArchive(cfg)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), bucketCheckTimeout)
	defer cancel()

	exists, err := a.client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket existence: %w", err)
	}
	if !exists {
		if err := a.client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket: %w", err)
		}
	}
	return a, nil
}

func newMinioArchive(cfg config.MinIOConfig) (*minioArchive, error) {
	cli, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:     credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure:    cfg.UseSSL,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	return &minioArchive{client: cli, bucket: cfg.Bucket, now: time.Now}, nil
}

func (a *minioArchive) Put(ctx context.Context, p Payload) (Stored, error) {
	if len(p.Body) == 0 {
		return Stored{}, ErrEmptyPayload
	}
	if p.CaptureID == "" {
		return Stored{}, fmt.Errorf("capture id is required")
	}

	key := PayloadKey(p.EventType, p.CaptureID)
	info, err := a.client.PutObject(ctx, a.bucket, key, bytes.NewReader(p.Body), int64(len(p.Body)), minio.PutObjectOptions{
		ContentType:  payloadContentType,
		UserMetadata: p.metadata(),
	})
	if err != nil {
		return Stored{}, fmt.Errorf("put %s: %w", key, err)
	}
	return Stored{
		Key:         key,
		Size:        info.Size,
		ETag:        info.ETag,
		ContentType: payloadContentType,
		RequestID:   p.RequestID,
		EventType:   p.EventType,
		StoredAt:    a.now().UTC(), // PutObject does not report LastModified
	}, nil
}

func (a *minioArchive) Open(ctx context.Context, key string) (io.ReadCloser, Stored, error) {
	obj, err := a.client.GetObject(ctx, a.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, Stored{}, mapNotFound(err)
	}
	// GetObject is lazy; Stat performs the request.
	st, err := obj.Stat()
	if err != nil {
		obj.Close()
		return nil, Stored{}, mapNotFound(err)
	}
	return obj, storedFromObject(key, st), nil
}

func (a *minioArchive) Remove(ctx context.Context, key string) error {
	return a.client.RemoveObject(ctx, a.bucket, key, minio.RemoveObjectOptions{})
}

func (a *minioArchive) DownloadURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	params := url.Values{}
	params.Set("response-content-type", payloadContentType)
	u, err := a.client.PresignedGetObject(ctx, a.bucket, key, expiry, params)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

func storedFromObject(key string, st minio.ObjectInfo) Stored {
	return Stored{
		Key:         key,
		Size:        st.Size,
		ETag:        st.ETag,
		ContentType: st.ContentType,
		RequestID:   lookupMeta(st.UserMetadata, metaRequestID),
		EventType:   lookupMeta(st.UserMetadata, metaEventType),
		StoredAt:    st.LastModified,
	}
}

func mapNotFound(err error) error {
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return fmt.Errorf("%w: %v", ErrObjectNotFound, err)
	}
	return err
}

var _ Archive = (*minioArchive)(nil)
