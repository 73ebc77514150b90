package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"trackapi/internal/model"
	"trackapi/internal/repository"
	"trackapi/internal/storage"
)

var (
	ErrIDRequired   = errors.New("id is required")
	ErrNotFound     = errors.New("capture not found")
	ErrEmptyPayload = errors.New("payload is empty")
)

const presignExpiry = 15 * time.Minute

// CaptureListResult is the service-level DTO for paginated captures.
type CaptureListResult struct {
	Items []model.Capture `json:"data"`
	Total int             `json:"total"`
}

// CaptureDetail is a capture with a time-limited download link for its payload.
type CaptureDetail struct {
	model.Capture
	DownloadURL string `json:"download_url"`
}

// CaptureService archives echoed payloads and exposes the capture ledger.
type CaptureService interface {
	// Record stores body in object storage and writes the ledger row.
	// The stored object is removed again if the ledger insert fails.
	Record(ctx context.Context, requestID, eventType string, body []byte) (*model.Capture, error)

	// List returns captures using limit/offset and a total count.
	List(ctx context.Context, limit, offset int) (*CaptureListResult, error)

	// Get returns a capture by ID with a presigned download URL.
	Get(ctx context.Context, id string) (*CaptureDetail, error)

	// Open streams the stored payload of a capture. The caller closes the reader.
	Open(ctx context.Context, id string) (io.ReadCloser, *model.Capture, error)

	// Delete removes a capture from both storage and repository.
	Delete(ctx context.Context, id string) error
}

type captureService struct {
	store storage.Archive
	repo  repository.CaptureRepository
	now   func() time.Time
}

// NewCaptureService constructs a new CaptureService.
func NewCaptureService(store storage.Archive, repo repository.CaptureRepository) CaptureService {
	return &captureService{store: store, repo: repo, now: time.Now}
}

func (s *captureService) Record(ctx context.Context, requestID, eventType string, body []byte) (*model.Capture, error) {
	if len(body) == 0 {
		return nil, ErrEmptyPayload
	}

	id := uuid.NewString()
	obj, err := s.store.Put(ctx, storage.Payload{
		CaptureID: id,
		RequestID: requestID,
		EventType: eventType,
		Body:      body,
	})
	if err != nil {
		return nil, fmt.Errorf("upload to storage: %w", err)
	}

	c := &model.Capture{
		ID:          id,
		RequestID:   requestID,
		Type:        eventType,
		StoragePath: obj.Key,
		Size:        obj.Size,
		ContentType: obj.ContentType,
		CreatedAt:   s.now().UTC(),
	}
	stored, err := s.repo.Create(ctx, c)
	if err != nil {
		if delErr := s.store.Remove(ctx, obj.Key); delErr != nil {
			return nil, fmt.Errorf("db save failed: %v; rollback delete failed: %v", err, delErr)
		}
		return nil, fmt.Errorf("db save failed: %w", err)
	}
	return stored, nil
}

func (s *captureService) List(ctx context.Context, limit, offset int) (*CaptureListResult, error) {
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	res, err := s.repo.List(ctx, repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	return &CaptureListResult{Items: res.Items, Total: res.Total}, nil
}

func (s *captureService) Get(ctx context.Context, id string) (*CaptureDetail, error) {
	c, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	u, err := s.store.DownloadURL(ctx, c.StoragePath, presignExpiry)
	if err != nil {
		return nil, fmt.Errorf("presign: %w", err)
	}
	return &CaptureDetail{Capture: *c, DownloadURL: u}, nil
}

func (s *captureService) Open(ctx context.Context, id string) (io.ReadCloser, *model.Capture, error) {
	c, err := s.find(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	rc, _, err := s.store.Open(ctx, c.StoragePath)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, fmt.Errorf("open storage: %w", err)
	}
	return rc, c, nil
}

// Delete removes the object first; the row is kept if that fails so the payload is not orphaned.
func (s *captureService) Delete(ctx context.Context, id string) error {
	c, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.Remove(ctx, c.StoragePath); err != nil {
		return fmt.Errorf("delete storage: %w", err)
	}
	return s.repo.Delete(ctx, id)
}

func (s *captureService) find(ctx context.Context, id string) (*model.Capture, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return c, nil
}
