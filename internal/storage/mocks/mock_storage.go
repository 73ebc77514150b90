package mocks

import (
	"context"
	"io"
	"time"

	"trackapi/internal/storage"

	"github.com/stretchr/testify/mock"
)

// MockArchive is a testify mock of storage.Archive.
type MockArchive struct {
	mock.Mock
}

func (m *MockArchive) Put(ctx context.Context, p storage.Payload) (storage.Stored, error) {
	args := m.Called(ctx, p)
	if f, ok := args.Get(0).(func(storage.Payload) storage.Stored); ok {
		return f(p), args.Error(1)
	}
	return args.Get(0).(storage.Stored), args.Error(1)
}

func (m *MockArchive) Open(ctx context.Context, key string) (io.ReadCloser, storage.Stored, error) {
	args := m.Called(ctx, key)
	rc, _ := args.Get(0).(io.ReadCloser)
	return rc, args.Get(1).(storage.Stored), args.Error(2)
}

func (m *MockArchive) Remove(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func (m *MockArchive) DownloadURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	args := m.Called(ctx, key, expiry)
	return args.String(0), args.Error(1)
}
