package mocks

import (
	"context"

	"trackapi/internal/model"
	"trackapi/internal/repository"

	"github.com/stretchr/testify/mock"
)

type MockCaptureRepository struct {
	mock.Mock
}

func (m *MockCaptureRepository) Create(ctx context.Context, c *model.Capture) (*model.Capture, error) {
	args := m.Called(ctx, c)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Capture), args.Error(1)
}

func (m *MockCaptureRepository) FindByID(ctx context.Context, id string) (*model.Capture, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Capture), args.Error(1)
}

func (m *MockCaptureRepository) List(ctx context.Context, pq repository.PageQuery) (*repository.PageResult[model.Capture], error) {
	args := m.Called(ctx, pq)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.PageResult[model.Capture]), args.Error(1)
}

func (m *MockCaptureRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
