package mocks

import (
	"context"
	"io"

	"trackapi/internal/model"
	"trackapi/internal/service"

	"github.com/stretchr/testify/mock"
)

type MockCaptureService struct {
	mock.Mock
}

func (m *MockCaptureService) Record(ctx context.Context, requestID, eventType string, body []byte) (*model.Capture, error) {
	args := m.Called(ctx, requestID, eventType, body)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Capture), args.Error(1)
}

func (m *MockCaptureService) List(ctx context.Context, limit, offset int) (*service.CaptureListResult, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.CaptureListResult), args.Error(1)
}

func (m *MockCaptureService) Get(ctx context.Context, id string) (*service.CaptureDetail, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.CaptureDetail), args.Error(1)
}

func (m *MockCaptureService) Open(ctx context.Context, id string) (io.ReadCloser, *model.Capture, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(io.ReadCloser), args.Get(1).(*model.Capture), args.Error(2)
}

func (m *MockCaptureService) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
