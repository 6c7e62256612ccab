package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"mediamap/internal/service"
)

type MockMapService struct {
	mock.Mock
}

func (m *MockMapService) Generate(ctx context.Context, req service.GenerateRequest) (*service.GenerateResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.GenerateResult), args.Error(1)
}
