package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"mediamap/internal/model"
)

// MockTableRepository is a mock type for repository.TableRepository.
type MockTableRepository struct {
	mock.Mock
}

// Name provides a mock function with given fields:
func (m *MockTableRepository) Name() string {
	args := m.Called()
	return args.String(0)
}

// Load provides a mock function with given fields: ctx
func (m *MockTableRepository) Load(ctx context.Context) (*model.Table, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Table), args.Error(1)
}
