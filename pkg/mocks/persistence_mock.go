package mocks

import (
	"context"

	"github.com/leanflow/leanflow/pkg/models"
	"github.com/stretchr/testify/mock"
)

// MockPersistence is a mock implementation of persistence.Persistence interface.
type MockPersistence struct {
	mock.Mock
}

func (m *MockPersistence) Processes(ctx context.Context) ([]*models.Process, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*models.Process), args.Error(1)
}

func (m *MockPersistence) SaveProcess(ctx context.Context, process *models.Process) error {
	args := m.Called(ctx, process)

	return args.Error(0)
}

func (m *MockPersistence) ProcessByID(ctx context.Context, id string) (*models.Process, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.Process), args.Error(1)
}

func (m *MockPersistence) DeleteProcess(ctx context.Context, id string) error {
	args := m.Called(ctx, id)

	return args.Error(0)
}

func (m *MockPersistence) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}

func (m *MockPersistence) Close(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}
