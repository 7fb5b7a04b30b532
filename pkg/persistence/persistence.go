// Package persistence provides the data storage abstraction layer for processes.
package persistence

import (
	"context"

	"github.com/leanflow/leanflow/pkg/models"
)

type Persistence interface {
	Processes(ctx context.Context) ([]*models.Process, error)
	SaveProcess(ctx context.Context, process *models.Process) error
	ProcessByID(ctx context.Context, id string) (*models.Process, error)
	DeleteProcess(ctx context.Context, id string) error
	HealthCheck(ctx context.Context) error

	Close(ctx context.Context) error
}
