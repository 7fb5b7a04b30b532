package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/leanflow/leanflow/pkg/eventbus"
	"github.com/leanflow/leanflow/pkg/events"
	"github.com/leanflow/leanflow/pkg/models"
	"github.com/leanflow/leanflow/pkg/persistence"
	"github.com/leanflow/leanflow/pkg/schema"
)

var (
	// ErrProcessNotFound is returned when a process is not found.
	ErrProcessNotFound = persistence.ErrProcessNotFound
)

// Process manages the process catalog: the activity tables diagrams are
// generated from.
type Process struct {
	persistence persistence.Persistence
	publisher   eventbus.EventPublisher
}

// NewProcess creates a new process service.
func NewProcess(persistence persistence.Persistence, publisher eventbus.EventPublisher) *Process {
	return &Process{
		persistence: persistence,
		publisher:   publisher,
	}
}

// HealthCheck checks the health of the persistence layer.
func (p *Process) HealthCheck(ctx context.Context) (string, bool) {
	if p.persistence == nil {
		return "Persistence layer not initialized", false
	}

	err := p.persistence.HealthCheck(ctx)
	if err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

// List retrieves all stored processes.
func (p *Process) List(ctx context.Context) ([]*models.Process, error) {
	processes, err := p.persistence.Processes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list processes: %w", err)
	}

	return processes, nil
}

// FetchByID retrieves a process by its ID.
func (p *Process) FetchByID(ctx context.Context, id string) (*models.Process, error) {
	process, err := p.persistence.ProcessByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return process, nil
}

// Create adds a new process to the catalog. Activities are re-sequenced in
// list order, so callers send tables, not indexes.
func (p *Process) Create(ctx context.Context, process *models.Process) (*models.Process, error) {
	if process == nil {
		return nil, ErrProcessNil
	}

	if process.Name == "" {
		return nil, ErrProcessNameRequired
	}

	if len(process.Activities) == 0 {
		return nil, ErrActivitiesRequired
	}

	now := time.Now().UTC()
	process.ID = uuid.New().String()
	process.CreatedAt = now
	process.UpdatedAt = now

	for i, activity := range process.Activities {
		if activity.ID == "" {
			activity.ID = uuid.New().String()
		}

		activity.SequenceIndex = i
	}

	if err := p.persistence.SaveProcess(ctx, process); err != nil {
		return nil, fmt.Errorf("failed to save process: %w", err)
	}

	event := events.ProcessCreated{
		BaseEvent:     events.NewBaseEvent(events.ProcessCreatedEvent, process.ID),
		Name:          process.Name,
		ActivityCount: len(process.Activities),
	}
	if err := p.publisher.Publish(ctx, process.ID, event); err != nil {
		return nil, fmt.Errorf("failed to publish process.created: %w", err)
	}

	return process, nil
}

// UpdateActivities replaces a process's activity table. Sequence indexes are
// reassigned in list order.
func (p *Process) UpdateActivities(ctx context.Context, id string, activities []*models.Activity) (*models.Process, error) {
	if len(activities) == 0 {
		return nil, ErrActivitiesRequired
	}

	process, err := p.persistence.ProcessByID(ctx, id)
	if err != nil {
		return nil, err
	}

	for i, activity := range activities {
		if activity.ID == "" {
			activity.ID = uuid.New().String()
		}

		activity.SequenceIndex = i
	}

	process.Activities = activities
	process.UpdatedAt = time.Now().UTC()

	if err := p.persistence.SaveProcess(ctx, process); err != nil {
		return nil, fmt.Errorf("failed to save process: %w", err)
	}

	event := events.ProcessUpdated{
		BaseEvent:     events.NewBaseEvent(events.ProcessUpdatedEvent, process.ID),
		ActivityCount: len(process.Activities),
	}
	if err := p.publisher.Publish(ctx, process.ID, event); err != nil {
		return nil, fmt.Errorf("failed to publish process.updated: %w", err)
	}

	return process, nil
}

// Delete removes a process and notifies subscribers.
func (p *Process) Delete(ctx context.Context, id string) error {
	if err := p.persistence.DeleteProcess(ctx, id); err != nil {
		return err
	}

	event := events.ProcessDeleted{
		BaseEvent: events.NewBaseEvent(events.ProcessDeletedEvent, id),
	}

	return p.publisher.Publish(ctx, id, event)
}

// Import validates an exported activity table against the JSON schema and
// creates a process from it.
func (p *Process) Import(ctx context.Context, document map[string]any) (*models.Process, error) {
	if err := schema.ValidateActivityTable(document); err != nil {
		return nil, NewValidationError("Import", "INVALID_DOCUMENT", err.Error(), ErrInvalidRequest)
	}

	payload, err := json.Marshal(document)
	if err != nil {
		return nil, fmt.Errorf("failed to re-encode document: %w", err)
	}

	var process models.Process
	if err := json.Unmarshal(payload, &process); err != nil {
		return nil, NewValidationError("Import", "INVALID_DOCUMENT", err.Error(), ErrInvalidRequest)
	}

	return p.Create(ctx, &process)
}
