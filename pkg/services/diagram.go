package services

import (
	"context"
	"fmt"
	"time"

	"github.com/leanflow/leanflow/pkg/bpmn"
	"github.com/leanflow/leanflow/pkg/eventbus"
	"github.com/leanflow/leanflow/pkg/events"
	"github.com/leanflow/leanflow/pkg/models"
	"github.com/leanflow/leanflow/pkg/otelhelper"
	"github.com/leanflow/leanflow/pkg/persistence"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Diagram runs the generation pipeline against stored processes and carries
// each diagram's configuration for later regeneration.
type Diagram struct {
	persistence persistence.Persistence
	publisher   eventbus.EventPublisher
	tracer      trace.Tracer
}

// NewDiagram creates a new diagram service.
func NewDiagram(persistence persistence.Persistence, publisher eventbus.EventPublisher, tracer trace.Tracer) *Diagram {
	return &Diagram{
		persistence: persistence,
		publisher:   publisher,
		tracer:      tracer,
	}
}

// GenerateDiagramRequest selects the diagram flavor for one generation call.
type GenerateDiagramRequest struct {
	DiagramType models.DiagramType `json:"diagram_type" validate:"required,oneof=complete sequential pools_by_responsible automation_focus"`
	PoolName    string             `json:"pool_name"`
	UseLanes    *bool              `json:"use_lanes"`
	ShowTimes   *bool              `json:"show_times"`

	LongRunningThresholdMin float64 `json:"long_running_threshold_min" validate:"min=0"`
}

// Generate runs the pipeline for a stored process and records the result with
// its configuration. A failed run leaves any previously stored diagram
// untouched.
func (d *Diagram) Generate(ctx context.Context, processID string, req GenerateDiagramRequest) (*models.Process, error) {
	ctx, span := otelhelper.StartSpan(ctx, d.tracer, "diagram.generate",
		attribute.String(otelhelper.ProcessIDKey, processID),
		attribute.String(otelhelper.DiagramTypeKey, string(req.DiagramType)),
	)
	defer span.End()

	process, err := d.persistence.ProcessByID(ctx, processID)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	opts := bpmn.DefaultOptions(req.DiagramType)

	opts.PoolName = process.PoolName
	if req.PoolName != "" {
		opts.PoolName = req.PoolName
	}

	if req.UseLanes != nil {
		opts.UseLanes = *req.UseLanes
	}

	if req.ShowTimes != nil {
		opts.ShowTimes = *req.ShowTimes
	}

	opts.LongRunningThresholdMin = req.LongRunningThresholdMin

	result, err := bpmn.Generate(process.Activities, opts)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	span.SetAttributes(
		attribute.Int(otelhelper.ActivityCountKey, len(result.Activities)),
		attribute.Int(otelhelper.LaneCountKey, len(result.Pool.Lanes)),
	)

	process.Diagram = &models.DiagramRecord{
		Type:                    req.DiagramType,
		PoolName:                opts.PoolName,
		UseLanes:                opts.UseLanes,
		ShowTimes:               opts.ShowTimes,
		LongRunningThresholdMin: opts.LongRunningThresholdMin,
		XML:                     result.XML,
		GeneratedAt:             time.Now().UTC(),
	}
	process.UpdatedAt = process.Diagram.GeneratedAt

	if err := d.persistence.SaveProcess(ctx, process); err != nil {
		otelhelper.SetError(span, err)

		return nil, fmt.Errorf("failed to save process: %w", err)
	}

	event := events.DiagramGenerated{
		BaseEvent:   events.NewBaseEvent(events.DiagramGeneratedEvent, process.ID),
		DiagramType: req.DiagramType,
		LaneCount:   len(result.Pool.Lanes),
		XMLBytes:    len(result.XML),
	}
	if err := d.publisher.Publish(ctx, process.ID, event); err != nil {
		return nil, fmt.Errorf("failed to publish diagram.generated: %w", err)
	}

	return process, nil
}

// Regenerate re-runs the pipeline over an edited activity table using the
// configuration carried by the stored diagram. Validation failures reject the
// edit and leave both the stored table and the stored diagram untouched.
func (d *Diagram) Regenerate(ctx context.Context, processID string, edited []*models.Activity) (*models.Process, error) {
	ctx, span := otelhelper.StartSpan(ctx, d.tracer, "diagram.regenerate",
		attribute.String(otelhelper.ProcessIDKey, processID),
	)
	defer span.End()

	process, err := d.persistence.ProcessByID(ctx, processID)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	if process.Diagram == nil {
		return nil, ErrNoDiagram
	}

	opts := bpmn.Options{
		DiagramType:             process.Diagram.Type,
		PoolName:                process.Diagram.PoolName,
		UseLanes:                process.Diagram.UseLanes,
		ShowTimes:               process.Diagram.ShowTimes,
		LongRunningThresholdMin: process.Diagram.LongRunningThresholdMin,
	}

	result, err := bpmn.Regenerate(edited, opts)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	process.Activities = result.Activities
	process.Diagram.XML = result.XML
	process.Diagram.GeneratedAt = time.Now().UTC()
	process.UpdatedAt = process.Diagram.GeneratedAt

	if err := d.persistence.SaveProcess(ctx, process); err != nil {
		otelhelper.SetError(span, err)

		return nil, fmt.Errorf("failed to save process: %w", err)
	}

	event := events.DiagramRegenerated{
		BaseEvent:     events.NewBaseEvent(events.DiagramRegeneratedEvent, process.ID),
		DiagramType:   process.Diagram.Type,
		ActivityCount: len(result.Activities),
		XMLBytes:      len(result.XML),
	}
	if err := d.publisher.Publish(ctx, process.ID, event); err != nil {
		return nil, fmt.Errorf("failed to publish diagram.regenerated: %w", err)
	}

	return process, nil
}

// FetchDiagram returns the stored diagram for a process, or ErrNoDiagram when
// none has been generated yet.
func (d *Diagram) FetchDiagram(ctx context.Context, processID string) (*models.DiagramRecord, error) {
	process, err := d.persistence.ProcessByID(ctx, processID)
	if err != nil {
		return nil, err
	}

	if process.Diagram == nil {
		return nil, ErrNoDiagram
	}

	return process.Diagram, nil
}
