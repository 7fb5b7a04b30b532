package bpmn

import (
	"fmt"

	"github.com/leanflow/leanflow/pkg/models"
)

// LaneDiscriminator selects the activity attribute that groups lanes.
type LaneDiscriminator string

const (
	DiscriminatorNone        LaneDiscriminator = "none"
	DiscriminatorResponsible LaneDiscriminator = "responsible"
	DiscriminatorAutomation  LaneDiscriminator = "automation"
)

// DefaultLongRunningThresholdMin is the duration above which an activity gets
// a timer boundary event. Tunable per request; the default has no documented
// business justification beyond the source system's configuration.
const DefaultLongRunningThresholdMin = 60

// PipelineConfig parameterizes the graph builder for one of the four diagram
// styles. The four types behave as strategies over a single pipeline, so this
// is a plain configuration record rather than a builder hierarchy.
type PipelineConfig struct {
	Discriminator           LaneDiscriminator
	InsertGateways          bool
	InsertBoundaryTimers    bool
	UseMessageFlows         bool
	LongRunningThresholdMin float64
	ShowTimes               bool
}

// SelectMode maps a diagram type to its pipeline configuration. It is the
// single entry guard: an empty activity list or unknown type is rejected here
// before any downstream stage runs.
func SelectMode(diagramType models.DiagramType, activities []*models.Activity) (PipelineConfig, error) {
	if len(activities) == 0 {
		return PipelineConfig{}, ErrEmptyProcess
	}

	cfg := PipelineConfig{LongRunningThresholdMin: DefaultLongRunningThresholdMin}

	switch diagramType {
	case models.DiagramTypeSequential:
		cfg.Discriminator = DiscriminatorNone
	case models.DiagramTypePoolsByResponsible:
		cfg.Discriminator = DiscriminatorResponsible
		cfg.UseMessageFlows = true
	case models.DiagramTypeAutomationFocus:
		cfg.Discriminator = DiscriminatorAutomation
	case models.DiagramTypeComplete:
		cfg.Discriminator = DiscriminatorResponsible
		cfg.InsertGateways = true
		cfg.InsertBoundaryTimers = true
		cfg.UseMessageFlows = true
	default:
		return PipelineConfig{}, fmt.Errorf("%w: %q", ErrInvalidDiagramType, diagramType)
	}

	return cfg, nil
}
