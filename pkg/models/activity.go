// Package models defines the core domain models for process analysis and BPMN generation.
package models

import "slices"

// DiagramType selects one of the four supported diagram styles.
type DiagramType string

const (
	DiagramTypeComplete           DiagramType = "complete"             // Lanes, gateways, timers and message flows
	DiagramTypeSequential         DiagramType = "sequential"           // Straight chain, single implicit lane
	DiagramTypePoolsByResponsible DiagramType = "pools_by_responsible" // Lanes by responsible, message flows on handoffs
	DiagramTypeAutomationFocus    DiagramType = "automation_focus"     // Manual vs. automated lanes
)

// Decision carries the branch metadata attached by the upstream classification
// stage. It is consumed verbatim when gateway insertion is active; this layer
// never derives it.
type Decision struct {
	Question string   `json:"question" validate:"required"`
	Branches []string `json:"branches" validate:"required,min=2,dive,required"`
}

// Activity is one row of the source process table.
type Activity struct {
	ID              string    `json:"id"               validate:"required"`
	SequenceIndex   int       `json:"sequence_index"   validate:"min=0"`
	Name            string    `json:"name"             validate:"required"`
	Description     string    `json:"description"`
	Responsible     string    `json:"responsible"`
	DurationMinutes float64   `json:"duration_minutes" validate:"min=0"`
	Automated       bool      `json:"automated"`
	Decision        *Decision `json:"decision,omitempty"`
}

// Clone returns a deep copy so pipeline stages can normalize labels without
// mutating caller-owned rows.
func (a *Activity) Clone() *Activity {
	clone := *a
	if a.Decision != nil {
		d := *a.Decision
		d.Branches = append([]string(nil), a.Decision.Branches...)
		clone.Decision = &d
	}

	return &clone
}

// SortActivities returns a copy of the slice ordered by sequence index.
func SortActivities(activities []*Activity) []*Activity {
	sorted := append([]*Activity(nil), activities...)
	slices.SortStableFunc(sorted, func(a, b *Activity) int {
		return a.SequenceIndex - b.SequenceIndex
	})

	return sorted
}
