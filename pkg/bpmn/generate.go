package bpmn

import (
	"fmt"
	"strings"

	"github.com/leanflow/leanflow/pkg/models"
)

const defaultPoolName = "Proceso"

// Options parameterize one generation call. The zero value is not usable;
// DiagramType is required.
type Options struct {
	DiagramType models.DiagramType
	PoolName    string
	UseLanes    bool // false collapses every mode to a single implicit lane
	ShowTimes   bool
	// LongRunningThresholdMin overrides the boundary-timer threshold when > 0.
	LongRunningThresholdMin float64
}

// DefaultOptions mirror the source system's generation defaults.
func DefaultOptions(diagramType models.DiagramType) Options {
	return Options{
		DiagramType: diagramType,
		PoolName:    defaultPoolName,
		UseLanes:    true,
		ShowTimes:   true,
	}
}

// Result is one generation's output: the XML document plus the activity list
// as actually drawn, for the edit-and-regenerate workflow.
type Result struct {
	XML        string
	Pool       *Pool
	Activities []*models.Activity
}

// Stage hooks, swappable in tests to count invocations. Production code never
// touches these.
var (
	layoutFn    = Layout
	serializeFn = Serialize
)

// Generate runs the full pipeline: mode selection, lane assignment, graph
// building, layout, serialization. It is a pure function of its arguments;
// identical input produces byte-identical XML.
func Generate(activities []*models.Activity, opts Options) (*Result, error) {
	cfg, err := SelectMode(opts.DiagramType, activities)
	if err != nil {
		return nil, err
	}

	if !opts.UseLanes {
		cfg.Discriminator = DiscriminatorNone
		cfg.UseMessageFlows = false
	}

	cfg.ShowTimes = opts.ShowTimes
	if opts.LongRunningThresholdMin > 0 {
		cfg.LongRunningThresholdMin = opts.LongRunningThresholdMin
	}

	poolName := opts.PoolName
	if poolName == "" {
		poolName = defaultPoolName
	}

	sorted := models.SortActivities(activities)
	pool := AssignLanes(poolName, sorted, cfg.Discriminator)

	graph, err := Build(pool, sorted, cfg)
	if err != nil {
		return nil, err
	}

	if err := layoutFn(graph); err != nil {
		return nil, err
	}

	xmlText, err := serializeFn(graph)
	if err != nil {
		return nil, err
	}

	return &Result{XML: xmlText, Pool: pool, Activities: sorted}, nil
}

// Regenerate re-validates an edited activity list against the ingestion
// invariants and reruns the pipeline with the carried options. Unchanged
// input yields byte-identical XML, so diagram diffs reflect edits only.
func Regenerate(edited []*models.Activity, opts Options) (*Result, error) {
	if err := ValidateActivities(edited); err != nil {
		return nil, err
	}

	return Generate(edited, opts)
}

// ValidateActivities checks the Activity invariants: unique non-empty ids,
// non-empty names, non-negative durations, and sequence indexes forming a
// contiguous permutation of 0..n-1. All violations are collected, not just
// the first.
func ValidateActivities(activities []*models.Activity) error {
	if len(activities) == 0 {
		return ErrEmptyProcess
	}

	var violations []ActivityViolation

	seenIDs := make(map[string]int, len(activities))
	seenSeq := make(map[int]int, len(activities))

	for i, a := range activities {
		if a == nil {
			violations = append(violations, ActivityViolation{Index: i, Field: "activity", Reason: "is missing"})

			continue
		}

		if strings.TrimSpace(a.ID) == "" {
			violations = append(violations, ActivityViolation{Index: i, Field: "id", Reason: "is empty"})
		} else if prev, dup := seenIDs[a.ID]; dup {
			violations = append(violations, ActivityViolation{
				Index:      i,
				ActivityID: a.ID,
				Field:      "id",
				Reason:     fmt.Sprintf("duplicates row %d", prev),
			})
		} else {
			seenIDs[a.ID] = i
		}

		if strings.TrimSpace(a.Name) == "" {
			violations = append(violations, ActivityViolation{Index: i, ActivityID: a.ID, Field: "name", Reason: "is empty"})
		}

		if a.DurationMinutes < 0 {
			violations = append(violations, ActivityViolation{Index: i, ActivityID: a.ID, Field: "duration_minutes", Reason: "is negative"})
		}

		if a.SequenceIndex < 0 || a.SequenceIndex >= len(activities) {
			violations = append(violations, ActivityViolation{
				Index:      i,
				ActivityID: a.ID,
				Field:      "sequence_index",
				Reason:     fmt.Sprintf("%d is outside 0..%d", a.SequenceIndex, len(activities)-1),
			})
		} else if prev, dup := seenSeq[a.SequenceIndex]; dup {
			violations = append(violations, ActivityViolation{
				Index:      i,
				ActivityID: a.ID,
				Field:      "sequence_index",
				Reason:     fmt.Sprintf("%d duplicates row %d", a.SequenceIndex, prev),
			})
		} else {
			seenSeq[a.SequenceIndex] = i
		}
	}

	if len(violations) > 0 {
		return &InvalidActivitiesError{Violations: violations}
	}

	return nil
}
