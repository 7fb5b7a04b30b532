// Package bpmn converts an ordered activity list into a BPMN 2.0 XML document.
//
// The pipeline is a pure function of (activities, options): diagram type
// selection, lane assignment, graph building, grid layout and XML
// serialization run in that order with no state between calls, so identical
// input always yields byte-identical XML.
package bpmn

import (
	"errors"
	"fmt"
	"strings"
)

// User-input errors. The caller can fix these and retry.
var (
	ErrEmptyProcess       = errors.New("process has no activities")
	ErrInvalidDiagramType = errors.New("invalid diagram type")
	ErrUnbalancedGateway  = errors.New("unbalanced gateway")
)

// ErrEmptyGraph is returned by the layout engine for a graph with no nodes.
// The empty-process guard runs before any graph is built, so it indicates a
// caller bypassing the pipeline entry point.
var ErrEmptyGraph = errors.New("graph has no nodes")

// DanglingNodeError reports a post-build connectivity violation. It is an
// internal invariant failure: the builder produced a graph it should never
// produce, and generation aborts without emitting XML.
type DanglingNodeError struct {
	NodeID string
	Reason string
}

func (e *DanglingNodeError) Error() string {
	return fmt.Sprintf("dangling node %s: %s", e.NodeID, e.Reason)
}

// ActivityViolation describes one invalid row of an edited activity list.
type ActivityViolation struct {
	Index      int    `json:"index"`
	ActivityID string `json:"activity_id,omitempty"`
	Field      string `json:"field"`
	Reason     string `json:"reason"`
}

func (v ActivityViolation) String() string {
	if v.ActivityID != "" {
		return fmt.Sprintf("activity %s (row %d): %s %s", v.ActivityID, v.Index, v.Field, v.Reason)
	}

	return fmt.Sprintf("row %d: %s %s", v.Index, v.Field, v.Reason)
}

// InvalidActivitiesError collects every violation found in an edited activity
// list, not just the first, so the caller can surface them all at once.
type InvalidActivitiesError struct {
	Violations []ActivityViolation
}

func (e *InvalidActivitiesError) Error() string {
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = v.String()
	}

	return "invalid activities: " + strings.Join(parts, "; ")
}

// IsUserError reports whether err is caused by caller input rather than an
// internal invariant failure.
func IsUserError(err error) bool {
	var invalid *InvalidActivitiesError

	return errors.Is(err, ErrEmptyProcess) ||
		errors.Is(err, ErrInvalidDiagramType) ||
		errors.Is(err, ErrUnbalancedGateway) ||
		errors.As(err, &invalid)
}
