package models

import "time"

// Process is a persisted business process: the activity table plus the last
// generated diagram, if any.
type Process struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"        validate:"required,min=3"`
	Description string         `json:"description"`
	PoolName    string         `json:"pool_name"`
	Owner       string         `json:"owner"`
	Activities  []*Activity    `json:"activities"`
	Diagram     *DiagramRecord `json:"diagram,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// DiagramRecord stores the output of the last generation together with the
// configuration it ran under. Regeneration reuses this configuration instead
// of re-deriving it.
type DiagramRecord struct {
	Type                    DiagramType `json:"type"`
	PoolName                string      `json:"pool_name"`
	UseLanes                bool        `json:"use_lanes"`
	ShowTimes               bool        `json:"show_times"`
	LongRunningThresholdMin float64     `json:"long_running_threshold_min"`
	XML                     string      `json:"xml"`
	GeneratedAt             time.Time   `json:"generated_at"`
}
