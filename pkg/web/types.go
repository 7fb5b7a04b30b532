// Package web provides HTTP handlers and REST API endpoints for process and
// diagram management.
package web

import "github.com/leanflow/leanflow/pkg/models"

// ErrorResponse represents a standardized API error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// DecisionRequest represents decision metadata on an activity.
type DecisionRequest struct {
	Question string   `json:"question" validate:"required"`
	Branches []string `json:"branches" validate:"required,min=2,dive,required"`
}

// ActivityRequest represents one row of an activity table.
type ActivityRequest struct {
	ID              string           `json:"id"`
	Name            string           `json:"name"             validate:"required,min=1"`
	Description     string           `json:"description"`
	Responsible     string           `json:"responsible"`
	DurationMinutes float64          `json:"duration_minutes" validate:"min=0"`
	Automated       bool             `json:"automated"`
	Decision        *DecisionRequest `json:"decision,omitempty"`
}

// CreateProcessRequest represents the request body for creating a new process.
type CreateProcessRequest struct {
	Name        string            `json:"name"        validate:"required,min=3"`
	Description string            `json:"description"`
	PoolName    string            `json:"pool_name"`
	Owner       string            `json:"owner"`
	Activities  []ActivityRequest `json:"activities"  validate:"required,min=1,dive"`
}

// UpdateActivitiesRequest replaces a process's activity table.
type UpdateActivitiesRequest struct {
	Activities []ActivityRequest `json:"activities" validate:"required,min=1,dive"`
}

// RegenerateDiagramRequest carries an edited activity table for regeneration
// under the stored diagram configuration.
type RegenerateDiagramRequest struct {
	Activities []ActivityRequest `json:"activities" validate:"required,min=1,dive"`
}

func (r ActivityRequest) toModel(sequenceIndex int) *models.Activity {
	activity := &models.Activity{
		ID:              r.ID,
		SequenceIndex:   sequenceIndex,
		Name:            r.Name,
		Description:     r.Description,
		Responsible:     r.Responsible,
		DurationMinutes: r.DurationMinutes,
		Automated:       r.Automated,
	}

	if r.Decision != nil {
		activity.Decision = &models.Decision{
			Question: r.Decision.Question,
			Branches: r.Decision.Branches,
		}
	}

	return activity
}

func toModelActivities(rows []ActivityRequest) []*models.Activity {
	activities := make([]*models.Activity, len(rows))
	for i, row := range rows {
		activities[i] = row.toModel(i)
	}

	return activities
}
