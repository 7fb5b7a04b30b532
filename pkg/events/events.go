// Package events defines event types and structures for process lifecycle notifications.
package events

import (
	"time"

	"github.com/google/uuid"
	"github.com/leanflow/leanflow/pkg/models"
)

type EventType string

const Topic = "leanflow.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	// Process lifecycle events.
	ProcessCreatedEvent EventType = "process.created"
	ProcessUpdatedEvent EventType = "process.updated"
	ProcessDeletedEvent EventType = "process.deleted"

	// Diagram lifecycle events.
	DiagramGeneratedEvent   EventType = "diagram.generated"
	DiagramRegeneratedEvent EventType = "diagram.regenerated"
)

type BaseEvent struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	ProcessID string         `json:"process_id"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

type ProcessCreated struct {
	BaseEvent

	Name          string `json:"name"`
	ActivityCount int    `json:"activity_count"`
}

func (p ProcessCreated) GetType() EventType {
	return ProcessCreatedEvent
}

type ProcessUpdated struct {
	BaseEvent

	ActivityCount int `json:"activity_count"`
}

func (p ProcessUpdated) GetType() EventType {
	return ProcessUpdatedEvent
}

type ProcessDeleted struct {
	BaseEvent
}

func (p ProcessDeleted) GetType() EventType {
	return ProcessDeletedEvent
}

type DiagramGenerated struct {
	BaseEvent

	DiagramType models.DiagramType `json:"diagram_type"`
	LaneCount   int                `json:"lane_count"`
	XMLBytes    int                `json:"xml_bytes"`
}

func (d DiagramGenerated) GetType() EventType {
	return DiagramGeneratedEvent
}

type DiagramRegenerated struct {
	BaseEvent

	DiagramType   models.DiagramType `json:"diagram_type"`
	ActivityCount int                `json:"activity_count"`
	XMLBytes      int                `json:"xml_bytes"`
}

func (d DiagramRegenerated) GetType() EventType {
	return DiagramRegeneratedEvent
}

func NewBaseEvent(eventType EventType, processID string) BaseEvent {
	return BaseEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		ProcessID: processID,
		Metadata:  make(map[string]any),
	}
}
