// Package events defines the workflow lifecycle events published by the API.
package events

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

// Topic carries every workflow lifecycle event.
const Topic = "agentflow.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	WorkflowCreatedEvent EventType = "workflow.created"
	WorkflowUpdatedEvent EventType = "workflow.updated"
	WorkflowDeletedEvent EventType = "workflow.deleted"
)

type BaseEvent struct {
	ID         string         `json:"id"`
	Type       EventType      `json:"type"`
	Timestamp  time.Time      `json:"timestamp"`
	WorkflowID string         `json:"workflow_id"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// NewBaseEvent stamps a new event of eventType for workflowID.
func NewBaseEvent(eventType EventType, workflowID string) BaseEvent {
	return BaseEvent{
		ID:         uuid.New().String(),
		Type:       eventType,
		Timestamp:  time.Now().UTC(),
		WorkflowID: workflowID,
	}
}

type WorkflowCreated struct {
	BaseEvent

	Name      string `json:"name"`
	NodeCount int    `json:"node_count"`
	EdgeCount int    `json:"edge_count"`
}

func (w WorkflowCreated) GetType() EventType {
	return WorkflowCreatedEvent
}

type WorkflowUpdated struct {
	BaseEvent

	Name      string `json:"name"`
	NodeCount int    `json:"node_count"`
	EdgeCount int    `json:"edge_count"`
}

func (w WorkflowUpdated) GetType() EventType {
	return WorkflowUpdatedEvent
}

type WorkflowDeleted struct {
	BaseEvent

	Name string `json:"name,omitempty"`
}

func (w WorkflowDeleted) GetType() EventType {
	return WorkflowDeletedEvent
}

// New returns an empty event value for eventType, ready to unmarshal into.
func New(eventType EventType) (any, bool) {
	switch eventType {
	case WorkflowCreatedEvent:
		return &WorkflowCreated{}, true
	case WorkflowUpdatedEvent:
		return &WorkflowUpdated{}, true
	case WorkflowDeletedEvent:
		return &WorkflowDeleted{}, true
	default:
		return nil, false
	}
}
