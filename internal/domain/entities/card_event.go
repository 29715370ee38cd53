package entities

import (
	"time"

	"github.com/google/uuid"
)

// CardEventType represents what changed in a wallet
type CardEventType string

const (
	CardEventCreated          CardEventType = "card_created"
	CardEventDeleted          CardEventType = "card_deleted"
	CardEventLocationsUpdated CardEventType = "card_locations_updated"
	CardEventShareAdded       CardEventType = "share_added"
	CardEventShareRemoved     CardEventType = "share_removed"
)

// CardEvent is published whenever a wallet or its sharing changes
type CardEvent struct {
	ID        string        `json:"id"`
	OwnerID   string        `json:"owner_id"`
	CardID    string        `json:"card_id,omitempty"`
	TargetID  string        `json:"target_id,omitempty"`
	EventType CardEventType `json:"event_type"`
	Timestamp time.Time     `json:"timestamp"`
}

// NewCardEvent creates a new card event
func NewCardEvent(ownerID, cardID string, eventType CardEventType) *CardEvent {
	return &CardEvent{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		CardID:    cardID,
		EventType: eventType,
		Timestamp: time.Now().UTC(),
	}
}

// NewShareEvent creates an event for a share being added or removed
func NewShareEvent(ownerID, targetID string, eventType CardEventType) *CardEvent {
	e := NewCardEvent(ownerID, "", eventType)
	e.TargetID = targetID
	return e
}
