package models

import "time"

// PresenceRecord is the last time a player name was seen online.
// There is at most one record per name.
type PresenceRecord struct {
	Name       string    `bson:"name" json:"name"`
	LastSeenAt time.Time `bson:"lastSeen" json:"lastSeen"`
}

// StatusMessageRef is the persisted identifier of the synced status message
type StatusMessageRef struct {
	Type      string    `bson:"type" json:"type"`
	MessageID string    `bson:"messageId" json:"messageId"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// StatusMessageType is the only StatusMessageRef type in use
const StatusMessageType = "statusMessage"
