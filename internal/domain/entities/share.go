package entities

import "time"

// Share grants TargetID read access to all cards of OwnerID.
// The same record backs the owner's "shared with" list and the target's
// "sharing with me" list.
type Share struct {
	OwnerID     string    `json:"owner_id" db:"owner_id"`
	OwnerEmail  string    `json:"owner_email" db:"owner_email"`
	TargetID    string    `json:"target_id" db:"target_id"`
	TargetEmail string    `json:"target_email" db:"target_email"`
	AddedAt     time.Time `json:"added_at" db:"added_at"`
}
