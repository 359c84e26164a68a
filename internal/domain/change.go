package domain

import "time"

// ChangeType is the kind of row mutation carried by a ChangeEvent.
type ChangeType string

const (
	ChangeInsert ChangeType = "INSERT"
	ChangeUpdate ChangeType = "UPDATE"
	ChangeDelete ChangeType = "DELETE"
)

// ChangeEvent is emitted whenever a row of a watched collection is inserted,
// updated or deleted, by any client.
type ChangeEvent struct {
	Type       ChangeType `json:"type"`
	Collection string     `json:"collection"`
	RowID      string     `json:"row_id"`
	OwnerID    string     `json:"owner_id,omitempty"`
	At         time.Time  `json:"at"`
}
