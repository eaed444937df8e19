package record

// EventType names a change to the persisted record list.
type EventType string

const (
	EventSaved   EventType = "record.saved"
	EventDeleted EventType = "record.deleted"
)

// Event is broadcast to live subscribers when the record list changes.
type Event struct {
	Type   EventType `json:"type"`
	Record Record    `json:"record"`
}
