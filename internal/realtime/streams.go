package realtime

// Named realtime streams. Each stream mirrors a database table so clients can
// subscribe to row-level changes for the records they can see.
const (
	StreamEmergencyPosts = "emergency_posts"
	StreamParticipations = "participations"
	StreamMessages       = "messages"
	StreamAppointments   = "appointments"
	StreamInventory      = "blood_inventory"
)

// Change event names carried in Message.Event.
const (
	EventInsert = "insert"
	EventUpdate = "update"
	EventDelete = "delete"
)

// KnownStreams returns the set of streams clients may subscribe to.
func KnownStreams() map[string]struct{} {
	return map[string]struct{}{
		StreamEmergencyPosts: {},
		StreamParticipations: {},
		StreamMessages:       {},
		StreamAppointments:   {},
		StreamInventory:      {},
	}
}

// Change builds a table-change message ready for broadcast.
func Change(stream, event string, data any) Message {
	return Message{Stream: stream, Event: event, Data: data}
}
