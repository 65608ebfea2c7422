package core

// EventKind is a notification the core emits to clients.
type EventKind int

const (
	// EventHistory delivers global message history to one client on connect.
	EventHistory EventKind = iota
	// EventRoomHistory delivers a room's history to one client on join.
	EventRoomHistory
	// EventMessage delivers a new chat or system message.
	EventMessage
	// EventRoomUsers delivers a room's member connection IDs.
	EventRoomUsers
	// EventOnlineUsers delivers the presence snapshot.
	EventOnlineUsers
	// EventRoomMembersList delivers member profiles for one requester.
	EventRoomMembersList
	// EventCleared notifies that a scope's history was emptied.
	EventCleared
	// EventError notifies one client about a failure.
	EventError
)

// MemberProfile is a presence profile annotated for member listings.
type MemberProfile struct {
	Profile
	Online bool
}

// Event is sent to clients to describe what happened in the system.
type Event struct {
	Kind     EventKind
	Room     string
	Message  Message
	Messages []Message       // EventHistory, EventRoomHistory
	Members  []string        // EventRoomUsers
	Profiles []Profile       // EventOnlineUsers
	Roster   []MemberProfile // EventRoomMembersList
	Err      *Error          // EventError
}
