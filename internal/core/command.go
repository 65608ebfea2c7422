package core

// CommandKind describes what the client wants to do.
type CommandKind int

const (
	// CommandSetProfile merges profile fields into the connection profile.
	CommandSetProfile CommandKind = iota
	// CommandSetUsername renames the connection.
	CommandSetUsername
	// CommandSendMessage posts a message to the global scope.
	CommandSendMessage
	// CommandJoinRoom subscribes the client to a room.
	CommandJoinRoom
	// CommandSendRoomMessage posts a message to a room.
	CommandSendRoomMessage
	// CommandLeaveRoom unsubscribes the client from a room.
	CommandLeaveRoom
	// CommandClearGlobal empties the global history.
	CommandClearGlobal
	// CommandClearRoom empties a room's history.
	CommandClearRoom
	// CommandClearAll empties every scope's history.
	CommandClearAll
	// CommandGetRoomMembers asks for the member profiles of a room.
	CommandGetRoomMembers
)

// Command represents an action requested by a client. Username and Avatar
// are pointers so a profile merge can tell "absent" from "set to empty".
type Command struct {
	Kind     CommandKind
	Room     string
	Text     string
	Username *string
	Avatar   *string
	File     *FileAttachment
	TempID   string

	// reply, when set, receives the committed message. Used by the REST
	// surface to inject sends through the hub's single-writer loop.
	reply chan<- Message
}
