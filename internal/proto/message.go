package proto

import "encoding/json"

// Inbound is the envelope for messages coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Inbound message types.
const (
	InboundSetProfile      = "set_profile"
	InboundSetUsername     = "set_username"
	InboundSendMessage     = "send_message"
	InboundJoinRoom        = "join_room"
	InboundSendRoomMessage = "send_room_message"
	InboundLeaveRoom       = "leave_room"
	InboundClearGlobal     = "clear_global_messages"
	InboundClearRoom       = "clear_room_messages"
	InboundGetRoomMembers  = "get_room_members"
)

// Outbound message types.
const (
	OutboundHistory         = "history"
	OutboundRoomHistory     = "history_room"
	OutboundReceiveMessage  = "receive_message"
	OutboundRoomUsers       = "room_users"
	OutboundOnlineUsers     = "online_users"
	OutboundRoomMembersList = "room_members_list"
	OutboundCleared         = "all_messages_cleared"
	OutboundError           = "error"
)

// GlobalRoomID is the room id reported in cleared notices for the global
// scope, which internally has no room id at all.
const GlobalRoomID = "global"

// FileAttachment is an upload descriptor embedded in a message.
type FileAttachment struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
	Type string `json:"type"`
	URL  string `json:"url"`
}

// ChatMessage is the wire form of a stored message.
type ChatMessage struct {
	ID       int64           `json:"id"`
	UserID   string          `json:"userId"`
	Username string          `json:"username"`
	Avatar   string          `json:"avatar,omitempty"`
	Message  string          `json:"message"`
	File     *FileAttachment `json:"file,omitempty"`
	RoomID   string          `json:"roomId,omitempty"`
	TempID   string          `json:"tempId,omitempty"`
	TS       int64           `json:"ts"`
}

// Profile is one online user as seen in presence payloads.
type Profile struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Avatar   string `json:"avatar,omitempty"`
}

// Member is one entry of a room_members_list payload.
type Member struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Avatar   string `json:"avatar,omitempty"`
	Online   bool   `json:"online"`
}

// SetProfileData merges optional fields into the connection profile.
// Pointers distinguish "absent" from "set to empty".
type SetProfileData struct {
	Username *string `json:"username"`
	Avatar   *string `json:"avatar"`
}

// SetUsernameData renames the connection.
type SetUsernameData struct {
	Name string `json:"name"`
}

// SendMessageData posts a message to the global scope.
type SendMessageData struct {
	Message string          `json:"message"`
	File    *FileAttachment `json:"file,omitempty"`
	TempID  string          `json:"tempId,omitempty"`
}

// JoinRoomData subscribes the connection to a room, optionally updating
// the profile along the way.
type JoinRoomData struct {
	RoomID   string  `json:"roomId"`
	Username *string `json:"username,omitempty"`
	Avatar   *string `json:"avatar,omitempty"`
}

// RoomMessageData posts a message to a room.
type RoomMessageData struct {
	RoomID   string          `json:"roomId"`
	Username *string         `json:"username,omitempty"`
	Avatar   *string         `json:"avatar,omitempty"`
	Message  string          `json:"message"`
	File     *FileAttachment `json:"file,omitempty"`
	TempID   string          `json:"tempId,omitempty"`
}

// RoomData targets a room with no further payload.
type RoomData struct {
	RoomID string `json:"roomId"`
}

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Type  string `json:"type"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// RoomHistoryData carries a room's recent messages.
type RoomHistoryData struct {
	RoomID   string        `json:"roomId"`
	Messages []ChatMessage `json:"messages"`
}

// RoomUsersData carries the member connection ids of a room.
type RoomUsersData struct {
	RoomID  string   `json:"roomId"`
	Members []string `json:"members"`
}

// RoomMembersData carries member profiles for one requester.
type RoomMembersData struct {
	RoomID  string   `json:"roomId"`
	Members []Member `json:"members"`
}

// ClearedData identifies the scope whose history was emptied.
type ClearedData struct {
	RoomID string `json:"roomId"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
	Event   string `json:"event,omitempty"`
}
