package core

import (
	"strings"
	"sync"
)

// RoomInfo is a room listing entry for the query surface.
type RoomInfo struct {
	RoomID      string
	MemberCount int
}

// RoomRegistry maps room IDs to the set of member connection IDs. A room
// entry exists only while it has at least one member; message history for
// a room is kept separately and outlives membership.
type RoomRegistry struct {
	mu    sync.RWMutex
	rooms map[string]map[string]struct{}
}

// NewRoomRegistry constructs an empty registry.
func NewRoomRegistry() *RoomRegistry {
	return &RoomRegistry{rooms: make(map[string]map[string]struct{})}
}

// Join adds connID to roomID's member set and reports whether the
// connection was already a member. The room ID is trimmed; joining an
// empty room ID is a no-op.
func (r *RoomRegistry) Join(roomID, connID string) (already bool) {
	roomID = strings.TrimSpace(roomID)
	if roomID == "" {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	members, ok := r.rooms[roomID]
	if !ok {
		members = make(map[string]struct{})
		r.rooms[roomID] = members
	}
	if _, ok := members[connID]; ok {
		return true
	}
	members[connID] = struct{}{}
	return false
}

// Leave removes connID from roomID and reports whether it was a member.
// The room entry is deleted once its member set becomes empty.
func (r *RoomRegistry) Leave(roomID, connID string) bool {
	roomID = strings.TrimSpace(roomID)

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.leaveLocked(roomID, connID)
}

func (r *RoomRegistry) leaveLocked(roomID, connID string) bool {
	members, ok := r.rooms[roomID]
	if !ok {
		return false
	}
	if _, ok := members[connID]; !ok {
		return false
	}
	delete(members, connID)
	if len(members) == 0 {
		delete(r.rooms, roomID)
	}
	return true
}

// RemoveAll removes connID from every room it is in and returns the IDs
// of those rooms. Used on disconnect.
func (r *RoomRegistry) RemoveAll(connID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var left []string
	for roomID, members := range r.rooms {
		if _, ok := members[connID]; ok {
			left = append(left, roomID)
		}
	}
	for _, roomID := range left {
		r.leaveLocked(roomID, connID)
	}
	return left
}

// Members returns the connection IDs currently in roomID. Unknown rooms
// yield an empty slice.
func (r *RoomRegistry) Members(roomID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members := r.rooms[strings.TrimSpace(roomID)]
	out := make([]string, 0, len(members))
	for id := range members {
		out = append(out, id)
	}
	return out
}

// MemberCount returns the number of members in roomID.
func (r *RoomRegistry) MemberCount(roomID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms[strings.TrimSpace(roomID)])
}

// ActiveRooms lists every room that currently has members.
func (r *RoomRegistry) ActiveRooms() []RoomInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]RoomInfo, 0, len(r.rooms))
	for roomID, members := range r.rooms {
		out = append(out, RoomInfo{RoomID: roomID, MemberCount: len(members)})
	}
	return out
}
