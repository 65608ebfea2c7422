package core

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"
)

// ErrEmptyMessage is returned by PostMessage when neither text nor a file
// attachment is present after normalization.
var ErrEmptyMessage = errors.New("message or file is required")

// ErrEmptyRoom is returned by PostRoomMessage for a blank room ID.
var ErrEmptyRoom = errors.New("room id is required")

// Connection lifecycle commands, enqueued on the same inbox as client
// commands so that registration always precedes a connection's first
// command and nothing for a connection runs after its disconnect.
const (
	commandConnect CommandKind = iota + 100
	commandDisconnect
)

// envelope pairs a command with its originating client. client is nil for
// commands injected by the REST surface.
type envelope struct {
	client *Client
	cmd    *Command
}

// Hub is the broadcast coordinator. It owns the message store, presence
// registry, and room registry, and is their only writer: Run consumes one
// inbox so every command is handled to completion before the next.
type Hub struct {
	log      *zerolog.Logger
	store    *MessageStore
	presence *PresenceRegistry
	rooms    *RoomRegistry

	clients map[string]*Client
	inbox   chan envelope
}

// NewHub constructs a hub with empty registries.
func NewHub(logger *zerolog.Logger) *Hub {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Hub{
		log:      logger,
		store:    NewMessageStore(),
		presence: NewPresenceRegistry(),
		rooms:    NewRoomRegistry(),
		clients:  make(map[string]*Client),
		inbox:    make(chan envelope, 64),
	}
}

// Run processes commands until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case env := <-h.inbox:
			h.handle(env)
		case <-ctx.Done():
			return
		}
	}
}

// RegisterClient announces a new connection and starts pumping its
// command channel into the hub loop. The pump exits when the transport
// closes the client's Commands channel.
func (h *Hub) RegisterClient(client *Client) {
	h.inbox <- envelope{client: client, cmd: &Command{Kind: commandConnect}}
	go func() {
		for cmd := range client.Commands {
			h.inbox <- envelope{client: client, cmd: cmd}
		}
	}()
}

// UnregisterClient runs disconnect handling for a connection. The
// transport must close client.Commands before calling this, and must call
// it exactly once per connection.
func (h *Hub) UnregisterClient(client *Client) {
	h.inbox <- envelope{client: client, cmd: &Command{Kind: commandDisconnect}}
}

// History exposes the message store to the read-only query surface.
func (h *Hub) History(scope string, limit int) []Message {
	return h.store.History(scope, limit)
}

// ActiveRooms lists rooms that currently have members.
func (h *Hub) ActiveRooms() []RoomInfo {
	return h.rooms.ActiveRooms()
}

// RoomMembers returns the member connection IDs of a room.
func (h *Hub) RoomMembers(roomID string) []string {
	return h.rooms.Members(roomID)
}

// OnlineUsers returns the presence snapshot.
func (h *Hub) OnlineUsers() []Profile {
	return h.presence.Snapshot()
}

// PostMessage appends a global message on behalf of a non-websocket
// caller and broadcasts it. It blocks until the hub commits the message.
func (h *Hub) PostMessage(ctx context.Context, username, avatar, text string, file *FileAttachment) (Message, error) {
	if SanitizeText(text) == "" && file == nil {
		return Message{}, ErrEmptyMessage
	}
	return h.inject(ctx, &Command{
		Kind:     CommandSendMessage,
		Text:     text,
		Username: &username,
		Avatar:   &avatar,
		File:     file,
	})
}

// PostRoomMessage is PostMessage scoped to one room.
func (h *Hub) PostRoomMessage(ctx context.Context, roomID, username, avatar, text string, file *FileAttachment) (Message, error) {
	if strings.TrimSpace(roomID) == "" {
		return Message{}, ErrEmptyRoom
	}
	if SanitizeText(text) == "" && file == nil {
		return Message{}, ErrEmptyMessage
	}
	return h.inject(ctx, &Command{
		Kind:     CommandSendRoomMessage,
		Room:     roomID,
		Text:     text,
		Username: &username,
		Avatar:   &avatar,
		File:     file,
	})
}

// ClearAllMessages empties every scope and notifies all clients.
func (h *Hub) ClearAllMessages(ctx context.Context) error {
	_, err := h.inject(ctx, &Command{Kind: CommandClearAll})
	return err
}

func (h *Hub) inject(ctx context.Context, cmd *Command) (Message, error) {
	reply := make(chan Message, 1)
	cmd.reply = reply

	select {
	case h.inbox <- envelope{cmd: cmd}:
	case <-ctx.Done():
		return Message{}, ctx.Err()
	}

	select {
	case msg := <-reply:
		return msg, nil
	case <-ctx.Done():
		return Message{}, ctx.Err()
	}
}

// handle dispatches one command. A panic inside a handler is caught here
// so a single bad event cannot take down the loop or other connections;
// the originating client gets a generic error event.
func (h *Hub) handle(env envelope) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		h.log.Error().
			Interface("panic", r).
			Str("conn_id", h.connID(env.client)).
			Int("command", int(env.cmd.Kind)).
			Msg("command handler fault")
		if env.client != nil {
			h.send(env.client, &Event{Kind: EventError, Err: &Error{
				Code:    ErrCodeInternal,
				Message: "internal error",
			}})
		}
	}()

	switch env.cmd.Kind {
	case commandConnect:
		h.handleConnect(env.client)
		return
	case commandDisconnect:
		h.handleDisconnect(env.client)
		return
	}

	// Drop commands that raced past their connection's disconnect.
	if env.client != nil && h.clients[env.client.ID] != env.client {
		return
	}

	switch env.cmd.Kind {
	case CommandSetProfile, CommandSetUsername:
		h.handleSetProfile(env.client, env.cmd)
	case CommandSendMessage:
		h.handleSendMessage(env)
	case CommandJoinRoom:
		h.handleJoinRoom(env.client, env.cmd)
	case CommandSendRoomMessage:
		h.handleSendRoomMessage(env)
	case CommandLeaveRoom:
		h.handleLeaveRoom(env.client, env.cmd)
	case CommandClearGlobal:
		h.store.Clear("")
		h.broadcastAll(&Event{Kind: EventCleared})
	case CommandClearRoom:
		roomID := strings.TrimSpace(env.cmd.Room)
		if roomID == "" {
			return
		}
		h.store.Clear(roomID)
		h.broadcastRoom(roomID, &Event{Kind: EventCleared, Room: roomID})
	case CommandClearAll:
		h.store.ClearAll()
		h.broadcastAll(&Event{Kind: EventCleared})
		if env.cmd.reply != nil {
			env.cmd.reply <- Message{}
		}
	case CommandGetRoomMembers:
		h.handleGetRoomMembers(env.client, env.cmd)
	default:
		h.log.Warn().Int("command", int(env.cmd.Kind)).Msg("unknown command kind")
	}
}

// handleConnect registers presence with defaults, shares the updated
// presence set with everyone, and sends global history to the newcomer.
func (h *Hub) handleConnect(client *Client) {
	h.clients[client.ID] = client
	h.presence.Register(client.ID, client.Profile)

	h.broadcastAll(&Event{Kind: EventOnlineUsers, Profiles: h.presence.Snapshot()})
	h.send(client, &Event{
		Kind:     EventHistory,
		Messages: h.store.History("", DefaultHistoryLimit),
	})

	h.log.Info().Str("conn_id", client.ID).Msg("client connected")
}

// handleDisconnect removes the connection from every room, announcing
// each departure, then drops it from presence.
func (h *Hub) handleDisconnect(client *Client) {
	if h.clients[client.ID] != client {
		return
	}

	for _, roomID := range h.rooms.RemoveAll(client.ID) {
		sys := h.systemMessage(roomID, client.Profile.Username+" disconnected")
		h.broadcastRoom(roomID, &Event{Kind: EventMessage, Room: roomID, Message: sys})
		h.broadcastRoom(roomID, &Event{
			Kind:    EventRoomUsers,
			Room:    roomID,
			Members: h.rooms.Members(roomID),
		})
	}

	h.presence.Unregister(client.ID)
	delete(h.clients, client.ID)
	close(client.Events)

	h.broadcastAll(&Event{Kind: EventOnlineUsers, Profiles: h.presence.Snapshot()})
	h.log.Info().Str("conn_id", client.ID).Msg("client disconnected")
}

// applyProfile merges any provided fields into the client's profile and
// mirrors the result into the presence registry.
func (h *Hub) applyProfile(client *Client, cmd *Command) {
	if client == nil {
		return
	}
	changed := false
	if cmd.Username != nil {
		client.Profile.Username = SanitizeUsername(*cmd.Username)
		changed = true
	}
	if cmd.Avatar != nil {
		client.Profile.Avatar = SanitizeAvatar(*cmd.Avatar)
		changed = true
	}
	if changed {
		h.presence.Update(client.ID, client.Profile)
	}
}

func (h *Hub) handleSetProfile(client *Client, cmd *Command) {
	if client == nil {
		return
	}
	h.applyProfile(client, cmd)
	h.broadcastAll(&Event{Kind: EventOnlineUsers, Profiles: h.presence.Snapshot()})
}

func (h *Hub) handleSendMessage(env envelope) {
	cmd := env.cmd
	text := SanitizeText(cmd.Text)
	if text == "" && cmd.File == nil {
		return
	}

	msg := h.store.Append("", h.buildMessage(env, text))
	h.broadcastAll(&Event{Kind: EventMessage, Message: msg})
	if cmd.reply != nil {
		cmd.reply <- msg
	}
}

func (h *Hub) handleJoinRoom(client *Client, cmd *Command) {
	if client == nil {
		return
	}
	roomID := strings.TrimSpace(cmd.Room)
	if roomID == "" {
		return
	}
	h.applyProfile(client, cmd)

	already := h.rooms.Join(roomID, client.ID)

	h.send(client, &Event{
		Kind:     EventRoomHistory,
		Room:     roomID,
		Messages: h.store.History(roomID, DefaultHistoryLimit),
	})

	// One join announcement per membership transition, not per call.
	if !already {
		sys := h.systemMessage(roomID, client.Profile.Username+" joined")
		h.broadcastRoom(roomID, &Event{Kind: EventMessage, Room: roomID, Message: sys})
	}

	h.broadcastRoom(roomID, &Event{
		Kind:    EventRoomUsers,
		Room:    roomID,
		Members: h.rooms.Members(roomID),
	})
}

func (h *Hub) handleSendRoomMessage(env envelope) {
	cmd := env.cmd
	roomID := strings.TrimSpace(cmd.Room)
	text := SanitizeText(cmd.Text)
	if roomID == "" || (text == "" && cmd.File == nil) {
		return
	}
	h.applyProfile(env.client, cmd)

	msg := h.store.Append(roomID, h.buildMessage(env, text))
	h.broadcastRoom(roomID, &Event{Kind: EventMessage, Room: roomID, Message: msg})
	if cmd.reply != nil {
		cmd.reply <- msg
	}
}

func (h *Hub) handleLeaveRoom(client *Client, cmd *Command) {
	if client == nil {
		return
	}
	roomID := strings.TrimSpace(cmd.Room)
	if roomID == "" {
		return
	}
	// Leaving a room the connection never joined is a no-op.
	if !h.rooms.Leave(roomID, client.ID) {
		return
	}

	sys := h.systemMessage(roomID, client.Profile.Username+" left")
	h.broadcastRoom(roomID, &Event{Kind: EventMessage, Room: roomID, Message: sys})
	h.broadcastRoom(roomID, &Event{
		Kind:    EventRoomUsers,
		Room:    roomID,
		Members: h.rooms.Members(roomID),
	})
}

func (h *Hub) handleGetRoomMembers(client *Client, cmd *Command) {
	if client == nil {
		return
	}
	roomID := strings.TrimSpace(cmd.Room)
	if roomID == "" {
		return
	}

	memberIDs := h.rooms.Members(roomID)
	roster := make([]MemberProfile, 0, len(memberIDs))
	for _, id := range memberIDs {
		if profile, ok := h.presence.Get(id); ok {
			roster = append(roster, MemberProfile{Profile: profile, Online: true})
		}
	}

	h.send(client, &Event{Kind: EventRoomMembersList, Room: roomID, Roster: roster})
}

// buildMessage assembles an unsaved message from the sender's profile.
// Injected commands carry their identity in the command itself.
func (h *Hub) buildMessage(env envelope, text string) Message {
	cmd := env.cmd
	msg := Message{
		Text:      text,
		File:      cmd.File,
		TempID:    cmd.TempID,
		CreatedAt: nowMillis(),
	}

	if env.client != nil {
		msg.UserID = env.client.Profile.UserID
		msg.Username = env.client.Profile.Username
		msg.Avatar = env.client.Profile.Avatar
		return msg
	}

	msg.UserID = "api"
	msg.Username = AnonymousName
	if cmd.Username != nil {
		msg.Username = SanitizeUsername(*cmd.Username)
	}
	if cmd.Avatar != nil {
		msg.Avatar = SanitizeAvatar(*cmd.Avatar)
	}
	return msg
}

func (h *Hub) systemMessage(roomID, text string) Message {
	return h.store.Append(roomID, Message{
		UserID:    SystemUserID,
		Username:  SystemUsername,
		Text:      text,
		CreatedAt: nowMillis(),
	})
}

// send delivers an event to one client, dropping it if the client's
// buffer is full so a stalled connection never blocks the loop.
func (h *Hub) send(client *Client, event *Event) {
	select {
	case client.Events <- event:
	default:
		h.log.Warn().
			Str("conn_id", client.ID).
			Int("event", int(event.Kind)).
			Msg("dropping event for slow client")
	}
}

func (h *Hub) broadcastAll(event *Event) {
	for _, client := range h.clients {
		h.send(client, event)
	}
}

func (h *Hub) broadcastRoom(roomID string, event *Event) {
	for _, id := range h.rooms.Members(roomID) {
		if client, ok := h.clients[id]; ok {
			h.send(client, event)
		}
	}
}

func (h *Hub) connID(client *Client) string {
	if client == nil {
		return "api"
	}
	return client.ID
}
