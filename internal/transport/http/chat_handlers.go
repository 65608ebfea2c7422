package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/roomcast/roomcast-server/internal/core"
	"github.com/roomcast/roomcast-server/internal/proto"
)

// ChatHandlers exposes the read-mostly query surface over the hub's
// registries, plus message posting for clients without a persistent
// connection.
type ChatHandlers struct {
	hub *core.Hub
	log *zerolog.Logger
}

// NewChatHandlers creates a new chat handlers instance.
func NewChatHandlers(hub *core.Hub, logger *zerolog.Logger) *ChatHandlers {
	return &ChatHandlers{hub: hub, log: logger}
}

// PostMessageRequest represents a message posted over REST.
type PostMessageRequest struct {
	Username string                `json:"username"`
	Avatar   string                `json:"avatar"`
	Message  string                `json:"message"`
	File     *proto.FileAttachment `json:"file,omitempty"`
}

// RoomListEntry is one row of the active rooms listing.
type RoomListEntry struct {
	RoomID      string `json:"roomId"`
	MemberCount int    `json:"memberCount"`
}

// GetGlobalMessages returns recent global history.
// GET /api/messages?limit=50
func (h *ChatHandlers) GetGlobalMessages(c *gin.Context) {
	c.JSON(http.StatusOK, messagesToProto(h.hub.History("", parseLimit(c))))
}

// PostGlobalMessage appends and broadcasts a global message.
// POST /api/messages
func (h *ChatHandlers) PostGlobalMessage(c *gin.Context) {
	var req PostMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	msg, err := h.hub.PostMessage(c.Request.Context(), req.Username, req.Avatar, req.Message, attachmentFromProto(req.File))
	if err != nil {
		if errors.Is(err, core.ErrEmptyMessage) {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "message or file is required"})
			return
		}
		h.log.Error().Err(err).Msg("failed to post message")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusCreated, messageToProto(msg))
}

// ListRooms lists active rooms with member counts.
// GET /api/rooms
func (h *ChatHandlers) ListRooms(c *gin.Context) {
	rooms := h.hub.ActiveRooms()
	response := make([]RoomListEntry, 0, len(rooms))
	for _, room := range rooms {
		response = append(response, RoomListEntry{
			RoomID:      room.RoomID,
			MemberCount: room.MemberCount,
		})
	}
	c.JSON(http.StatusOK, response)
}

// GetRoomMessages returns recent history for one room.
// GET /api/rooms/:roomId/messages?limit=50
func (h *ChatHandlers) GetRoomMessages(c *gin.Context) {
	c.JSON(http.StatusOK, messagesToProto(h.hub.History(c.Param("roomId"), parseLimit(c))))
}

// PostRoomMessage appends and broadcasts a message to one room.
// POST /api/rooms/:roomId/messages
func (h *ChatHandlers) PostRoomMessage(c *gin.Context) {
	var req PostMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	msg, err := h.hub.PostRoomMessage(c.Request.Context(), c.Param("roomId"), req.Username, req.Avatar, req.Message, attachmentFromProto(req.File))
	if err != nil {
		if errors.Is(err, core.ErrEmptyRoom) {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "roomId is required"})
			return
		}
		if errors.Is(err, core.ErrEmptyMessage) {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "message or file is required"})
			return
		}
		h.log.Error().Err(err).Str("room", c.Param("roomId")).Msg("failed to post room message")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusCreated, messageToProto(msg))
}

// GetRoomMembers returns the member connection ids of one room.
// GET /api/rooms/:roomId/members
func (h *ChatHandlers) GetRoomMembers(c *gin.Context) {
	roomID := c.Param("roomId")
	c.JSON(http.StatusOK, proto.RoomUsersData{
		RoomID:  roomID,
		Members: h.hub.RoomMembers(roomID),
	})
}

// GetOnlineUsers returns the presence snapshot.
// GET /api/online
func (h *ChatHandlers) GetOnlineUsers(c *gin.Context) {
	snapshot := h.hub.OnlineUsers()
	profiles := make([]proto.Profile, 0, len(snapshot))
	for _, p := range snapshot {
		profiles = append(profiles, proto.Profile{
			UserID:   p.UserID,
			Username: p.Username,
			Avatar:   p.Avatar,
		})
	}
	c.JSON(http.StatusOK, profiles)
}

// ClearAllMessages empties every scope's history.
// POST /api/admin/clear-messages
func (h *ChatHandlers) ClearAllMessages(c *gin.Context) {
	if err := h.hub.ClearAllMessages(c.Request.Context()); err != nil {
		h.log.Error().Err(err).Msg("failed to clear messages")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	h.log.Info().Msg("all chat messages cleared")
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"message":   "all chat messages cleared",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// parseLimit reads the limit query parameter; the store clamps it.
func parseLimit(c *gin.Context) int {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 {
		return core.DefaultHistoryLimit
	}
	return limit
}
