package http

import (
	"encoding/json"

	"github.com/roomcast/roomcast-server/internal/core"
	"github.com/roomcast/roomcast-server/internal/proto"
)

// inboundToCommand maps a wire message onto a core command. A non-nil
// proto.Error means the message was understood but rejected; a non-nil
// error means the payload could not be decoded at all.
func inboundToCommand(inbound proto.Inbound) (*core.Command, *proto.Error, error) {
	switch inbound.Type {
	case proto.InboundSetProfile:
		var data proto.SetProfileData
		if err := unmarshalData(inbound.Data, &data); err != nil {
			return nil, nil, err
		}
		return &core.Command{
			Kind:     core.CommandSetProfile,
			Username: data.Username,
			Avatar:   data.Avatar,
		}, nil, nil

	case proto.InboundSetUsername:
		var data proto.SetUsernameData
		if err := unmarshalData(inbound.Data, &data); err != nil {
			return nil, nil, err
		}
		return &core.Command{
			Kind:     core.CommandSetUsername,
			Username: &data.Name,
		}, nil, nil

	case proto.InboundSendMessage:
		var data proto.SendMessageData
		if err := unmarshalData(inbound.Data, &data); err != nil {
			return nil, nil, err
		}
		return &core.Command{
			Kind:   core.CommandSendMessage,
			Text:   data.Message,
			File:   attachmentFromProto(data.File),
			TempID: data.TempID,
		}, nil, nil

	case proto.InboundJoinRoom:
		var data proto.JoinRoomData
		if err := unmarshalData(inbound.Data, &data); err != nil {
			return nil, nil, err
		}
		return &core.Command{
			Kind:     core.CommandJoinRoom,
			Room:     data.RoomID,
			Username: data.Username,
			Avatar:   data.Avatar,
		}, nil, nil

	case proto.InboundSendRoomMessage:
		var data proto.RoomMessageData
		if err := unmarshalData(inbound.Data, &data); err != nil {
			return nil, nil, err
		}
		return &core.Command{
			Kind:     core.CommandSendRoomMessage,
			Room:     data.RoomID,
			Text:     data.Message,
			Username: data.Username,
			Avatar:   data.Avatar,
			File:     attachmentFromProto(data.File),
			TempID:   data.TempID,
		}, nil, nil

	case proto.InboundLeaveRoom:
		var data proto.RoomData
		if err := unmarshalData(inbound.Data, &data); err != nil {
			return nil, nil, err
		}
		return &core.Command{Kind: core.CommandLeaveRoom, Room: data.RoomID}, nil, nil

	case proto.InboundClearGlobal:
		return &core.Command{Kind: core.CommandClearGlobal}, nil, nil

	case proto.InboundClearRoom:
		var data proto.RoomData
		if err := unmarshalData(inbound.Data, &data); err != nil {
			return nil, nil, err
		}
		return &core.Command{Kind: core.CommandClearRoom, Room: data.RoomID}, nil, nil

	case proto.InboundGetRoomMembers:
		var data proto.RoomData
		if err := unmarshalData(inbound.Data, &data); err != nil {
			return nil, nil, err
		}
		return &core.Command{Kind: core.CommandGetRoomMembers, Room: data.RoomID}, nil, nil

	default:
		return nil, &proto.Error{
			Code:    core.ErrCodeBadRequest,
			Message: "unknown message type",
			Event:   inbound.Type,
		}, nil
	}
}

// unmarshalData tolerates a missing payload so events like
// join_room with no body fall through to the silent-drop path.
func unmarshalData(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, v)
}

func outboundFromEvent(event *core.Event) proto.Outbound {
	switch event.Kind {
	case core.EventHistory:
		return proto.Outbound{
			Type: proto.OutboundHistory,
			Data: messagesToProto(event.Messages),
		}

	case core.EventRoomHistory:
		return proto.Outbound{
			Type: proto.OutboundRoomHistory,
			Data: proto.RoomHistoryData{
				RoomID:   event.Room,
				Messages: messagesToProto(event.Messages),
			},
		}

	case core.EventMessage:
		return proto.Outbound{
			Type: proto.OutboundReceiveMessage,
			Data: messageToProto(event.Message),
		}

	case core.EventRoomUsers:
		members := event.Members
		if members == nil {
			members = []string{}
		}
		return proto.Outbound{
			Type: proto.OutboundRoomUsers,
			Data: proto.RoomUsersData{RoomID: event.Room, Members: members},
		}

	case core.EventOnlineUsers:
		profiles := make([]proto.Profile, 0, len(event.Profiles))
		for _, p := range event.Profiles {
			profiles = append(profiles, proto.Profile{
				UserID:   p.UserID,
				Username: p.Username,
				Avatar:   p.Avatar,
			})
		}
		return proto.Outbound{Type: proto.OutboundOnlineUsers, Data: profiles}

	case core.EventRoomMembersList:
		members := make([]proto.Member, 0, len(event.Roster))
		for _, m := range event.Roster {
			members = append(members, proto.Member{
				UserID:   m.UserID,
				Username: m.Username,
				Avatar:   m.Avatar,
				Online:   m.Online,
			})
		}
		return proto.Outbound{
			Type: proto.OutboundRoomMembersList,
			Data: proto.RoomMembersData{RoomID: event.Room, Members: members},
		}

	case core.EventCleared:
		roomID := event.Room
		if roomID == "" {
			roomID = proto.GlobalRoomID
		}
		return proto.Outbound{
			Type: proto.OutboundCleared,
			Data: proto.ClearedData{RoomID: roomID},
		}

	case core.EventError:
		if event.Err == nil {
			return proto.Outbound{
				Type:  proto.OutboundError,
				Error: &proto.Error{Message: "unknown error"},
			}
		}
		return proto.Outbound{
			Type: proto.OutboundError,
			Error: &proto.Error{
				Code:    event.Err.Code,
				Message: event.Err.Message,
				Event:   event.Err.Event,
			},
		}

	default:
		return proto.Outbound{Type: proto.OutboundError, Error: &proto.Error{Message: "unknown event"}}
	}
}

func messageToProto(m core.Message) proto.ChatMessage {
	return proto.ChatMessage{
		ID:       m.ID,
		UserID:   m.UserID,
		Username: m.Username,
		Avatar:   m.Avatar,
		Message:  m.Text,
		File:     attachmentToProto(m.File),
		RoomID:   m.RoomID,
		TempID:   m.TempID,
		TS:       m.CreatedAt,
	}
}

func messagesToProto(msgs []core.Message) []proto.ChatMessage {
	out := make([]proto.ChatMessage, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, messageToProto(m))
	}
	return out
}

func attachmentFromProto(f *proto.FileAttachment) *core.FileAttachment {
	if f == nil {
		return nil
	}
	return &core.FileAttachment{
		Name:     f.Name,
		Size:     f.Size,
		Category: f.Type,
		URL:      f.URL,
	}
}

func attachmentToProto(f *core.FileAttachment) *proto.FileAttachment {
	if f == nil {
		return nil
	}
	return &proto.FileAttachment{
		Name: f.Name,
		Size: f.Size,
		Type: f.Category,
		URL:  f.URL,
	}
}
