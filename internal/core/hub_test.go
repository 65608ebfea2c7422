package core

import (
	"context"
	"testing"
	"time"
)

func startHub(t *testing.T) *Hub {
	t.Helper()

	hub := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return hub
}

func connect(t *testing.T, hub *Hub, id string) *Client {
	t.Helper()

	client := NewClient(id, Profile{})
	hub.RegisterClient(client)
	return client
}

func TestHubConnectJoinAndRoomMessage(t *testing.T) {
	hub := startHub(t)

	a := connect(t, hub, "a")

	hist := mustEvent(t, a.Events, EventHistory)
	if len(hist.Messages) != 0 {
		t.Fatalf("fresh server sent %d history messages", len(hist.Messages))
	}

	a.Commands <- &Command{Kind: CommandJoinRoom, Room: "lobby"}

	roomHist := mustEvent(t, a.Events, EventRoomHistory)
	if roomHist.Room != "lobby" || len(roomHist.Messages) != 0 {
		t.Fatalf("unexpected room history: %+v", roomHist)
	}

	joined := mustEvent(t, a.Events, EventMessage)
	if joined.Message.UserID != SystemUserID || joined.Message.Text != "Anonymous joined" {
		t.Fatalf("unexpected join announcement: %+v", joined.Message)
	}

	users := mustEvent(t, a.Events, EventRoomUsers)
	if users.Room != "lobby" || len(users.Members) != 1 || users.Members[0] != "a" {
		t.Fatalf("unexpected room users: %+v", users)
	}

	// Second connection sees the join announcement in room history.
	b := connect(t, hub, "b")
	mustEvent(t, b.Events, EventHistory)

	b.Commands <- &Command{Kind: CommandJoinRoom, Room: "lobby"}

	bHist := mustEvent(t, b.Events, EventRoomHistory)
	if len(bHist.Messages) != 1 || bHist.Messages[0].Text != "Anonymous joined" {
		t.Fatalf("late joiner history: %+v", bHist.Messages)
	}

	users = mustEvent(t, a.Events, EventRoomUsers)
	if len(users.Members) != 2 {
		t.Fatalf("room users after second join: %+v", users)
	}

	a.Commands <- &Command{Kind: CommandSendRoomMessage, Room: "lobby", Text: "hi"}

	for _, c := range []*Client{a, b} {
		// Skip b's own join announcement where still queued.
		ev := mustEvent(t, c.Events, EventMessage)
		for ev.Message.UserID == SystemUserID {
			ev = mustEvent(t, c.Events, EventMessage)
		}
		msg := ev.Message
		if msg.Username != AnonymousName || msg.Text != "hi" || msg.RoomID != "lobby" || msg.ID == 0 {
			t.Fatalf("unexpected room message for %s: %+v", c.ID, msg)
		}
	}
}

func TestHubDoubleJoinAnnouncesOnce(t *testing.T) {
	hub := startHub(t)

	a := connect(t, hub, "a")
	mustEvent(t, a.Events, EventHistory)

	a.Commands <- &Command{Kind: CommandJoinRoom, Room: "lobby"}
	a.Commands <- &Command{Kind: CommandJoinRoom, Room: "lobby"}

	// First join: history, announcement, users. Second: history, users only.
	mustEvent(t, a.Events, EventRoomHistory)
	mustEvent(t, a.Events, EventMessage)
	mustEvent(t, a.Events, EventRoomUsers)

	second := mustEvent(t, a.Events, EventRoomHistory)
	if len(second.Messages) != 1 {
		t.Fatalf("history after double join has %d messages", len(second.Messages))
	}
	noEvent(t, a.Events, EventMessage)

	if got := hub.RoomMembers("lobby"); len(got) != 1 {
		t.Fatalf("double join duplicated membership: %v", got)
	}
}

func TestHubSetProfileBroadcastsPresence(t *testing.T) {
	hub := startHub(t)

	a := connect(t, hub, "a")
	b := connect(t, hub, "b")
	mustEvent(t, a.Events, EventHistory)
	mustEvent(t, b.Events, EventHistory)

	a.Commands <- &Command{
		Kind:     CommandSetProfile,
		Username: strptr("  Alice  "),
		Avatar:   strptr("http://x/a.png"),
	}

	for {
		ev := mustEvent(t, b.Events, EventOnlineUsers)
		found := false
		for _, p := range ev.Profiles {
			if p.Username == "Alice" && p.Avatar == "http://x/a.png" {
				found = true
			}
		}
		if found {
			break
		}
	}
}

func TestHubEmptyMessageDropped(t *testing.T) {
	hub := startHub(t)

	a := connect(t, hub, "a")
	mustEvent(t, a.Events, EventHistory)

	a.Commands <- &Command{Kind: CommandSendMessage, Text: "   "}
	noEvent(t, a.Events, EventMessage)

	if got := len(hub.History("", 50)); got != 0 {
		t.Fatalf("blank message stored: %d", got)
	}
}

func TestHubFileOnlyMessageAccepted(t *testing.T) {
	hub := startHub(t)

	a := connect(t, hub, "a")
	mustEvent(t, a.Events, EventHistory)

	file := &FileAttachment{Name: "pic.png", Size: 42, Category: "image", URL: "/uploads/pic.png"}
	a.Commands <- &Command{Kind: CommandSendMessage, File: file, TempID: "tmp-1"}

	ev := mustEvent(t, a.Events, EventMessage)
	if ev.Message.File == nil || ev.Message.File.Name != "pic.png" {
		t.Fatalf("file attachment lost: %+v", ev.Message)
	}
	if ev.Message.TempID != "tmp-1" {
		t.Fatalf("tempId not echoed: %+v", ev.Message)
	}
}

func TestHubLeaveNeverJoinedIsSilent(t *testing.T) {
	hub := startHub(t)

	a := connect(t, hub, "a")
	mustEvent(t, a.Events, EventHistory)

	a.Commands <- &Command{Kind: CommandLeaveRoom, Room: "ghost"}
	noEvent(t, a.Events, EventMessage)

	if got := len(hub.History("ghost", 50)); got != 0 {
		t.Fatalf("leave of unknown room stored a system message: %d", got)
	}
}

func TestHubLeaveAnnouncesAndUpdatesUsers(t *testing.T) {
	hub := startHub(t)

	a := connect(t, hub, "a")
	b := connect(t, hub, "b")
	mustEvent(t, a.Events, EventHistory)
	mustEvent(t, b.Events, EventHistory)

	a.Commands <- &Command{Kind: CommandJoinRoom, Room: "lobby"}
	b.Commands <- &Command{Kind: CommandJoinRoom, Room: "lobby"}
	mustEvent(t, b.Events, EventRoomUsers)

	a.Commands <- &Command{Kind: CommandLeaveRoom, Room: "lobby"}

	ev := mustEvent(t, b.Events, EventMessage)
	for ev.Message.Text != "Anonymous left" {
		ev = mustEvent(t, b.Events, EventMessage)
	}

	users := mustEvent(t, b.Events, EventRoomUsers)
	for len(users.Members) != 1 {
		users = mustEvent(t, b.Events, EventRoomUsers)
	}
	if users.Members[0] != "b" {
		t.Fatalf("unexpected remaining member: %v", users.Members)
	}

	// History for the room survives the membership going away.
	if got := len(hub.History("lobby", 50)); got == 0 {
		t.Fatal("room history lost after leave")
	}
}

func TestHubDisconnectAnnouncesToRooms(t *testing.T) {
	hub := startHub(t)

	a := connect(t, hub, "a")
	b := connect(t, hub, "b")
	mustEvent(t, a.Events, EventHistory)
	mustEvent(t, b.Events, EventHistory)

	a.Commands <- &Command{Kind: CommandJoinRoom, Room: "lobby"}
	b.Commands <- &Command{Kind: CommandJoinRoom, Room: "lobby"}
	mustEvent(t, b.Events, EventRoomUsers)

	close(a.Commands)
	hub.UnregisterClient(a)

	ev := mustEvent(t, b.Events, EventMessage)
	for ev.Message.Text != "Anonymous disconnected" {
		ev = mustEvent(t, b.Events, EventMessage)
	}

	users := mustEvent(t, b.Events, EventRoomUsers)
	for len(users.Members) != 1 {
		users = mustEvent(t, b.Events, EventRoomUsers)
	}

	online := mustEvent(t, b.Events, EventOnlineUsers)
	for len(online.Profiles) != 1 {
		online = mustEvent(t, b.Events, EventOnlineUsers)
	}
}

func TestHubScopedClearBroadcasts(t *testing.T) {
	hub := startHub(t)

	a := connect(t, hub, "a")
	mustEvent(t, a.Events, EventHistory)

	a.Commands <- &Command{Kind: CommandJoinRoom, Room: "lobby"}
	a.Commands <- &Command{Kind: CommandSendRoomMessage, Room: "lobby", Text: "hi"}
	a.Commands <- &Command{Kind: CommandSendMessage, Text: "global"}
	a.Commands <- &Command{Kind: CommandClearRoom, Room: "lobby"}

	cleared := mustEvent(t, a.Events, EventCleared)
	if cleared.Room != "lobby" {
		t.Fatalf("cleared notice for wrong scope: %q", cleared.Room)
	}

	if got := len(hub.History("lobby", 50)); got != 0 {
		t.Fatalf("room history not cleared: %d", got)
	}
	if got := len(hub.History("", 50)); got != 1 {
		t.Fatalf("global history affected: %d", got)
	}
}

func TestHubGetRoomMembersRoster(t *testing.T) {
	hub := startHub(t)

	a := connect(t, hub, "a")
	mustEvent(t, a.Events, EventHistory)

	a.Commands <- &Command{Kind: CommandSetProfile, Username: strptr("Alice")}
	a.Commands <- &Command{Kind: CommandJoinRoom, Room: "lobby"}
	a.Commands <- &Command{Kind: CommandGetRoomMembers, Room: "lobby"}

	roster := mustEvent(t, a.Events, EventRoomMembersList)
	if len(roster.Roster) != 1 {
		t.Fatalf("roster size: %d", len(roster.Roster))
	}
	entry := roster.Roster[0]
	if entry.Username != "Alice" || !entry.Online {
		t.Fatalf("unexpected roster entry: %+v", entry)
	}
}

func TestHubPostMessageInjection(t *testing.T) {
	hub := startHub(t)

	a := connect(t, hub, "a")
	mustEvent(t, a.Events, EventHistory)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	msg, err := hub.PostMessage(ctx, "Poster", "", "from the api", nil)
	if err != nil {
		t.Fatalf("post message: %v", err)
	}
	if msg.ID == 0 || msg.UserID != "api" || msg.Username != "Poster" {
		t.Fatalf("unexpected committed message: %+v", msg)
	}

	ev := mustEvent(t, a.Events, EventMessage)
	if ev.Message.ID != msg.ID || ev.Message.Text != "from the api" {
		t.Fatalf("broadcast mismatch: %+v", ev.Message)
	}

	if _, err := hub.PostMessage(ctx, "Poster", "", "   ", nil); err != ErrEmptyMessage {
		t.Fatalf("expected ErrEmptyMessage, got %v", err)
	}
	if _, err := hub.PostRoomMessage(ctx, "  ", "Poster", "", "hi", nil); err != ErrEmptyRoom {
		t.Fatalf("expected ErrEmptyRoom, got %v", err)
	}
}

func TestHubUsernameCapAppliedToSystemMessages(t *testing.T) {
	hub := startHub(t)

	a := connect(t, hub, "a")
	mustEvent(t, a.Events, EventHistory)

	long := make([]byte, 0, 80)
	for i := 0; i < 80; i++ {
		long = append(long, 'x')
	}
	a.Commands <- &Command{Kind: CommandSetProfile, Username: strptr(string(long))}
	a.Commands <- &Command{Kind: CommandJoinRoom, Room: "lobby"}

	ev := mustEvent(t, a.Events, EventMessage)
	want := string(long[:MaxUsernameLen]) + " joined"
	if ev.Message.Text != want {
		t.Fatalf("join announcement %q, want %q", ev.Message.Text, want)
	}
}
