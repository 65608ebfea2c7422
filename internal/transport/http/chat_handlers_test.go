package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/roomcast/roomcast-server/internal/proto"
)

func postJSON(t *testing.T, ts *httptest.Server, path, body string) *http.Response {
	t.Helper()
	resp, err := ts.Client().Post(ts.URL+path, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	return resp
}

func TestPostAndGetGlobalMessages(t *testing.T) {
	ts := startTestServer(t)

	resp := postJSON(t, ts, "/api/messages", `{"username":"alice","message":"hello"}`)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", resp.StatusCode)
	}

	var created proto.ChatMessage
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode created message: %v", err)
	}
	if created.ID != 1 || created.Username != "alice" || created.Message != "hello" {
		t.Fatalf("unexpected created message: %+v", created)
	}
	if created.TS == 0 {
		t.Fatal("expected non-zero timestamp")
	}

	getResp, err := ts.Client().Get(ts.URL + "/api/messages")
	if err != nil {
		t.Fatalf("GET /api/messages: %v", err)
	}
	defer getResp.Body.Close()

	var history []proto.ChatMessage
	if err := json.NewDecoder(getResp.Body).Decode(&history); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(history) != 1 || history[0].ID != created.ID {
		t.Fatalf("unexpected history: %+v", history)
	}
}

func TestPostGlobalMessageRejectsEmpty(t *testing.T) {
	ts := startTestServer(t)

	resp := postJSON(t, ts, "/api/messages", `{"username":"alice","message":"   "}`)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.StatusCode)
	}
}

func TestPostGlobalMessageFileOnly(t *testing.T) {
	ts := startTestServer(t)

	resp := postJSON(t, ts, "/api/messages",
		`{"username":"alice","file":{"name":"pic.png","size":42,"type":"image","url":"/uploads/pic.png"}}`)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", resp.StatusCode)
	}

	var created proto.ChatMessage
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode created message: %v", err)
	}
	if created.File == nil || created.File.Name != "pic.png" {
		t.Fatalf("expected file attachment, got %+v", created)
	}
}

func TestRoomMessageEndpoints(t *testing.T) {
	ts := startTestServer(t)

	resp := postJSON(t, ts, "/api/rooms/general/messages", `{"username":"bob","message":"room hello"}`)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", resp.StatusCode)
	}

	var created proto.ChatMessage
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode created message: %v", err)
	}
	if created.RoomID != "general" {
		t.Fatalf("expected roomId general, got %q", created.RoomID)
	}

	getResp, err := ts.Client().Get(ts.URL + "/api/rooms/general/messages")
	if err != nil {
		t.Fatalf("GET room messages: %v", err)
	}
	defer getResp.Body.Close()

	var history []proto.ChatMessage
	if err := json.NewDecoder(getResp.Body).Decode(&history); err != nil {
		t.Fatalf("decode room history: %v", err)
	}
	if len(history) != 1 || history[0].Message != "room hello" {
		t.Fatalf("unexpected room history: %+v", history)
	}

	// Global history stays untouched.
	globalResp, err := ts.Client().Get(ts.URL + "/api/messages")
	if err != nil {
		t.Fatalf("GET global messages: %v", err)
	}
	defer globalResp.Body.Close()

	var global []proto.ChatMessage
	if err := json.NewDecoder(globalResp.Body).Decode(&global); err != nil {
		t.Fatalf("decode global history: %v", err)
	}
	if len(global) != 0 {
		t.Fatalf("expected empty global history, got %+v", global)
	}
}

func TestGetRoomMessagesTrimsRoomID(t *testing.T) {
	ts := startTestServer(t)

	resp := postJSON(t, ts, "/api/rooms/general/messages", `{"username":"bob","message":"hi"}`)
	resp.Body.Close()

	getResp, err := ts.Client().Get(ts.URL + "/api/rooms/%20general%20/messages")
	if err != nil {
		t.Fatalf("GET padded room messages: %v", err)
	}
	defer getResp.Body.Close()

	var history []proto.ChatMessage
	if err := json.NewDecoder(getResp.Body).Decode(&history); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(history) != 1 || history[0].Message != "hi" {
		t.Fatalf("padded roomId did not resolve to stored history: %+v", history)
	}
}

func TestHistoryLimitParam(t *testing.T) {
	ts := startTestServer(t)

	for i := 0; i < 5; i++ {
		resp := postJSON(t, ts, "/api/messages", `{"username":"alice","message":"m"}`)
		resp.Body.Close()
	}

	getResp, err := ts.Client().Get(ts.URL + "/api/messages?limit=2")
	if err != nil {
		t.Fatalf("GET with limit: %v", err)
	}
	defer getResp.Body.Close()

	var history []proto.ChatMessage
	if err := json.NewDecoder(getResp.Body).Decode(&history); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(history))
	}
	// Most recent tail, oldest first.
	if history[0].ID != 4 || history[1].ID != 5 {
		t.Fatalf("unexpected tail: %+v", history)
	}
}

func TestListRoomsReflectsMembership(t *testing.T) {
	ts := startTestServer(t)

	// Posting to a room does not create a membership.
	resp := postJSON(t, ts, "/api/rooms/general/messages", `{"message":"hi"}`)
	resp.Body.Close()

	getResp, err := ts.Client().Get(ts.URL + "/api/rooms")
	if err != nil {
		t.Fatalf("GET /api/rooms: %v", err)
	}
	defer getResp.Body.Close()

	var rooms []RoomListEntry
	if err := json.NewDecoder(getResp.Body).Decode(&rooms); err != nil {
		t.Fatalf("decode rooms: %v", err)
	}
	if len(rooms) != 0 {
		t.Fatalf("expected no active rooms, got %+v", rooms)
	}
}

func TestGetRoomMembersEmpty(t *testing.T) {
	ts := startTestServer(t)

	getResp, err := ts.Client().Get(ts.URL + "/api/rooms/nowhere/members")
	if err != nil {
		t.Fatalf("GET members: %v", err)
	}
	defer getResp.Body.Close()

	var members proto.RoomUsersData
	if err := json.NewDecoder(getResp.Body).Decode(&members); err != nil {
		t.Fatalf("decode members: %v", err)
	}
	if members.RoomID != "nowhere" || len(members.Members) != 0 {
		t.Fatalf("unexpected members payload: %+v", members)
	}
}

func TestAdminClearMessages(t *testing.T) {
	ts := startTestServer(t)

	resp := postJSON(t, ts, "/api/messages", `{"username":"alice","message":"doomed"}`)
	resp.Body.Close()
	resp = postJSON(t, ts, "/api/rooms/general/messages", `{"username":"alice","message":"also doomed"}`)
	resp.Body.Close()

	clearResp := postJSON(t, ts, "/api/admin/clear-messages", "")
	defer clearResp.Body.Close()
	if clearResp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", clearResp.StatusCode)
	}

	for _, path := range []string{"/api/messages", "/api/rooms/general/messages"} {
		getResp, err := ts.Client().Get(ts.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		var history []proto.ChatMessage
		if err := json.NewDecoder(getResp.Body).Decode(&history); err != nil {
			t.Fatalf("decode %s: %v", path, err)
		}
		getResp.Body.Close()
		if len(history) != 0 {
			t.Fatalf("expected %s empty after clear, got %+v", path, history)
		}
	}
}

func TestAuthEndpoints(t *testing.T) {
	ts := startTestServer(t)

	resp := postJSON(t, ts, "/api/auth/register", `{"username":"dave","password":"secret123"}`)
	var registered AuthResponse
	if err := json.NewDecoder(resp.Body).Decode(&registered); err != nil {
		t.Fatalf("decode register: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated || registered.Token == "" {
		t.Fatalf("unexpected register response: status=%d token=%q", resp.StatusCode, registered.Token)
	}

	resp = postJSON(t, ts, "/api/auth/register", `{"username":"dave","password":"secret123"}`)
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected status 409 for duplicate, got %d", resp.StatusCode)
	}

	resp = postJSON(t, ts, "/api/auth/login", `{"username":"dave","password":"secret123"}`)
	var loggedIn AuthResponse
	if err := json.NewDecoder(resp.Body).Decode(&loggedIn); err != nil {
		t.Fatalf("decode login: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || loggedIn.Token == "" {
		t.Fatalf("unexpected login response: status=%d", resp.StatusCode)
	}

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/api/auth/profile", nil)
	if err != nil {
		t.Fatalf("build profile request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+loggedIn.Token)
	profileResp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("GET profile: %v", err)
	}
	defer profileResp.Body.Close()

	var profile ProfileResponse
	if err := json.NewDecoder(profileResp.Body).Decode(&profile); err != nil {
		t.Fatalf("decode profile: %v", err)
	}
	if profileResp.StatusCode != http.StatusOK || profile.Username != "dave" || profile.IsGuest {
		t.Fatalf("unexpected profile: status=%d %+v", profileResp.StatusCode, profile)
	}

	noAuthResp, err := ts.Client().Get(ts.URL + "/api/auth/profile")
	if err != nil {
		t.Fatalf("GET profile without token: %v", err)
	}
	noAuthResp.Body.Close()
	if noAuthResp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected status 401 without token, got %d", noAuthResp.StatusCode)
	}
}
