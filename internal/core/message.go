package core

import (
	"strings"
	"time"
)

// Input limits applied when messages and profiles are normalized.
const (
	MaxUsernameLen = 40
	MaxTextLen     = 2000
	MaxAvatarLen   = 500

	// HistoryCap bounds each scope's retained history and the largest
	// slice a history query may return.
	HistoryCap = 500
	// DefaultHistoryLimit is used when a caller does not ask for a
	// specific amount of history.
	DefaultHistoryLimit = 50
)

// Reserved sender identity for membership lifecycle messages.
const (
	SystemUserID   = "system"
	SystemUsername = "[system]"

	AnonymousName = "Anonymous"
)

// FileAttachment describes an uploaded file referenced by a message.
// The core embeds it verbatim; the upload service owns its contents.
type FileAttachment struct {
	Name     string
	Size     int64
	Category string
	URL      string
}

// Message is the domain model for a chat message. RoomID is empty for
// the global scope. Messages are immutable once appended to a store.
type Message struct {
	ID        int64
	UserID    string
	Username  string
	Avatar    string
	Text      string
	File      *FileAttachment
	RoomID    string
	TempID    string
	CreatedAt int64 // unix milliseconds
}

// SanitizeUsername trims and caps a display name, falling back to the
// anonymous default when nothing remains.
func SanitizeUsername(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return AnonymousName
	}
	return truncate(name, MaxUsernameLen)
}

// SanitizeText trims and caps message text.
func SanitizeText(text string) string {
	return truncate(strings.TrimSpace(text), MaxTextLen)
}

// SanitizeAvatar trims and caps an avatar reference.
func SanitizeAvatar(avatar string) string {
	return truncate(strings.TrimSpace(avatar), MaxAvatarLen)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

func nowMillis() int64 {
	return time.Now().UnixMilli()
}
