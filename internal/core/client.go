package core

// Client is one connection as seen by the core layer. Profile is owned by
// the hub goroutine after registration; the transport only reads the ID
// and the two channels.
type Client struct {
	ID       string
	Profile  Profile
	Commands chan *Command
	Events   chan *Event
}

// NewClient constructs a client with default profile values: the user ID
// falls back to the connection ID and the name to the anonymous default.
func NewClient(id string, profile Profile) *Client {
	if profile.UserID == "" {
		profile.UserID = id
	}
	if profile.Username == "" {
		profile.Username = AnonymousName
	}
	return &Client{
		ID:       id,
		Profile:  profile,
		Commands: make(chan *Command, 8),
		Events:   make(chan *Event, 64),
	}
}
