package utils

import "github.com/google/uuid"

// NewID returns a unique identifier for connections and stored files.
func NewID() string {
	return uuid.NewString()
}
