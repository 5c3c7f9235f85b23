package pkg

import "github.com/google/uuid"

// GenerateConnectionID returns a random id for a websocket connection.
func GenerateConnectionID() string {
	return uuid.NewString()
}

// GeneratePlayerID is used for connections that did not bring an identity.
func GeneratePlayerID() string {
	return "guest-" + uuid.NewString()
}
