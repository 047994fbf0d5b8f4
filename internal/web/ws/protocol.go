package ws

import "github.com/gorilla/websocket"

// Close codes sent by the server
const (
	// CloseUnauthenticated rejects a handshake without a usable credential
	CloseUnauthenticated = 4401
	// CloseStoreUnavailable ends a session whose store connection is gone
	CloseStoreUnavailable = websocket.CloseInternalServerErr
	// CloseShutdown ends sessions when the server stops
	CloseShutdown = websocket.CloseGoingAway
)

// Close reasons
const (
	ReasonMissingCredential = "unauthenticated"
	ReasonInvalidCredential = "invalid session"
	ReasonStoreUnavailable  = "store unavailable"
	ReasonShutdown          = "server shutting down"
)

// Response statuses
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Error messages
const (
	MessageInvalid       = "invalid message"
	MessageUnknownAction = "unknown action"
	MessageInternal      = "internal error"
)

// Request is an inbound client message. It has no player field: the player
// is always the one authenticated at handshake.
type Request struct {
	Action string `json:"action"`
}

// Response is the single reply to each inbound message
type Response struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Card    string `json:"card,omitempty"`
	Score   *int   `json:"score,omitempty"`
}

func success() Response {
	return Response{Status: StatusSuccess}
}

func failure(message string) Response {
	return Response{Status: StatusError, Message: message}
}
