package ws

// Frame is a server-to-client event
type Frame struct {
	Event   string `json:"event"`
	Payload any    `json:"payload"`
}

// DataPayload carries a chunk of terminal output
type DataPayload struct {
	ID   string `json:"id"`
	Data []byte `json:"data"`
}

// ExitPayload announces that a session's process ended on its own
type ExitPayload struct {
	ID string `json:"id"`
}

// ClientMessage is a client-to-server request
type ClientMessage struct {
	Type string `json:"type"`
	ID   string `json:"id,omitempty"`
	Data []byte `json:"data,omitempty"`
	Cols int    `json:"cols,omitempty"`
	Rows int    `json:"rows,omitempty"`
}

// Reply acknowledges or rejects a client message
type Reply struct {
	Type      string `json:"type"`
	ID        string `json:"id,omitempty"`
	Message   string `json:"message,omitempty"`
	Timestamp int64  `json:"timestamp"`
}
