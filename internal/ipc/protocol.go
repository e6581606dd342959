package ipc

// Commands accepted by a running session daemon.
const (
	CommandStatus = "status"
	CommandReset  = "reset"
)

// Request is one newline-delimited JSON command frame.
type Request struct {
	Command string `json:"command"`
}

// Response reports command disposition. State carries the session status line
// for CommandStatus; Message carries optional human-readable detail.
type Response struct {
	OK      bool   `json:"ok"`
	State   string `json:"state,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}
