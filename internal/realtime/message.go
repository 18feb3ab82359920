package realtime

// Message is the frame written to sessions: {"event": "...", "data": ...}.
type Message struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// NewMessage creates a Message named "<entity>:<action>".
func NewMessage(entity, action string, data any) Message {
	return Message{
		Event: entity + ":" + action,
		Data:  data,
	}
}
