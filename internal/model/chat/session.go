package chat

// Snapshot is a point-in-time copy of a session's observable state.
// Version grows with every mutation, so a newer snapshot always has a larger Version.
type Snapshot struct {
	SessionID  string    `json:"sessionId"`
	Transcript []Message `json:"transcript"`
	Input      string    `json:"input"`
	Busy       bool      `json:"busy"`
	Version    uint64    `json:"version"`
}

// Last returns the most recent message, if any.
func (s Snapshot) Last() (Message, bool) {
	if len(s.Transcript) == 0 {
		return Message{}, false
	}
	return s.Transcript[len(s.Transcript)-1], true
}
