package chat

import "encoding/json"

// Message represents a Minecraft JSON chat component.
type Message struct {
	Text      string            `json:"text,omitempty"`
	Translate string            `json:"translate,omitempty"`
	Color     string            `json:"color,omitempty"`
	Extra     []Message         `json:"extra,omitempty"`
	With      []json.RawMessage `json:"with,omitempty"`
}

// String serializes the message to JSON.
func (m Message) String() string {
	b, _ := json.Marshal(m)
	return string(b)
}

// Text creates a simple text message.
func Text(text string) Message {
	return Message{Text: text}
}

// Colored creates a colored text message.
func Colored(text, color string) Message {
	return Message{Text: text, Color: color}
}

// ParsePlayerChat extracts the speaking player and the message text
// from a chat.type.text component. Two historical layouts exist for
// the message argument: a component whose extra texts must be
// concatenated, or a bare JSON string. The structured form is tried
// first.
func ParsePlayerChat(raw string) (player, message string, ok bool) {
	var m Message
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return "", "", false
	}
	if len(m.With) < 2 {
		return "", "", false
	}

	var sender Message
	if err := json.Unmarshal(m.With[0], &sender); err == nil {
		player = sender.Text
	}
	if player == "" {
		// Sender may itself be a bare string.
		if err := json.Unmarshal(m.With[0], &player); err != nil || player == "" {
			return "", "", false
		}
	}

	var body Message
	if err := json.Unmarshal(m.With[1], &body); err == nil && len(body.Extra) > 0 {
		for _, part := range body.Extra {
			message += part.Text
		}
		return player, message, true
	}
	if err := json.Unmarshal(m.With[1], &message); err == nil {
		return player, message, true
	}
	return "", "", false
}
