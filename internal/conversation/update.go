package conversation

// Update is one inbound message delivered by the chat transport. Exactly one
// of Text or Callback carries the payload; Phone is set only when the user
// shares a contact on first registration.
type Update struct {
	UserID   int64     `json:"user_id"`
	FullName string    `json:"full_name,omitempty"`
	Phone    string    `json:"phone,omitempty"`
	Text     string    `json:"text,omitempty"`
	Callback *Callback `json:"callback,omitempty"`
}

// Callback is a structured button-press event carrying a tagged action and a
// reservation id, used by the cancellation shortcut.
type Callback struct {
	Action        Action `json:"action"`
	ReservationID int64  `json:"reservation_id"`
}

// Button is a per-item action button attached to a reply.
type Button struct {
	Label         string `json:"label"`
	Action        Action `json:"action"`
	ReservationID int64  `json:"reservation_id"`
}

// Reply is one outbound message. Keyboard constrains the next input to a fixed
// choice set; Buttons attach per-item actions. Delivery is the transport's
// concern; the core only assumes an error channel.
type Reply struct {
	Text           string     `json:"text"`
	Keyboard       [][]string `json:"keyboard,omitempty"`
	Buttons        []Button   `json:"buttons,omitempty"`
	RequestContact bool       `json:"request_contact,omitempty"`
}
