package domain

// Role classifies the sender of an inbound message.
type Role string

const (
	RoleOperator    Role = "operator"
	RoleParticipant Role = "participant"
	RoleUnknown     Role = "unknown"
)

// MessageKind is the payload kind of an inbound message.
type MessageKind string

const (
	KindText     MessageKind = "text"
	KindPhoto    MessageKind = "photo"
	KindDocument MessageKind = "document"
	KindVideo    MessageKind = "video"
	KindAudio    MessageKind = "audio"
	KindVoice    MessageKind = "voice"
	KindSticker  MessageKind = "sticker"
)

// IsText reports whether the message carries plain text.
func (k MessageKind) IsText() bool { return k == KindText }

// Inbound is a message received from the transport, already decoded from the
// platform wire format.
type Inbound struct {
	SenderID string // platform identity of the sender
	MsgID    string // platform message id, used for dedup and file retrieval
	Kind     MessageKind
	Text     string // set when Kind is KindText
	FileKey  string // set for attachment kinds that carry a retrievable file
}
