package domain

// SessionKind tags an in-flight multi-step dialogue.
type SessionKind string

const (
	SessionSendAll           SessionKind = "SEND_ALL"
	SessionSendSingle        SessionKind = "SEND_SINGLE"
	SessionSendSingleMessage SessionKind = "SEND_SINGLE_MESSAGE"
	SessionSendGroup         SessionKind = "SEND_GROUP"
	SessionSendGroupMessage  SessionKind = "SEND_GROUP_MESSAGE"
	SessionEdit              SessionKind = "EDIT"
	SessionSubmit            SessionKind = "SUBMIT"
)

// Session is the transient per-sender dialogue state. At most one session
// exists per sender; its absence means the sender's next message is a fresh
// command. Only the payload the kind needs is set: TargetID for
// SEND_SINGLE_MESSAGE, TargetGroup for SEND_GROUP_MESSAGE.
type Session struct {
	Kind        SessionKind
	TargetID    int64
	TargetGroup string
}
