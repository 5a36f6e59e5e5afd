package repo

import "github.com/edurelay/feishu-class-relay/internal/biz/domain"

// SessionStore is the process-wide table of in-flight dialogue states,
// keyed by sender identity. No persistence and no expiry: a session lives
// until the state machine clears it or the process restarts.
type SessionStore interface {
	Get(senderID string) (domain.Session, bool)
	Set(senderID string, session domain.Session)
	Clear(senderID string)
}
