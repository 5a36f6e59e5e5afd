package repo

import "context"

// MessageRepo is the outbound side of the chat transport. Delivery is
// best-effort; the core observes errors but never retries.
type MessageRepo interface {
	// SendText sends a plain text message to a recipient's chat.
	SendText(ctx context.Context, recipientID, text string) error

	// GetFileReference resolves an attachment into a retrievable
	// reference (a downloaded local path). Used only when relaying a
	// photo submission to the operator.
	GetFileReference(ctx context.Context, msgID, fileKey string) (string, error)
}
