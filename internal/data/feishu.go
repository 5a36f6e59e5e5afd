package data

import (
	"context"

	"github.com/edurelay/feishu-class-relay/internal/biz/repo"
	"github.com/edurelay/feishu-class-relay/internal/infra/feishu"
)

// feishuRepo implements the outbound message repository on the Feishu client.
type feishuRepo struct {
	client *feishu.Client
}

// NewFeishuRepo creates a new Feishu message repository.
func NewFeishuRepo(client *feishu.Client) repo.MessageRepo {
	return &feishuRepo{client: client}
}

// SendText sends a text message to a user's chat.
func (r *feishuRepo) SendText(ctx context.Context, recipientID, text string) error {
	return r.client.SendText(recipientID, text)
}

// GetFileReference downloads a photo attachment and returns its local path.
// The path is what the operator receives as the submission reference.
func (r *feishuRepo) GetFileReference(ctx context.Context, msgID, fileKey string) (string, error) {
	return r.client.DownloadFile(msgID, fileKey, "image")
}
