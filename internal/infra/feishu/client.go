package feishu

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	lark "github.com/larksuite/oapi-sdk-go/v3"
	larkcore "github.com/larksuite/oapi-sdk-go/v3/core"
	"github.com/larksuite/oapi-sdk-go/v3/event/dispatcher"
	larkim "github.com/larksuite/oapi-sdk-go/v3/service/im/v1"
	larkws "github.com/larksuite/oapi-sdk-go/v3/ws"
)

// Message represents a received Feishu message, reduced to what the relay
// consumes: who sent it, what kind of payload it is, and the text or file
// key carried by it.
type Message struct {
	SenderID string // sender open_id
	MsgID    string
	MsgType  string // text, image, file, media, audio, sticker, post
	ChatType string // p2p, group
	Content  string // text content (text and post messages)
	FileKey  string // image/file key for attachment messages
}

// MessageHandler is the callback for received messages.
type MessageHandler func(msg *Message)

// Client is the Feishu API client.
type Client struct {
	appID       string
	appSecret   string
	larkCli     *lark.Client
	wsCli       *larkws.Client
	onMessage   MessageHandler
	downloadDir string
	ctx         context.Context
	cancel      context.CancelFunc
}

// NewClient creates a new Feishu client.
func NewClient(appID, appSecret, downloadDir string) *Client {
	return &Client{
		appID:       appID,
		appSecret:   appSecret,
		downloadDir: downloadDir,
	}
}

// OnMessage sets the message handler.
func (c *Client) OnMessage(handler MessageHandler) {
	c.onMessage = handler
}

// Start connects to Feishu via WebSocket and starts listening for messages.
func (c *Client) Start() error {
	c.ctx, c.cancel = context.WithCancel(context.Background())

	c.larkCli = lark.NewClient(c.appID, c.appSecret)

	// Note: must return quickly so the SDK can send an ACK, otherwise
	// Feishu will retry the event delivery.
	eventHandler := dispatcher.NewEventDispatcher("", "").
		OnP2MessageReceiveV1(func(ctx context.Context, event *larkim.P2MessageReceiveV1) error {
			go c.handleMessage(event)
			return nil
		})

	c.wsCli = larkws.NewClient(c.appID, c.appSecret,
		larkws.WithEventHandler(eventHandler),
		larkws.WithLogLevel(larkcore.LogLevelInfo),
	)

	fmt.Println("[Feishu] Starting WebSocket connection...")

	// Start WebSocket (blocking)
	return c.wsCli.Start(c.ctx)
}

// Stop disconnects from Feishu.
func (c *Client) Stop() {
	if c.cancel != nil {
		c.cancel()
	}
}

// handleMessage converts an incoming Feishu event into a Message.
func (c *Client) handleMessage(event *larkim.P2MessageReceiveV1) {
	rawMsg := event.Event.Message
	if rawMsg == nil {
		return
	}

	// Ignore the bot's own messages to prevent loops
	if event.Event.Sender != nil && event.Event.Sender.SenderType != nil {
		if *event.Event.Sender.SenderType == "app" {
			return
		}
	}

	msg := &Message{
		MsgID:   *rawMsg.MessageId,
		MsgType: *rawMsg.MessageType,
	}
	if rawMsg.ChatType != nil {
		msg.ChatType = *rawMsg.ChatType
	}
	if event.Event.Sender != nil && event.Event.Sender.SenderId != nil && event.Event.Sender.SenderId.OpenId != nil {
		msg.SenderID = *event.Event.Sender.SenderId.OpenId
	}
	if msg.SenderID == "" {
		return
	}

	switch msg.MsgType {
	case "text":
		msg.Content = parseTextContent(*rawMsg.Content)
	case "post":
		msg.Content = parsePostContent(*rawMsg.Content)
		// A rich text message is treated as plain text
		msg.MsgType = "text"
	case "image":
		msg.FileKey = parseKeyContent(*rawMsg.Content, "image_key")
	case "file", "media", "audio", "sticker":
		msg.FileKey = parseKeyContent(*rawMsg.Content, "file_key")
	default:
		fmt.Printf("[Feishu] Unsupported message type: %s\n", msg.MsgType)
		return
	}

	fmt.Printf("[Feishu] Received %s from %s (%s chat)\n", msg.MsgType, msg.SenderID, msg.ChatType)

	if c.onMessage != nil {
		c.onMessage(msg)
	}
}

// parseTextContent extracts text from a text message body.
func parseTextContent(content string) string {
	var parsed struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return ""
	}
	return parsed.Text
}

// parseKeyContent extracts a named file key from an attachment message body.
func parseKeyContent(content, field string) string {
	var parsed map[string]string
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return ""
	}
	return parsed[field]
}

// parsePostContent flattens a rich text (post) message into plain text.
func parsePostContent(content string) string {
	var parsed struct {
		Title   string `json:"title"`
		Content [][]struct {
			Tag  string `json:"tag"`
			Text string `json:"text,omitempty"`
		} `json:"content"`
	}
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return ""
	}

	var out string
	if parsed.Title != "" {
		out = parsed.Title
	}
	for _, line := range parsed.Content {
		var lineText string
		for _, elem := range line {
			if elem.Tag == "text" {
				lineText += elem.Text
			}
		}
		if lineText != "" {
			if out != "" {
				out += "\n"
			}
			out += lineText
		}
	}
	return out
}

// SendText sends a text message directly to a user by open_id.
func (c *Client) SendText(openID, text string) error {
	content := map[string]string{"text": text}
	contentJSON, _ := json.Marshal(content)

	req := larkim.NewCreateMessageReqBuilder().
		ReceiveIdType(larkim.ReceiveIdTypeOpenId).
		Body(larkim.NewCreateMessageReqBodyBuilder().
			ReceiveId(openID).
			MsgType(larkim.MsgTypeText).
			Content(string(contentJSON)).
			Build()).
		Build()

	resp, err := c.larkCli.Im.Message.Create(context.Background(), req)
	if err != nil {
		return fmt.Errorf("send message failed: %w", err)
	}
	if !resp.Success() {
		return fmt.Errorf("send message error: %s", resp.Msg)
	}

	return nil
}

// DownloadFile downloads a message attachment and returns the local path.
func (c *Client) DownloadFile(messageID, fileKey, resourceType string) (string, error) {
	if err := os.MkdirAll(c.downloadDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create download dir: %w", err)
	}

	req := larkim.NewGetMessageResourceReqBuilder().
		MessageId(messageID).
		FileKey(fileKey).
		Type(resourceType).
		Build()

	resp, err := c.larkCli.Im.MessageResource.Get(context.Background(), req)
	if err != nil {
		return "", fmt.Errorf("failed to get resource: %w", err)
	}
	if !resp.Success() {
		return "", fmt.Errorf("get resource error: %s", resp.Msg)
	}

	filePath := filepath.Join(c.downloadDir, fileKey+".png")
	file, err := os.Create(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	if _, err := io.Copy(file, resp.File); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	fmt.Printf("[Feishu] Downloaded resource to %s\n", filePath)
	return filePath, nil
}
