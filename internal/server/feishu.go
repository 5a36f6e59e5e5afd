package server

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/edurelay/feishu-class-relay/internal/biz/domain"
	"github.com/edurelay/feishu-class-relay/internal/infra/feishu"
	"github.com/edurelay/feishu-class-relay/internal/service"
)

// seenTTL bounds the dedup cache: Feishu redeliveries arrive within seconds.
const seenTTL = 10 * time.Minute

// FeishuServer receives Feishu events and feeds them into the relay.
type FeishuServer struct {
	feishuClient *feishu.Client
	relaySvc     *service.RelayService

	// Message deduplication cache
	seenMsgsMu sync.Mutex
	seenMsgs   map[string]time.Time // msgID -> first seen
}

// NewFeishuServer creates a new Feishu server.
func NewFeishuServer(feishuClient *feishu.Client, relaySvc *service.RelayService) *FeishuServer {
	return &FeishuServer{
		feishuClient: feishuClient,
		relaySvc:     relaySvc,
		seenMsgs:     make(map[string]time.Time),
	}
}

// Start sets the message handler and starts the Feishu client (blocking).
func (s *FeishuServer) Start() error {
	s.feishuClient.OnMessage(s.handleMessage)
	return s.feishuClient.Start()
}

// Stop stops the server.
func (s *FeishuServer) Stop() {
	s.feishuClient.Stop()
}

// handleMessage converts a Feishu message into an inbound event and runs it.
func (s *FeishuServer) handleMessage(msg *feishu.Message) {
	// The relay talks to the operator and participants one-on-one; group
	// chat traffic is not part of any flow.
	if msg.ChatType == "group" {
		return
	}

	if s.markSeen(msg.MsgID) {
		fmt.Printf("[Server] Duplicate message ignored: %s\n", msg.MsgID)
		return
	}

	in := &domain.Inbound{
		SenderID: msg.SenderID,
		MsgID:    msg.MsgID,
		Kind:     messageKind(msg.MsgType),
		Text:     msg.Content,
		FileKey:  msg.FileKey,
	}

	s.relaySvc.HandleInbound(context.Background(), in)
}

// messageKind maps a Feishu message type onto a domain payload kind.
func messageKind(msgType string) domain.MessageKind {
	switch msgType {
	case "text":
		return domain.KindText
	case "image":
		return domain.KindPhoto
	case "file":
		return domain.KindDocument
	case "media":
		return domain.KindVideo
	case "audio":
		return domain.KindAudio
	case "sticker":
		return domain.KindSticker
	default:
		return domain.MessageKind(msgType)
	}
}

// markSeen records a message id, reporting whether it was already seen.
// Entries older than seenTTL are pruned on the way.
func (s *FeishuServer) markSeen(msgID string) bool {
	now := time.Now()

	s.seenMsgsMu.Lock()
	defer s.seenMsgsMu.Unlock()

	for id, at := range s.seenMsgs {
		if now.Sub(at) > seenTTL {
			delete(s.seenMsgs, id)
		}
	}

	if _, ok := s.seenMsgs[msgID]; ok {
		return true
	}
	s.seenMsgs[msgID] = now
	return false
}
