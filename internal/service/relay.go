package service

import (
	"context"
	"strings"

	"github.com/edurelay/feishu-class-relay/internal/biz/domain"
	"github.com/edurelay/feishu-class-relay/internal/biz/repo"
	"github.com/edurelay/feishu-class-relay/internal/biz/usecase"
)

// RelayService is the command classifier: it resolves the sender's role,
// consults the session table and picks the state machine transition to run.
type RelayService struct {
	rosterUC   *usecase.RosterUsecase
	dialogueUC *usecase.DialogueUsecase
	sessions   repo.SessionStore
	operatorID string
}

// NewRelayService creates the relay service.
func NewRelayService(
	rosterUC *usecase.RosterUsecase,
	dialogueUC *usecase.DialogueUsecase,
	sessions repo.SessionStore,
	operatorID string,
) *RelayService {
	return &RelayService{
		rosterUC:   rosterUC,
		dialogueUC: dialogueUC,
		sessions:   sessions,
		operatorID: operatorID,
	}
}

// hasCommand reports whether text starts with the given command word.
func hasCommand(text, cmd string) bool {
	return strings.HasPrefix(strings.TrimSpace(text), cmd)
}

// isOperatorCommand reports whether text starts with an operator-only command.
func isOperatorCommand(text string) bool {
	for _, cmd := range []string{"/students", "/send_all", "/send_group", "/send"} {
		if hasCommand(text, cmd) {
			return true
		}
	}
	return false
}

// HandleInbound classifies one inbound message and runs its transition.
func (s *RelayService) HandleInbound(ctx context.Context, in *domain.Inbound) {
	role, participant := s.resolveRole(in.SenderID)

	if !in.Kind.IsText() {
		s.handleAttachment(ctx, in, role, participant)
		return
	}

	switch role {
	case domain.RoleOperator:
		s.handleOperatorText(ctx, in)
	case domain.RoleParticipant:
		s.handleParticipantText(ctx, in, participant)
	default:
		s.handleUnknownText(ctx, in)
	}
}

// resolveRole maps a sender identity onto operator/participant/unknown.
func (s *RelayService) resolveRole(senderID string) (domain.Role, domain.Participant) {
	if senderID == s.operatorID {
		return domain.RoleOperator, domain.Participant{}
	}
	if p, ok := s.rosterUC.FindByExternalID(senderID); ok {
		return domain.RoleParticipant, p
	}
	return domain.RoleUnknown, domain.Participant{}
}

// handleAttachment routes non-text payloads. Only a participant inside an
// active submit session may deliver one; everything else is rejected.
func (s *RelayService) handleAttachment(ctx context.Context, in *domain.Inbound, role domain.Role, p domain.Participant) {
	switch role {
	case domain.RoleParticipant:
		if sess, ok := s.sessions.Get(in.SenderID); ok && sess.Kind == domain.SessionSubmit {
			s.dialogueUC.ParticipantStep(ctx, p, in, sess)
			return
		}
		s.dialogueUC.RejectAttachment(ctx, in.SenderID)
	case domain.RoleOperator:
		s.dialogueUC.OperatorTextOnly(ctx, in.SenderID)
	default:
		s.dialogueUC.RedirectToRegister(ctx, in.SenderID)
	}
}

// handleOperatorText routes operator messages. The broadcast commands always
// re-enter their flow, interrupting any open session; every other text
// arriving mid-session is dialogue content.
func (s *RelayService) handleOperatorText(ctx context.Context, in *domain.Inbound) {
	text := in.Text

	// Longest prefix first: /send_all and /send_group both start with /send.
	switch {
	case hasCommand(text, "/send_all"):
		s.dialogueUC.EnterSendAll(ctx, in.SenderID)
		return
	case hasCommand(text, "/send_group"):
		s.dialogueUC.EnterSendGroup(ctx, in.SenderID)
		return
	case hasCommand(text, "/send"):
		s.dialogueUC.EnterSendSingle(ctx, in.SenderID)
		return
	}

	if sess, ok := s.sessions.Get(in.SenderID); ok {
		s.dialogueUC.OperatorStep(ctx, in.SenderID, text, sess)
		return
	}

	switch {
	case hasCommand(text, "/students"):
		s.dialogueUC.ListStudents(ctx, in.SenderID)
	case hasCommand(text, "/help"):
		s.dialogueUC.OperatorHelp(ctx, in.SenderID)
	case hasCommand(text, "/start"):
		s.dialogueUC.OperatorWelcome(ctx, in.SenderID)
	default:
		// Free operator text with no session is dropped.
	}
}

// handleParticipantText routes messages from registered participants.
func (s *RelayService) handleParticipantText(ctx context.Context, in *domain.Inbound, p domain.Participant) {
	if sess, ok := s.sessions.Get(in.SenderID); ok {
		// Command-like text mid-session is dialogue content.
		s.dialogueUC.ParticipantStep(ctx, p, in, sess)
		return
	}

	text := in.Text
	switch {
	case hasCommand(text, "/start"):
		s.dialogueUC.ParticipantWelcome(ctx, p)
	case hasCommand(text, "/help"):
		s.dialogueUC.ParticipantHelp(ctx, in.SenderID)
	case hasCommand(text, "/check"):
		s.dialogueUC.Check(ctx, p)
	case hasCommand(text, "/edit"):
		s.dialogueUC.EnterEdit(ctx, p)
	case hasCommand(text, "/submit"):
		s.dialogueUC.EnterSubmit(ctx, p)
	case isOperatorCommand(text):
		s.dialogueUC.Unauthorized(ctx, in.SenderID)
	default:
		// Free participant text with no session is dropped.
	}
}

// handleUnknownText routes messages from unregistered senders: commands are
// redirected, anything else is a registration attempt.
func (s *RelayService) handleUnknownText(ctx context.Context, in *domain.Inbound) {
	text := in.Text
	switch {
	case hasCommand(text, "/start"):
		s.dialogueUC.RegisterPrompt(ctx, in.SenderID)
	case hasCommand(text, "/help"):
		s.dialogueUC.ParticipantHelp(ctx, in.SenderID)
	case hasCommand(text, "/check"), hasCommand(text, "/edit"), hasCommand(text, "/submit"):
		s.dialogueUC.RedirectToRegister(ctx, in.SenderID)
	case isOperatorCommand(text):
		s.dialogueUC.Unauthorized(ctx, in.SenderID)
	default:
		s.dialogueUC.RegisterAttempt(ctx, in.SenderID, text)
	}
}
