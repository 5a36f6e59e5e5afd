package usecase

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/edurelay/feishu-class-relay/internal/biz/domain"
	"github.com/edurelay/feishu-class-relay/internal/biz/repo"
)

// ParseDetails splits a registration or edit message into name, surname and
// group: the first two whitespace-separated tokens are name and surname, the
// remainder joined with single spaces is the group (which may itself contain
// spaces, e.g. "Intensive IELTS 18:00").
func ParseDetails(text string) (name, surname, group string, err error) {
	tokens := strings.Fields(text)
	if len(tokens) < 3 {
		return "", "", "", fmt.Errorf("want name, surname and group: %w", domain.ErrMalformedInput)
	}
	return tokens[0], tokens[1], strings.Join(tokens[2:], " "), nil
}

// DialogueUsecase runs the conversation state machine: each method is an
// entry action or a session transition from the flow table. Replies go out
// through the transport; session state lives in the session store.
type DialogueUsecase struct {
	rosterUC    *RosterUsecase
	broadcastUC *BroadcastUsecase
	sessions    repo.SessionStore
	messageRepo repo.MessageRepo
	operatorID  string
}

// NewDialogueUsecase creates the dialogue usecase.
func NewDialogueUsecase(
	rosterUC *RosterUsecase,
	broadcastUC *BroadcastUsecase,
	sessions repo.SessionStore,
	messageRepo repo.MessageRepo,
	operatorID string,
) *DialogueUsecase {
	return &DialogueUsecase{
		rosterUC:    rosterUC,
		broadcastUC: broadcastUC,
		sessions:    sessions,
		messageRepo: messageRepo,
		operatorID:  operatorID,
	}
}

func (uc *DialogueUsecase) reply(ctx context.Context, recipientID, text string) {
	if err := uc.messageRepo.SendText(ctx, recipientID, text); err != nil {
		fmt.Printf("[Dialogue] Failed to reply to %s: %v\n", recipientID, err)
	}
}

func (uc *DialogueUsecase) notifyOperator(ctx context.Context, text string) {
	if err := uc.messageRepo.SendText(ctx, uc.operatorID, text); err != nil {
		fmt.Printf("[Dialogue] Failed to notify operator: %v\n", err)
	}
}

// --- Operator entry actions ---

// OperatorWelcome handles /start from the operator.
func (uc *DialogueUsecase) OperatorWelcome(ctx context.Context, senderID string) {
	uc.reply(ctx, senderID, replyOperatorWelcome)
}

// OperatorHelp handles /help from the operator.
func (uc *DialogueUsecase) OperatorHelp(ctx context.Context, senderID string) {
	uc.reply(ctx, senderID, replyOperatorHelp)
}

// ListStudents handles /students: one outbound message per listing chunk.
func (uc *DialogueUsecase) ListStudents(ctx context.Context, senderID string) {
	chunks := uc.rosterUC.FormatListing()
	if len(chunks) == 0 {
		uc.reply(ctx, senderID, replyNoStudents)
		return
	}
	for _, chunk := range chunks {
		uc.reply(ctx, senderID, chunk)
	}
}

// EnterSendAll starts the broadcast-all flow, replacing any open session.
func (uc *DialogueUsecase) EnterSendAll(ctx context.Context, senderID string) {
	uc.sessions.Set(senderID, domain.Session{Kind: domain.SessionSendAll})
	uc.reply(ctx, senderID, replySendAllPrompt)
}

// EnterSendSingle starts the broadcast-one flow, replacing any open session.
func (uc *DialogueUsecase) EnterSendSingle(ctx context.Context, senderID string) {
	uc.sessions.Set(senderID, domain.Session{Kind: domain.SessionSendSingle})
	uc.reply(ctx, senderID, replySendSinglePrompt)
}

// EnterSendGroup starts the broadcast-group flow, replacing any open session.
func (uc *DialogueUsecase) EnterSendGroup(ctx context.Context, senderID string) {
	uc.sessions.Set(senderID, domain.Session{Kind: domain.SessionSendGroup})
	uc.reply(ctx, senderID, replySendGroupPrompt)
}

// OperatorStep advances an open operator session with the next text message.
func (uc *DialogueUsecase) OperatorStep(ctx context.Context, senderID, text string, sess domain.Session) {
	switch sess.Kind {
	case domain.SessionSendAll:
		_, failed := uc.broadcastUC.SendToAll(ctx, text)
		uc.reply(ctx, senderID, withFailureCount(replySendAllDone, failed))
		uc.sessions.Clear(senderID)

	case domain.SessionSendSingle:
		id, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
		if err != nil {
			uc.reply(ctx, senderID, replyInvalidStudentID)
			uc.sessions.Clear(senderID)
			return
		}
		p, ok := uc.rosterUC.FindByID(id)
		if !ok {
			uc.reply(ctx, senderID, replyInvalidStudentID)
			uc.sessions.Clear(senderID)
			return
		}
		uc.sessions.Set(senderID, domain.Session{Kind: domain.SessionSendSingleMessage, TargetID: id})
		uc.reply(ctx, senderID, fmt.Sprintf("Student selected: %s %s. Enter the message to send:", p.Name, p.Surname))

	case domain.SessionSendSingleMessage:
		err := uc.broadcastUC.SendToOne(ctx, sess.TargetID, text)
		switch {
		case err == nil:
			uc.reply(ctx, senderID, replySendSingleDone)
		case errors.Is(err, domain.ErrNotFound):
			uc.reply(ctx, senderID, replyInvalidStudentID)
		default:
			fmt.Printf("[Dialogue] Send to student %d failed: %v\n", sess.TargetID, err)
			uc.reply(ctx, senderID, replySendSingleDone+" (1 deliveries failed.)")
		}
		uc.sessions.Clear(senderID)

	case domain.SessionSendGroup:
		group := strings.TrimSpace(text)
		if group == "" {
			uc.reply(ctx, senderID, replyInvalidGroup)
			return // session stays open for retry
		}
		if len(uc.rosterUC.FindByGroup(group)) == 0 {
			uc.reply(ctx, senderID, replyGroupNotFound)
			return // session stays open for retry
		}
		uc.sessions.Set(senderID, domain.Session{Kind: domain.SessionSendGroupMessage, TargetGroup: group})
		uc.reply(ctx, senderID, fmt.Sprintf("You can now write your message to group %s:", group))

	case domain.SessionSendGroupMessage:
		_, failed, err := uc.broadcastUC.SendToGroup(ctx, sess.TargetGroup, text)
		if errors.Is(err, domain.ErrNotFound) {
			uc.reply(ctx, senderID, replyGroupNotFound)
		} else {
			uc.reply(ctx, senderID, withFailureCount(fmt.Sprintf("Message sent to group %s.", sess.TargetGroup), failed))
		}
		uc.sessions.Clear(senderID)

	default:
		// A participant-flow session under the operator key cannot
		// happen; drop it so the operator is not stuck.
		uc.sessions.Clear(senderID)
	}
}

// withFailureCount appends the partial-failure count to a broadcast
// confirmation when any delivery failed.
func withFailureCount(confirmation string, failed int) string {
	if failed == 0 {
		return confirmation
	}
	return fmt.Sprintf("%s (%d deliveries failed.)", confirmation, failed)
}

// --- Participant entry actions ---

// ParticipantWelcome handles /start from a registered participant.
func (uc *DialogueUsecase) ParticipantWelcome(ctx context.Context, p domain.Participant) {
	uc.reply(ctx, p.ExternalID, fmt.Sprintf(
		"You are already registered as %s %s from group %s. Use the /edit command to update your information.",
		p.Name, p.Surname, p.Group))
}

// ParticipantHelp handles /help from a participant or unregistered sender.
func (uc *DialogueUsecase) ParticipantHelp(ctx context.Context, senderID string) {
	uc.reply(ctx, senderID, replyParticipantHelp)
}

// Check handles /check: returns the sender's own registered details.
func (uc *DialogueUsecase) Check(ctx context.Context, p domain.Participant) {
	uc.reply(ctx, p.ExternalID, fmt.Sprintf(
		"Your details are:\nName: %s\nSurname: %s\nGroup: %s", p.Name, p.Surname, p.Group))
}

// EnterEdit starts the edit flow for a registered participant.
func (uc *DialogueUsecase) EnterEdit(ctx context.Context, p domain.Participant) {
	uc.sessions.Set(p.ExternalID, domain.Session{Kind: domain.SessionEdit})
	uc.reply(ctx, p.ExternalID, replyEditPrompt)
}

// EnterSubmit starts the submit flow for a registered participant.
func (uc *DialogueUsecase) EnterSubmit(ctx context.Context, p domain.Participant) {
	uc.sessions.Set(p.ExternalID, domain.Session{Kind: domain.SessionSubmit})
	uc.reply(ctx, p.ExternalID, replySubmitPrompt)
}

// RegisterAttempt handles free text from an unregistered sender: a
// single-shot registration with no session. Malformed input produces a
// format error and no other action.
func (uc *DialogueUsecase) RegisterAttempt(ctx context.Context, senderID, text string) {
	name, surname, group, err := ParseDetails(text)
	if err != nil {
		uc.reply(ctx, senderID, replyInvalidDetails)
		return
	}

	p, err := uc.rosterUC.Register(ctx, senderID, name, surname, group)
	if err != nil {
		fmt.Printf("[Dialogue] Registration save failed for %s: %v\n", senderID, err)
		uc.reply(ctx, senderID, replyGenericSaveFailed)
		return
	}

	uc.reply(ctx, senderID, fmt.Sprintf(
		"You are registered as %s %s from group %s with ID: %d", p.Name, p.Surname, p.Group, p.ID))
	uc.notifyOperator(ctx, fmt.Sprintf(
		"New student registered: %s %s, group %s, ID: %d", p.Name, p.Surname, p.Group, p.ID))
}

// RegisterPrompt handles /start from an unregistered sender.
func (uc *DialogueUsecase) RegisterPrompt(ctx context.Context, senderID string) {
	uc.reply(ctx, senderID, replyRegisterPrompt)
}

// RedirectToRegister tells an unregistered sender to register first.
func (uc *DialogueUsecase) RedirectToRegister(ctx context.Context, senderID string) {
	uc.reply(ctx, senderID, replyRegisterFirst)
}

// Unauthorized rejects an operator-only command from a non-operator.
func (uc *DialogueUsecase) Unauthorized(ctx context.Context, senderID string) {
	uc.reply(ctx, senderID, replyNotAuthorized)
}

// OperatorTextOnly rejects a non-text payload from the operator: broadcast
// flows carry text only.
func (uc *DialogueUsecase) OperatorTextOnly(ctx context.Context, senderID string) {
	uc.reply(ctx, senderID, replyOperatorTextOnly)
}

// RejectAttachment rejects a non-text payload outside a submit session.
func (uc *DialogueUsecase) RejectAttachment(ctx context.Context, senderID string) {
	uc.reply(ctx, senderID, replyNotInSubmit)
}

// ParticipantStep advances an open participant session (EDIT or SUBMIT).
func (uc *DialogueUsecase) ParticipantStep(ctx context.Context, p domain.Participant, in *domain.Inbound, sess domain.Session) {
	switch sess.Kind {
	case domain.SessionEdit:
		if !in.Kind.IsText() {
			uc.reply(ctx, p.ExternalID, replyInvalidDetails)
			return // session stays open for retry
		}
		name, surname, group, err := ParseDetails(in.Text)
		if err != nil {
			uc.reply(ctx, p.ExternalID, replyInvalidDetails)
			return // session stays open for retry
		}
		updated, err := uc.rosterUC.Update(ctx, p.ID, name, surname, group)
		if err != nil {
			fmt.Printf("[Dialogue] Edit save failed for %s: %v\n", p.ExternalID, err)
			uc.reply(ctx, p.ExternalID, replyGenericSaveFailed)
			return
		}
		uc.reply(ctx, p.ExternalID, fmt.Sprintf(
			"Your details have been updated to: %s %s from group %s", updated.Name, updated.Surname, updated.Group))
		uc.notifyOperator(ctx, fmt.Sprintf(
			"Student updated: %s %s from group %s", updated.Name, updated.Surname, updated.Group))
		uc.sessions.Clear(p.ExternalID)

	case domain.SessionSubmit:
		uc.submitStep(ctx, p, in)

	default:
		uc.sessions.Clear(p.ExternalID)
	}
}

// submitStep relays a text or photo submission to the operator. Other
// attachment kinds are dropped without a reply and the session stays open.
func (uc *DialogueUsecase) submitStep(ctx context.Context, p domain.Participant, in *domain.Inbound) {
	switch in.Kind {
	case domain.KindText:
		uc.notifyOperator(ctx, fmt.Sprintf(
			"Student %s %s from group %s submitted an assignment (text):\n\n%s",
			p.Name, p.Surname, p.Group, in.Text))
		uc.reply(ctx, p.ExternalID, replySubmitTextDone)
		uc.sessions.Clear(p.ExternalID)

	case domain.KindPhoto:
		fileRef, err := uc.messageRepo.GetFileReference(ctx, in.MsgID, in.FileKey)
		if err != nil {
			fmt.Printf("[Dialogue] File retrieval failed for %s: %v\n", p.ExternalID, err)
			fileRef = "(file retrieval failed)"
		}
		uc.notifyOperator(ctx, fmt.Sprintf(
			"Student %s %s from group %s submitted an assignment (photo):\n\n%s",
			p.Name, p.Surname, p.Group, fileRef))
		uc.reply(ctx, p.ExternalID, replySubmitPhotoDone)
		uc.sessions.Clear(p.ExternalID)

	default:
		// Documents, video, audio, voice and stickers are dropped
		// silently; the submit session stays open.
	}
}
