package usecase

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/edurelay/feishu-class-relay/internal/biz/domain"
	"github.com/edurelay/feishu-class-relay/internal/biz/repo"
)

// BroadcastUsecase resolves a target audience against the roster and fans a
// text message out to it. Per-recipient deliveries are independent: one
// failure never aborts the rest. Failures are counted, not retried.
type BroadcastUsecase struct {
	rosterUC    *RosterUsecase
	messageRepo repo.MessageRepo
}

// NewBroadcastUsecase creates the broadcast usecase.
func NewBroadcastUsecase(rosterUC *RosterUsecase, messageRepo repo.MessageRepo) *BroadcastUsecase {
	return &BroadcastUsecase{rosterUC: rosterUC, messageRepo: messageRepo}
}

// SendToAll sends text to every registered participant and reports how many
// deliveries succeeded and failed.
func (uc *BroadcastUsecase) SendToAll(ctx context.Context, text string) (sent, failed int) {
	return uc.fanOut(ctx, uc.rosterUC.Snapshot(), text)
}

// SendToOne sends text to a single participant by roster id. Returns
// domain.ErrNotFound for an unknown id.
func (uc *BroadcastUsecase) SendToOne(ctx context.Context, id int64, text string) error {
	p, ok := uc.rosterUC.FindByID(id)
	if !ok {
		return fmt.Errorf("participant %d: %w", id, domain.ErrNotFound)
	}
	if err := uc.messageRepo.SendText(ctx, p.ExternalID, text); err != nil {
		return fmt.Errorf("send to participant %d: %w", id, err)
	}
	return nil
}

// SendToGroup sends text to every member of a group. Returns
// domain.ErrNotFound when the group has no members.
func (uc *BroadcastUsecase) SendToGroup(ctx context.Context, group, text string) (sent, failed int, err error) {
	members := uc.rosterUC.FindByGroup(group)
	if len(members) == 0 {
		return 0, 0, fmt.Errorf("group %q: %w", group, domain.ErrNotFound)
	}
	sent, failed = uc.fanOut(ctx, members, text)
	return sent, failed, nil
}

func (uc *BroadcastUsecase) fanOut(ctx context.Context, recipients []domain.Participant, text string) (sent, failed int) {
	broadcastID := uuid.NewString()
	for _, p := range recipients {
		if err := uc.messageRepo.SendText(ctx, p.ExternalID, text); err != nil {
			fmt.Printf("[Broadcast] %s: delivery to %d failed: %v\n", broadcastID, p.ID, err)
			failed++
			continue
		}
		sent++
	}
	fmt.Printf("[Broadcast] %s: %d sent, %d failed\n", broadcastID, sent, failed)
	return sent, failed
}
