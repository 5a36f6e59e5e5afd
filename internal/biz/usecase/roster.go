package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/samber/lo"

	"github.com/edurelay/feishu-class-relay/internal/biz/domain"
	"github.com/edurelay/feishu-class-relay/internal/biz/repo"
)

// maxMessageChars is the transport's maximum single-message size.
const maxMessageChars = 4096

// RosterUsecase owns the in-memory roster aggregate and serializes every
// mutation against the write-through save, so two simultaneous registrations
// can neither share an id nor lose each other's write.
type RosterUsecase struct {
	rosterRepo repo.RosterRepo

	mu     sync.RWMutex
	roster *domain.Roster
}

// NewRosterUsecase creates a roster usecase. Load must be called before use.
func NewRosterUsecase(rosterRepo repo.RosterRepo) *RosterUsecase {
	return &RosterUsecase{
		rosterRepo: rosterRepo,
		roster:     domain.NewRoster(),
	}
}

// Load reads the persisted roster into memory. Called once at startup;
// a failure here is fatal.
func (uc *RosterUsecase) Load(ctx context.Context) error {
	roster, err := uc.rosterRepo.Load(ctx)
	if err != nil {
		return fmt.Errorf("load roster: %w", err)
	}

	uc.mu.Lock()
	uc.roster = roster
	uc.mu.Unlock()
	return nil
}

// FindByExternalID looks up a participant by platform identity.
func (uc *RosterUsecase) FindByExternalID(externalID string) (domain.Participant, bool) {
	uc.mu.RLock()
	defer uc.mu.RUnlock()

	if p := uc.roster.FindByExternalID(externalID); p != nil {
		return *p, true
	}
	return domain.Participant{}, false
}

// FindByID looks up a participant by roster id.
func (uc *RosterUsecase) FindByID(id int64) (domain.Participant, bool) {
	uc.mu.RLock()
	defer uc.mu.RUnlock()

	if p := uc.roster.FindByID(id); p != nil {
		return *p, true
	}
	return domain.Participant{}, false
}

// FindByGroup returns the members of a group in registration order.
func (uc *RosterUsecase) FindByGroup(group string) []domain.Participant {
	uc.mu.RLock()
	defer uc.mu.RUnlock()

	return uc.roster.FindByGroup(group)
}

// Snapshot returns a copy of all participants in registration order.
func (uc *RosterUsecase) Snapshot() []domain.Participant {
	uc.mu.RLock()
	defer uc.mu.RUnlock()

	out := make([]domain.Participant, len(uc.roster.Participants))
	copy(out, uc.roster.Participants)
	return out
}

// NextID returns the id the next registration will receive.
func (uc *RosterUsecase) NextID() int64 {
	uc.mu.RLock()
	defer uc.mu.RUnlock()

	return uc.roster.NextID
}

// Register allocates the next id, appends the participant and saves the
// aggregate. The caller must have checked that externalID is not yet
// registered. On save failure the in-memory roster is left untouched.
func (uc *RosterUsecase) Register(ctx context.Context, externalID, name, surname, group string) (domain.Participant, error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	next := uc.roster.Clone()
	p := domain.Participant{
		ID:         next.NextID,
		ExternalID: externalID,
		Name:       name,
		Surname:    surname,
		Group:      group,
	}
	next.Participants = append(next.Participants, p)
	next.NextID++

	if err := uc.rosterRepo.Save(ctx, next); err != nil {
		return domain.Participant{}, fmt.Errorf("save roster: %w", err)
	}

	uc.roster = next
	return p, nil
}

// Update replaces the mutable fields of an existing participant and saves
// the aggregate. Returns domain.ErrNotFound for an unknown id.
func (uc *RosterUsecase) Update(ctx context.Context, id int64, name, surname, group string) (domain.Participant, error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	next := uc.roster.Clone()
	p := next.FindByID(id)
	if p == nil {
		return domain.Participant{}, fmt.Errorf("participant %d: %w", id, domain.ErrNotFound)
	}
	p.Name = name
	p.Surname = surname
	p.Group = group

	if err := uc.rosterRepo.Save(ctx, next); err != nil {
		return domain.Participant{}, fmt.Errorf("save roster: %w", err)
	}

	uc.roster = next
	return *p, nil
}

// FormatListing renders the roster grouped by group, one chunk per outbound
// message. Groups appear in order of their first registration and a
// participant's line is never split across chunks.
func (uc *RosterUsecase) FormatListing() []string {
	participants := uc.Snapshot()
	if len(participants) == 0 {
		return nil
	}

	byGroup := lo.GroupBy(participants, func(p domain.Participant) string { return p.Group })
	groupOrder := lo.Uniq(lo.Map(participants, func(p domain.Participant, _ int) string { return p.Group }))

	var lines []string
	lines = append(lines, "Registered Students:", "")
	for _, group := range groupOrder {
		lines = append(lines, "Group: "+group)
		for _, p := range byGroup[group] {
			lines = append(lines, fmt.Sprintf("ID: %d | Name: %s %s", p.ID, p.Name, p.Surname))
		}
		lines = append(lines, "")
	}

	return chunkLines(lines, maxMessageChars)
}

// chunkLines joins lines into chunks of at most limit characters, breaking
// only at line boundaries.
func chunkLines(lines []string, limit int) []string {
	var chunks []string
	var b strings.Builder

	for _, line := range lines {
		// +1 for the newline that joins the line to the chunk
		if b.Len() > 0 && b.Len()+len(line)+1 > limit {
			chunks = append(chunks, b.String())
			b.Reset()
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)
	}
	if b.Len() > 0 {
		chunks = append(chunks, b.String())
	}
	return chunks
}
