package repo

import (
	"context"

	"github.com/edurelay/feishu-class-relay/internal/biz/domain"
)

// RosterRepo persists the roster aggregate. Load is called once at startup;
// Save rewrites the whole aggregate on every successful registration or edit.
type RosterRepo interface {
	// Load reads the persisted roster. A store with no prior state yields
	// an empty roster with NextID 1; an unreadable or corrupt store is an
	// error wrapping domain.ErrStorageUnavailable.
	Load(ctx context.Context) (*domain.Roster, error)

	// Save overwrites the persisted roster. Partial writes are never
	// observable by a subsequent Load.
	Save(ctx context.Context, roster *domain.Roster) error

	Close() error
}
