package data

import (
	"github.com/edurelay/feishu-class-relay/internal/biz/repo"
	"github.com/edurelay/feishu-class-relay/internal/infra/feishu"
)

// Repositories contains all repositories.
type Repositories struct {
	Message  repo.MessageRepo
	Roster   repo.RosterRepo
	Sessions repo.SessionStore
}

// NewRepositories creates all repositories.
func NewRepositories(feishuClient *feishu.Client, rosterDBPath string) (*Repositories, error) {
	rosterRepo, err := NewRosterRepo(rosterDBPath)
	if err != nil {
		return nil, err
	}

	return &Repositories{
		Message:  NewFeishuRepo(feishuClient),
		Roster:   rosterRepo,
		Sessions: NewSessionStore(),
	}, nil
}
