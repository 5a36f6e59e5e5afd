package data

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/edurelay/feishu-class-relay/internal/biz/domain"
)

func newTestRepo(t *testing.T) (string, func(string) *rosterRepo) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "roster.db")
	open := func(path string) *rosterRepo {
		repo, err := NewRosterRepo(path)
		require.NoError(t, err)
		t.Cleanup(func() { _ = repo.Close() })
		return repo.(*rosterRepo)
	}
	return dbPath, open
}

func TestRosterRepo_FreshDatabaseIsEmpty(t *testing.T) {
	dbPath, open := newTestRepo(t)
	repo := open(dbPath)

	roster, err := repo.Load(context.Background())
	require.NoError(t, err)
	require.Empty(t, roster.Participants)
	require.Equal(t, int64(1), roster.NextID)
}

func TestRosterRepo_RoundTrip(t *testing.T) {
	dbPath, open := newTestRepo(t)
	repo := open(dbPath)
	ctx := context.Background()

	want := domain.NewRoster()
	want.Participants = []domain.Participant{
		{ID: 1, ExternalID: "ou_a", Name: "John", Surname: "Doe", Group: "Intensive IELTS 18:00"},
		{ID: 2, ExternalID: "ou_b", Name: "Jane", Surname: "Roe", Group: "Beginners"},
	}
	want.NextID = 3

	require.NoError(t, repo.Save(ctx, want))

	got, err := repo.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, want, got)

	// save(load()) is a no-op
	require.NoError(t, repo.Save(ctx, got))
	again, err := repo.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, want, again)
}

func TestRosterRepo_SurvivesReopen(t *testing.T) {
	dbPath, open := newTestRepo(t)
	ctx := context.Background()

	repo := open(dbPath)
	roster := domain.NewRoster()
	roster.Participants = []domain.Participant{
		{ID: 1, ExternalID: "ou_a", Name: "John", Surname: "Doe", Group: "Beginners"},
	}
	roster.NextID = 2
	require.NoError(t, repo.Save(ctx, roster))
	require.NoError(t, repo.Close())

	reopened := open(dbPath)
	got, err := reopened.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, roster, got)
}

func TestRosterRepo_SaveReplacesRemovedRows(t *testing.T) {
	dbPath, open := newTestRepo(t)
	repo := open(dbPath)
	ctx := context.Background()

	roster := domain.NewRoster()
	roster.Participants = []domain.Participant{
		{ID: 1, ExternalID: "ou_a", Name: "John", Surname: "Doe", Group: "Beginners"},
		{ID: 2, ExternalID: "ou_b", Name: "Jane", Surname: "Roe", Group: "Beginners"},
	}
	roster.NextID = 3
	require.NoError(t, repo.Save(ctx, roster))

	// Save a smaller aggregate; the dropped row must not linger.
	roster.Participants = roster.Participants[:1]
	require.NoError(t, repo.Save(ctx, roster))

	got, err := repo.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got.Participants, 1)
	require.Equal(t, "ou_a", got.Participants[0].ExternalID)
	require.Equal(t, int64(3), got.NextID, "ids are never reissued after a removal")
}

func TestRosterRepo_CreatesParentDirectory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "dir", "roster.db")
	repo, err := NewRosterRepo(dbPath)
	require.NoError(t, err)
	defer repo.Close()

	_, err = repo.Load(context.Background())
	require.NoError(t, err)
}
