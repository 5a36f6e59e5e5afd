package data

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/edurelay/feishu-class-relay/internal/biz/domain"
)

func TestSessionStore(t *testing.T) {
	store := NewSessionStore()

	_, ok := store.Get("ou_a")
	require.False(t, ok)

	store.Set("ou_a", domain.Session{Kind: domain.SessionSendSingle})
	store.Set("ou_b", domain.Session{Kind: domain.SessionSubmit})

	sess, ok := store.Get("ou_a")
	require.True(t, ok)
	require.Equal(t, domain.SessionSendSingle, sess.Kind)

	// Set replaces in place
	store.Set("ou_a", domain.Session{Kind: domain.SessionSendSingleMessage, TargetID: 7})
	sess, _ = store.Get("ou_a")
	require.Equal(t, domain.SessionSendSingleMessage, sess.Kind)
	require.Equal(t, int64(7), sess.TargetID)

	store.Clear("ou_a")
	_, ok = store.Get("ou_a")
	require.False(t, ok)

	// Clearing one sender leaves the others alone
	sess, ok = store.Get("ou_b")
	require.True(t, ok)
	require.Equal(t, domain.SessionSubmit, sess.Kind)

	// Clearing an absent key is a no-op
	store.Clear("ou_missing")
}
