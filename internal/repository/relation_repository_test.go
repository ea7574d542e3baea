package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRelationRepository(t *testing.T) {
	ctx := context.Background()
	rel := NewRelationRepository(newTestDB(t))

	require.NoError(t, rel.Mute(ctx, "me", "a"))
	require.NoError(t, rel.Mute(ctx, "me", "a")) // 幂等
	require.NoError(t, rel.Mute(ctx, "me", "b"))
	muted, err := rel.MutedIDs(ctx, "me")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b"}, muted)

	require.NoError(t, rel.Unmute(ctx, "me", "a"))
	muted, err = rel.MutedIDs(ctx, "me")
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, muted)

	require.NoError(t, rel.Block(ctx, "x", "me"))
	require.NoError(t, rel.Block(ctx, "y", "me"))
	require.NoError(t, rel.Block(ctx, "me", "z"))
	blockers, err := rel.BlockerIDs(ctx, "me")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"x", "y"}, blockers)

	require.NoError(t, rel.MuteRenotes(ctx, "me", "r"))
	rm, err := rel.RenoteMutedIDs(ctx, "me")
	require.NoError(t, err)
	assert.Equal(t, []string{"r"}, rm)
	require.NoError(t, rel.UnmuteRenotes(ctx, "me", "r"))
	rm, err = rel.RenoteMutedIDs(ctx, "me")
	require.NoError(t, err)
	assert.Empty(t, rm)

	require.NoError(t, rel.MuteInstance(ctx, "me", "bad.example"))
	hosts, err := rel.MutedInstances(ctx, "me")
	require.NoError(t, err)
	assert.Equal(t, []string{"bad.example"}, hosts)
	require.NoError(t, rel.UnmuteInstance(ctx, "me", "bad.example"))
	hosts, err = rel.MutedInstances(ctx, "me")
	require.NoError(t, err)
	assert.Empty(t, hosts)
}

func TestFollowAndFanRepository(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	follows := NewFollowRepository(db)
	fans := NewFanRepository(db)

	for _, f := range []string{"a", "b", "c"} {
		require.NoError(t, follows.Create(ctx, f, "star"))
		require.NoError(t, fans.Create(ctx, "star", f))
	}
	require.NoError(t, follows.Create(ctx, "a", "star"))

	ok, err := follows.Exists(ctx, "a", "star")
	require.NoError(t, err)
	assert.True(t, ok)

	ids, err := follows.FolloweeIDs(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []string{"star"}, ids)

	n, err := fans.Count(ctx, "star")
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	page1, err := fans.ListFans(ctx, "star", 0, 2)
	require.NoError(t, err)
	page2, err := fans.ListFans(ctx, "star", 2, 2)
	require.NoError(t, err)
	assert.Len(t, page1, 2)
	assert.Len(t, page2, 1)

	require.NoError(t, follows.Delete(ctx, "a", "star"))
	require.NoError(t, fans.Delete(ctx, "star", "a"))
	ok, err = follows.Exists(ctx, "a", "star")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestListRepository(t *testing.T) {
	ctx := context.Background()
	lists := NewListRepository(newTestDB(t))

	l1, err := lists.Create(ctx, "owner", "one")
	require.NoError(t, err)
	l2, err := lists.Create(ctx, "owner", "two")
	require.NoError(t, err)
	require.NoError(t, lists.AddMember(ctx, l1.ID, "a"))
	require.NoError(t, lists.AddMember(ctx, l2.ID, "a"))
	require.NoError(t, lists.AddMember(ctx, l2.ID, "a"))

	got, err := lists.ListIDsContaining(ctx, "a")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{l1.ID, l2.ID}, got)

	require.NoError(t, lists.RemoveMember(ctx, l1.ID, "a"))
	got, err = lists.ListIDsContaining(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []string{l2.ID}, got)

	found, err := lists.FindByID(ctx, l1.ID)
	require.NoError(t, err)
	assert.Equal(t, "owner", found.UserID)
	_, err = lists.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
