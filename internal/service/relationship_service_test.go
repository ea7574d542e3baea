package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/fanout-timeline/internal/repository"
	"github.com/d60-Lab/fanout-timeline/internal/timeline"
)

func TestFollowWritesBothDirections(t *testing.T) {
	ctx := context.Background()
	w := newWorld(t)
	alice := w.user(t, "alice", nil)
	bob := w.user(t, "bob", nil)

	assert.ErrorIs(t, w.rels.Follow(ctx, alice, alice), ErrFollowSelf)
	assert.ErrorIs(t, w.rels.Follow(ctx, alice, "nobody"), ErrNoSuchUser)

	require.NoError(t, w.rels.Follow(ctx, alice, bob))
	require.NoError(t, w.rels.Follow(ctx, alice, bob))

	following, err := w.rels.ListFollowing(ctx, alice, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{bob}, following)
	fans, err := w.rels.ListFans(ctx, bob, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{alice}, fans)

	require.NoError(t, w.rels.Unfollow(ctx, alice, bob))
	n, err := w.fans.Count(ctx, bob)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestFollowThroughReplicator(t *testing.T) {
	ctx := context.Background()
	w := newWorld(t)
	alice := w.user(t, "alice", nil)
	bob := w.user(t, "bob", nil)

	rep := NewFanReplicator(w.fans, 8)
	rels := NewRelationshipService(repository.NewFollowRepository(w.publisher.db), w.fans,
		repository.NewRelationRepository(w.publisher.db), w.users, w.social, rep)
	stop := rep.Start(1)

	require.NoError(t, rels.Follow(ctx, alice, bob))
	require.NoError(t, stop(ctx))

	n, err := w.fans.Count(ctx, bob)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	assert.Zero(t, rep.QueueLen())
}

func TestRelationChangesInvalidateCachedRelations(t *testing.T) {
	ctx := context.Background()
	w := newWorld(t)
	alice := w.user(t, "alice", nil)
	bob := w.user(t, "bob", nil)
	require.NoError(t, w.rels.Follow(ctx, alice, bob))

	p := w.publish(t, PublishInput{AuthorID: bob})
	w.drain(t)
	got, err := w.timelines.Home(ctx, viewer(alice))
	require.NoError(t, err)
	assert.Equal(t, []string{p}, postIDsOf(got))

	require.NoError(t, w.rels.Mute(ctx, alice, bob))
	got, err = w.timelines.Home(ctx, viewer(alice))
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, w.rels.Unmute(ctx, alice, bob))
	got, err = w.timelines.Home(ctx, viewer(alice))
	require.NoError(t, err)
	assert.Equal(t, []string{p}, postIDsOf(got))
}

func TestBlockInvalidatesBlockee(t *testing.T) {
	ctx := context.Background()
	w := newWorld(t)
	alice := w.user(t, "alice", nil)
	bob := w.user(t, "bob", nil)

	rel, err := w.social.Relations(ctx, alice)
	require.NoError(t, err)
	assert.False(t, rel.BlockedBy.Has(bob))

	require.NoError(t, w.rels.Block(ctx, bob, alice))
	rel, err = w.social.Relations(ctx, alice)
	require.NoError(t, err)
	assert.True(t, rel.BlockedBy.Has(bob))

	// bob 的帖子对 alice 不可见
	w.publish(t, PublishInput{AuthorID: bob})
	w.drain(t)
	got, err := w.timelines.User(ctx, bob, viewer(alice))
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, w.rels.Unblock(ctx, bob, alice))
	rel, err = w.social.Relations(ctx, alice)
	require.NoError(t, err)
	assert.False(t, rel.BlockedBy.Has(bob))
}

func TestRenoteAndInstanceMutes(t *testing.T) {
	ctx := context.Background()
	w := newWorld(t)
	alice := w.user(t, "alice", nil)
	bob := w.user(t, "bob", nil)

	require.NoError(t, w.rels.MuteRenotes(ctx, alice, bob))
	require.NoError(t, w.rels.MuteInstance(ctx, alice, "spam.example"))
	rel, err := w.social.Relations(ctx, alice)
	require.NoError(t, err)
	assert.True(t, rel.RenoteMuted.Has(bob))
	assert.True(t, rel.MutedInstances.Has("spam.example"))

	require.NoError(t, w.rels.UnmuteRenotes(ctx, alice, bob))
	require.NoError(t, w.rels.UnmuteInstance(ctx, alice, "spam.example"))
	rel, err = w.social.Relations(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, timeline.Relations{
		Muted: timeline.NewSet(), RenoteMuted: timeline.NewSet(), BlockedBy: timeline.NewSet(),
		MutedInstances: timeline.NewSet(), Following: timeline.NewSet(),
	}, *rel)
}
