package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/fanout-timeline/internal/model"
)

func TestPostRangeOrdering(t *testing.T) {
	ctx := context.Background()
	repo := NewPostRepository(newTestDB(t))
	for i := 1; i <= 10; i++ {
		seedPost(t, repo, &model.Post{ID: pid(i), UserID: "u1"})
	}

	got, err := repo.Range(ctx, Page{Limit: 3})
	require.NoError(t, err)
	assert.Equal(t, []string{pid(10), pid(9), pid(8)}, ids(got))

	got, err = repo.Range(ctx, Page{UntilID: pid(8), Limit: 3})
	require.NoError(t, err)
	assert.Equal(t, []string{pid(7), pid(6), pid(5)}, ids(got))

	// 只有 since：取紧挨着 since 的几条，仍按倒序返回
	got, err = repo.Range(ctx, Page{SinceID: pid(5), Limit: 3})
	require.NoError(t, err)
	assert.Equal(t, []string{pid(8), pid(7), pid(6)}, ids(got))

	got, err = repo.Range(ctx, Page{SinceID: pid(2), UntilID: pid(9), Limit: 3})
	require.NoError(t, err)
	assert.Equal(t, []string{pid(8), pid(7), pid(6)}, ids(got))
}

func TestPostFindByIDsSkipsGhosts(t *testing.T) {
	ctx := context.Background()
	repo := NewPostRepository(newTestDB(t))
	parent := seedPost(t, repo, &model.Post{ID: pid(1), UserID: "u1", Visibility: model.VisibilityFollowers})
	seedPost(t, repo, &model.Post{ID: pid(2), UserID: "u2", ReplyID: &parent.ID, ReplyUserID: strp("u1")})

	got, err := repo.FindByIDs(ctx, []string{pid(2), "ghost"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.NotNil(t, got[0].Reply)
	assert.Equal(t, model.VisibilityFollowers, got[0].Reply.Visibility)

	_, err = repo.FindByID(ctx, "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostScopesStructure(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewPostRepository(db)
	require.NoError(t, db.Create(&model.Channel{ID: "hot", Name: "hot", IsSensitive: true}).Error)

	seedPost(t, repo, &model.Post{ID: pid(1), UserID: "u1"})
	seedPost(t, repo, &model.Post{ID: pid(2), UserID: "u1", FileIDs: []string{"f1"}})
	seedPost(t, repo, &model.Post{ID: pid(3), UserID: "u1", ReplyID: strp(pid(9)), ReplyUserID: strp("u2")})
	seedPost(t, repo, &model.Post{ID: pid(4), UserID: "u1", ReplyID: strp(pid(1)), ReplyUserID: strp("u1")})
	seedPost(t, repo, &model.Post{ID: pid(5), UserID: "u1", ChannelID: strp("hot")})
	seedPost(t, repo, &model.Post{ID: pid(6), UserID: "u1", RenoteID: strp(pid(8)), RenoteUserID: strp("u2")})

	cases := []struct {
		name   string
		scopes []Scope
		want   []string
	}{
		{"files", []Scope{WithFiles()}, []string{pid(2)}},
		{"no channel", []Scope{NoChannel(), NotReply()}, []string{pid(6), pid(2), pid(1)}},
		{"only channel", []Scope{OnlyChannel()}, []string{pid(5)}},
		{"only replies", []Scope{OnlyReplies()}, []string{pid(3)}},
		{"self replies", []Scope{ReplyToSelfOr(), NoChannel()}, []string{pid(6), pid(4), pid(2), pid(1)}},
		{"reply to viewer", []Scope{ReplyToSelfOr("u2"), NoChannel()}, []string{pid(6), pid(4), pid(3), pid(2), pid(1)}},
		{"not sensitive", []Scope{ChannelNotSensitive(), OnlyChannel()}, []string{}},
		{"pure renotes", []Scope{NoPureRenotes(), NoChannel(), NotReply()}, []string{pid(2), pid(1)}},
		{"renotes of u2", []Scope{NotRenotesOf("u2"), NoChannel(), NotReply()}, []string{pid(2), pid(1)}},
		{"my renotes", []Scope{NotMyRenotes("u1"), NoChannel(), NotReply()}, []string{pid(2), pid(1)}},
		{"local renotes", []Scope{NoLocalRenotes(), NoChannel(), NotReply()}, []string{pid(2), pid(1)}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := repo.Range(ctx, Page{Limit: 10}, c.scopes...)
			require.NoError(t, err)
			assert.Equal(t, c.want, ids(got))
		})
	}
}

func TestPostScopesSocial(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewPostRepository(db)
	rel := NewRelationRepository(db)
	follows := NewFollowRepository(db)

	seedPost(t, repo, &model.Post{ID: pid(1), UserID: "friend"})
	seedPost(t, repo, &model.Post{ID: pid(2), UserID: "muted"})
	seedPost(t, repo, &model.Post{ID: pid(3), UserID: "blocker"})
	seedPost(t, repo, &model.Post{ID: pid(4), UserID: "friend", RenoteID: strp("x"), RenoteUserID: strp("muted")})
	seedPost(t, repo, &model.Post{ID: pid(5), UserID: "renoter", RenoteID: strp("y"), RenoteUserID: strp("friend")})
	seedPost(t, repo, &model.Post{ID: pid(6), UserID: "remote", UserHost: strp("bad.example")})
	seedPost(t, repo, &model.Post{ID: pid(7), UserID: "stranger", Visibility: model.VisibilityFollowers})
	seedPost(t, repo, &model.Post{ID: pid(8), UserID: "friend", Visibility: model.VisibilityFollowers})
	seedPost(t, repo, &model.Post{ID: pid(9), UserID: "stranger", Visibility: model.VisibilitySpecified, VisibleUserIDs: []string{"me"}})
	seedPost(t, repo, &model.Post{ID: pid(10), UserID: "stranger", Visibility: model.VisibilitySpecified, VisibleUserIDs: []string{"other"}})

	require.NoError(t, rel.Mute(ctx, "me", "muted"))
	require.NoError(t, rel.MuteRenotes(ctx, "me", "renoter"))
	require.NoError(t, rel.Block(ctx, "blocker", "me"))
	require.NoError(t, rel.MuteInstance(ctx, "me", "bad.example"))
	require.NoError(t, follows.Create(ctx, "me", "friend"))

	got, err := repo.Range(ctx, Page{Limit: 20},
		NotMutedBy("me"), NotBlocking("me"), NoMutedRenotes("me"), VisibleTo("me"))
	require.NoError(t, err)
	assert.Equal(t, []string{pid(9), pid(8), pid(1)}, ids(got))

	anon, err := repo.Range(ctx, Page{Limit: 20}, VisibleTo(""))
	require.NoError(t, err)
	assert.Equal(t, []string{pid(6), pid(5), pid(4), pid(3), pid(2), pid(1)}, ids(anon))
}

func TestPostScopesSocialKeepOwnPosts(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewPostRepository(db)
	rel := NewRelationRepository(db)

	seedPost(t, repo, &model.Post{ID: pid(1), UserID: "me", RenoteID: strp("x"), RenoteUserID: strp("muted")})
	seedPost(t, repo, &model.Post{ID: pid(2), UserID: "me", ReplyID: strp("y"), ReplyUserID: strp("blocker")})
	seedPost(t, repo, &model.Post{ID: pid(3), UserID: "me", ReplyID: strp("z"), ReplyUserID: strp("muted"), RenoteID: strp("w"), RenoteUserID: strp("blocker")})
	seedPost(t, repo, &model.Post{ID: pid(4), UserID: "friend", RenoteID: strp("x"), RenoteUserID: strp("muted")})
	seedPost(t, repo, &model.Post{ID: pid(5), UserID: "friend", ReplyID: strp("y"), ReplyUserID: strp("blocker")})

	require.NoError(t, rel.Mute(ctx, "me", "muted"))
	require.NoError(t, rel.Block(ctx, "blocker", "me"))

	got, err := repo.Range(ctx, Page{Limit: 10}, NotMutedBy("me"), NotBlocking("me"))
	require.NoError(t, err)
	assert.Equal(t, []string{pid(3), pid(2), pid(1)}, ids(got))
}

func TestPostScopesMembership(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewPostRepository(db)
	lists := NewListRepository(db)

	l, err := lists.Create(ctx, "owner", "friends")
	require.NoError(t, err)
	require.NoError(t, lists.AddMember(ctx, l.ID, "a"))
	require.NoError(t, lists.AddMember(ctx, l.ID, "b"))

	seedPost(t, repo, &model.Post{ID: pid(1), UserID: "a"})
	seedPost(t, repo, &model.Post{ID: pid(2), UserID: "c"})
	seedPost(t, repo, &model.Post{ID: pid(3), UserID: "b", UserHost: strp("remote.example")})
	seedPost(t, repo, &model.Post{ID: pid(4), UserID: "a", ChannelID: strp("ch")})

	got, err := repo.Range(ctx, Page{Limit: 10}, ListMembers(l.ID))
	require.NoError(t, err)
	assert.Equal(t, []string{pid(4), pid(3), pid(1)}, ids(got))

	got, err = repo.Range(ctx, Page{Limit: 10}, AuthoredBy("a", "c"), NoChannel())
	require.NoError(t, err)
	assert.Equal(t, []string{pid(2), pid(1)}, ids(got))

	got, err = repo.Range(ctx, Page{Limit: 10}, InChannel("ch"))
	require.NoError(t, err)
	assert.Equal(t, []string{pid(4)}, ids(got))

	got, err = repo.Range(ctx, Page{Limit: 10}, LocalPublic())
	require.NoError(t, err)
	assert.Equal(t, []string{pid(4), pid(2), pid(1)}, ids(got))
}
