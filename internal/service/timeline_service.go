package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/d60-Lab/fanout-timeline/internal/model"
	"github.com/d60-Lab/fanout-timeline/internal/repository"
	"github.com/d60-Lab/fanout-timeline/internal/timeline"
)

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

// TimelineQuery 各类时间线接口的公共参数
type TimelineQuery struct {
	ViewerID     string
	UntilID      string
	SinceID      string
	Limit        int
	AllowPartial bool
	Flags        timeline.Flags

	// 仅用户时间线
	WithReplies      bool
	WithChannelNotes bool
}

func (q *TimelineQuery) normalize() error {
	if q.Limit <= 0 {
		q.Limit = DefaultPageLimit
	}
	if q.Limit > MaxPageLimit {
		q.Limit = MaxPageLimit
	}
	if q.UntilID != "" && !timeline.ValidID(q.UntilID) {
		return ErrInvalidCursor
	}
	if q.SinceID != "" && !timeline.ValidID(q.SinceID) {
		return ErrInvalidCursor
	}
	return nil
}

// TimelineService 把每类时间线绑定到读路径：key 集合、过滤条件、冷查询形状
type TimelineService interface {
	Home(ctx context.Context, q TimelineQuery) ([]*model.Post, error)
	User(ctx context.Context, userID string, q TimelineQuery) ([]*model.Post, error)
	List(ctx context.Context, listID string, q TimelineQuery) ([]*model.Post, error)
	Local(ctx context.Context, q TimelineQuery) ([]*model.Post, error)
	Channel(ctx context.Context, channelID string, q TimelineQuery) ([]*model.Post, error)
}

type timelineService struct {
	endpoint *FanoutTimelineEndpointService
	posts    repository.PostRepository
	users    repository.UserRepository
	lists    repository.ListRepository
	channels repository.ChannelRepository
	follows  repository.FollowRepository
}

func NewTimelineService(
	endpoint *FanoutTimelineEndpointService,
	posts repository.PostRepository,
	users repository.UserRepository,
	lists repository.ListRepository,
	channels repository.ChannelRepository,
	follows repository.FollowRepository,
) TimelineService {
	return &timelineService{endpoint: endpoint, posts: posts, users: users, lists: lists, channels: channels, follows: follows}
}

func (s *timelineService) options(q TimelineQuery, keys ...timeline.Key) TimelineOptions {
	return TimelineOptions{
		ViewerID:     q.ViewerID,
		Keys:         keys,
		UntilID:      q.UntilID,
		SinceID:      q.SinceID,
		Limit:        q.Limit,
		AllowPartial: q.AllowPartial,
		Flags:        q.Flags,
	}
}

// rangeFallback 把 scopes 绑定成冷查询
func (s *timelineService) rangeFallback(scopes ...repository.Scope) FallbackFunc {
	return func(ctx context.Context, fq FallbackQuery) ([]*model.Post, error) {
		return s.posts.Range(ctx, repository.Page{UntilID: fq.UntilID, SinceID: fq.SinceID, Limit: fq.Limit}, scopes...)
	}
}

// socialScopes 观看者的屏蔽、拉黑与请求开关
func socialScopes(viewerID string, f timeline.Flags) []repository.Scope {
	var scopes []repository.Scope
	if viewerID != "" {
		scopes = append(scopes,
			repository.NotMutedBy(viewerID),
			repository.NotBlocking(viewerID),
			repository.NoMutedRenotes(viewerID),
		)
		if !f.IncludeMyRenotes {
			scopes = append(scopes, repository.NotMyRenotes(viewerID))
		}
		if !f.IncludeRenotedMyNotes {
			scopes = append(scopes, repository.NotRenotesOf(viewerID))
		}
	}
	return append(scopes, flagScopes(viewerID, f)...)
}

func flagScopes(viewerID string, f timeline.Flags) []repository.Scope {
	var scopes []repository.Scope
	if !f.IncludeLocalRenotes {
		scopes = append(scopes, repository.NoLocalRenotes())
	}
	if f.WithFiles {
		scopes = append(scopes, repository.WithFiles())
	}
	if !f.WithRenotes || f.ExcludePureRenotes {
		scopes = append(scopes, repository.NoPureRenotes())
	}
	if f.ExcludeReplies {
		if viewerID != "" {
			scopes = append(scopes, repository.ReplyToSelfOr(viewerID))
		} else {
			scopes = append(scopes, repository.ReplyToSelfOr())
		}
	}
	return scopes
}

func visibilityPredicates(viewerID string) func(*timeline.Relations) []timeline.Predicate {
	return func(rel *timeline.Relations) []timeline.Predicate {
		return []timeline.Predicate{
			timeline.Visibility(viewerID, rel.Following),
			timeline.ReplyVisibility(viewerID, rel.Following),
		}
	}
}

func withFiles(key timeline.Key, scopes ...repository.Scope) []repository.Scope {
	if key.WithFiles() {
		return append(scopes, repository.WithFiles())
	}
	return scopes
}

func (s *timelineService) Home(ctx context.Context, q TimelineQuery) ([]*model.Post, error) {
	if err := q.normalize(); err != nil {
		return nil, err
	}
	followees, err := s.follows.FolloweeIDs(ctx, q.ViewerID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrColdStoreUnavailable, err)
	}
	authors := append([]string{q.ViewerID}, followees...)

	opts := s.options(q, timeline.Home(q.ViewerID, q.Flags.WithFiles))
	opts.RelationPredicates = visibilityPredicates(q.ViewerID)
	opts.DBFallback = s.rangeFallback(append([]repository.Scope{
		repository.AuthoredBy(authors...),
		repository.NoChannel(),
		repository.ReplyToSelfOr(q.ViewerID),
		repository.VisibleTo(q.ViewerID),
	}, socialScopes(q.ViewerID, q.Flags)...)...)
	opts.Rebuild = func(ctx context.Context, key timeline.Key, limit int) ([]*model.Post, error) {
		return s.posts.Range(ctx, repository.Page{Limit: limit}, withFiles(key,
			repository.AuthoredBy(authors...),
			repository.NoChannel(),
			repository.ReplyToSelfOr(q.ViewerID),
			repository.VisibleTo(q.ViewerID),
		)...)
	}
	return s.endpoint.Timeline(ctx, opts)
}

func (s *timelineService) User(ctx context.Context, userID string, q TimelineQuery) ([]*model.Post, error) {
	if err := q.normalize(); err != nil {
		return nil, err
	}
	user, err := s.users.FindByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNoSuchUser
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrColdStoreUnavailable, err)
	}
	remote := user.IsRemote()
	self := q.ViewerID != "" && q.ViewerID == userID

	var keys []timeline.Key
	if q.Flags.WithFiles {
		keys = []timeline.Key{timeline.User(userID, remote, true)}
	} else {
		keys = []timeline.Key{timeline.User(userID, remote, false)}
		if q.WithReplies {
			keys = append(keys, timeline.UserWithReplies(userID, remote))
		}
		if q.WithChannelNotes {
			keys = append(keys, timeline.UserWithChannel(userID, remote))
		}
	}

	opts := s.options(q, keys...)
	opts.IgnoreAuthorFromMute = true
	opts.RelationPredicates = visibilityPredicates(q.ViewerID)
	if !self {
		opts.Predicates = []timeline.Predicate{timeline.SensitiveChannel(q.ViewerID)}
	}

	scopes := []repository.Scope{repository.AuthoredBy(userID), repository.VisibleTo(q.ViewerID)}
	switch {
	case q.WithChannelNotes && !self:
		scopes = append(scopes, repository.ChannelNotSensitive())
	case !q.WithChannelNotes:
		scopes = append(scopes, repository.NoChannel())
	}
	if !q.WithReplies {
		scopes = append(scopes, repository.ReplyToSelfOr())
	}
	if q.ViewerID != "" {
		scopes = append(scopes, repository.NotBlocking(q.ViewerID))
	}
	opts.DBFallback = s.rangeFallback(append(scopes, flagScopes(q.ViewerID, q.Flags)...)...)

	// 用户时间线的 key 被所有观看者共享，重建内容与观看者无关，可见性在内存里过滤
	opts.Rebuild = func(ctx context.Context, key timeline.Key, limit int) ([]*model.Post, error) {
		scopes := []repository.Scope{repository.AuthoredBy(userID)}
		switch key.Kind {
		case timeline.KindUserWithReplies:
			scopes = append(scopes, repository.NoChannel(), repository.OnlyReplies())
		case timeline.KindUserWithChannel:
			scopes = append(scopes, repository.OnlyChannel())
		default:
			scopes = withFiles(key, append(scopes, repository.NoChannel(), repository.ReplyToSelfOr())...)
		}
		return s.posts.Range(ctx, repository.Page{Limit: limit}, scopes...)
	}
	return s.endpoint.Timeline(ctx, opts)
}

func (s *timelineService) List(ctx context.Context, listID string, q TimelineQuery) ([]*model.Post, error) {
	if err := q.normalize(); err != nil {
		return nil, err
	}
	list, err := s.lists.FindByID(ctx, listID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNoSuchList
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrColdStoreUnavailable, err)
	}
	if list.UserID != q.ViewerID {
		return nil, ErrNoSuchList
	}

	opts := s.options(q, timeline.UserList(listID, q.Flags.WithFiles))
	opts.RelationPredicates = visibilityPredicates(q.ViewerID)
	opts.DBFallback = s.rangeFallback(append([]repository.Scope{
		repository.ListMembers(listID),
		repository.NoChannel(),
		repository.ReplyToSelfOr(q.ViewerID),
		repository.VisibleTo(q.ViewerID),
	}, socialScopes(q.ViewerID, q.Flags)...)...)
	opts.Rebuild = func(ctx context.Context, key timeline.Key, limit int) ([]*model.Post, error) {
		return s.posts.Range(ctx, repository.Page{Limit: limit}, withFiles(key,
			repository.ListMembers(listID),
			repository.NoChannel(),
			repository.ReplyToSelfOr(list.UserID),
			repository.VisibleTo(list.UserID),
		)...)
	}
	return s.endpoint.Timeline(ctx, opts)
}

func (s *timelineService) Local(ctx context.Context, q TimelineQuery) ([]*model.Post, error) {
	if err := q.normalize(); err != nil {
		return nil, err
	}
	keys := []timeline.Key{timeline.Local(q.Flags.WithFiles)}
	if q.ViewerID != "" && !q.Flags.WithFiles {
		keys = append(keys, timeline.LocalWithReplyTo(q.ViewerID))
	}

	opts := s.options(q, keys...)
	reply := repository.ReplyToSelfOr()
	if q.ViewerID != "" {
		reply = repository.ReplyToSelfOr(q.ViewerID)
	}
	opts.DBFallback = s.rangeFallback(append([]repository.Scope{
		repository.LocalPublic(),
		repository.NoChannel(),
		reply,
	}, socialScopes(q.ViewerID, q.Flags)...)...)
	return s.endpoint.Timeline(ctx, opts)
}

func (s *timelineService) Channel(ctx context.Context, channelID string, q TimelineQuery) ([]*model.Post, error) {
	if err := q.normalize(); err != nil {
		return nil, err
	}
	if _, err := s.channels.FindByID(ctx, channelID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNoSuchChannel
		}
		return nil, fmt.Errorf("%w: %w", ErrColdStoreUnavailable, err)
	}

	opts := s.options(q, timeline.Channel(channelID))
	opts.RelationPredicates = visibilityPredicates(q.ViewerID)
	opts.DBFallback = s.rangeFallback(append([]repository.Scope{
		repository.InChannel(channelID),
		repository.VisibleTo(q.ViewerID),
	}, socialScopes(q.ViewerID, q.Flags)...)...)
	return s.endpoint.Timeline(ctx, opts)
}
