package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/d60-Lab/fanout-timeline/internal/repository"
	"github.com/d60-Lab/fanout-timeline/pkg/logger"
)

// RelationshipService 关系链服务：关注、屏蔽、拉黑。写入后让社交图缓存失效
type RelationshipService interface {
	Follow(ctx context.Context, fromUserID, toUserID string) error
	Unfollow(ctx context.Context, fromUserID, toUserID string) error
	ListFollowing(ctx context.Context, userID string, page, pageSize int) ([]string, error)
	ListFans(ctx context.Context, userID string, page, pageSize int) ([]string, error)

	Mute(ctx context.Context, muterID, muteeID string) error
	Unmute(ctx context.Context, muterID, muteeID string) error
	MuteRenotes(ctx context.Context, muterID, muteeID string) error
	UnmuteRenotes(ctx context.Context, muterID, muteeID string) error
	Block(ctx context.Context, blockerID, blockeeID string) error
	Unblock(ctx context.Context, blockerID, blockeeID string) error
	MuteInstance(ctx context.Context, userID, host string) error
	UnmuteInstance(ctx context.Context, userID, host string) error
}

type relationshipService struct {
	followRepo repository.FollowRepository
	fanRepo    repository.FanRepository
	relRepo    repository.RelationRepository
	userRepo   repository.UserRepository
	social     *SocialGraphCache
	replicator *FanReplicator
}

// NewRelationshipService replicator 为 nil 时 fans 表同步写入
func NewRelationshipService(followRepo repository.FollowRepository, fanRepo repository.FanRepository, relRepo repository.RelationRepository, userRepo repository.UserRepository, social *SocialGraphCache, replicator *FanReplicator) RelationshipService {
	return &relationshipService{followRepo: followRepo, fanRepo: fanRepo, relRepo: relRepo, userRepo: userRepo, social: social, replicator: replicator}
}

func (s *relationshipService) checkTarget(ctx context.Context, fromUserID, toUserID string) error {
	if fromUserID == toUserID {
		return ErrFollowSelf
	}
	if _, err := s.userRepo.FindByID(ctx, toUserID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNoSuchUser
		}
		return err
	}
	return nil
}

func (s *relationshipService) invalidate(ctx context.Context, userIDs ...string) {
	if s.social == nil {
		return
	}
	if err := s.social.Invalidate(ctx, userIDs...); err != nil {
		logger.Warn("invalidate relations failed", zap.Strings("users", userIDs), zap.Error(err))
	}
}

func (s *relationshipService) Follow(ctx context.Context, fromUserID, toUserID string) error {
	if err := s.checkTarget(ctx, fromUserID, toUserID); err != nil {
		return err
	}
	if err := s.followRepo.Create(ctx, fromUserID, toUserID); err != nil {
		return err
	}
	if s.replicator != nil {
		s.replicator.EnqueueAdd(toUserID, fromUserID)
	} else if err := s.fanRepo.Create(ctx, toUserID, fromUserID); err != nil {
		return err
	}
	s.invalidate(ctx, fromUserID)
	return nil
}

func (s *relationshipService) Unfollow(ctx context.Context, fromUserID, toUserID string) error {
	if err := s.followRepo.Delete(ctx, fromUserID, toUserID); err != nil {
		return err
	}
	if s.replicator != nil {
		s.replicator.EnqueueRemove(toUserID, fromUserID)
	} else if err := s.fanRepo.Delete(ctx, toUserID, fromUserID); err != nil {
		return err
	}
	s.invalidate(ctx, fromUserID)
	return nil
}

func (s *relationshipService) ListFollowing(ctx context.Context, userID string, page, pageSize int) ([]string, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}
	items, err := s.followRepo.ListFollowings(ctx, userID, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, err
	}
	res := make([]string, len(items))
	for i, it := range items {
		res[i] = it.FolloweeID
	}
	return res, nil
}

func (s *relationshipService) ListFans(ctx context.Context, userID string, page, pageSize int) ([]string, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}
	items, err := s.fanRepo.ListFans(ctx, userID, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, err
	}
	res := make([]string, len(items))
	for i, it := range items {
		res[i] = it.FanID
	}
	return res, nil
}

func (s *relationshipService) Mute(ctx context.Context, muterID, muteeID string) error {
	if err := s.checkTarget(ctx, muterID, muteeID); err != nil {
		return err
	}
	if err := s.relRepo.Mute(ctx, muterID, muteeID); err != nil {
		return err
	}
	s.invalidate(ctx, muterID)
	return nil
}

func (s *relationshipService) Unmute(ctx context.Context, muterID, muteeID string) error {
	if err := s.relRepo.Unmute(ctx, muterID, muteeID); err != nil {
		return err
	}
	s.invalidate(ctx, muterID)
	return nil
}

func (s *relationshipService) MuteRenotes(ctx context.Context, muterID, muteeID string) error {
	if err := s.checkTarget(ctx, muterID, muteeID); err != nil {
		return err
	}
	if err := s.relRepo.MuteRenotes(ctx, muterID, muteeID); err != nil {
		return err
	}
	s.invalidate(ctx, muterID)
	return nil
}

func (s *relationshipService) UnmuteRenotes(ctx context.Context, muterID, muteeID string) error {
	if err := s.relRepo.UnmuteRenotes(ctx, muterID, muteeID); err != nil {
		return err
	}
	s.invalidate(ctx, muterID)
	return nil
}

// Block 被拉黑者的 blocked_by 集合变了，失效的是对方的缓存
func (s *relationshipService) Block(ctx context.Context, blockerID, blockeeID string) error {
	if err := s.checkTarget(ctx, blockerID, blockeeID); err != nil {
		return err
	}
	if err := s.relRepo.Block(ctx, blockerID, blockeeID); err != nil {
		return err
	}
	s.invalidate(ctx, blockeeID)
	return nil
}

func (s *relationshipService) Unblock(ctx context.Context, blockerID, blockeeID string) error {
	if err := s.relRepo.Unblock(ctx, blockerID, blockeeID); err != nil {
		return err
	}
	s.invalidate(ctx, blockeeID)
	return nil
}

func (s *relationshipService) MuteInstance(ctx context.Context, userID, host string) error {
	if err := s.relRepo.MuteInstance(ctx, userID, host); err != nil {
		return err
	}
	s.invalidate(ctx, userID)
	return nil
}

func (s *relationshipService) UnmuteInstance(ctx context.Context, userID, host string) error {
	if err := s.relRepo.UnmuteInstance(ctx, userID, host); err != nil {
		return err
	}
	s.invalidate(ctx, userID)
	return nil
}
