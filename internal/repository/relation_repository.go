package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/fanout-timeline/internal/model"
)

// RelationRepository 屏蔽、拉黑、实例屏蔽
type RelationRepository interface {
	Mute(ctx context.Context, muterID, muteeID string) error
	Unmute(ctx context.Context, muterID, muteeID string) error
	MutedIDs(ctx context.Context, muterID string) ([]string, error)

	MuteRenotes(ctx context.Context, muterID, muteeID string) error
	UnmuteRenotes(ctx context.Context, muterID, muteeID string) error
	RenoteMutedIDs(ctx context.Context, muterID string) ([]string, error)

	Block(ctx context.Context, blockerID, blockeeID string) error
	Unblock(ctx context.Context, blockerID, blockeeID string) error
	// BlockerIDs 拉黑了 blockeeID 的用户
	BlockerIDs(ctx context.Context, blockeeID string) ([]string, error)

	MuteInstance(ctx context.Context, userID, host string) error
	UnmuteInstance(ctx context.Context, userID, host string) error
	MutedInstances(ctx context.Context, userID string) ([]string, error)
}

type relationRepository struct {
	db *gorm.DB
}

func NewRelationRepository(db *gorm.DB) RelationRepository { return &relationRepository{db: db} }

func (r *relationRepository) create(ctx context.Context, row interface{}) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(row).Error
}

func (r *relationRepository) pluck(ctx context.Context, m interface{}, column, where string, arg string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(m).Where(where, arg).Pluck(column, &ids).Error
	return ids, err
}

func (r *relationRepository) Mute(ctx context.Context, muterID, muteeID string) error {
	return r.create(ctx, &model.Muting{ID: uuid.New().String(), MuterID: muterID, MuteeID: muteeID})
}

func (r *relationRepository) Unmute(ctx context.Context, muterID, muteeID string) error {
	return r.db.WithContext(ctx).Where("muter_id = ? AND mutee_id = ?", muterID, muteeID).Delete(&model.Muting{}).Error
}

func (r *relationRepository) MutedIDs(ctx context.Context, muterID string) ([]string, error) {
	return r.pluck(ctx, &model.Muting{}, "mutee_id", "muter_id = ?", muterID)
}

func (r *relationRepository) MuteRenotes(ctx context.Context, muterID, muteeID string) error {
	return r.create(ctx, &model.RenoteMuting{ID: uuid.New().String(), MuterID: muterID, MuteeID: muteeID})
}

func (r *relationRepository) UnmuteRenotes(ctx context.Context, muterID, muteeID string) error {
	return r.db.WithContext(ctx).Where("muter_id = ? AND mutee_id = ?", muterID, muteeID).Delete(&model.RenoteMuting{}).Error
}

func (r *relationRepository) RenoteMutedIDs(ctx context.Context, muterID string) ([]string, error) {
	return r.pluck(ctx, &model.RenoteMuting{}, "mutee_id", "muter_id = ?", muterID)
}

func (r *relationRepository) Block(ctx context.Context, blockerID, blockeeID string) error {
	return r.create(ctx, &model.Blocking{ID: uuid.New().String(), BlockerID: blockerID, BlockeeID: blockeeID})
}

func (r *relationRepository) Unblock(ctx context.Context, blockerID, blockeeID string) error {
	return r.db.WithContext(ctx).Where("blocker_id = ? AND blockee_id = ?", blockerID, blockeeID).Delete(&model.Blocking{}).Error
}

func (r *relationRepository) BlockerIDs(ctx context.Context, blockeeID string) ([]string, error) {
	return r.pluck(ctx, &model.Blocking{}, "blocker_id", "blockee_id = ?", blockeeID)
}

func (r *relationRepository) MuteInstance(ctx context.Context, userID, host string) error {
	return r.create(ctx, &model.InstanceMute{ID: uuid.New().String(), UserID: userID, Host: host})
}

func (r *relationRepository) UnmuteInstance(ctx context.Context, userID, host string) error {
	return r.db.WithContext(ctx).Where("user_id = ? AND host = ?", userID, host).Delete(&model.InstanceMute{}).Error
}

func (r *relationRepository) MutedInstances(ctx context.Context, userID string) ([]string, error) {
	return r.pluck(ctx, &model.InstanceMute{}, "host", "user_id = ?", userID)
}
