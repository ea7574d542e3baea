package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/fanout-timeline/internal/model"
)

type ListRepository interface {
	Create(ctx context.Context, ownerID, name string) (*model.UserList, error)
	FindByID(ctx context.Context, id string) (*model.UserList, error)
	AddMember(ctx context.Context, listID, userID string) error
	RemoveMember(ctx context.Context, listID, userID string) error
	// ListIDsContaining 包含该用户的列表，写扩散用
	ListIDsContaining(ctx context.Context, userID string) ([]string, error)
}

type listRepository struct{ db *gorm.DB }

func NewListRepository(db *gorm.DB) ListRepository { return &listRepository{db: db} }

func (r *listRepository) Create(ctx context.Context, ownerID, name string) (*model.UserList, error) {
	l := &model.UserList{ID: uuid.New().String(), UserID: ownerID, Name: name}
	if err := r.db.WithContext(ctx).Create(l).Error; err != nil {
		return nil, err
	}
	return l, nil
}

func (r *listRepository) FindByID(ctx context.Context, id string) (*model.UserList, error) {
	var l model.UserList
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&l).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *listRepository) AddMember(ctx context.Context, listID, userID string) error {
	m := &model.UserListMembership{ID: uuid.New().String(), UserListID: listID, UserID: userID}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(m).Error
}

func (r *listRepository) RemoveMember(ctx context.Context, listID, userID string) error {
	return r.db.WithContext(ctx).Where("user_list_id = ? AND user_id = ?", listID, userID).Delete(&model.UserListMembership{}).Error
}

func (r *listRepository) ListIDsContaining(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&model.UserListMembership{}).Where("user_id = ?", userID).Pluck("user_list_id", &ids).Error
	return ids, err
}
