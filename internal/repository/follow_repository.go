package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/snapgram/internal/model"
)

// FollowRepository 关系存储。键为有序对 (follower_id, following_id)，
// 复合唯一索引保证每对至多一行。
type FollowRepository interface {
	// FindOrCreate 不存在则按 status 建行；并发竞争输掉的一方读到赢家的行，
	// 不向上抛唯一键冲突。返回 (row, created)。
	FindOrCreate(ctx context.Context, followerID, followingID uint, status model.FollowStatus) (*model.Follow, bool, error)
	FindOne(ctx context.Context, followerID, followingID uint) (*model.Follow, error)
	UpdateStatus(ctx context.Context, followerID, followingID uint, status model.FollowStatus) error
	// Delete 幂等删除：行不存在也返回成功
	Delete(ctx context.Context, followerID, followingID uint) error
	ListFollowers(ctx context.Context, userID uint, offset, limit int) ([]*model.Follow, error)
	ListFollowing(ctx context.Context, userID uint, offset, limit int) ([]*model.Follow, error)
	CountFollowers(ctx context.Context, userID uint) (int64, error)
	CountFollowing(ctx context.Context, userID uint) (int64, error)
}

type followRepository struct {
	db *gorm.DB
}

func NewFollowRepository(db *gorm.DB) FollowRepository { return &followRepository{db: db} }

func (r *followRepository) FindOrCreate(ctx context.Context, followerID, followingID uint, status model.FollowStatus) (*model.Follow, bool, error) {
	f := &model.Follow{FollowerID: followerID, FollowingID: followingID, Status: status}
	// 幂等：重复写不报错，交给唯一键裁决
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(f)
	if res.Error != nil {
		return nil, false, res.Error
	}
	if res.RowsAffected > 0 {
		return f, true, nil
	}
	// 冲突输家：回读赢家的行作为当前事实
	existing, err := r.FindOne(ctx, followerID, followingID)
	if err != nil {
		return nil, false, err
	}
	if existing == nil {
		// 行在回读前又被删了，视作我们刚创建失败后的 absent；重试一次
		res = r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(f)
		if res.Error != nil {
			return nil, false, res.Error
		}
		if res.RowsAffected > 0 {
			return f, true, nil
		}
		existing, err = r.FindOne(ctx, followerID, followingID)
		if err != nil || existing == nil {
			return nil, false, errors.New("follow row unstable under concurrent writes")
		}
	}
	return existing, false, nil
}

func (r *followRepository) FindOne(ctx context.Context, followerID, followingID uint) (*model.Follow, error) {
	var f model.Follow
	err := r.db.WithContext(ctx).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		First(&f).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *followRepository) UpdateStatus(ctx context.Context, followerID, followingID uint, status model.FollowStatus) error {
	return r.db.WithContext(ctx).
		Model(&model.Follow{}).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Update("status", status).Error
}

func (r *followRepository) Delete(ctx context.Context, followerID, followingID uint) error {
	return r.db.WithContext(ctx).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Delete(&model.Follow{}).Error
}

// ListFollowers 粉丝列表：只算 status=follow 的行，block 过的不是粉丝
func (r *followRepository) ListFollowers(ctx context.Context, userID uint, offset, limit int) ([]*model.Follow, error) {
	var res []*model.Follow
	err := r.db.WithContext(ctx).
		Where("following_id = ? AND status = ?", userID, model.StatusFollow).
		Offset(offset).Limit(limit).Find(&res).Error
	return res, err
}

// ListFollowing 关注列表：同样只算 status=follow，被拉黑的目标不出现
func (r *followRepository) ListFollowing(ctx context.Context, userID uint, offset, limit int) ([]*model.Follow, error) {
	var res []*model.Follow
	err := r.db.WithContext(ctx).
		Where("follower_id = ? AND status = ?", userID, model.StatusFollow).
		Offset(offset).Limit(limit).Find(&res).Error
	return res, err
}

func (r *followRepository) CountFollowers(ctx context.Context, userID uint) (int64, error) {
	var cnt int64
	err := r.db.WithContext(ctx).
		Model(&model.Follow{}).
		Where("following_id = ? AND status = ?", userID, model.StatusFollow).
		Count(&cnt).Error
	return cnt, err
}

func (r *followRepository) CountFollowing(ctx context.Context, userID uint) (int64, error) {
	var cnt int64
	err := r.db.WithContext(ctx).
		Model(&model.Follow{}).
		Where("follower_id = ? AND status = ?", userID, model.StatusFollow).
		Count(&cnt).Error
	return cnt, err
}
