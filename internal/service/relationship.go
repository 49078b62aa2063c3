package service

import (
	"context"

	"github.com/d60-Lab/snapgram/internal/model"
	"github.com/d60-Lab/snapgram/internal/repository"
)

// RelationshipView 一次状态迁移后的落库事实，返回值以存储为准
type RelationshipView struct {
	FollowerID  uint               `json:"follower_id"`
	FollowingID uint               `json:"following_id"`
	Status      model.FollowStatus `json:"status"`
}

// FollowerInvalidator 关注边变化时的缓存失效钩子
type FollowerInvalidator interface {
	InvalidateFollowers(ctx context.Context, userID uint)
}

// RelationshipService 关系链服务。
// 状态机（全部幂等）：
//
//	absent --follow--> follow    --unfollow--> absent
//	follow --block---> block     --unfollow--> absent
//	absent --block---> block
//	block  --follow--> follow
type RelationshipService interface {
	Follow(ctx context.Context, followerID, followingID uint, desired model.FollowStatus) (*RelationshipView, error)
	GetFollowStatus(ctx context.Context, viewerID, subjectID uint) (model.FollowStatus, error)
	GetFollowers(ctx context.Context, userID uint, page, pageSize int) ([]*model.Follow, error)
	GetFollowing(ctx context.Context, userID uint, page, pageSize int) ([]*model.Follow, error)
	CountFollowersAndFollowing(ctx context.Context, userID uint) (followers, following int64, err error)
}

type relationshipService struct {
	followRepo  repository.FollowRepository
	fanRepo     repository.FanRepository
	replicator  *FanReplicator
	invalidator FollowerInvalidator
}

func NewRelationshipService(followRepo repository.FollowRepository, fanRepo repository.FanRepository, replicator *FanReplicator, invalidator FollowerInvalidator) RelationshipService {
	return &relationshipService{followRepo: followRepo, fanRepo: fanRepo, replicator: replicator, invalidator: invalidator}
}

func (s *relationshipService) Follow(ctx context.Context, followerID, followingID uint, desired model.FollowStatus) (*RelationshipView, error) {
	if followerID == followingID {
		return nil, ErrFollowSelf
	}
	if !desired.Valid() {
		return nil, ErrInvalidStatus
	}

	switch desired {
	case model.StatusUnfollow:
		// 幂等删除：absent 时也是成功的 no-op；block 走 unfollow 即解除
		if err := s.followRepo.Delete(ctx, followerID, followingID); err != nil {
			return nil, err
		}
		s.fanRemoved(ctx, followingID, followerID)
		return &RelationshipView{FollowerID: followerID, FollowingID: followingID, Status: model.StatusUnfollow}, nil

	case model.StatusFollow:
		row, created, err := s.followRepo.FindOrCreate(ctx, followerID, followingID, model.StatusFollow)
		if err != nil {
			return nil, err
		}
		if !created && row.Status != model.StatusFollow {
			// block --follow--> follow：原地改状态
			if err := s.followRepo.UpdateStatus(ctx, followerID, followingID, model.StatusFollow); err != nil {
				return nil, err
			}
			row.Status = model.StatusFollow
		}
		s.fanAdded(ctx, followingID, followerID)
		return &RelationshipView{FollowerID: followerID, FollowingID: followingID, Status: row.Status}, nil

	case model.StatusBlock:
		row, created, err := s.followRepo.FindOrCreate(ctx, followerID, followingID, model.StatusBlock)
		if err != nil {
			return nil, err
		}
		if !created && row.Status != model.StatusBlock {
			wasFollow := row.Status == model.StatusFollow
			if err := s.followRepo.UpdateStatus(ctx, followerID, followingID, model.StatusBlock); err != nil {
				return nil, err
			}
			row.Status = model.StatusBlock
			if wasFollow {
				s.fanRemoved(ctx, followingID, followerID)
			}
		}
		return &RelationshipView{FollowerID: followerID, FollowingID: followingID, Status: row.Status}, nil
	}
	return nil, ErrInvalidStatus
}

// GetFollowStatus 查询 viewer 对 subject 的关系。
// viewer == subject 直接短路为 self，不查存储：自我关系不是图上的事实。
func (s *relationshipService) GetFollowStatus(ctx context.Context, viewerID, subjectID uint) (model.FollowStatus, error) {
	if viewerID == subjectID {
		return model.StatusSelf, nil
	}
	row, err := s.followRepo.FindOne(ctx, viewerID, subjectID)
	if err != nil {
		return "", err
	}
	if row == nil {
		return model.StatusNotFollowing, nil
	}
	return row.Status, nil
}

func (s *relationshipService) GetFollowers(ctx context.Context, userID uint, page, pageSize int) ([]*model.Follow, error) {
	offset, limit := pageRange(page, pageSize)
	return s.followRepo.ListFollowers(ctx, userID, offset, limit)
}

func (s *relationshipService) GetFollowing(ctx context.Context, userID uint, page, pageSize int) ([]*model.Follow, error) {
	offset, limit := pageRange(page, pageSize)
	return s.followRepo.ListFollowing(ctx, userID, offset, limit)
}

func (s *relationshipService) CountFollowersAndFollowing(ctx context.Context, userID uint) (int64, int64, error) {
	followers, err := s.followRepo.CountFollowers(ctx, userID)
	if err != nil {
		return 0, 0, err
	}
	following, err := s.followRepo.CountFollowing(ctx, userID)
	if err != nil {
		return 0, 0, err
	}
	return followers, following, nil
}

func (s *relationshipService) fanAdded(ctx context.Context, userID, fanID uint) {
	if s.replicator != nil {
		s.replicator.EnqueueAdd(userID, fanID)
	}
	if s.invalidator != nil {
		s.invalidator.InvalidateFollowers(ctx, userID)
	}
}

func (s *relationshipService) fanRemoved(ctx context.Context, userID, fanID uint) {
	if s.replicator != nil {
		s.replicator.EnqueueRemove(userID, fanID)
	}
	if s.invalidator != nil {
		s.invalidator.InvalidateFollowers(ctx, userID)
	}
}

func pageRange(page, pageSize int) (offset, limit int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	return (page - 1) * pageSize, pageSize
}
