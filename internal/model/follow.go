package model

import (
	"time"
)

// FollowStatus 关系状态。unfollow 不落库：到达 unfollow 即删除行。
type FollowStatus string

const (
	StatusFollow       FollowStatus = "follow"
	StatusUnfollow     FollowStatus = "unfollow"
	StatusBlock        FollowStatus = "block"
	StatusSelf         FollowStatus = "self"
	StatusNotFollowing FollowStatus = "not_following"
)

// Valid 判断是否为合法的状态输入（desired status）
func (s FollowStatus) Valid() bool {
	switch s {
	case StatusFollow, StatusUnfollow, StatusBlock:
		return true
	}
	return false
}

// Follow 关注关系（A 关注/拉黑 B）
type Follow struct {
	ID          uint         `gorm:"primaryKey" json:"-"`
	FollowerID  uint         `gorm:"index:idx_follow_follower;index:idx_follow_pair,unique;not null" json:"follower_id"`
	FollowingID uint         `gorm:"not null;index:idx_follow_following;index:idx_follow_pair,unique" json:"following_id"`
	Status      FollowStatus `gorm:"type:varchar(16);not null;default:follow" json:"status"`
	// 复合唯一键，避免重复关注
	// idx_follow_pair = (follower_id, following_id)
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"-"`
}

func (Follow) TableName() string { return "follows" }
