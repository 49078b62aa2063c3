package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/d60-Lab/snapgram/internal/model"
	"github.com/d60-Lab/snapgram/pkg/logger"
)

// FollowerSnapshot contains minimal user info required by follower pages.
type FollowerSnapshot struct {
	ID        uint   `json:"id"`
	Username  string `json:"username"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`
}

// FollowerCache caches follower pages: a Redis list of follower ids per
// user (range-readable) plus per-user snapshot keys hydrated via MGet.
// The fans table is the source of truth for the id index; it only holds
// active follow edges, so blocked/unfollowed relations never show up.
type FollowerCache struct {
	db    *gorm.DB
	cache *redis.Client
	ttl   time.Duration
}

func NewFollowerCache(db *gorm.DB, cache *redis.Client, ttl time.Duration) *FollowerCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &FollowerCache{db: db, cache: cache, ttl: ttl}
}

func indexKey(userID uint) string { return fmt.Sprintf("followers:index:%d", userID) }
func userKey(id uint) string      { return fmt.Sprintf("user:%d", id) }

// FetchFollowers returns one page of follower snapshots, newest first.
func (s *FollowerCache) FetchFollowers(ctx context.Context, userID uint, page, size int) ([]FollowerSnapshot, error) {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	start := (page - 1) * size
	end := start + size - 1

	var ids []uint
	if raw, err := s.cache.LRange(ctx, indexKey(userID), int64(start), int64(end)).Result(); err == nil && len(raw) > 0 {
		ids = parseIDs(raw)
	}

	if len(ids) == 0 {
		allIDs, err := s.loadFollowerIDsAndCache(ctx, userID)
		if err != nil {
			return nil, err
		}
		if start >= len(allIDs) {
			return []FollowerSnapshot{}, nil
		}
		endIdx := start + size
		if endIdx > len(allIDs) {
			endIdx = len(allIDs)
		}
		ids = allIDs[start:endIdx]
	}

	return s.loadUsers(ctx, ids)
}

// InvalidateFollowers drops the id index for a user after a follow-edge
// change. Snapshot keys are left to expire on their own.
func (s *FollowerCache) InvalidateFollowers(ctx context.Context, userID uint) {
	if err := s.cache.Del(ctx, indexKey(userID)).Err(); err != nil {
		logger.Warn("follower cache invalidate failed", zap.Uint("user", userID), zap.Error(err))
	}
}

func (s *FollowerCache) loadFollowerIDsAndCache(ctx context.Context, userID uint) ([]uint, error) {
	var ids []uint
	if err := s.db.WithContext(ctx).
		Table("fans").
		Select("fan_id").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Scan(&ids).Error; err != nil {
		return nil, err
	}

	if len(ids) > 0 {
		vals := make([]interface{}, len(ids))
		for i, id := range ids {
			vals[i] = fmt.Sprint(id)
		}
		pipe := s.cache.Pipeline()
		pipe.Del(ctx, indexKey(userID))
		pipe.RPush(ctx, indexKey(userID), vals...)
		pipe.Expire(ctx, indexKey(userID), s.ttl)
		if _, err := pipe.Exec(ctx); err != nil {
			logger.Warn("follower index cache write failed", zap.Uint("user", userID), zap.Error(err))
		}
	}
	return ids, nil
}

func (s *FollowerCache) loadUsers(ctx context.Context, ids []uint) ([]FollowerSnapshot, error) {
	if len(ids) == 0 {
		return []FollowerSnapshot{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = userKey(id)
	}

	cached := make(map[uint]FollowerSnapshot, len(ids))
	if vals, err := s.cache.MGet(ctx, keys...).Result(); err == nil {
		for i, v := range vals {
			str, ok := v.(string)
			if !ok {
				continue
			}
			var snap FollowerSnapshot
			if json.Unmarshal([]byte(str), &snap) == nil {
				cached[ids[i]] = snap
			}
		}
	}

	missing := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := cached[id]; !ok {
			missing = append(missing, id)
		}
	}

	if len(missing) > 0 {
		var users []model.User
		if err := s.db.WithContext(ctx).Where("id IN ?", missing).Find(&users).Error; err != nil {
			return nil, err
		}
		for _, u := range users {
			snap := FollowerSnapshot{ID: u.ID, Username: u.Username, Name: u.Name, AvatarURL: u.AvatarURL}
			cached[u.ID] = snap
			if payload, err := json.Marshal(snap); err == nil {
				_ = s.cache.Set(ctx, userKey(u.ID), payload, s.ttl).Err()
			}
		}
	}

	result := make([]FollowerSnapshot, 0, len(ids))
	for _, id := range ids {
		if snap, ok := cached[id]; ok {
			result = append(result, snap)
		}
	}
	return result, nil
}

func parseIDs(raw []string) []uint {
	out := make([]uint, 0, len(raw))
	for _, s := range raw {
		var id uint
		if _, err := fmt.Sscan(s, &id); err == nil {
			out = append(out, id)
		}
	}
	return out
}
