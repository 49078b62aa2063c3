package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/d60-Lab/snapgram/internal/model"
)

func setupCache(t *testing.T) (*FollowerCache, *gorm.DB, *miniredis.Miniredis) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&model.User{}, &model.Fan{}))

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	return NewFollowerCache(db, rdb, time.Minute), db, mr
}

func seedFollowers(t *testing.T, db *gorm.DB, userID uint, fanIDs ...uint) {
	t.Helper()
	for i, fanID := range fanIDs {
		u := model.User{ID: fanID, Name: "fan", Username: string(rune('a' + i)), Email: string(rune('a'+i)) + "@example.com", Password: "p"}
		require.NoError(t, db.Create(&u).Error)
		require.NoError(t, db.Create(&model.Fan{UserID: userID, FanID: fanID, CreatedAt: time.Now().Add(time.Duration(i) * time.Second)}).Error)
	}
}

func TestFetchFollowers_LoadsAndCaches(t *testing.T) {
	c, db, mr := setupCache(t)
	ctx := context.Background()

	seedFollowers(t, db, 1, 10, 11, 12)

	page, err := c.FetchFollowers(ctx, 1, 1, 10)
	require.NoError(t, err)
	require.Len(t, page, 3)
	require.True(t, mr.Exists("followers:index:1"))

	// 第二次命中缓存：把 fans 表清掉也能读到同样的页
	require.NoError(t, db.Where("1 = 1").Delete(&model.Fan{}).Error)
	page2, err := c.FetchFollowers(ctx, 1, 1, 10)
	require.NoError(t, err)
	require.Equal(t, page, page2)
}

func TestFetchFollowers_Pagination(t *testing.T) {
	c, db, _ := setupCache(t)
	ctx := context.Background()

	seedFollowers(t, db, 1, 10, 11, 12, 13, 14)

	page1, err := c.FetchFollowers(ctx, 1, 1, 2)
	require.NoError(t, err)
	require.Len(t, page1, 2)

	page3, err := c.FetchFollowers(ctx, 1, 3, 2)
	require.NoError(t, err)
	require.Len(t, page3, 1)

	empty, err := c.FetchFollowers(ctx, 1, 4, 2)
	require.NoError(t, err)
	require.Empty(t, empty)
}

func TestInvalidateFollowers_DropsIndex(t *testing.T) {
	c, db, mr := setupCache(t)
	ctx := context.Background()

	seedFollowers(t, db, 1, 10)
	_, err := c.FetchFollowers(ctx, 1, 1, 10)
	require.NoError(t, err)
	require.True(t, mr.Exists("followers:index:1"))

	c.InvalidateFollowers(ctx, 1)
	require.False(t, mr.Exists("followers:index:1"))

	// 失效后重新从 fans 装载，看得到新粉丝
	u := model.User{ID: 20, Name: "late", Username: "late", Email: "late@example.com", Password: "p"}
	require.NoError(t, db.Create(&u).Error)
	require.NoError(t, db.Create(&model.Fan{UserID: 1, FanID: 20}).Error)

	page, err := c.FetchFollowers(ctx, 1, 1, 10)
	require.NoError(t, err)
	require.Len(t, page, 2)
}

func TestFetchFollowers_NoFollowers(t *testing.T) {
	c, _, _ := setupCache(t)

	page, err := c.FetchFollowers(context.Background(), 99, 1, 10)
	require.NoError(t, err)
	require.Empty(t, page)
}
