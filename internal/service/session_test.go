package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/snapgram/internal/model"
	"github.com/d60-Lab/snapgram/internal/repository"
	"github.com/d60-Lab/snapgram/internal/token"
)

func newTestCodec(t *testing.T, refreshTTL time.Duration) *token.Codec {
	t.Helper()
	c, err := token.NewCodec(token.Config{
		AccessSecret:  "session-test-access-secret",
		RefreshSecret: "session-test-refresh-secret",
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    refreshTTL,
		Issuer:        "snapgram",
	})
	require.NoError(t, err)
	return c
}

func newSessionService(t *testing.T, refreshTTL time.Duration) (SessionService, repository.UserRepository, *token.Codec) {
	t.Helper()
	db := setupTestDB(t)
	users := repository.NewUserRepository(db)
	codec := newTestCodec(t, refreshTTL)
	return NewSessionService(users, codec), users, codec
}

func TestRegister_IssuesPairForOnePrincipal(t *testing.T) {
	svc, _, codec := newSessionService(t, 24*time.Hour)
	ctx := context.Background()

	u, pair, err := svc.Register(ctx, "Ann", "ann", "ann@example.com", "correct horse battery")
	require.NoError(t, err)
	require.NotZero(t, u.ID)

	access, err := codec.Decode(pair.Access, token.KindAccess)
	require.NoError(t, err)
	refresh, err := codec.Decode(pair.Refresh, token.KindRefresh)
	require.NoError(t, err)
	require.Equal(t, access, refresh)
	require.Equal(t, u.ID, access.ID)
	require.Equal(t, token.RoleUser, access.Role)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, _, _ := newSessionService(t, 24*time.Hour)
	ctx := context.Background()

	_, _, err := svc.Register(ctx, "Ann", "ann", "dup@example.com", "password-one")
	require.NoError(t, err)
	_, _, err = svc.Register(ctx, "Bob", "bob", "dup@example.com", "password-two")
	require.ErrorIs(t, err, ErrUserExists)
}

func TestLogin_BothTokensDescribeSamePrincipal(t *testing.T) {
	svc, _, codec := newSessionService(t, 24*time.Hour)
	ctx := context.Background()

	reg, _, err := svc.Register(ctx, "Ann", "ann", "ann@example.com", "correct horse battery")
	require.NoError(t, err)

	u, pair, err := svc.Login(ctx, "ann@example.com", "correct horse battery")
	require.NoError(t, err)
	require.Equal(t, reg.ID, u.ID)

	access, err := codec.Decode(pair.Access, token.KindAccess)
	require.NoError(t, err)
	refresh, err := codec.Decode(pair.Refresh, token.KindRefresh)
	require.NoError(t, err)
	require.Equal(t, access, refresh)
	require.Equal(t, u.ID, access.ID)
}

func TestLogin_BadCredentials(t *testing.T) {
	svc, _, _ := newSessionService(t, 24*time.Hour)
	ctx := context.Background()

	_, _, err := svc.Register(ctx, "Ann", "ann", "ann@example.com", "correct horse battery")
	require.NoError(t, err)

	_, _, err = svc.Login(ctx, "ann@example.com", "wrong password")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = svc.Login(ctx, "ghost@example.com", "whatever")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRefresh_RotatesPair(t *testing.T) {
	svc, _, codec := newSessionService(t, 24*time.Hour)
	ctx := context.Background()

	u, pair, err := svc.Register(ctx, "Ann", "ann", "ann@example.com", "correct horse battery")
	require.NoError(t, err)

	rotated, err := svc.Refresh(ctx, pair.Refresh)
	require.NoError(t, err)

	p, err := codec.Decode(rotated.Access, token.KindAccess)
	require.NoError(t, err)
	require.Equal(t, u.ID, p.ID)

	// 无状态取舍：轮转不吊销旧 refresh，它到自然过期前仍然可用
	again, err := svc.Refresh(ctx, pair.Refresh)
	require.NoError(t, err)
	require.NotNil(t, again)
}

func TestRefresh_ExpiredToken(t *testing.T) {
	svc, _, _ := newSessionService(t, time.Nanosecond)
	ctx := context.Background()

	_, pair, err := svc.Register(ctx, "Ann", "ann", "ann@example.com", "correct horse battery")
	require.NoError(t, err)

	_, err = svc.Refresh(ctx, pair.Refresh)
	require.ErrorIs(t, err, ErrUnauthenticated)
}

func TestRefresh_GarbageToken(t *testing.T) {
	svc, _, _ := newSessionService(t, 24*time.Hour)

	_, err := svc.Refresh(context.Background(), "not-a-token")
	require.ErrorIs(t, err, ErrUnauthenticated)
}

func TestRefresh_AccessTokenIsNotARefreshToken(t *testing.T) {
	svc, _, _ := newSessionService(t, 24*time.Hour)
	ctx := context.Background()

	_, pair, err := svc.Register(ctx, "Ann", "ann", "ann@example.com", "correct horse battery")
	require.NoError(t, err)

	// access 密钥与 refresh 密钥隔离，拿 access 换新令牌必须失败
	_, err = svc.Refresh(ctx, pair.Access)
	require.ErrorIs(t, err, ErrUnauthenticated)
}

func TestRefresh_DeletedIdentity(t *testing.T) {
	db := setupTestDB(t)
	users := repository.NewUserRepository(db)
	codec := newTestCodec(t, 24*time.Hour)
	svc := NewSessionService(users, codec)
	ctx := context.Background()

	u, pair, err := svc.Register(ctx, "Ann", "ann", "ann@example.com", "correct horse battery")
	require.NoError(t, err)

	require.NoError(t, db.Delete(&model.User{}, u.ID).Error)

	_, err = svc.Refresh(ctx, pair.Refresh)
	require.ErrorIs(t, err, ErrUnauthenticated)
}

// 登出是无状态的：服务端不存令牌，登出只能让客户端丢 cookie。
// 这里固化这个边界：登出流程之后，已签发的令牌在过期前依然解得开。
func TestLogout_DoesNotInvalidateIssuedTokens(t *testing.T) {
	svc, _, codec := newSessionService(t, 24*time.Hour)
	ctx := context.Background()

	u, pair, err := svc.Register(ctx, "Ann", "ann", "ann@example.com", "correct horse battery")
	require.NoError(t, err)

	// 服务端没有任何 logout 状态可变更；两个令牌仍然有效
	p, err := codec.Decode(pair.Access, token.KindAccess)
	require.NoError(t, err)
	require.Equal(t, u.ID, p.ID)

	rotated, err := svc.Refresh(ctx, pair.Refresh)
	require.NoError(t, err)
	require.NotNil(t, rotated)
}
