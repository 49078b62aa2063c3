package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/d60-Lab/snapgram/internal/model"
	"github.com/d60-Lab/snapgram/internal/repository"
	"github.com/d60-Lab/snapgram/internal/token"
	"github.com/d60-Lab/snapgram/pkg/logger"
)

// TokenPair 一次签发的 access/refresh 令牌对，二者描述同一主体
type TokenPair struct {
	Access  string `json:"access_token"`
	Refresh string `json:"refresh_token"`
}

// SessionService 会话生命周期：登录/注册时签发令牌对，refresh 时轮转。
// 令牌无状态，服务端不存令牌：logout 只能让客户端丢弃 cookie，
// 已签发的令牌在自然过期前依然可验，这是刻意保留的取舍。
type SessionService interface {
	Register(ctx context.Context, name, username, email, password string) (*model.User, *TokenPair, error)
	Login(ctx context.Context, email, password string) (*model.User, *TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
}

type sessionService struct {
	users repository.UserRepository
	codec *token.Codec
}

func NewSessionService(users repository.UserRepository, codec *token.Codec) SessionService {
	return &sessionService{users: users, codec: codec}
}

func (s *sessionService) Register(ctx context.Context, name, username, email, password string) (*model.User, *TokenPair, error) {
	existing, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, nil, err
	}
	if existing != nil {
		return nil, nil, ErrUserExists
	}

	u := &model.User{Name: name, Username: username, Email: email, Role: model.RoleUser}
	if err := s.users.Create(ctx, u, password); err != nil {
		if errors.Is(err, repository.ErrDuplicateUser) {
			return nil, nil, ErrUserExists
		}
		return nil, nil, err
	}

	pair, err := s.mintPair(principalOf(u))
	if err != nil {
		return nil, nil, err
	}
	return u, pair, nil
}

func (s *sessionService) Login(ctx context.Context, email, password string) (*model.User, *TokenPair, error) {
	u, err := s.users.FindByCredentials(ctx, email, password)
	if err != nil {
		return nil, nil, err
	}
	if u == nil {
		return nil, nil, ErrInvalidCredentials
	}

	// 两个令牌从同一次解析出的主体签发，杜绝两次查询之间的身份错位
	pair, err := s.mintPair(principalOf(u))
	if err != nil {
		return nil, nil, err
	}
	return u, pair, nil
}

// Refresh 轮转令牌对：签发新 access + 新 refresh。
// 旧 refresh 不做服务端吊销，留到自然过期，见包注释。
func (s *sessionService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	p, err := s.codec.Decode(refreshToken, token.KindRefresh)
	if err != nil {
		logger.Warn("refresh token rejected", zap.Error(err))
		return nil, ErrUnauthenticated
	}

	// 身份已注销则不再续签
	u, err := s.users.FindByID(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUnauthenticated
	}

	return s.mintPair(principalOf(u))
}

func (s *sessionService) mintPair(p token.Principal) (*TokenPair, error) {
	access, err := s.codec.Encode(p, token.KindAccess)
	if err != nil {
		return nil, err
	}
	refresh, err := s.codec.Encode(p, token.KindRefresh)
	if err != nil {
		return nil, err
	}
	return &TokenPair{Access: access, Refresh: refresh}, nil
}

func principalOf(u *model.User) token.Principal {
	role := token.RoleUser
	if u.Role == model.RoleAdmin {
		role = token.RoleAdmin
	}
	return token.Principal{ID: u.ID, Role: role}
}
