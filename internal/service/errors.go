package service

import "errors"

var (
	// ErrFollowSelf 自己关注自己，不允许落库
	ErrFollowSelf = errors.New("cannot follow self")
	// ErrInvalidStatus 非法的目标状态
	ErrInvalidStatus = errors.New("invalid follow status")
	// ErrUnauthenticated 令牌缺失/无效/过期，需要重新登录
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrInvalidCredentials 登录凭证不匹配
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserExists 注册冲突
	ErrUserExists = errors.New("user already exists")
	// ErrNotFound 目标不存在
	ErrNotFound = errors.New("not found")
)
