package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// 解码失败的归类结果，调用方用 errors.Is 判断，不会有 panic 穿出本包
var (
	ErrMalformed        = errors.New("token malformed")
	ErrSignatureInvalid = errors.New("token signature invalid")
	ErrExpired          = errors.New("token expired")
	ErrIssuerMismatch   = errors.New("token issuer mismatch")
)

// Role 主体角色
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

func (r Role) valid() bool { return r == RoleUser || r == RoleAdmin }

// Principal 令牌载荷所描述的主体，解码后不可变
type Principal struct {
	ID   uint `json:"id"`
	Role Role `json:"role"`
}

// Kind 令牌种类。access 与 refresh 各自持有独立密钥与 TTL，
// 泄露其一不能伪造另一种。
type Kind int

const (
	KindAccess Kind = iota
	KindRefresh
)

func (k Kind) String() string {
	if k == KindRefresh {
		return "refresh"
	}
	return "access"
}

// Config Codec 配置
type Config struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Issuer        string
}

// Codec 无状态签发/校验器
type Codec struct {
	cfg Config
}

// NewCodec 校验签名配置；密钥缺失属于部署错误，在构造期失败而不是每请求失败
func NewCodec(cfg Config) (*Codec, error) {
	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		return nil, errors.New("token: signing secret not configured")
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("token: ttl must be positive")
	}
	if cfg.Issuer == "" {
		return nil, errors.New("token: issuer not configured")
	}
	return &Codec{cfg: cfg}, nil
}

type claims struct {
	UID  uint `json:"uid"`
	Role Role `json:"role"`
	jwt.RegisteredClaims
}

func (c *Codec) secret(kind Kind) []byte {
	if kind == KindRefresh {
		return []byte(c.cfg.RefreshSecret)
	}
	return []byte(c.cfg.AccessSecret)
}

func (c *Codec) ttl(kind Kind) time.Duration {
	if kind == KindRefresh {
		return c.cfg.RefreshTTL
	}
	return c.cfg.AccessTTL
}

// Encode 将主体签成指定种类的令牌
func (c *Codec) Encode(p Principal, kind Kind) (string, error) {
	if p.ID == 0 {
		return "", fmt.Errorf("token: principal id must be positive")
	}
	if !p.Role.valid() {
		return "", fmt.Errorf("token: unknown role %q", p.Role)
	}
	now := time.Now()
	cl := claims{
		UID:  p.ID,
		Role: p.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl(kind))),
			Issuer:    c.cfg.Issuer,
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, cl).SignedString(c.secret(kind))
	if err != nil {
		return "", fmt.Errorf("token: sign: %w", err)
	}
	return signed, nil
}

// Decode 校验并解出主体。过期按本服务时钟判断，不留宽限窗口。
// 载荷形状不符合 Principal（id 非正、角色未知）一律按 Malformed 拒绝。
func (c *Codec) Decode(tokenStr string, kind Kind) (Principal, error) {
	var cl claims
	_, err := jwt.ParseWithClaims(tokenStr, &cl,
		func(t *jwt.Token) (interface{}, error) {
			return c.secret(kind), nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(c.cfg.Issuer),
		jwt.WithIssuedAt(),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return Principal{}, ErrExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return Principal{}, ErrSignatureInvalid
		case errors.Is(err, jwt.ErrTokenInvalidIssuer):
			return Principal{}, ErrIssuerMismatch
		default:
			return Principal{}, ErrMalformed
		}
	}
	if cl.UID == 0 || !cl.Role.valid() {
		return Principal{}, ErrMalformed
	}
	return Principal{ID: cl.UID, Role: cl.Role}, nil
}

// TTL 暴露对应种类的有效期（写 cookie MaxAge 用）
func (c *Codec) TTL(kind Kind) time.Duration { return c.ttl(kind) }
