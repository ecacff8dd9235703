// Package jwt 签发和校验访问令牌
//
// 本系统不管理账号，令牌由运维通过cmd/tokengen签发给操作员/集成方，
// 服务端只做校验并从Claims中取出操作人(actor)写入流水和审计。
package jwt

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/xiebiao/smb-erp/pkg/errors"
)

// Issuer 令牌签发方
const Issuer = "smb-erp"

// Manager JWT管理器
type Manager struct {
	secret string
	expire time.Duration
}

// NewManager 创建JWT管理器
func NewManager(secret string, expire time.Duration) *Manager {
	return &Manager{secret: secret, expire: expire}
}

// Claims 自定义JWT Claims
// 嵌入jwt.RegisteredClaims获取标准字段（exp、iat、nbf等）
type Claims struct {
	UserID   uint   `json:"user_id"`
	Email    string `json:"email,omitempty"`
	Nickname string `json:"nickname,omitempty"`
	jwt.RegisteredClaims
}

// Actor 操作人标识：昵称 > 邮箱 > 用户ID
func (c *Claims) Actor() string {
	switch {
	case c.Nickname != "":
		return c.Nickname
	case c.Email != "":
		return c.Email
	default:
		return strconv.FormatUint(uint64(c.UserID), 10)
	}
}

// GenerateToken 签发访问令牌
func (m *Manager) GenerateToken(userID uint, email, nickname string) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(m.expire)

	claims := Claims{
		UserID:   userID,
		Email:    email,
		Nickname: nickname,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    Issuer,
			Subject:   strconv.FormatUint(uint64(userID), 10),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(m.secret))
	if err != nil {
		return "", time.Time{}, apperrors.Wrap(err, "签发Token失败")
	}
	return signed, expiresAt, nil
}

// ParseToken 解析并验证Token
// 校验项：签名算法必须是HMAC、签名、exp/nbf、签发方
func (m *Manager) ParseToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("非法的签名算法: %v", token.Header["alg"])
		}
		return []byte(m.secret), nil
	}, jwt.WithIssuer(Issuer))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperrors.ErrTokenExpired
		}
		return nil, apperrors.ErrInvalidToken
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}
	return nil, apperrors.ErrInvalidToken
}
