package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "github.com/xiebiao/smb-erp/pkg/errors"
	"github.com/xiebiao/smb-erp/pkg/jwt"
	"github.com/xiebiao/smb-erp/pkg/response"
)

const (
	ctxUserID = "user_id"
	ctxActor  = "actor"
)

// AuthMiddleware JWT认证中间件
// 设计说明：
// 1. 从Header提取Bearer Token
// 2. 验证签名、有效期和签发方
// 3. 将用户ID和操作人(actor)注入Context，用例层据此写流水和审计
type AuthMiddleware struct {
	jwtManager *jwt.Manager
}

// NewAuthMiddleware 创建认证中间件
func NewAuthMiddleware(jwtManager *jwt.Manager) *AuthMiddleware {
	return &AuthMiddleware{jwtManager: jwtManager}
}

// RequireAuth 要求登录
// 使用方式：
//
//	v1 := r.Group("/api/v1")
//	v1.Use(auth.RequireAuth())
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		// 格式：Authorization: Bearer <token>
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Error(c, apperrors.ErrUnauthorized)
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			response.ErrorWithCode(c, apperrors.ErrCodeInvalidToken, "Token格式错误")
			c.Abort()
			return
		}

		claims, err := m.jwtManager.ParseToken(parts[1])
		if err != nil {
			response.Error(c, err) // ErrTokenExpired / ErrInvalidToken
			c.Abort()
			return
		}

		c.Set(ctxUserID, claims.UserID)
		c.Set(ctxActor, claims.Actor())
		c.Next()
	}
}

// GetUserID 从Context获取当前用户ID，未认证返回0
func GetUserID(c *gin.Context) uint {
	if v, ok := c.Get(ctxUserID); ok {
		if uid, ok := v.(uint); ok {
			return uid
		}
	}
	return 0
}

// GetActor 当前操作人，写入库存流水的user字段和审计的performed_by
func GetActor(c *gin.Context) string {
	if v, ok := c.Get(ctxActor); ok {
		if actor, ok := v.(string); ok {
			return actor
		}
	}
	return ""
}
