package middleware

import (
	"errors"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/d60-Lab/fanout-timeline/pkg/response"
)

const viewerKey = "viewer_id"

// Claims 访问令牌；由外部身份服务签发，这里只校验
type Claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// RequireViewer 要求合法 bearer token，并把 user_id 放入上下文
func RequireViewer(secret string) gin.HandlerFunc {
	key := []byte(secret)
	return func(c *gin.Context) {
		token := bearerFromHeader(c.GetHeader("Authorization"))
		if token == "" {
			response.Unauthorized(c, "missing bearer token")
			return
		}
		claims, err := parseClaims(token, key)
		if err != nil {
			response.Unauthorized(c, err.Error())
			return
		}
		c.Set(viewerKey, claims.UserID)
		c.Next()
	}
}

// OptionalViewer 有 token 时解析，没有时匿名访问；token 非法仍然拒绝
func OptionalViewer(secret string) gin.HandlerFunc {
	key := []byte(secret)
	return func(c *gin.Context) {
		token := bearerFromHeader(c.GetHeader("Authorization"))
		if token == "" {
			c.Next()
			return
		}
		claims, err := parseClaims(token, key)
		if err != nil {
			response.Unauthorized(c, err.Error())
			return
		}
		c.Set(viewerKey, claims.UserID)
		c.Next()
	}
}

// ViewerID 当前请求的用户；匿名时为空串
func ViewerID(c *gin.Context) string {
	return c.GetString(viewerKey)
}

// IssueToken 签发 HS256 token（测试与压测工具使用）
func IssueToken(secret, userID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func parseClaims(token string, key []byte) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(_ *jwt.Token) (interface{}, error) {
		return key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.UserID == "" {
		return nil, errors.New("token invalid")
	}
	return claims, nil
}

func bearerFromHeader(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
