package router

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/printdesk-next/internal/cache"
	"github.com/printdesk-next/internal/config"
	handlershared "github.com/printdesk-next/internal/http/handlers/shared"
	"github.com/printdesk-next/internal/http/response"
	"github.com/printdesk-next/internal/logger"
	"github.com/printdesk-next/internal/repository"
	"github.com/printdesk-next/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const requestIDKey = "request_id"
const requestIDHeader = "X-Request-ID"

// CORSMiddleware 跨域中间件
func CORSMiddleware(cfg config.CORSConfig) gin.HandlerFunc {
	allowedOrigins := cfg.AllowedOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	allowedMethods := cfg.AllowedMethods
	if len(allowedMethods) == 0 {
		allowedMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	}
	allowedHeaders := cfg.AllowedHeaders
	if len(allowedHeaders) == 0 {
		allowedHeaders = []string{
			"Content-Type",
			"Content-Length",
			"Accept-Encoding",
			"Authorization",
			"Cache-Control",
			"X-Requested-With",
			"X-CSRF-Token",
			requestIDHeader,
		}
	}
	methodsHeader := strings.Join(allowedMethods, ", ")
	headersHeader := strings.Join(allowedHeaders, ", ")

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		allowedOrigin := resolveAllowedOrigin(origin, allowedOrigins, cfg.AllowCredentials)
		if allowedOrigin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", allowedOrigin)
			if allowedOrigin != "*" {
				c.Writer.Header().Add("Vary", "Origin")
			}
		}
		if cfg.AllowCredentials {
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		}
		c.Writer.Header().Set("Access-Control-Allow-Headers", headersHeader)
		c.Writer.Header().Set("Access-Control-Allow-Methods", methodsHeader)
		if cfg.MaxAge > 0 {
			c.Writer.Header().Set("Access-Control-Max-Age", strconv.Itoa(cfg.MaxAge))
		}

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

func resolveAllowedOrigin(origin string, allowedOrigins []string, allowCredentials bool) string {
	if len(allowedOrigins) == 0 {
		return ""
	}
	for _, allowed := range allowedOrigins {
		if allowed == "*" {
			if allowCredentials && origin != "" {
				return origin
			}
			return "*"
		}
	}
	if origin == "" {
		return ""
	}
	for _, allowed := range allowedOrigins {
		if strings.EqualFold(allowed, origin) {
			return origin
		}
	}
	return ""
}

// RequestIDMiddleware 请求 ID 中间件
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(requestIDKey, requestID)
		c.Writer.Header().Set(requestIDHeader, requestID)
		c.Next()
	}
}

// LoggerMiddleware 结构化请求日志中间件
func LoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.L()
	}
	sugar := logger.Sugar()
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log := sugar.With(
			"request_id", getRequestID(c),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		)
		if len(c.Errors) > 0 {
			log.Errorw("request", "errors", c.Errors.String())
			return
		}
		log.Infow("request")
	}
}

func getRequestID(c *gin.Context) string {
	value, ok := c.Get(requestIDKey)
	if !ok {
		return ""
	}
	if requestID, ok := value.(string); ok {
		return requestID
	}
	return ""
}

// AccessClaims 访问令牌声明
type AccessClaims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// IssueAccessToken 签发访问令牌
func IssueAccessToken(secretKey, issuer, userID string, ttl time.Duration) (string, error) {
	if secretKey == "" {
		return "", errors.New("jwt secret is empty")
	}
	now := time.Now()
	claims := AccessClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secretKey))
}

// JWTAuthMiddleware JWT 鉴权中间件：解析 user_id 后按档案解析租户与角色
func JWTAuthMiddleware(cfg config.JWTConfig, profileRepo repository.ProfileRepository) gin.HandlerFunc {
	parserOptions := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if cfg.Issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(cfg.Issuer))
	}
	parser := jwt.NewParser(parserOptions...)

	return func(c *gin.Context) {
		if cfg.SecretKey == "" {
			logger.Errorw("auth_jwt_secret_missing")
			response.Unauthorized(c, "jwt secret is not configured")
			c.Abort()
			return
		}
		if profileRepo == nil {
			response.Unauthorized(c, "token invalid")
			c.Abort()
			return
		}
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, "authorization header missing")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if !(len(parts) == 2 && parts[0] == "Bearer") {
			response.Unauthorized(c, "authorization header invalid")
			c.Abort()
			return
		}

		claims := &AccessClaims{}
		token, err := parser.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
			return []byte(cfg.SecretKey), nil
		})
		userID := strings.TrimSpace(claims.UserID)
		if err != nil || !token.Valid || userID == "" {
			response.Unauthorized(c, "token invalid")
			c.Abort()
			return
		}

		state, err := resolveProfileState(c.Request.Context(), profileRepo, userID)
		if err != nil {
			logger.Errorw("auth_profile_lookup_failed", "user_id", userID, "error", err)
			response.Error(c, response.CodeInternal, "profile lookup failed")
			c.Abort()
			return
		}
		if state == nil {
			response.Unauthorized(c, "profile not found")
			c.Abort()
			return
		}
		if !state.IsActive {
			response.Unauthorized(c, "profile disabled")
			c.Abort()
			return
		}

		actor := service.Actor{UserID: state.UserID, CompanyID: state.CompanyID, Role: state.Role}
		if err := actor.Validate(); err != nil {
			logger.Warnw("auth_profile_invalid", "user_id", userID, "role", state.Role, "company_id", state.CompanyID)
			response.Unauthorized(c, "profile invalid")
			c.Abort()
			return
		}
		c.Set(handlershared.ActorContextKey, actor)
		c.Set("user_id", actor.UserID)
		c.Next()
	}
}

// resolveProfileState 先读缓存，未命中时查库并回填
func resolveProfileState(ctx context.Context, profileRepo repository.ProfileRepository, userID string) (*cache.ProfileState, error) {
	if cached, hit, err := cache.GetProfileState(ctx, userID); err == nil && hit && cached != nil {
		return cached, nil
	}
	profile, err := profileRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, nil
	}
	state := &cache.ProfileState{
		UserID:    profile.UserID,
		CompanyID: profile.CompanyID,
		Role:      profile.Role,
		IsActive:  profile.IsActive,
	}
	if err := cache.SetProfileState(ctx, state); err != nil {
		logger.Warnw("auth_profile_cache_set_failed", "user_id", userID, "error", err)
	}
	return state, nil
}

// KeyByActor 使用操作人作为限流 key，未鉴权时回退到 IP
func KeyByActor(c *gin.Context) string {
	if value, ok := c.Get(handlershared.ActorContextKey); ok {
		if actor, ok := value.(service.Actor); ok && actor.UserID != "" {
			return actor.UserID
		}
	}
	return c.ClientIP()
}
