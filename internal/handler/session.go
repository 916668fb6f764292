package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const sessionCookieName = "__staff_movement_token"

type SessionClaims struct {
	jwt.RegisteredClaims
}

func sessionRedisKey(sessionID string) string {
	return fmt.Sprintf("session_%s_access_token", sessionID)
}

func (h *Handler) sessionCookie(value string, expiration time.Time) *http.Cookie {
	cookie := &http.Cookie{
		Name:     sessionCookieName,
		Value:    value,
		Expires:  expiration,
		Path:     "/",
		HttpOnly: true,
		Secure:   false,
	}

	if h.config.Environment == "production" {
		cookie.Secure = true
		cookie.SameSite = http.SameSiteStrictMode
	}

	return cookie
}

func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AccessToken string `json:"accessToken" validate:"required"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	req.AccessToken = strings.TrimSpace(req.AccessToken)
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	// 访问令牌保存在 redis 中，客户端只拿到会话 ID
	sessionID := uuid.NewString()

	ctx, cancel := context.WithTimeout(r.Context(), time.Duration(h.config.Redis.OperationExpiration)*time.Second)
	defer cancel()

	if err := h.redisClient.Set(ctx, sessionRedisKey(sessionID), req.AccessToken, time.Duration(h.config.Session.Expiration)*time.Second).Err(); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	// 生成 JWT
	expiration := time.Now().Add(time.Duration(h.config.JWT.Expiration) * time.Hour)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiration),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
			Subject:   sessionID,
		},
	})
	ss, err := token.SignedString([]byte(h.config.JWT.Secret))
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	http.SetCookie(w, h.sessionCookie(ss, expiration))

	h.successResponse(w, r, "访问令牌已保存", map[string]any{
		"variant": h.reports.Variant(),
	})
}

func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID, err := h.parseSessionCookie(r)
	if err == nil {
		ctx, cancel := context.WithTimeout(r.Context(), time.Duration(h.config.Redis.OperationExpiration)*time.Second)
		defer cancel()

		if err := h.redisClient.Del(ctx, sessionRedisKey(sessionID)).Err(); err != nil {
			h.internalServerError(w, r, err)
			return
		}
		if h.reportCache != nil {
			if err := h.reportCache.Invalidate(ctx, sessionID); err != nil {
				slog.Warn("清除报表缓存失败", "session", sessionID, "error", err)
			}
		}
	} else if !errors.Is(err, http.ErrNoCookie) {
		slog.Debug("登出时令牌无效", "error", err)
	}

	http.SetCookie(w, h.sessionCookie("", time.Now().Add(-time.Hour)))

	h.successResponse(w, r, "已退出", nil)
}
