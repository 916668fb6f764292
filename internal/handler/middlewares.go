package handler

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/sysu-ecnc-dev/staff-movement/backend/internal/filter"
	"github.com/sysu-ecnc-dev/staff-movement/backend/internal/utils"
)

type ResponseWriter struct {
	http.ResponseWriter
	StatusCode int
}

func (rw *ResponseWriter) WriteHeader(statusCode int) {
	rw.StatusCode = statusCode
	rw.ResponseWriter.WriteHeader(statusCode)
}

func (h *Handler) logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &ResponseWriter{ResponseWriter: w}
		next.ServeHTTP(rw, r)
		duration := time.Since(start)
		// 查询参数中不含访问令牌，只记录路径
		slog.Info("已处理请求", "status", rw.StatusCode, "ip", r.RemoteAddr, "method", r.Method, "path", r.URL.Path, "duration", duration)
	})
}

func (h *Handler) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				h.internalServerError(w, r, fmt.Errorf("panic: %v", err))
				stackTrace := string(debug.Stack())
				fmt.Print(stackTrace) // 这里如果用 slog 的话会很乱
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// parseSessionCookie 返回 cookie 中 JWT 的 subject，即会话 ID
func (h *Handler) parseSessionCookie(r *http.Request) (string, error) {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		return "", err
	}

	claims := &SessionClaims{}
	if _, err := jwt.ParseWithClaims(cookie.Value, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(h.config.JWT.Secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})); err != nil {
		return "", err
	}

	return claims.Subject, nil
}

func (h *Handler) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := h.parseSessionCookie(r)
		if err != nil {
			switch {
			case errors.Is(err, http.ErrNoCookie):
				h.errorResponse(w, r, "请先输入访问令牌")
			default:
				h.errorResponse(w, r, "无效的令牌")
			}
			return
		}

		// 访问令牌只保存在 redis 中
		ctx, cancel := context.WithTimeout(r.Context(), time.Duration(h.config.Redis.OperationExpiration)*time.Second)
		defer cancel()

		accessToken, err := h.redisClient.Get(ctx, sessionRedisKey(sessionID)).Result()
		if err != nil {
			switch {
			case errors.Is(err, redis.Nil):
				h.errorResponse(w, r, "会话已过期，请重新输入访问令牌")
			default:
				h.internalServerError(w, r, err)
			}
			return
		}

		ctx = context.WithValue(r.Context(), SessionCtxKey, sessionID)
		ctx = context.WithValue(ctx, AccessTokenCtxKey, accessToken)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// reportQuery 从查询参数中解析日期范围和筛选条件
func (h *Handler) reportQuery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		req := struct {
			StartDate string `validate:"required,datetime=2006-01-02"`
			EndDate   string `validate:"required,datetime=2006-01-02"`
		}{
			StartDate: query.Get("start_date"),
			EndDate:   query.Get("end_date"),
		}
		if err := h.validate.Struct(req); err != nil {
			h.badRequest(w, r, err)
			return
		}

		dr, err := utils.ParseDateRange(req.StartDate, req.EndDate)
		if err != nil {
			h.badRequest(w, r, err)
			return
		}
		if err := utils.ValidateDateRange(dr, h.config.Report.MaxRangeDays); err != nil {
			h.badRequest(w, r, err)
			return
		}

		ctx := context.WithValue(r.Context(), DateRangeCtx, dr)
		ctx = context.WithValue(ctx, CriteriaCtx, filter.FromValues(query))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) reportRun(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		runIDParam := chi.URLParam(r, "id")
		runID, err := strconv.ParseInt(runIDParam, 10, 64)
		if err != nil {
			h.errorResponse(w, r, "报表记录ID无效")
			return
		}

		run, err := h.repository.GetReportRunByID(runID)
		if err != nil {
			switch {
			case errors.Is(err, sql.ErrNoRows):
				h.errorResponse(w, r, "报表记录不存在")
			default:
				h.internalServerError(w, r, err)
			}
			return
		}

		ctx := context.WithValue(r.Context(), ReportRunCtx, run)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
