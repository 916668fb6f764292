package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/staff-movement/backend/internal/cache"
	"github.com/sysu-ecnc-dev/staff-movement/backend/internal/config"
	"github.com/sysu-ecnc-dev/staff-movement/backend/internal/domain"
	"github.com/sysu-ecnc-dev/staff-movement/backend/internal/pipeline"
)

type publishedMail struct {
	key string
	msg amqp.Publishing
}

type fakePublisher struct {
	published []publishedMail
}

func (p *fakePublisher) PublishWithContext(_ context.Context, _, key string, _, _ bool, msg amqp.Publishing) error {
	p.published = append(p.published, publishedMail{key: key, msg: msg})
	return nil
}

type fakeRunStore struct {
	runs  []*domain.ReportRun
	limit int
}

func (s *fakeRunStore) GetReportRunByID(id int64) (*domain.ReportRun, error) {
	for _, run := range s.runs {
		if run.ID == id {
			return run, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *fakeRunStore) GetRecentReportRuns(limit int) ([]*domain.ReportRun, error) {
	s.limit = limit
	return s.runs, nil
}

type routedHandler struct {
	*Handler
	redis     *miniredis.Miniredis
	publisher *fakePublisher
	runs      *fakeRunStore
	cache     *cache.Memo
	strategy  *fakeStrategy
}

func newRoutedHandler(t *testing.T) *routedHandler {
	t.Helper()

	cfg := &config.Config{}
	cfg.JWT.Secret = "secret"
	cfg.JWT.Expiration = 1
	cfg.Session.Expiration = 3600
	cfg.Redis.OperationExpiration = 5
	cfg.RabbitMQ.Queue = "email_queue"
	cfg.RabbitMQ.PublishTimeout = 5
	cfg.Report.MaxRangeDays = 31
	cfg.Report.RecentRuns = 20

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	rh := &routedHandler{
		redis:     mr,
		publisher: &fakePublisher{},
		runs: &fakeRunStore{runs: []*domain.ReportRun{
			{ID: 1, Variant: domain.VariantReport, RowCount: 3, MovementCount: 1},
		}},
		cache:    cache.NewMemo(),
		strategy: &fakeStrategy{table: sampleTable()},
	}

	h, err := NewHandler(cfg, rh.runs, rh.publisher, rdb, pipeline.NewService(rh.strategy, rh.cache), rh.cache)
	require.NoError(t, err)
	h.RegisterRoutes()
	rh.Handler = h

	return rh
}

func (rh *routedHandler) do(t *testing.T, method, target string, body any, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	if cookie != nil {
		req.AddCookie(cookie)
	}

	rec := httptest.NewRecorder()
	rh.Mux.ServeHTTP(rec, req)
	return rec
}

func (rh *routedHandler) login(t *testing.T) *http.Cookie {
	t.Helper()

	rec := rh.do(t, http.MethodPost, "/session", map[string]string{"accessToken": " upstream-token "}, nil)
	require.True(t, decode(t, rec).Success)

	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionCookieName {
			return c
		}
	}
	t.Fatal("没有返回会话 cookie")
	return nil
}

const juneQuery = "?start_date=2024-01-01&end_date=2024-01-02"

func TestSessionRoundTrip(t *testing.T) {
	rh := newRoutedHandler(t)

	cookie := rh.login(t)
	assert.True(t, cookie.HttpOnly)

	// 浏览器只拿到会话 ID，访问令牌保存在 redis 中
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	sessionID, err := rh.parseSessionCookie(req)
	require.NoError(t, err)
	token, err := rh.redis.Get(sessionRedisKey(sessionID))
	require.NoError(t, err)
	assert.Equal(t, "upstream-token", token)
	assert.NotContains(t, cookie.Value, "upstream-token")

	resp := decode(t, rh.do(t, http.MethodGet, "/reports/movement"+juneQuery, nil, cookie))
	assert.True(t, resp.Success)

	// 登出后会话和缓存都被清除
	require.True(t, decode(t, rh.do(t, http.MethodPost, "/session/logout", nil, cookie)).Success)
	assert.False(t, rh.redis.Exists(sessionRedisKey(sessionID)))
	_, ok, err := rh.cache.Get(context.Background(), sessionID, cache.NewKey(domain.VariantReport, domain.DateRange{
		Start: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
	}, "upstream-token"))
	require.NoError(t, err)
	assert.False(t, ok)

	resp = decode(t, rh.do(t, http.MethodGet, "/reports/movement"+juneQuery, nil, cookie))
	assert.False(t, resp.Success)
	assert.Equal(t, "会话已过期，请重新输入访问令牌", resp.Message)
}

func TestAuthRejectsMissingAndForgedCookies(t *testing.T) {
	rh := newRoutedHandler(t)

	resp := decode(t, rh.do(t, http.MethodGet, "/reports/movement"+juneQuery, nil, nil))
	assert.False(t, resp.Success)
	assert.Equal(t, "请先输入访问令牌", resp.Message)

	resp = decode(t, rh.do(t, http.MethodGet, "/reports/movement"+juneQuery, nil, &http.Cookie{Name: sessionCookieName, Value: "forged"}))
	assert.False(t, resp.Success)
	assert.Equal(t, "无效的令牌", resp.Message)
	assert.Zero(t, rh.strategy.calls)
}

func TestCreateSessionRequiresToken(t *testing.T) {
	rh := newRoutedHandler(t)

	resp := decode(t, rh.do(t, http.MethodPost, "/session", map[string]string{"accessToken": "  "}, nil))
	assert.False(t, resp.Success)
	assert.Empty(t, rh.redis.Keys())
}

func TestEmailMovementReportPublishesFilteredCSV(t *testing.T) {
	rh := newRoutedHandler(t)
	cookie := rh.login(t)

	rec := rh.do(t, http.MethodPost, "/reports/movement/email"+juneQuery+"&employee=Ann", map[string]string{"email": "ops@example.com"}, cookie)
	require.True(t, decode(t, rec).Success)
	require.Len(t, rh.publisher.published, 1)

	published := rh.publisher.published[0]
	assert.Equal(t, "email_queue", published.key)
	assert.Equal(t, amqp.Persistent, published.msg.DeliveryMode)

	var message struct {
		Type string                        `json:"type"`
		To   string                        `json:"to"`
		Data domain.MovementReportMailData `json:"data"`
	}
	require.NoError(t, json.Unmarshal(published.msg.Body, &message))
	assert.Equal(t, domain.MailTypeMovementReport, message.Type)
	assert.Equal(t, "ops@example.com", message.To)
	assert.Equal(t, "2024-01-01", message.Data.StartDate)
	assert.Equal(t, 2, message.Data.RowCount)
	assert.Equal(t, 1, message.Data.MovementCount)
	assert.Equal(t, "Staff_Schedules_2024-01-01_to_2024-01-02.csv", message.Data.Filename)
	assert.Contains(t, string(message.Data.Attachment), "Ann")
	assert.NotContains(t, string(message.Data.Attachment), "Bob")
}

func TestEmailMovementReportValidation(t *testing.T) {
	rh := newRoutedHandler(t)
	cookie := rh.login(t)

	resp := decode(t, rh.do(t, http.MethodPost, "/reports/movement/email"+juneQuery, map[string]string{"email": "not-an-email"}, cookie))
	assert.False(t, resp.Success)

	// 筛选后没有数据时不发送
	resp = decode(t, rh.do(t, http.MethodPost, "/reports/movement/email"+juneQuery+"&employee=Nobody", map[string]string{"email": "ops@example.com"}, cookie))
	assert.False(t, resp.Success)
	assert.Empty(t, rh.publisher.published)
}

func TestReportRuns(t *testing.T) {
	rh := newRoutedHandler(t)
	cookie := rh.login(t)

	resp := decode(t, rh.do(t, http.MethodGet, "/reports/runs", nil, cookie))
	require.True(t, resp.Success)
	assert.Equal(t, 20, rh.runs.limit)

	var runs []domain.ReportRun
	require.NoError(t, json.Unmarshal(resp.Data, &runs))
	require.Len(t, runs, 1)
	assert.Equal(t, int32(3), runs[0].RowCount)

	resp = decode(t, rh.do(t, http.MethodGet, "/reports/runs/1", nil, cookie))
	require.True(t, resp.Success)

	resp = decode(t, rh.do(t, http.MethodGet, "/reports/runs/2", nil, cookie))
	assert.False(t, resp.Success)
	assert.Equal(t, "报表记录不存在", resp.Message)

	resp = decode(t, rh.do(t, http.MethodGet, "/reports/runs/abc", nil, cookie))
	assert.False(t, resp.Success)
	assert.Equal(t, "报表记录ID无效", resp.Message)
}
