package humanity

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type Client struct {
	BaseURL string
	Mode    IngestMode
	HTTP    *http.Client
}

func NewClient(baseURL string, mode IngestMode, requestTimeout, dialTimeout time.Duration) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Mode:    mode,
		HTTP: &http.Client{
			Timeout: requestTimeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   dialTimeout,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConns:        100,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
	}
}

// get 请求一个接口并返回响应中的 data 字段
func (c *Client) get(ctx context.Context, endpoint, token string, q url.Values) (json.RawMessage, error) {
	u, err := url.Parse(c.BaseURL + endpoint)
	if err != nil {
		return nil, err
	}
	if q == nil {
		q = url.Values{}
	}
	q.Set("access_token", token)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		// url.Error 中带有完整的 URL（包括令牌），不能直接返回
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return nil, &TransportError{Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &TransportError{Endpoint: endpoint, StatusCode: resp.StatusCode, Body: string(b)}
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, &SchemaError{Endpoint: endpoint, Field: "body"}
	}
	if env.Error != "" {
		return nil, &APIError{Endpoint: endpoint, Status: env.Status, Message: env.Error}
	}
	if env.Data == nil {
		return nil, ErrDataUnavailable
	}

	return env.Data, nil
}
