package vyzio

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/go-resty/resty/v2"

	"vyzio_web_v1_202608/internal/model"
	"vyzio_web_v1_202608/pkg/utils"
)

// ==================== 错误定义 ====================

// ErrSessionExpired refresh token 已失效，会话必须重新登录
var ErrSessionExpired = errors.New("会话已过期，请重新登录")

// APIError 市场服务端返回的业务错误
// Detail 尽量取服务端原文（detail/message/error 字段），给前端原样展示
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("服务端返回 %d", e.StatusCode)
}

// parseAPIError 从响应体提取服务端错误信息
func parseAPIError(resp *resty.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode()}

	var body map[string]json.RawMessage
	if err := json.Unmarshal(resp.Body(), &body); err == nil {
		// DRF 的错误字段优先级：detail > message > error
		for _, key := range []string{"detail", "message", "error"} {
			var msg string
			if raw, ok := body[key]; ok && json.Unmarshal(raw, &msg) == nil && msg != "" {
				apiErr.Detail = msg
				return apiErr
			}
		}
		// 字段级校验错误：原样带回整个 payload
		if len(body) > 0 {
			apiErr.Detail = string(resp.Body())
		}
	}
	return apiErr
}

// ==================== 会话回写接口 ====================

// SessionSink 令牌刷新后的回写出口（由 service 层实现）
type SessionSink interface {
	// SaveTokens 刷新成功，持久化 sess 上更新后的令牌
	SaveTokens(ctx context.Context, sess *model.UserSession) error

	// MarkExpired 刷新失败，会话作废（强制登出）
	MarkExpired(ctx context.Context, sess *model.UserSession) error
}

// ==================== 客户端 ====================

// Client 市场 API 客户端
// 统一负责：挂 Bearer 令牌、401 时刷新一次并重放原请求、失败则强制登出
type Client struct {
	http *resty.Client
	sink SessionSink

	// 刷新互斥：同一进程内不允许并发刷新同一批令牌
	refreshMu sync.Mutex
}

// NewClient 创建客户端
func NewClient(baseURL string, debug bool, sink SessionSink) *Client {
	return &Client{
		http: utils.NewAPIClient(baseURL, debug),
		sink: sink,
	}
}

// tokenSnapshot 在刷新锁下读取令牌快照
// 会话指针可能被多个并发请求共享，令牌的读写都必须过同一把锁
func (c *Client) tokenSnapshot(sess *model.UserSession) (access, refresh string) {
	if sess == nil {
		return "", ""
	}
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()
	return sess.AccessToken, sess.RefreshToken
}

// send 发送一次请求
func (c *Client) send(ctx context.Context, accessToken, method, path string, build func(r *resty.Request) *resty.Request) (*resty.Response, error) {
	r := c.http.R().SetContext(ctx)
	if accessToken != "" {
		r.SetAuthToken(accessToken)
	}
	if build != nil {
		r = build(r)
	}
	return r.Execute(method, path)
}

// do 发送请求并处理 401：刷新一次令牌后重放，只重放这一次
func (c *Client) do(ctx context.Context, sess *model.UserSession, method, path string, build func(r *resty.Request) *resty.Request) (*resty.Response, error) {
	access, refresh := c.tokenSnapshot(sess)

	resp, err := c.send(ctx, access, method, path, build)
	if err != nil {
		return nil, fmt.Errorf("请求 %s %s 失败: %w", method, path, err)
	}

	if resp.StatusCode() == http.StatusUnauthorized && sess != nil && refresh != "" {
		if err := c.refreshFrom(ctx, sess, access); err != nil {
			return nil, err
		}
		access, _ = c.tokenSnapshot(sess)
		resp, err = c.send(ctx, access, method, path, build)
		if err != nil {
			return nil, fmt.Errorf("重放 %s %s 失败: %w", method, path, err)
		}
	}

	return resp, nil
}

// decode 校验状态码并反序列化响应体
func decode(resp *resty.Response, out interface{}) error {
	if resp.IsError() {
		return parseAPIError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("响应解析失败: %w", err)
	}
	return nil
}

// ==================== 令牌刷新 ====================

// refreshResp 刷新响应；服务端会轮换 refresh token
type refreshResp struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// RefreshSession 用 refresh token 换新令牌并回写会话
// 失败即作废会话并返回 ErrSessionExpired
func (c *Client) RefreshSession(ctx context.Context, sess *model.UserSession) error {
	access, _ := c.tokenSnapshot(sess)
	return c.refreshFrom(ctx, sess, access)
}

// refreshFrom 以调用方收到 401 时看到的 access token 为基准刷新
// 拿到锁后令牌已变说明别的请求刚刷过，直接复用新令牌，不再刷一次
func (c *Client) refreshFrom(ctx context.Context, sess *model.UserSession, seenAccess string) error {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	if sess.AccessToken != seenAccess {
		return nil
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{"refresh": sess.RefreshToken}).
		Post("/auth/refresh/")
	if err != nil {
		return fmt.Errorf("刷新令牌请求失败: %w", err)
	}

	if resp.IsError() {
		// refresh token 被拒，会话不可恢复
		if c.sink != nil {
			if err := c.sink.MarkExpired(ctx, sess); err != nil {
				return fmt.Errorf("会话作废失败: %w", err)
			}
		}
		return ErrSessionExpired
	}

	var tokens refreshResp
	if err := json.Unmarshal(resp.Body(), &tokens); err != nil || tokens.Access == "" {
		return fmt.Errorf("刷新响应解析失败: %v", err)
	}

	sess.AccessToken = tokens.Access
	if tokens.Refresh != "" {
		sess.RefreshToken = tokens.Refresh
	}
	sess.AccessExpiresAt = TokenExpiry(tokens.Access)

	if c.sink != nil {
		if err := c.sink.SaveTokens(ctx, sess); err != nil {
			return fmt.Errorf("令牌持久化失败: %w", err)
		}
	}
	return nil
}
