package vyzio

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"

	"vyzio_web_v1_202608/internal/model"
)

// ==================== 登录 ====================

// UserInfo 登录用户概要
type UserInfo struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// LoginResult 登录结果
type LoginResult struct {
	Access  string
	Refresh string
	User    UserInfo
	Profile json.RawMessage // 用户完整资料原文，存档到会话
}

// loginResp 兼容两种返回形态：tokens 嵌套 或 access/refresh 平铺
type loginResp struct {
	User   json.RawMessage `json:"user"`
	Tokens struct {
		Access  string `json:"access"`
		Refresh string `json:"refresh"`
	} `json:"tokens"`
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// Login 密码登录，换取令牌对
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{"email": email, "password": password}).
		Post("/auth/login/")
	if err != nil {
		return nil, fmt.Errorf("登录请求失败: %w", err)
	}

	var body loginResp
	if err := decode(resp, &body); err != nil {
		return nil, err
	}

	result := &LoginResult{
		Access:  body.Tokens.Access,
		Refresh: body.Tokens.Refresh,
		Profile: body.User,
	}
	if result.Access == "" {
		result.Access = body.Access
		result.Refresh = body.Refresh
	}
	if result.Access == "" {
		return nil, fmt.Errorf("登录响应缺少 access token")
	}
	if len(body.User) > 0 {
		if err := json.Unmarshal(body.User, &result.User); err != nil {
			return nil, fmt.Errorf("登录用户信息解析失败: %w", err)
		}
	}
	return result, nil
}

// Logout 通知服务端吊销 refresh token
// 即便失败，本地会话照样销毁，所以错误只上抛给调用方记日志
func (c *Client) Logout(ctx context.Context, sess *model.UserSession) error {
	access, refresh := c.tokenSnapshot(sess)
	resp, err := c.send(ctx, access, http.MethodPost, "/auth/logout/", func(r *resty.Request) *resty.Request {
		return r.SetBody(map[string]string{"refresh": refresh})
	})
	if err != nil {
		return err
	}
	return decode(resp, nil)
}

// Me 拉取当前用户资料
func (c *Client) Me(ctx context.Context, sess *model.UserSession) (json.RawMessage, error) {
	resp, err := c.do(ctx, sess, http.MethodGet, "/auth/me/", nil)
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, parseAPIError(resp)
	}
	return json.RawMessage(resp.Body()), nil
}
