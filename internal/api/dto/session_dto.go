package dto

import "encoding/json"

// LoginRequest 登录请求
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// SessionResponse 会话信息（不回传令牌）
type SessionResponse struct {
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	Username  string `json:"username"`
	Role      string `json:"role"`
}

// MeResponse 当前用户资料（服务端原样透传）
type MeResponse struct {
	Profile json.RawMessage `json:"profile"`
}
