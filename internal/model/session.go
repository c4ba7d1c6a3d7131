package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ==================== 会话状态常量 ====================

const (
	SessionStatusActive  = "active"  // 有效
	SessionStatusExpired = "expired" // refresh token 已失效，需重新登录
)

// 用户角色（来自市场服务端）
const (
	UserRoleBuyer        = "buyer"
	UserRoleSeller       = "seller"
	UserRoleProfessional = "professional"
)

// ==================== 数据库模型 ====================

// UserSession 登录会话
// 浏览器端的 cookie 令牌仓库在这里落成显式的会话记录：
// 每次登录生成一条，持有 access/refresh token，由保活任务周期刷新
type UserSession struct {
	ID        string `gorm:"primaryKey;size:64"` // 会话 ID (uuid)，下发给前端
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`

	// 用户身份快照
	UserID   string `gorm:"size:64;index"`
	Email    string `gorm:"size:255"`
	Username string `gorm:"size:150"`
	Role     string `gorm:"size:20"` // buyer / seller / professional

	// 用户完整资料（登录响应原样存档，/session/me 直接回放）
	Profile datatypes.JSON `gorm:"type:jsonb"`

	// 令牌
	AccessToken     string    `gorm:"size:2048"`
	RefreshToken    string    `gorm:"size:2048"`
	AccessExpiresAt time.Time `gorm:"index"` // 从 JWT exp 解出，保活任务据此筛选

	Status string `gorm:"size:20;index;default:'active'"`
}

func (*UserSession) TableName() string {
	return "user_sessions"
}

// IsSeller 卖家视角（professional 同样可卖）
func (s *UserSession) IsSeller() bool {
	return s.Role == UserRoleSeller || s.Role == UserRoleProfessional
}

// ViewRole 订单页使用的视角角色
func (s *UserSession) ViewRole(asSeller bool) Role {
	if asSeller {
		return RoleSeller
	}
	return RoleBuyer
}

// NearExpiry access token 是否临近过期
func (s *UserSession) NearExpiry(within time.Duration) bool {
	if s.AccessExpiresAt.IsZero() {
		return true
	}
	return time.Until(s.AccessExpiresAt) < within
}
