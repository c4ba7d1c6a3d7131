package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"vyzio_web_v1_202608/internal/model"
	"vyzio_web_v1_202608/internal/repository"
	"vyzio_web_v1_202608/pkg/vyzio"
)

// ==================== 依赖接口 ====================

// AuthAPI 市场鉴权接口
type AuthAPI interface {
	Login(ctx context.Context, email, password string) (*vyzio.LoginResult, error)
	Logout(ctx context.Context, sess *model.UserSession) error
	Me(ctx context.Context, sess *model.UserSession) (json.RawMessage, error)
	RefreshSession(ctx context.Context, sess *model.UserSession) error
}

// ==================== SessionSink 适配 ====================

// sessionSink 把客户端的令牌回写挂到会话仓库上
type sessionSink struct {
	repo repository.SessionRepository
}

// NewSessionSink 创建令牌回写适配器（供 vyzio.Client 使用）
func NewSessionSink(repo repository.SessionRepository) vyzio.SessionSink {
	return &sessionSink{repo: repo}
}

func (s *sessionSink) SaveTokens(ctx context.Context, sess *model.UserSession) error {
	return s.repo.UpdateTokens(ctx, sess)
}

func (s *sessionSink) MarkExpired(ctx context.Context, sess *model.UserSession) error {
	sess.Status = model.SessionStatusExpired
	return s.repo.MarkExpired(ctx, sess.ID)
}

// ==================== SessionService ====================

// SessionService 会话服务
// 浏览器端隐式的全局令牌仓库在这里收敛为显式的登录/登出生命周期，
// 所有页面逻辑通过注入的会话访问令牌，不碰全局量
type SessionService struct {
	repo repository.SessionRepository
	api  AuthAPI
}

// NewSessionService 创建会话服务
func NewSessionService(repo repository.SessionRepository, api AuthAPI) *SessionService {
	return &SessionService{repo: repo, api: api}
}

// Login 密码登录，成功后落一条新会话
func (s *SessionService) Login(ctx context.Context, email, password string) (*model.UserSession, error) {
	result, err := s.api.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}

	sess := &model.UserSession{
		ID:              uuid.NewString(),
		UserID:          result.User.ID,
		Email:           result.User.Email,
		Username:        result.User.Username,
		Role:            result.User.Role,
		Profile:         []byte(result.Profile),
		AccessToken:     result.Access,
		RefreshToken:    result.Refresh,
		AccessExpiresAt: vyzio.TokenExpiry(result.Access),
		Status:          model.SessionStatusActive,
	}

	if err := s.repo.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("会话创建失败: %w", err)
	}
	return sess, nil
}

// Current 按会话 ID 取有效会话
func (s *SessionService) Current(ctx context.Context, sessionID string) (*model.UserSession, error) {
	sess, err := s.repo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Status != model.SessionStatusActive {
		return nil, vyzio.ErrSessionExpired
	}
	return sess, nil
}

// Logout 登出：先吊销服务端 refresh token，再销毁本地会话
// 吊销失败不阻断登出，只记日志
func (s *SessionService) Logout(ctx context.Context, sessionID string) error {
	sess, err := s.repo.GetByID(ctx, sessionID)
	if err != nil {
		return err
	}
	if err := s.api.Logout(ctx, sess); err != nil {
		log.Printf("[Session] 服务端令牌吊销失败（继续本地登出）: %v", err)
	}
	return s.repo.Delete(ctx, sessionID)
}

// Me 当前用户资料：优先拉服务端最新值，失败时回放登录时的存档
func (s *SessionService) Me(ctx context.Context, sess *model.UserSession) (json.RawMessage, error) {
	profile, err := s.api.Me(ctx, sess)
	if err == nil {
		return profile, nil
	}
	if len(sess.Profile) > 0 {
		log.Printf("[Session] 拉取用户资料失败，回放存档: %v", err)
		return json.RawMessage(sess.Profile), nil
	}
	return nil, err
}

// Refresh 主动刷新会话令牌（保活任务调用）
func (s *SessionService) Refresh(ctx context.Context, sess *model.UserSession) error {
	return s.api.RefreshSession(ctx, sess)
}

// FindNearExpiry 透出仓库查询给保活任务
func (s *SessionService) FindNearExpiry(ctx context.Context, within time.Duration) ([]model.UserSession, error) {
	return s.repo.FindNearExpiry(ctx, within)
}
